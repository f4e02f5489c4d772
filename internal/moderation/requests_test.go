package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// requestTransport implements chat.Transport over an in-memory list.
type requestTransport struct {
	requests []domain.Request
	updates  []domain.RequestStatus
	deleted  []domain.ID
}

func (r *requestTransport) CreateRequest(context.Context, string, string) (*domain.Request, error) {
	return &domain.Request{}, nil
}

func (r *requestTransport) ListRequests(context.Context) ([]domain.Request, error) {
	return append([]domain.Request(nil), r.requests...), nil
}

func (r *requestTransport) ListMessages(context.Context, domain.ID) ([]domain.Message, error) {
	return nil, nil
}

func (r *requestTransport) SendMessage(context.Context, domain.ID, string, domain.MessageType) (*domain.Message, error) {
	return &domain.Message{}, nil
}

func (r *requestTransport) ListNotifications(context.Context) ([]domain.Notification, error) {
	return nil, nil
}

func (r *requestTransport) MarkNotificationRead(context.Context, domain.ID) error {
	return nil
}

func (r *requestTransport) UpdateRequestStatus(_ context.Context, id domain.ID, status domain.RequestStatus) (*domain.Request, error) {
	r.updates = append(r.updates, status)
	for i := range r.requests {
		if r.requests[i].ID == id {
			r.requests[i].Status = status
		}
	}
	return &domain.Request{ID: id, Status: status}, nil
}

func (r *requestTransport) DeleteRequest(_ context.Context, id domain.ID) error {
	r.deleted = append(r.deleted, id)
	kept := r.requests[:0]
	for _, req := range r.requests {
		if req.ID != id {
			kept = append(kept, req)
		}
	}
	r.requests = kept
	return nil
}

func TestRequestsModeration(t *testing.T) {
	rt := &requestTransport{requests: []domain.Request{{ID: "r1", Status: domain.RequestStatusPending}, {ID: "r2"}}}
	store := chat.NewStore(rt, nil, chat.WithIdentity(adminActor))
	defer store.Close()
	mod := NewRequests(store)
	ctx := context.Background()

	require.NoError(t, mod.Accept(ctx, "r1"))
	require.NoError(t, mod.Reject(ctx, "r1"))
	require.NoError(t, mod.Close(ctx, "r1"))
	assert.Equal(t, []domain.RequestStatus{
		domain.RequestStatusAccepted,
		domain.RequestStatusRejected,
		domain.RequestStatusClosed,
	}, rt.updates)

	snap := store.Snapshot()
	got, ok := snap.Request("r1")
	require.True(t, ok)
	assert.Equal(t, domain.RequestStatusClosed, got.Status)

	require.NoError(t, mod.Delete(ctx, "r2"))
	_, ok = store.Snapshot().Request("r2")
	assert.False(t, ok)
}

func TestRequestsModerationForbiddenForUsers(t *testing.T) {
	rt := &requestTransport{}
	store := chat.NewStore(rt, nil, chat.WithIdentity(userActor))
	defer store.Close()
	mod := NewRequests(store)

	assert.ErrorIs(t, mod.Accept(context.Background(), "r1"), chat.ErrForbidden)
	assert.ErrorIs(t, mod.Delete(context.Background(), "r1"), chat.ErrForbidden)
	assert.Empty(t, rt.updates)
	assert.Empty(t, rt.deleted)
}
