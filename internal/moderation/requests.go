package moderation

import (
	"context"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// Requests exposes request moderation on top of the chat store, which
// performs the capability check and re-fetches the list afterwards.
type Requests struct {
	store *chat.Store
}

// NewRequests wraps store.
func NewRequests(store *chat.Store) *Requests {
	return &Requests{store: store}
}

func (r *Requests) Accept(ctx context.Context, id domain.ID) error {
	return r.store.UpdateRequestStatus(ctx, id, domain.RequestStatusAccepted)
}

func (r *Requests) Reject(ctx context.Context, id domain.ID) error {
	return r.store.UpdateRequestStatus(ctx, id, domain.RequestStatusRejected)
}

func (r *Requests) Close(ctx context.Context, id domain.ID) error {
	return r.store.UpdateRequestStatus(ctx, id, domain.RequestStatusClosed)
}

func (r *Requests) Delete(ctx context.Context, id domain.ID) error {
	return r.store.DeleteRequest(ctx, id)
}
