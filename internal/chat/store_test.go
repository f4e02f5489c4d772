package chat

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

var (
	user  = domain.Identity{UserID: "u1", Name: "Ada", Role: domain.RoleUser}
	admin = domain.Identity{UserID: "a1", Name: "Grace", Role: domain.RoleAdmin}
)

func newStore(t *testing.T, ft *fakeTransport, identity domain.Identity) *Store {
	t.Helper()
	s := NewStore(ft, nil, WithIdentity(identity), WithTimeout(time.Second))
	t.Cleanup(s.Close)
	return s
}

func requestIDs(reqs []domain.Request) []domain.ID {
	ids := make([]domain.ID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestFetchRequestsLastIssuedWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var n atomic.Int32
	ft := &fakeTransport{listRequests: func(ctx context.Context) ([]domain.Request, error) {
		if n.Add(1) == 1 {
			close(entered)
			<-release
			return []domain.Request{{ID: "old"}}, nil
		}
		return []domain.Request{{ID: "new"}}, nil
	}}
	s := newStore(t, ft, user)

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.FetchRequests(context.Background()) }()
	<-entered

	require.NoError(t, s.FetchRequests(context.Background()))
	close(release)
	require.NoError(t, <-firstDone)

	snap := s.Snapshot()
	assert.Equal(t, Success, snap.Requests.Phase)
	assert.Equal(t, []domain.ID{"new"}, requestIDs(snap.Requests.Data))
}

func TestFetchFailureKeepsLastData(t *testing.T) {
	fail := false
	boom := errors.New("boom")
	ft := &fakeTransport{listRequests: func(context.Context) ([]domain.Request, error) {
		if fail {
			return nil, boom
		}
		return []domain.Request{{ID: "r1"}}, nil
	}}
	s := newStore(t, ft, user)

	require.NoError(t, s.FetchRequests(context.Background()))
	fail = true
	assert.ErrorIs(t, s.FetchRequests(context.Background()), boom)

	snap := s.Snapshot()
	assert.True(t, snap.Requests.Failed())
	assert.ErrorIs(t, snap.Requests.Err, boom)
	assert.Equal(t, []domain.ID{"r1"}, requestIDs(snap.Requests.Data))
}

func TestSelectRequestDiscardsStaleMessages(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	ft := &fakeTransport{listMessages: func(_ context.Context, id domain.ID) ([]domain.Message, error) {
		if id == "r1" {
			close(entered)
			<-release
		}
		return []domain.Message{{ID: domain.ID("m-" + id), RequestID: id}}, nil
	}}
	s := newStore(t, ft, user)

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.SelectRequest(context.Background(), domain.Request{ID: "r1"}) }()
	<-entered

	require.NoError(t, s.SelectRequest(context.Background(), domain.Request{ID: "r2"}))
	close(release)
	require.NoError(t, <-firstDone)

	snap := s.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, domain.ID("r2"), snap.Selected.ID)
	assert.Equal(t, []domain.Message{{ID: "m-r2", RequestID: "r2"}}, snap.Messages.Data)
}

func TestSelectRequestClearsPreviousThread(t *testing.T) {
	block := make(chan struct{})
	ft := &fakeTransport{listMessages: func(_ context.Context, id domain.ID) ([]domain.Message, error) {
		if id == "r2" {
			<-block
		}
		return []domain.Message{{ID: "m1", RequestID: id}}, nil
	}}
	s := newStore(t, ft, user)
	require.NoError(t, s.SelectRequest(context.Background(), domain.Request{ID: "r1"}))

	observed := make(chan Snapshot, 8)
	unsubscribe := s.Subscribe(func() { observed <- s.Snapshot() })
	done := make(chan error, 1)
	go func() { done <- s.SelectRequest(context.Background(), domain.Request{ID: "r2"}) }()

	snap := <-observed
	assert.Equal(t, domain.ID("r2"), snap.Selected.ID)
	assert.True(t, snap.Messages.Loading())
	assert.Empty(t, snap.Messages.Data)

	close(block)
	require.NoError(t, <-done)
	unsubscribe()
}

func TestSendMessage(t *testing.T) {
	t.Run("no selection is a no-op", func(t *testing.T) {
		ft := &fakeTransport{}
		s := newStore(t, ft, user)
		msg, err := s.SendMessage(context.Background(), "hi", "")
		assert.NoError(t, err)
		assert.Nil(t, msg)
		assert.Empty(t, ft.Calls())
	})

	t.Run("blank content", func(t *testing.T) {
		ft := &fakeTransport{}
		s := newStore(t, ft, user)
		require.NoError(t, s.SelectRequest(context.Background(), domain.Request{ID: "r1"}))
		_, err := s.SendMessage(context.Background(), "   ", "")
		assert.ErrorIs(t, err, ErrEmptyContent)
		assert.Zero(t, ft.count("SendMessage:r1"))
	})

	t.Run("appends acknowledged copy", func(t *testing.T) {
		ft := &fakeTransport{sendMessage: func(_ context.Context, id domain.ID, content string) (*domain.Message, error) {
			return &domain.Message{ID: "m9", Content: content}, nil
		}}
		s := newStore(t, ft, user)
		require.NoError(t, s.SelectRequest(context.Background(), domain.Request{ID: "r1"}))

		msg, err := s.SendMessage(context.Background(), "hello", "")
		require.NoError(t, err)
		assert.Equal(t, domain.ID("r1"), msg.RequestID)

		want := []domain.Message{{ID: "m9", RequestID: "r1", Content: "hello"}}
		if diff := cmp.Diff(want, s.Snapshot().Messages.Data); diff != "" {
			t.Errorf("messages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failure leaves thread untouched", func(t *testing.T) {
		boom := errors.New("boom")
		ft := &fakeTransport{sendMessage: func(context.Context, domain.ID, string) (*domain.Message, error) {
			return nil, boom
		}}
		s := newStore(t, ft, user)
		require.NoError(t, s.SelectRequest(context.Background(), domain.Request{ID: "r1"}))
		_, err := s.SendMessage(context.Background(), "hello", "")
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, s.Snapshot().Messages.Data)
	})
}

func TestCreateRequestDoesNotTouchList(t *testing.T) {
	ft := &fakeTransport{}
	s := newStore(t, ft, user)

	_, err := s.CreateRequest(context.Background(), "  ", "desc")
	assert.ErrorIs(t, err, ErrEmptyContent)

	req, err := s.CreateRequest(context.Background(), " Printer ", " jammed ")
	require.NoError(t, err)
	assert.Equal(t, "Printer", req.Title)
	assert.Equal(t, "jammed", req.Description)
	assert.Empty(t, s.Snapshot().Requests.Data)
	assert.Zero(t, ft.count("ListRequests"))
}

func TestMarkNotificationRead(t *testing.T) {
	markErr := error(nil)
	ft := &fakeTransport{
		listNotifications: func(context.Context) ([]domain.Notification, error) {
			return []domain.Notification{{ID: "n1"}, {ID: "n2"}}, nil
		},
		markRead: func(context.Context, domain.ID) error { return markErr },
	}
	s := newStore(t, ft, user)
	require.NoError(t, s.FetchNotifications(context.Background()))
	assert.Equal(t, 2, s.Snapshot().UnreadCount())

	markErr = errors.New("offline")
	assert.Error(t, s.MarkNotificationRead(context.Background(), "n1"))
	assert.Equal(t, 2, s.Snapshot().UnreadCount())

	markErr = nil
	require.NoError(t, s.MarkNotificationRead(context.Background(), "n1"))
	assert.Equal(t, 1, s.Snapshot().UnreadCount())
	assert.True(t, s.Snapshot().Notifications.Data[0].Read)
}

func TestPrivilegedActionsAreGated(t *testing.T) {
	ft := &fakeTransport{}
	s := newStore(t, ft, user)

	assert.ErrorIs(t, s.UpdateRequestStatus(context.Background(), "r1", domain.RequestStatusAccepted), ErrForbidden)
	assert.ErrorIs(t, s.DeleteRequest(context.Background(), "r1"), ErrForbidden)
	assert.Empty(t, ft.Calls())
}

func TestUpdateRequestStatusRefetches(t *testing.T) {
	ft := &fakeTransport{listRequests: func(context.Context) ([]domain.Request, error) {
		return []domain.Request{{ID: "r1", Status: domain.RequestStatusAccepted}}, nil
	}}
	s := newStore(t, ft, admin)

	require.NoError(t, s.UpdateRequestStatus(context.Background(), "r1", domain.RequestStatusAccepted))
	assert.Equal(t, []string{"UpdateRequestStatus:r1:accepted", "ListRequests"}, ft.Calls())
	assert.Equal(t, domain.RequestStatusAccepted, s.Snapshot().Requests.Data[0].Status)
}

func TestDeleteRequestClearsSelection(t *testing.T) {
	ft := &fakeTransport{}
	s := newStore(t, ft, admin)
	require.NoError(t, s.SelectRequest(context.Background(), domain.Request{ID: "r1"}))

	require.NoError(t, s.DeleteRequest(context.Background(), "r1"))
	snap := s.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Equal(t, Idle, snap.Messages.Phase)
}

func TestSnapshotIsACopy(t *testing.T) {
	ft := &fakeTransport{listRequests: func(context.Context) ([]domain.Request, error) {
		return []domain.Request{{ID: "r1", Title: "a"}}, nil
	}}
	s := newStore(t, ft, user)
	require.NoError(t, s.FetchRequests(context.Background()))

	snap := s.Snapshot()
	snap.Requests.Data[0].Title = "mutated"
	assert.Equal(t, "a", s.Snapshot().Requests.Data[0].Title)
}

func TestClosedStore(t *testing.T) {
	defer goleak.VerifyNone(t)

	ft := &fakeTransport{}
	s := NewStore(ft, nil)
	s.StartPolling(time.Millisecond)
	s.Close()
	s.Close()

	assert.ErrorIs(t, s.FetchRequests(context.Background()), ErrClosed)
	assert.ErrorIs(t, s.FetchNotifications(context.Background()), ErrClosed)
}

func TestPollingRefetches(t *testing.T) {
	defer goleak.VerifyNone(t)

	ft := &fakeTransport{}
	s := NewStore(ft, nil)
	s.StartPolling(5 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return ft.count("ListRequests") >= 2 && ft.count("ListNotifications") >= 2
	}, time.Second, 5*time.Millisecond)
	s.Close()
}
