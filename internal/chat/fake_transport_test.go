package chat

import (
	"context"
	"sync"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// fakeTransport answers with the configured hooks and records calls.
type fakeTransport struct {
	mu    sync.Mutex
	calls []string

	listRequests      func(ctx context.Context) ([]domain.Request, error)
	listMessages      func(ctx context.Context, id domain.ID) ([]domain.Message, error)
	sendMessage       func(ctx context.Context, id domain.ID, content string) (*domain.Message, error)
	listNotifications func(ctx context.Context) ([]domain.Notification, error)
	markRead          func(ctx context.Context, id domain.ID) error
	createRequest     func(ctx context.Context, title, description string) (*domain.Request, error)
	updateStatus      func(ctx context.Context, id domain.ID, status domain.RequestStatus) error
	deleteRequest     func(ctx context.Context, id domain.ID) error
}

func (f *fakeTransport) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTransport) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeTransport) CreateRequest(ctx context.Context, title, description string) (*domain.Request, error) {
	f.record("CreateRequest")
	if f.createRequest != nil {
		return f.createRequest(ctx, title, description)
	}
	return &domain.Request{ID: "new", Title: title, Description: description, Status: domain.RequestStatusPending}, nil
}

func (f *fakeTransport) ListRequests(ctx context.Context) ([]domain.Request, error) {
	f.record("ListRequests")
	if f.listRequests != nil {
		return f.listRequests(ctx)
	}
	return []domain.Request{}, nil
}

func (f *fakeTransport) ListMessages(ctx context.Context, id domain.ID) ([]domain.Message, error) {
	f.record("ListMessages:" + id.String())
	if f.listMessages != nil {
		return f.listMessages(ctx, id)
	}
	return []domain.Message{}, nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, id domain.ID, content string, _ domain.MessageType) (*domain.Message, error) {
	f.record("SendMessage:" + id.String())
	if f.sendMessage != nil {
		return f.sendMessage(ctx, id, content)
	}
	return &domain.Message{ID: "m-" + domain.ID(content), RequestID: id, Content: content}, nil
}

func (f *fakeTransport) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	f.record("ListNotifications")
	if f.listNotifications != nil {
		return f.listNotifications(ctx)
	}
	return []domain.Notification{}, nil
}

func (f *fakeTransport) MarkNotificationRead(ctx context.Context, id domain.ID) error {
	f.record("MarkNotificationRead:" + id.String())
	if f.markRead != nil {
		return f.markRead(ctx, id)
	}
	return nil
}

func (f *fakeTransport) UpdateRequestStatus(ctx context.Context, id domain.ID, status domain.RequestStatus) (*domain.Request, error) {
	f.record("UpdateRequestStatus:" + id.String() + ":" + string(status))
	if f.updateStatus != nil {
		if err := f.updateStatus(ctx, id, status); err != nil {
			return nil, err
		}
	}
	return &domain.Request{ID: id, Status: status}, nil
}

func (f *fakeTransport) DeleteRequest(ctx context.Context, id domain.ID) error {
	f.record("DeleteRequest:" + id.String())
	if f.deleteRequest != nil {
		return f.deleteRequest(ctx, id)
	}
	return nil
}
