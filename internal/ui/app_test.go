package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/moderation"
	"github.com/chatdesk-dev/chat-desk/internal/realtime"
	"github.com/chatdesk-dev/chat-desk/internal/transport"
)

type stubTransport struct {
	requests []domain.Request
}

func (s *stubTransport) CreateRequest(_ context.Context, title, _ string) (*domain.Request, error) {
	return &domain.Request{ID: "new", Title: title}, nil
}

func (s *stubTransport) ListRequests(context.Context) ([]domain.Request, error) {
	return s.requests, nil
}

func (s *stubTransport) ListMessages(context.Context, domain.ID) ([]domain.Message, error) {
	return []domain.Message{}, nil
}

func (s *stubTransport) SendMessage(_ context.Context, id domain.ID, content string, _ domain.MessageType) (*domain.Message, error) {
	return &domain.Message{ID: "m1", RequestID: id, Content: content}, nil
}

func (s *stubTransport) ListNotifications(context.Context) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func (s *stubTransport) MarkNotificationRead(context.Context, domain.ID) error { return nil }

func (s *stubTransport) UpdateRequestStatus(_ context.Context, id domain.ID, status domain.RequestStatus) (*domain.Request, error) {
	return &domain.Request{ID: id, Status: status}, nil
}

func (s *stubTransport) DeleteRequest(context.Context, domain.ID) error { return nil }

func newTestApp(t *testing.T, identity domain.Identity) (App, *chat.Store) {
	t.Helper()
	st := &stubTransport{requests: []domain.Request{{ID: "r1", Title: "Printer jammed", Status: domain.RequestStatusPending}}}
	store := chat.NewStore(st, nil, chat.WithIdentity(identity))
	t.Cleanup(store.Close)
	require.NoError(t, store.FetchRequests(context.Background()))
	app := NewApp(store, moderation.NewRequests(store), nil)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, _ = model.Update(StoreChangedMsg{})
	return model.(App), store
}

func step(t *testing.T, app App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	return model.(App), cmd
}

func TestAppRendersSnapshot(t *testing.T) {
	app, _ := newTestApp(t, customer)
	app, _ = step(t, app, FeedStateMsg{State: realtime.Connected})

	view := app.View()
	assert.Contains(t, view, "Printer jammed")
	assert.Contains(t, view, "Ada (USER)")
	assert.Contains(t, view, "feed: connected")
	assert.NotContains(t, view, "m moderate")
}

func TestAppSelectOpensThread(t *testing.T) {
	app, store := newTestApp(t, customer)

	app, cmd := step(t, app, runes("R"))
	require.NotNil(t, cmd)

	app, cmd = step(t, app, enterKey)
	sel, ok := exec(cmd).(selectRequestMsg)
	require.True(t, ok)

	app, cmd = step(t, app, sel)
	assert.Equal(t, paneThread, app.pane)
	require.NotNil(t, cmd)

	require.NoError(t, store.SelectRequest(context.Background(), sel.request))
	app, _ = step(t, app, StoreChangedMsg{})
	assert.Contains(t, app.View(), "No messages yet.")

	app, _ = step(t, app, escKey)
	assert.Equal(t, paneList, app.pane)
}

func TestAppModerationPaneIsStaffOnly(t *testing.T) {
	app, _ := newTestApp(t, customer)
	app, _ = step(t, app, runes("m"))
	assert.Equal(t, paneList, app.pane)

	admin, _ := newTestApp(t, staff)
	admin, _ = step(t, admin, runes("m"))
	assert.Equal(t, paneModeration, admin.pane)
	assert.Contains(t, admin.View(), "Moderation")
}

func TestAppStatusLine(t *testing.T) {
	app, _ := newTestApp(t, customer)

	app, cmd := step(t, app, actionResultMsg{action: "mark accepted", err: chat.ErrForbidden})
	require.NotNil(t, cmd)
	assert.Contains(t, app.View(), "mark accepted: not allowed")

	app, _ = step(t, app, actionResultMsg{action: "refresh", err: &transport.AuthError{Status: 401, Reason: "expired"}})
	assert.Contains(t, app.View(), "session expired")

	app, _ = step(t, app, clearStatusMsg{seq: app.statusSeq - 1})
	assert.Contains(t, app.View(), "session expired", "stale clear is ignored")

	app, _ = step(t, app, clearStatusMsg{seq: app.statusSeq})
	assert.NotContains(t, app.View(), "session expired")
}

func TestAppModerateIntent(t *testing.T) {
	app, _ := newTestApp(t, staff)
	_, cmd := step(t, app, setStatusMsg{id: "r1", status: domain.RequestStatusAccepted})
	assert.Equal(t, actionResultMsg{action: "mark accepted"}, exec(cmd))

	_, cmd = step(t, app, setStatusMsg{id: "r1", status: domain.RequestStatusPending})
	assert.Nil(t, cmd)
}

func TestAppComposeFlow(t *testing.T) {
	app, _ := newTestApp(t, customer)
	app, _ = step(t, app, runes("n"))
	assert.Equal(t, paneCompose, app.pane)

	app, cmd := step(t, app, escKey)
	app, _ = step(t, app, exec(cmd))
	assert.Equal(t, paneList, app.pane)
}
