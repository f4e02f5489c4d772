package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
)

func contents(list []domain.Notification) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Content)
	}
	return out
}

func TestNotificationsGoToTheOtherParty(t *testing.T) {
	f := newFixture(t)
	defer f.notifications.RegisterHandlers()()
	ctx := context.Background()

	ada := f.account(t, "ada", domain.RoleUser)
	grace := f.account(t, "grace", domain.RoleAdmin)
	root := f.account(t, "root", domain.RoleRootAdmin)

	req, err := f.requests.Create(ctx, ada, "Printer", "")
	require.NoError(t, err)

	for _, staff := range []domain.Identity{grace, root} {
		list, err := f.notifications.List(ctx, staff)
		require.NoError(t, err)
		assert.Equal(t, []string{"New request: Printer"}, contents(list))
	}

	_, err = f.requests.SendMessage(ctx, grace, req.ID, "on it", "")
	require.NoError(t, err)
	own, err := f.notifications.List(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, []string{`New message on "Printer"`}, contents(own))

	// the author is never notified of their own message
	graceList, err := f.notifications.List(ctx, grace)
	require.NoError(t, err)
	assert.Len(t, graceList, 1)

	_, err = f.requests.SendMessage(ctx, ada, req.ID, "thanks", "")
	require.NoError(t, err)
	graceList, err = f.notifications.List(ctx, grace)
	require.NoError(t, err)
	assert.Len(t, graceList, 2)

	_, err = f.requests.UpdateStatus(ctx, grace, req.ID, domain.RequestStatusAccepted)
	require.NoError(t, err)
	own, err = f.notifications.List(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, `Your request "Printer" is now accepted`, own[0].Content)

	pushed := f.events.ofType(events.EventNotificationCreated)
	require.NotEmpty(t, pushed)
	for _, e := range pushed {
		n := e.Payload.(events.NotificationCreatedPayload).Notification
		assert.Equal(t, []string{string(n.UserID)}, e.Rooms)
	}
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	defer f.notifications.RegisterHandlers()()
	ctx := context.Background()

	ada := f.account(t, "ada", domain.RoleUser)
	grace := f.account(t, "grace", domain.RoleAdmin)
	_, err := f.requests.Create(ctx, ada, "Printer", "")
	require.NoError(t, err)

	list, err := f.notifications.List(ctx, grace)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.Equal(t, "NOT_FOUND", codeOf(f.notifications.MarkRead(ctx, ada, list[0].ID)))
	require.NoError(t, f.notifications.MarkRead(ctx, grace, list[0].ID))

	list, err = f.notifications.List(ctx, grace)
	require.NoError(t, err)
	assert.True(t, list[0].Read)
}

func TestUnregisteredHandlersStayQuiet(t *testing.T) {
	f := newFixture(t)
	f.notifications.RegisterHandlers()()
	ctx := context.Background()

	ada := f.account(t, "ada", domain.RoleUser)
	grace := f.account(t, "grace", domain.RoleAdmin)
	_, err := f.requests.Create(ctx, ada, "Printer", "")
	require.NoError(t, err)

	list, err := f.notifications.List(ctx, grace)
	require.NoError(t, err)
	assert.Empty(t, list)
}
