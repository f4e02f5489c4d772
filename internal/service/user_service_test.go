package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

func TestUserServiceList(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada", domain.RoleUser)
	grace := f.account(t, "grace", domain.RoleAdmin)

	_, err := f.users.List(context.Background(), ada)
	assert.Equal(t, "FORBIDDEN", codeOf(err))

	users, err := f.users.List(context.Background(), grace)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserServiceSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.account(t, "ada", domain.RoleUser)
	grace := f.account(t, "grace", domain.RoleAdmin)
	linus := f.account(t, "linus", domain.RoleAdmin)
	root := f.account(t, "root", domain.RoleRootAdmin)

	assert.Equal(t, "FORBIDDEN", codeOf(f.users.SetStatus(ctx, grace, grace.UserID, domain.UserStatusBanned)))
	assert.Equal(t, "FORBIDDEN", codeOf(f.users.SetStatus(ctx, grace, linus.UserID, domain.UserStatusBanned)))
	assert.Equal(t, "FORBIDDEN", codeOf(f.users.SetStatus(ctx, grace, root.UserID, domain.UserStatusBanned)))
	assert.Equal(t, "FORBIDDEN", codeOf(f.users.SetStatus(ctx, ada, grace.UserID, domain.UserStatusBanned)))
	assert.Equal(t, "NOT_FOUND", codeOf(f.users.SetStatus(ctx, grace, "missing", domain.UserStatusBanned)))

	require.NoError(t, f.users.SetStatus(ctx, grace, ada.UserID, domain.UserStatusBanned))
	u, err := f.mem.Users().GetByID(ctx, ada.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusBanned, u.Status)

	require.NoError(t, f.users.SetStatus(ctx, root, linus.UserID, domain.UserStatusBanned))
}
