// Package moderation holds the privileged back-office actions: moderating
// requests and blocking users.
package moderation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
)

// ErrForbidden is returned when the actor may not perform the action.
var ErrForbidden = errors.New("moderation: not permitted")

// UserTransport is the slice of the HTTP client used for user management.
type UserTransport interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetUserBlocked(ctx context.Context, userID domain.ID, status domain.UserStatus) error
}

// Users is the admin users collection. It is separate from the chat store
// and is loaded whenever the moderation view mounts.
type Users struct {
	transport UserTransport
	actor     domain.Identity
	logger    *zap.Logger
	timeout   time.Duration

	mu    sync.Mutex
	seq   uint64
	state chat.FetchState[[]domain.User]
}

// NewUsers builds the collection for actor.
func NewUsers(transport UserTransport, actor domain.Identity, logger *zap.Logger, timeout time.Duration) *Users {
	return &Users{
		transport: transport,
		actor:     actor,
		logger:    observability.OrNop(logger).Named("moderation"),
		timeout:   timeout,
	}
}

// State returns a copy of the users fetch state.
func (u *Users) State() chat.FetchState[[]domain.User] {
	u.mu.Lock()
	defer u.mu.Unlock()
	st := u.state
	if st.Data != nil {
		st.Data = append([]domain.User(nil), st.Data...)
	}
	return st
}

func (u *Users) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout > 0 {
		return context.WithTimeout(ctx, u.timeout)
	}
	return context.WithCancel(ctx)
}

// Load fetches the user list.
func (u *Users) Load(ctx context.Context) error {
	if !u.actor.Role.Can(domain.CapManageUsers) {
		return ErrForbidden
	}
	u.mu.Lock()
	u.seq++
	seq := u.seq
	u.state = chat.FetchState[[]domain.User]{Phase: chat.Loading, Data: u.state.Data}
	u.mu.Unlock()

	callCtx, cancel := u.callCtx(ctx)
	users, err := u.transport.ListUsers(callCtx)
	cancel()

	u.mu.Lock()
	defer u.mu.Unlock()
	if seq != u.seq {
		return err
	}
	if err != nil {
		u.state = chat.FetchState[[]domain.User]{Phase: chat.Failure, Data: u.state.Data, Err: err}
		u.logger.Warn("list users failed", zap.Error(err))
		return err
	}
	u.state = chat.FetchState[[]domain.User]{Phase: chat.Success, Data: users}
	return nil
}

// SetBlocked bans or reinstates target, then reloads the list.
func (u *Users) SetBlocked(ctx context.Context, target domain.User, blocked bool) error {
	if !domain.CanBlock(u.actor.Role, target.Role) || target.ID == u.actor.UserID {
		return ErrForbidden
	}
	status := domain.UserStatusActive
	if blocked {
		status = domain.UserStatusBanned
	}
	callCtx, cancel := u.callCtx(ctx)
	err := u.transport.SetUserBlocked(callCtx, target.ID, status)
	cancel()
	if err != nil {
		u.logger.Warn("set user blocked failed", zap.String("user_id", target.ID.String()), zap.Error(err))
		return err
	}
	u.logger.Info("user status changed", zap.String("user_id", target.ID.String()), zap.String("status", string(status)))
	return u.Load(ctx)
}
