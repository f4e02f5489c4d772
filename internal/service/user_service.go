package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
	"github.com/chatdesk-dev/chat-desk/internal/repository"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

// UserService exposes account moderation.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: observability.OrNop(logger)}
}

// List returns every account.
func (s *UserService) List(ctx context.Context, actor domain.Identity) ([]domain.User, error) {
	if !actor.Role.Can(domain.CapManageUsers) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	return s.users.List(ctx)
}

// SetStatus bans or reinstates target.
func (s *UserService) SetStatus(ctx context.Context, actor domain.Identity, target domain.ID, status domain.UserStatus) error {
	if target == actor.UserID {
		return apperrors.NewForbidden("cannot change your own status")
	}
	user, err := s.users.GetByID(ctx, target)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !domain.CanBlock(actor.Role, user.Role) {
		return apperrors.NewForbidden("insufficient role")
	}
	if err := s.users.UpdateStatus(ctx, target, status); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("user status changed",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("user_id", target.String()),
		zap.String("status", string(status)))
	return nil
}
