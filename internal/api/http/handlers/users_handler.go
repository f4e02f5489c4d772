package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chatdesk-dev/chat-desk/internal/api/dto"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/service"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

// UsersHandler exposes account moderation.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, users)
}

// SetStatus handles PATCH /users/:id/block.
func (h *UsersHandler) SetStatus(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.SetUserStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	status, ok := domain.ParseUserStatus(req.Status)
	if !ok {
		return apperrors.NewValidationError("invalid payload", map[string]any{"status": "must be active or banned"})
	}
	if err := h.users.SetStatus(c.UserContext(), actor, id, status); err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.Ack{OK: true})
}
