package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chatdesk-dev/chat-desk/internal/api/dto"
	"github.com/chatdesk-dev/chat-desk/internal/service"
)

// NotificationsHandler serves the caller's notifications.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler builds handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	list, err := h.notifications.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, list)
}

// MarkRead handles PATCH /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), actor, id); err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.Ack{OK: true})
}
