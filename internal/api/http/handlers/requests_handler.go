package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chatdesk-dev/chat-desk/internal/api/dto"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/service"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

// RequestsHandler serves requests and their messages.
type RequestsHandler struct {
	requests *service.RequestService
}

// NewRequestsHandler builds handler.
func NewRequestsHandler(requests *service.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requests}
}

// Create handles POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	created, err := h.requests.Create(c.UserContext(), actor, req.Title, req.Description)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, created)
}

// List handles GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	list, err := h.requests.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, list)
}

// UpdateStatus handles PATCH /requests/:id/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	status, ok := domain.ParseRequestStatus(req.Status)
	if !ok {
		return apperrors.NewValidationError("invalid payload", map[string]any{"status": "unknown status"})
	}
	updated, err := h.requests.UpdateStatus(c.UserContext(), actor, id, status)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, updated)
}

// Delete handles DELETE /requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.requests.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.Ack{OK: true})
}

// ListMessages handles GET /requests/:id/messages.
func (h *RequestsHandler) ListMessages(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	msgs, err := h.requests.ListMessages(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, msgs)
}

// SendMessage handles POST /requests/:id/messages.
func (h *RequestsHandler) SendMessage(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.requests.SendMessage(c.UserContext(), actor, id, req.Content, domain.MessageType(req.Type))
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, msg)
}
