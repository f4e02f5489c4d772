package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
	"github.com/chatdesk-dev/chat-desk/internal/repository"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

// RequestService coordinates request and message workflows.
type RequestService struct {
	requests repository.RequestRepository
	messages repository.MessageRepository
	pub      publisher
}

// RequestDependencies bundles repositories for the request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	MessageRepo repository.MessageRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests: deps.RequestRepo,
		messages: deps.MessageRepo,
		pub:      publisher{dispatcher: deps.Dispatcher, logger: observability.OrNop(deps.Logger)},
	}
}

// Create opens a pending request owned by actor.
func (s *RequestService) Create(ctx context.Context, actor domain.Identity, title, description string) (*domain.Request, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	req := &domain.Request{
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      domain.RequestStatusPending,
		UserID:      actor.UserID,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	// Re-read for the owner snapshot.
	created, err := s.requests.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.pub.publish(ctx, actor,
		events.NewEvent(events.EventNewRequest, created.ID, events.NewRequestPayload{Request: *created}),
		domain.StaffRoom, actor.Room(),
	)
	return created, nil
}

// List returns every request for staff, the caller's own otherwise.
func (s *RequestService) List(ctx context.Context, actor domain.Identity) ([]domain.Request, error) {
	filter := repository.RequestFilter{}
	if !actor.Role.Can(domain.CapViewAllRequests) {
		owner := actor.UserID
		filter.OwnerID = &owner
	}
	return s.requests.List(ctx, filter)
}

// Get loads a request visible to actor. Requests of other users are
// reported as missing.
func (s *RequestService) Get(ctx context.Context, actor domain.Identity, id domain.ID) (*domain.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if req.UserID != actor.UserID && !actor.Role.Can(domain.CapViewAllRequests) {
		return nil, apperrors.NewNotFound("request", map[string]any{"id": id})
	}
	return req, nil
}

// ListMessages returns the thread in chronological order.
func (s *RequestService) ListMessages(ctx context.Context, actor domain.Identity, id domain.ID) ([]domain.Message, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.messages.ListByRequest(ctx, id)
}

// SendMessage appends to the thread. Closed and rejected requests accept
// no new messages.
func (s *RequestService) SendMessage(ctx context.Context, actor domain.Identity, id domain.ID, content string, msgType domain.MessageType) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}
	msgType = msgType.OrDefault()
	switch msgType {
	case domain.MessageTypeText, domain.MessageTypeImage, domain.MessageTypeFile:
	default:
		return nil, apperrors.NewValidationError("unknown message type", map[string]any{"type": msgType})
	}

	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Status == domain.RequestStatusClosed || req.Status == domain.RequestStatusRejected {
		return nil, apperrors.NewConflict("request no longer accepts messages", map[string]any{"status": req.Status})
	}

	msg := &domain.Message{
		RequestID: id,
		SenderID:  actor.UserID,
		Sender:    domain.SenderSnapshot{Name: actor.Name, Role: actor.Role},
		Content:   content,
		Type:      msgType,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.pub.publish(ctx, actor,
		events.NewEvent(events.EventNewMessage, id, events.NewMessagePayload{Message: *msg}),
		domain.StaffRoom, string(req.UserID),
	)
	return msg, nil
}

// UpdateStatus moderates a request.
func (s *RequestService) UpdateStatus(ctx context.Context, actor domain.Identity, id domain.ID, status domain.RequestStatus) (*domain.Request, error) {
	if !actor.Role.Can(domain.CapModerateRequests) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if req.Status == status {
		return req, nil
	}
	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	req.Status = status

	s.pub.publish(ctx, actor,
		events.NewEvent(events.EventStatusUpdate, id, events.StatusUpdatePayload{RequestID: id, Status: status}),
		domain.StaffRoom, string(req.UserID),
	)
	return req, nil
}

// Delete removes a request and its thread.
func (s *RequestService) Delete(ctx context.Context, actor domain.Identity, id domain.ID) error {
	if !actor.Role.Can(domain.CapDeleteRequests) {
		return apperrors.NewForbidden("insufficient role")
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}

	s.pub.publish(ctx, actor,
		events.NewEvent(events.EventRequestDeleted, id, events.RequestDeletedPayload{RequestID: id}),
		domain.StaffRoom, string(req.UserID),
	)
	return nil
}
