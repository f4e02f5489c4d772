package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
	"github.com/chatdesk-dev/chat-desk/internal/repository"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

// NotificationService stores a notification for the other party of every
// request event and pushes it to the recipient's room.
type NotificationService struct {
	notifications repository.NotificationRepository
	requests      repository.RequestRepository
	users         repository.UserRepository
	dispatcher    events.Dispatcher
	pub           publisher
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	RequestRepo      repository.RequestRepository
	UserRepo         repository.UserRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		requests:      deps.RequestRepo,
		users:         deps.UserRepo,
		dispatcher:    deps.Dispatcher,
		pub:           publisher{dispatcher: deps.Dispatcher, logger: observability.OrNop(deps.Logger)},
		logger:        observability.OrNop(deps.Logger),
	}
}

// RegisterHandlers subscribes to request events and returns a function
// removing the subscriptions.
func (n *NotificationService) RegisterHandlers() func() {
	if n.dispatcher == nil {
		return func() {}
	}
	unsubs := []func(){
		n.dispatcher.Subscribe(events.EventNewRequest, n.handleNewRequest),
		n.dispatcher.Subscribe(events.EventNewMessage, n.handleNewMessage),
		n.dispatcher.Subscribe(events.EventStatusUpdate, n.handleStatusUpdate),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// List returns the caller's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, actor domain.Identity) ([]domain.Notification, error) {
	return n.notifications.ListByUser(ctx, actor.UserID)
}

// MarkRead flips one of the caller's notifications.
func (n *NotificationService) MarkRead(ctx context.Context, actor domain.Identity, id domain.ID) error {
	if err := n.notifications.MarkRead(ctx, actor.UserID, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (n *NotificationService) handleNewRequest(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NewRequestPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	return n.notifyStaff(ctx, event.Actor, payload.Request.ID, "New request: "+payload.Request.Title)
}

func (n *NotificationService) handleNewMessage(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NewMessagePayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	req, err := n.requests.GetByID(ctx, payload.Message.RequestID)
	if err != nil {
		return err
	}
	content := fmt.Sprintf("New message on %q", req.Title)
	if event.Actor.UserID == req.UserID {
		return n.notifyStaff(ctx, event.Actor, req.ID, content)
	}
	return n.notifyUser(ctx, req.UserID, req.ID, content)
}

func (n *NotificationService) handleStatusUpdate(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusUpdatePayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	req, err := n.requests.GetByID(ctx, payload.RequestID)
	if err != nil {
		return err
	}
	if req.UserID == event.Actor.UserID {
		return nil
	}
	return n.notifyUser(ctx, req.UserID, req.ID, fmt.Sprintf("Your request %q is now %s", req.Title, payload.Status))
}

func (n *NotificationService) notifyStaff(ctx context.Context, actor domain.Identity, requestID domain.ID, content string) error {
	staff, err := n.users.ListByRoles(ctx, domain.RoleAdmin, domain.RoleRootAdmin)
	if err != nil {
		return err
	}
	for _, u := range staff {
		if u.ID == actor.UserID {
			continue
		}
		if err := n.notifyUser(ctx, u.ID, requestID, content); err != nil {
			return err
		}
	}
	return nil
}

func (n *NotificationService) notifyUser(ctx context.Context, userID, requestID domain.ID, content string) error {
	notif := &domain.Notification{UserID: userID, RequestID: requestID, Content: content}
	if err := n.notifications.Create(ctx, notif); err != nil {
		return err
	}
	n.logger.Debug("notification created",
		zap.String("user_id", userID.String()),
		zap.String("request_id", requestID.String()))
	n.pub.publish(ctx, domain.Identity{},
		events.NewEvent(events.EventNotificationCreated, requestID, events.NotificationCreatedPayload{Notification: *notif}),
		string(userID),
	)
	return nil
}
