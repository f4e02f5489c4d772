package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
)

// Attach subscribes the store to realtime events on d. The returned func
// removes every subscription.
func (s *Store) Attach(d events.Dispatcher) (detach func()) {
	unsubs := []func(){
		d.Subscribe(events.EventNewRequest, s.onNewRequest),
		d.Subscribe(events.EventNewMessage, s.onNewMessage),
		d.Subscribe(events.EventStatusUpdate, s.onStatusUpdate),
		d.Subscribe(events.EventRequestDeleted, s.onRequestDeleted),
		d.Subscribe(events.EventNotificationCreated, s.onNotificationCreated),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (s *Store) onNewRequest(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NewRequestPayload)
	if !ok {
		return nil
	}
	s.mu.Lock()
	for _, r := range s.requests.Data {
		if r.ID == payload.Request.ID {
			s.mu.Unlock()
			return nil
		}
	}
	data := make([]domain.Request, 0, len(s.requests.Data)+1)
	data = append(data, payload.Request)
	data = append(data, s.requests.Data...)
	s.requests.Data = data
	s.mu.Unlock()
	s.notify()
	return nil
}

// onNewMessage appends to the open thread only; every new message also
// invalidates the request and notification lists.
func (s *Store) onNewMessage(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NewMessagePayload)
	if !ok {
		return nil
	}
	s.mu.Lock()
	changed := false
	if s.selected != nil && s.selected.ID == payload.Message.RequestID {
		changed = s.appendMessageLocked(payload.Message)
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}

	s.background("refetch requests", s.FetchRequests)
	s.background("refetch notifications", s.FetchNotifications)
	return nil
}

func (s *Store) onStatusUpdate(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusUpdatePayload)
	if !ok {
		return nil
	}
	if s.patchStatus(payload.RequestID, payload.Status) {
		s.notify()
	}
	s.background("refetch notifications", s.FetchNotifications)
	return nil
}

func (s *Store) onRequestDeleted(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestDeletedPayload)
	if !ok {
		return nil
	}
	s.removeRequest(payload.RequestID)
	s.notify()
	return nil
}

func (s *Store) onNotificationCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NotificationCreatedPayload)
	if !ok {
		return nil
	}
	s.mu.Lock()
	for _, n := range s.notifications.Data {
		if n.ID == payload.Notification.ID {
			s.mu.Unlock()
			return nil
		}
	}
	data := make([]domain.Notification, 0, len(s.notifications.Data)+1)
	data = append(data, payload.Notification)
	data = append(data, s.notifications.Data...)
	s.notifications.Data = data
	s.mu.Unlock()
	s.logger.Debug("notification pushed", zap.String("notification_id", payload.Notification.ID.String()))
	s.notify()
	return nil
}
