package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// EventType enumerates supported event identifiers. The first three are
// also the realtime wire names.
type EventType string

const (
	EventNewRequest          EventType = "new_request"
	EventNewMessage          EventType = "new_message"
	EventStatusUpdate        EventType = "status_update"
	EventRequestDeleted      EventType = "request_deleted"
	EventNotificationCreated EventType = "notification_created"
)

// Event represents a domain event, either pushed by the realtime feed or
// emitted by backend services.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	RequestID domain.ID       `json:"request_id,omitempty"`
	Actor     domain.Identity `json:"-"`
	// Rooms lists the realtime rooms the event fans out to.
	Rooms     []string  `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps id and timestamp.
func NewEvent(eventType EventType, requestID domain.ID, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewRequestPayload carries a freshly created request.
type NewRequestPayload struct {
	Request domain.Request
}

// NewMessagePayload carries a freshly sent message.
type NewMessagePayload struct {
	Message domain.Message
}

// StatusUpdatePayload is the wire shape of status_update.
type StatusUpdatePayload struct {
	RequestID domain.ID            `json:"requestId"`
	Status    domain.RequestStatus `json:"status"`
}

// RequestDeletedPayload identifies a removed request.
type RequestDeletedPayload struct {
	RequestID domain.ID `json:"requestId"`
}

// NotificationCreatedPayload carries a stored notification for its owner.
type NotificationCreatedPayload struct {
	Notification domain.Notification
}

// WirePayload returns the JSON body sent on the realtime channel: the bare
// request/message for new_request/new_message, the struct otherwise.
func (e Event) WirePayload() any {
	switch p := e.Payload.(type) {
	case NewRequestPayload:
		return p.Request
	case NewMessagePayload:
		return p.Message
	case NotificationCreatedPayload:
		return p.Notification
	}
	return e.Payload
}

// DecodeWire builds a typed event from a realtime frame.
func DecodeWire(eventType EventType, data json.RawMessage) (Event, error) {
	var payload any
	var requestID domain.ID
	switch eventType {
	case EventNewRequest:
		var req domain.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		payload, requestID = NewRequestPayload{Request: req}, req.ID
	case EventNewMessage:
		var msg domain.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		payload, requestID = NewMessagePayload{Message: msg}, msg.RequestID
	case EventStatusUpdate:
		var upd StatusUpdatePayload
		if err := json.Unmarshal(data, &upd); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		payload, requestID = upd, upd.RequestID
	case EventRequestDeleted:
		var del RequestDeletedPayload
		if err := json.Unmarshal(data, &del); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		payload, requestID = del, del.RequestID
	case EventNotificationCreated:
		var n domain.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		payload, requestID = NotificationCreatedPayload{Notification: n}, n.RequestID
	default:
		return Event{}, fmt.Errorf("unknown event %q", eventType)
	}
	return NewEvent(eventType, requestID, payload), nil
}
