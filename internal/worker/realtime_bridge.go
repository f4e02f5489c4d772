package worker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/events"
	"github.com/chatdesk-dev/chat-desk/internal/hub"
	"github.com/chatdesk-dev/chat-desk/internal/realtime"
)

// RealtimeEvents are the event types pushed to websocket clients.
var RealtimeEvents = []events.EventType{
	events.EventNewRequest,
	events.EventNewMessage,
	events.EventStatusUpdate,
	events.EventRequestDeleted,
	events.EventNotificationCreated,
}

// StartRealtimeBridge forwards dispatched events to their rooms through
// fanout and returns the function that stops forwarding.
func StartRealtimeBridge(dispatcher events.Dispatcher, fanout hub.Fanout, logger *zap.Logger) func() {
	forward := func(ctx context.Context, event events.Event) error {
		frame, err := realtime.NewFrame(string(event.Type), event.WirePayload())
		if err != nil {
			return err
		}
		raw, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		// Delivery must not depend on the HTTP request that caused it.
		ctx = context.WithoutCancel(ctx)
		for _, room := range event.Rooms {
			if err := fanout.Publish(ctx, room, raw); err != nil {
				logger.Warn("realtime publish failed",
					zap.String("room", room),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
		return nil
	}

	unsubs := make([]func(), 0, len(RealtimeEvents))
	for _, t := range RealtimeEvents {
		unsubs = append(unsubs, dispatcher.Subscribe(t, forward))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
