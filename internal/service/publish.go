package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
)

// publisher stamps and dispatches events; dispatch failures are logged,
// never returned, since the state change already committed.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, actor domain.Identity, event events.Event, rooms ...string) {
	if p.dispatcher == nil {
		return
	}
	event.Actor = actor
	event.Rooms = dedupRooms(rooms)
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event dispatch failed",
			zap.String("event_type", string(event.Type)),
			zap.String("request_id", event.RequestID.String()),
			zap.Error(err))
	}
}

func dedupRooms(rooms []string) []string {
	seen := make(map[string]struct{}, len(rooms))
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
