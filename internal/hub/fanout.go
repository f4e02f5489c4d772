package hub

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Fanout carries frames to every instance's hub.
type Fanout interface {
	Publish(ctx context.Context, room string, frame []byte) error
	// Run delivers incoming frames to the local hub until ctx ends.
	Run(ctx context.Context) error
}

// LocalFanout delivers straight to the local hub. It serves single-instance
// deployments and tests.
type LocalFanout struct {
	hub *Hub
}

// NewLocalFanout wraps h.
func NewLocalFanout(h *Hub) *LocalFanout {
	return &LocalFanout{hub: h}
}

func (f *LocalFanout) Publish(_ context.Context, room string, frame []byte) error {
	f.hub.Deliver(room, frame)
	return nil
}

func (f *LocalFanout) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// RedisFanout publishes each frame on prefix+room and pattern-subscribes to
// prefix* so every instance sees every room.
type RedisFanout struct {
	client *redis.Client
	prefix string
	hub    *Hub
	logger *zap.Logger
}

// NewRedisFanout builds a fan-out over client.
func NewRedisFanout(client *redis.Client, prefix string, h *Hub, logger *zap.Logger) *RedisFanout {
	return &RedisFanout{client: client, prefix: prefix, hub: h, logger: logger}
}

func (f *RedisFanout) Publish(ctx context.Context, room string, frame []byte) error {
	return f.client.Publish(ctx, f.prefix+room, frame).Err()
}

func (f *RedisFanout) Run(ctx context.Context) error {
	pubsub := f.client.PSubscribe(ctx, f.prefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	f.logger.Info("realtime fan-out subscribed", zap.String("pattern", f.prefix+"*"))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			room := strings.TrimPrefix(msg.Channel, f.prefix)
			f.hub.Deliver(room, []byte(msg.Payload))
		}
	}
}
