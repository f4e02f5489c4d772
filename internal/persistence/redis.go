package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/config"
)

const redisTimeout = 2 * time.Second

// Redis wraps the go-redis client shared by the realtime fan-out and the
// client token store.
type Redis struct {
	Client *redis.Client
	addr   string
	logger *zap.Logger
}

// NewRedis builds a client without touching the network.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	return &Redis{Client: redis.NewClient(redisOptions(cfg)), addr: cfg.Addr, logger: logger}
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisTimeout,
		ReadTimeout:  redisTimeout,
		WriteTimeout: redisTimeout,
	}
}

// Check pings once and logs the outcome.
func (r *Redis) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		r.logger.Warn("unable to reach redis", zap.String("addr", r.addr), zap.Error(err))
		return err
	}
	r.logger.Info("connected to redis", zap.String("addr", r.addr))
	return nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
