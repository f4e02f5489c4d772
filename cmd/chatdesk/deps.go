package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/config"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
	"github.com/chatdesk-dev/chat-desk/internal/persistence"
	"github.com/chatdesk-dev/chat-desk/internal/session"
	"github.com/chatdesk-dev/chat-desk/internal/transport"
)

// clientDeps holds the collaborators shared by every command.
type clientDeps struct {
	session *session.Session
	client  *transport.Client
	redis   *persistence.Redis
	metrics *observability.Metrics
}

func buildDeps(cfg *config.ClientConfig, logger *zap.Logger) *clientDeps {
	d := &clientDeps{metrics: observability.NewMetrics()}

	var store session.TokenStore
	switch cfg.Session.Store {
	case config.TokenStoreRedis:
		d.redis = persistence.NewRedis(cfg.Redis, logger)
		store = session.NewRedisStore(d.redis.Client, cfg.Session.Key)
	default:
		store = session.NewFileStore(cfg.Session.File, cfg.Session.Key)
	}

	d.session = session.New(store)
	d.client = transport.New(cfg.API.BaseURL, d.session, logger,
		transport.WithTimeout(cfg.API.RequestTimeout),
		transport.WithMetrics(d.metrics),
	)
	return d
}

// Close logs the session's transport counters and releases the token
// store connection, if any.
func (d *clientDeps) Close(logger *zap.Logger) {
	snap := d.metrics.Snapshot()
	if len(snap.Requests) > 0 || len(snap.Errors) > 0 {
		logger.Debug("transport stats", zap.Any("requests", snap.Requests), zap.Any("errors", snap.Errors))
	}
	d.redis.Close()
}

// identity returns the logged-in caller or a hint to log in.
func (d *clientDeps) identity(ctx context.Context) (domain.Identity, error) {
	id, err := d.session.Identity(ctx)
	if errors.Is(err, session.ErrNoToken) {
		return domain.Identity{}, errors.New("not logged in; run `chatdesk login`")
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("read session: %w", err)
	}
	return id, nil
}

// store builds a chat store bound to the current identity.
func (d *clientDeps) store(ctx context.Context) (*chat.Store, error) {
	id, err := d.identity(ctx)
	if err != nil {
		return nil, err
	}
	return chat.NewStore(d.client, logger,
		chat.WithIdentity(id),
		chat.WithTimeout(cfg.API.RequestTimeout),
	), nil
}
