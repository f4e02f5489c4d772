package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
	"github.com/chatdesk-dev/chat-desk/internal/moderation"
	"github.com/chatdesk-dev/chat-desk/internal/realtime"
	"github.com/chatdesk-dev/chat-desk/internal/ui"
)

// runInteractive wires store, feed and views for the logged-in identity
// and runs the terminal interface until the user quits.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	identity, err := deps.identity(ctx)
	if err != nil {
		return err
	}

	dispatcher := events.NewInMemoryDispatcher(events.WithErrorHook(func(e events.Event, err error) {
		logger.Warn("event handler failed", zap.String("type", string(e.Type)), zap.Error(err))
	}))

	store := chat.NewStore(deps.client, logger, chat.WithTimeout(cfg.API.RequestTimeout))
	defer store.Close()

	var (
		feed   chat.Feed
		states ui.FeedStates
	)
	if !cfg.Realtime.Disabled {
		f := realtime.NewFeed(cfg.Realtime, deps.session, dispatcher, logger)
		feed, states = f, f
	}

	live, err := chat.StartLive(ctx, store, feed, dispatcher, identity)
	if err != nil {
		return err
	}
	defer live.Stop()
	store.StartPolling(cfg.Store.PollInterval)

	var users *moderation.Users
	if identity.Role.Can(domain.CapManageUsers) {
		users = moderation.NewUsers(deps.client, identity, logger, cfg.API.RequestTimeout)
	}

	logger.Info("interactive session started",
		zap.String("user_id", identity.UserID.String()),
		zap.String("role", string(identity.Role)),
		zap.Bool("realtime", feed != nil),
	)
	app := ui.NewApp(store, moderation.NewRequests(store), users)
	return ui.Run(ctx, app, states)
}
