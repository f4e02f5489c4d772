package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/chatdesk-dev/chat-desk/internal/api/http"
	"github.com/chatdesk-dev/chat-desk/internal/api/http/handlers"
	"github.com/chatdesk-dev/chat-desk/internal/auth"
	"github.com/chatdesk-dev/chat-desk/internal/config"
	"github.com/chatdesk-dev/chat-desk/internal/events"
	"github.com/chatdesk-dev/chat-desk/internal/hub"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
	"github.com/chatdesk-dev/chat-desk/internal/persistence"
	"github.com/chatdesk-dev/chat-desk/internal/repository"
	"github.com/chatdesk-dev/chat-desk/internal/service"
	"github.com/chatdesk-dev/chat-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := map[string]handlers.Pinger{}
	var repos repository.Set
	if cfg.Postgres.DSN != "" {
		pg, err := persistence.OpenPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := pg.Migrate(ctx, os.DirFS(cfg.Postgres.MigrationsDir)); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = pg.Repositories()
		deps["postgres"] = pg
	} else {
		logger.Warn("POSTGRES_DSN not set; using in-memory storage")
		repos = repository.NewMemory().Set()
	}

	dispatcher := events.NewInMemoryDispatcher(events.WithErrorHook(func(e events.Event, err error) {
		logger.Warn("event handler failed", zap.String("event_type", string(e.Type)), zap.Error(err))
	}))

	authService := service.NewAuthService(cfg.Auth, repos.Users, logger)
	if err := authService.EnsureRootAdmin(ctx); err != nil {
		logger.Fatal("failed to seed root admin", zap.Error(err))
	}
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: repos.Requests,
		MessageRepo: repos.Messages,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: repos.Notifications,
		RequestRepo:      repos.Requests,
		UserRepo:         repos.Users,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	userService := service.NewUserService(repos.Users, logger)

	wsHub := hub.New(logger)
	var fanout hub.Fanout
	switch cfg.Realtime.Fanout {
	case config.FanoutLocal:
		fanout = hub.NewLocalFanout(wsHub)
	default:
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		// Failures surface through readiness and the fan-out subscription.
		_ = redis.Check(ctx)
		fanout = hub.NewRedisFanout(redis.Client, cfg.Realtime.ChannelPrefix, wsHub, logger)
		deps["redis"] = redis
	}

	stopNotifications := worker.StartNotificationWorker(notificationService)
	defer stopNotifications()
	stopBridge := worker.StartRealtimeBridge(dispatcher, fanout, logger)
	defer stopBridge()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Users:          handlers.NewUsersHandler(userService),
		Realtime:       handlers.NewRealtimeHandler(authMiddleware, wsHub, logger.Named("ws")),
		AuthMiddleware: authMiddleware,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		return fanout.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("devserver stopped", zap.Error(err))
	}
}
