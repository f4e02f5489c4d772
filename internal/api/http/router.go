package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chatdesk-dev/chat-desk/internal/api/http/handlers"
	"github.com/chatdesk-dev/chat-desk/internal/auth"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Requests       *handlers.RequestsHandler
	Notifications  *handlers.NotificationsHandler
	Users          *handlers.UsersHandler
	Realtime       *handlers.RealtimeHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	if cfg.Realtime != nil {
		app.Get("/ws", cfg.Realtime.Upgrade, cfg.Realtime.Serve())
	}

	// Guards run per route so metrics and errors carry the endpoint template.
	authed := func(h ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}, h...)
	}

	requests := app.Group("/requests")
	requests.Post("/", authed(cfg.Requests.Create)...)
	requests.Get("/", authed(cfg.Requests.List)...)
	requests.Patch("/:id/status", authed(auth.RequireCapability(domain.CapModerateRequests), cfg.Requests.UpdateStatus)...)
	requests.Delete("/:id", authed(auth.RequireCapability(domain.CapDeleteRequests), cfg.Requests.Delete)...)
	requests.Get("/:id/messages", authed(cfg.Requests.ListMessages)...)
	requests.Post("/:id/messages", authed(cfg.Requests.SendMessage)...)

	notifications := app.Group("/notifications")
	notifications.Get("/", authed(cfg.Notifications.List)...)
	notifications.Patch("/:id/read", authed(cfg.Notifications.MarkRead)...)

	manageUsers := auth.RequireCapability(domain.CapManageUsers)
	users := app.Group("/users")
	users.Get("/", authed(manageUsers, cfg.Users.List)...)
	users.Patch("/:id/block", authed(manageUsers, cfg.Users.SetStatus)...)
}
