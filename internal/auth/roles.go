package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

// RequireCapability ensures the principal's role grants c.
func RequireCapability(c domain.Capability) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(ctx)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Identity.Role.Can(c) {
			return apperrors.NewForbidden("insufficient role")
		}
		return ctx.Next()
	}
}

// RequireAuthenticated ensures a principal was loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
