package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/chatdesk-dev/chat-desk/internal/api/dto"
	"github.com/chatdesk-dev/chat-desk/internal/auth"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

// bind parses the JSON body into out and validates it.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(out)
}

func identity(c *fiber.Ctx) (domain.Identity, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Identity, nil
}

func pathID(c *fiber.Ctx) (domain.ID, error) {
	id := utils.CopyString(c.Params("id"))
	if id == "" {
		return "", apperrors.NewValidationError("id is required", nil)
	}
	return domain.ID(id), nil
}

func data(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(fiber.Map{"data": v})
}
