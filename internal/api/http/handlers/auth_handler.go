package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chatdesk-dev/chat-desk/internal/api/dto"
	"github.com/chatdesk-dev/chat-desk/internal/service"
)

// AuthHandler exposes register and login.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, loginResponse(res))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, loginResponse(res))
}

func loginResponse(res *service.AuthResult) dto.LoginResponse {
	return dto.LoginResponse{
		User: *res.User,
		Auth: dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
	}
}
