package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/repository"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 10)
	user := &domain.User{ID: "u1", Name: "Ada", Role: domain.RoleAdmin}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestTokenRejected(t *testing.T) {
	issued := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", 0)
	tm.now = func() time.Time { return issued }
	token, exp, err := tm.GenerateToken(&domain.User{ID: "u1", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour), exp, "zero ttl falls back to an hour")

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", 60)
		other.now = tm.now
		_, err := other.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenManager("secret", 60)
		late.now = func() time.Time { return issued.Add(2 * time.Hour) }
		_, err := late.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.ParseToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("no subject", func(t *testing.T) {
		anon, _, err := tm.GenerateToken(&domain.User{Role: domain.RoleUser})
		require.NoError(t, err)
		_, err = tm.ParseToken(anon)
		assert.Error(t, err)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "battery staple"))

	hash, err = HashPassword("pw", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func newAuthApp(t *testing.T) (*fiber.App, *TokenManager, repository.UserRepository) {
	t.Helper()
	mem := repository.NewMemory()
	tm := NewTokenManager("secret", 10)
	mw := NewAuthMiddleware(tm, mem.Users())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/me", mw.Handle, RequireAuthenticated(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(string(p.Identity.Role))
	})
	app.Get("/staff", mw.Handle, RequireCapability(domain.CapManageUsers), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/open", RequireAuthenticated(), func(c *fiber.Ctx) error { return c.SendString("unreachable") })
	return app, tm, mem.Users()
}

func call(t *testing.T, app *fiber.App, path, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	app, tm, users := newAuthApp(t)
	ctx := context.Background()

	ada := &domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, ada))
	token, _, err := tm.GenerateToken(ada)
	require.NoError(t, err)

	ghost, _, err := tm.GenerateToken(&domain.User{ID: "ghost", Role: domain.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "/me", "Basic " + token, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", "/me", "Bearer nope", fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown user", "/me", "Bearer " + ghost, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"valid", "/me", "Bearer " + token, fiber.StatusOK, "USER"},
		{"lowercase scheme", "/me", "bearer " + token, fiber.StatusOK, "USER"},
		{"missing capability", "/staff", "Bearer " + token, fiber.StatusForbidden, "FORBIDDEN"},
		{"no principal", "/open", "", fiber.StatusUnauthorized, "UNAUTHORIZED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, tt.path, tt.header)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestAuthMiddlewareUsesStoredRole(t *testing.T) {
	app, tm, users := newAuthApp(t)
	ctx := context.Background()

	grace := &domain.User{Name: "Grace", Email: "grace@example.com", Role: domain.RoleAdmin}
	require.NoError(t, users.Create(ctx, grace))
	token, _, err := tm.GenerateToken(grace)
	require.NoError(t, err)

	status, _ := call(t, app, "/staff", "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, status)

	require.NoError(t, users.UpdateStatus(ctx, grace.ID, domain.UserStatusBanned))
	status, body := call(t, app, "/staff", "Bearer "+token)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body)
}
