package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// LoginResult is the body of a successful login.
type LoginResult struct {
	User domain.User `json:"user"`
	Auth struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	} `json:"auth"`
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	return c.authenticate(ctx, "/auth/login", credentials{Email: email, Password: password})
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*LoginResult, error) {
	return c.authenticate(ctx, "/auth/register", credentials{Name: name, Email: email, Password: password})
}

func (c *Client) authenticate(ctx context.Context, path string, body credentials) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, call{method: http.MethodPost, path: path, route: path, body: body, public: true}, &out)
	if err != nil {
		return nil, err
	}
	if err := c.session.Save(ctx, out.Auth.Token); err != nil {
		return nil, err
	}
	return &out, nil
}
