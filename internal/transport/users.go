package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// ListUsers is privileged.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := c.do(ctx, call{method: http.MethodGet, path: "/users", route: "/users"}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetUserBlocked sets userID to active or banned. Privileged.
func (c *Client) SetUserBlocked(ctx context.Context, userID domain.ID, status domain.UserStatus) error {
	return c.do(ctx, call{
		method: http.MethodPatch,
		path:   "/users/" + url.PathEscape(userID.String()) + "/block",
		route:  "/users/:id/block",
		body:   statusBody{Status: string(status)},
	}, nil)
}
