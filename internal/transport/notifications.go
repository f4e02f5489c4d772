package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// ListNotifications returns the current user's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	out := []domain.Notification{}
	err := c.do(ctx, call{method: http.MethodGet, path: "/notifications", route: "/notifications"}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead acknowledges one notification. The response body is
// ignored; callers patch local state themselves.
func (c *Client) MarkNotificationRead(ctx context.Context, id domain.ID) error {
	return c.do(ctx, call{
		method: http.MethodPatch,
		path:   "/notifications/" + url.PathEscape(id.String()) + "/read",
		route:  "/notifications/:id/read",
	}, nil)
}
