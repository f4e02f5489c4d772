package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

type createRequestBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type sendMessageBody struct {
	Content string             `json:"content"`
	Type    domain.MessageType `json:"type"`
}

type statusBody struct {
	Status string `json:"status"`
}

func requestPath(id domain.ID, suffix string) string {
	return "/requests/" + url.PathEscape(id.String()) + suffix
}

// CreateRequest opens a new request thread.
func (c *Client) CreateRequest(ctx context.Context, title, description string) (*domain.Request, error) {
	var out domain.Request
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/requests",
		route:  "/requests",
		body:   createRequestBody{Title: title, Description: description},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRequests returns requests in backend order.
func (c *Client) ListRequests(ctx context.Context) ([]domain.Request, error) {
	out := []domain.Request{}
	err := c.do(ctx, call{method: http.MethodGet, path: "/requests", route: "/requests"}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns the thread of requestID.
func (c *Client) ListMessages(ctx context.Context, requestID domain.ID) ([]domain.Message, error) {
	out := []domain.Message{}
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   requestPath(requestID, "/messages"),
		route:  "/requests/:id/messages",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts content to requestID. msgType defaults to text. There is
// no idempotency key, so callers must not retry blindly.
func (c *Client) SendMessage(ctx context.Context, requestID domain.ID, content string, msgType domain.MessageType) (*domain.Message, error) {
	var out domain.Message
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   requestPath(requestID, "/messages"),
		route:  "/requests/:id/messages",
		body:   sendMessageBody{Content: content, Type: msgType.OrDefault()},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRequestStatus is privileged.
func (c *Client) UpdateRequestStatus(ctx context.Context, requestID domain.ID, status domain.RequestStatus) (*domain.Request, error) {
	var out domain.Request
	err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   requestPath(requestID, "/status"),
		route:  "/requests/:id/status",
		body:   statusBody{Status: string(status)},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRequest is privileged.
func (c *Client) DeleteRequest(ctx context.Context, requestID domain.ID) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		path:   requestPath(requestID, ""),
		route:  "/requests/:id",
	}, nil)
}
