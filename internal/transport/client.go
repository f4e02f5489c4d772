// Package transport is the HTTP client for the request/message API. Each
// call is independently authenticated and never retried.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/observability"
	"github.com/chatdesk-dev/chat-desk/internal/session"
)

const maxBodyBytes = 4 << 20

// Client calls the backend on behalf of the current session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every call; zero leaves calls bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMetrics records per-endpoint counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New builds a client for baseURL.
func New(baseURL string, sess *session.Session, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		session: sess,
		logger:  observability.OrNop(logger).Named("transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type call struct {
	method string
	path   string
	// route is the templated path used for metrics.
	route  string
	body   any
	public bool
}

func (c *Client) do(ctx context.Context, rc call, out any) error {
	var token string
	if !rc.public {
		t, err := c.session.Token(ctx)
		if errors.Is(err, session.ErrNoToken) {
			c.metrics.RecordError(rc.route, rc.method, "NO_TOKEN")
			return &AuthError{Reason: "no token"}
		}
		if err != nil {
			return &NetworkError{Op: "read token", Err: err}
		}
		token = t
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if rc.body != nil {
		raw, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", rc.method, rc.route, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, c.baseURL+rc.path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", rc.method, rc.route, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(observability.RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordError(rc.route, rc.method, "NETWORK")
		c.logger.Warn("request failed",
			zap.String("request_id", requestID),
			zap.String("method", rc.method),
			zap.String("path", rc.path),
			zap.Error(err))
		return &NetworkError{Op: rc.method + " " + rc.route, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.RecordRequest(rc.route, rc.method, resp.StatusCode, time.Since(start))
	if err != nil {
		return &NetworkError{Op: "read " + rc.route, Err: err}
	}

	c.logger.Debug("response",
		zap.String("request_id", requestID),
		zap.String("method", rc.method),
		zap.String("path", rc.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.metrics.RecordError(rc.route, rc.method, "UNAUTHORIZED")
		if !rc.public {
			if err := c.session.Clear(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("clear token after 401", zap.Error(err))
			}
		}
		reason := "unauthorized"
		if e := decodeError(resp.StatusCode, raw); e.Message != "" {
			reason = e.Message
		}
		return &AuthError{Status: resp.StatusCode, Reason: reason}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		httpErr := decodeError(resp.StatusCode, raw)
		c.metrics.RecordError(rc.route, rc.method, httpErr.Code)
		return httpErr
	}

	if err := decodeBody(raw, out); err != nil {
		return &NetworkError{Op: "decode " + rc.route, Err: err}
	}
	return nil
}

// decodeBody accepts either a bare JSON value or one wrapped in {"data": ...}.
func decodeBody(raw []byte, out any) error {
	raw = bytes.TrimSpace(raw)
	if out == nil || len(raw) == 0 {
		return nil
	}
	if raw[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err == nil {
			if data, ok := env["data"]; ok {
				raw = data
			}
		}
	}
	return json.Unmarshal(raw, out)
}

func decodeError(status int, raw []byte) *HTTPError {
	httpErr := &HTTPError{Status: status}
	var env struct {
		Error json.RawMessage `json:"error"`
		// Some backends send {"message": "..."} without an error object.
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return httpErr
	}
	httpErr.Message = env.Message
	if len(env.Error) == 0 {
		return httpErr
	}
	var detail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &detail); err == nil {
		httpErr.Code = detail.Code
		if detail.Message != "" {
			httpErr.Message = detail.Message
		}
		return httpErr
	}
	var plain string
	if err := json.Unmarshal(env.Error, &plain); err == nil {
		httpErr.Message = plain
	}
	return httpErr
}
