package observability

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chatdesk-dev/chat-desk/internal/config"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/x", "GET", 200, time.Millisecond)
	m.RecordError("/x", "GET", "NOT_FOUND")
	assert.Zero(t, m.Requests("/x", "GET", 200))
	assert.Zero(t, m.Errors("/x", "GET", "NOT_FOUND"))
}

func TestMetricsCounts(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/requests", "GET", 200, time.Millisecond)
	m.RecordRequest("/requests", "GET", 200, time.Millisecond)
	m.RecordRequest("/requests", "GET", 500, time.Millisecond)
	m.RecordError("/requests", "GET", "INTERNAL_ERROR")

	assert.Equal(t, int64(2), m.Requests("/requests", "GET", 200))
	assert.Equal(t, int64(1), m.Requests("/requests", "GET", 500))
	assert.Equal(t, int64(1), m.Errors("/requests", "GET", "INTERNAL_ERROR"))
	assert.Zero(t, m.Errors("/requests", "POST", "INTERNAL_ERROR"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/requests/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest(fiber.MethodGet, "/requests/r1", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "rid-1", resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/requests/r2", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	assert.Equal(t, int64(2), metrics.Requests("/requests/:id", fiber.MethodGet, fiber.StatusNoContent))
	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rid-1", fields["request_id"])
	assert.Equal(t, "/requests/r1", fields["path"])
	assert.EqualValues(t, fiber.StatusNoContent, fields["status"])
}

func TestRequestLoggerKeepsValuesAcrossRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Put("/x/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	methods := []string{fiber.MethodGet, fiber.MethodPut, fiber.MethodGet, fiber.MethodPut}
	for _, method := range methods {
		resp, err := app.Test(httptest.NewRequest(method, "/x", nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, int64(2), metrics.Requests("/x", fiber.MethodGet, fiber.StatusOK))
	assert.Equal(t, int64(2), metrics.Requests("/x", fiber.MethodPut, fiber.StatusOK))
	assert.Len(t, metrics.Snapshot().Requests, 2)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, len(methods))
	for i, entry := range entries {
		assert.Equal(t, methods[i], entry.ContextMap()["method"])
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatdesk.log")
	logger, err := NewLogger(config.LoggerConfig{Level: "nonsense", OutputPath: path})
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("visible")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message":"visible"`)
	assert.NotContains(t, string(raw), "hidden")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}

func TestMetricsSnapshot(t *testing.T) {
	assert.Empty(t, (*Metrics)(nil).Snapshot().Requests)

	m := NewMetrics()
	m.RecordRequest("/requests", "POST", 201, 4*time.Millisecond)
	m.RecordRequest("/requests", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/requests", "GET", 200, 4*time.Millisecond)
	m.RecordError("/users", "GET", "FORBIDDEN")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, Sample{Path: "/requests", Method: "GET", Label: "200", Count: 2, AvgLatencyMs: 3}, snap.Requests[0])
	assert.Equal(t, "POST", snap.Requests[1].Method)
	assert.Equal(t, []Sample{{Path: "/users", Method: "GET", Label: "FORBIDDEN", Count: 1}}, snap.Errors)
}
