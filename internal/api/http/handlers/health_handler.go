package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/chatdesk-dev/chat-desk/internal/observability"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency checked by readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the probe and counters endpoints.
type HealthHandler struct {
	service string
	version string
	started time.Time
	deps    map[string]Pinger
	metrics *observability.Metrics
}

// NewHealthHandler builds handler. deps is read on every readiness probe.
func NewHealthHandler(service, version string, deps map[string]Pinger, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{service: service, version: version, started: time.Now(), deps: deps, metrics: metrics}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return data(c, http.StatusOK, fiber.Map{
		"status":  "alive",
		"service": h.service,
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready handles GET /health/ready. Dependencies are pinged concurrently
// under one deadline.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	results := h.check(c.UserContext())

	status := make(map[string]any, len(results))
	ready := true
	for name, err := range results {
		if err != nil {
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}
	if !ready {
		return apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", "one or more dependencies unavailable",
			http.StatusServiceUnavailable, status)
	}
	return data(c, http.StatusOK, fiber.Map{"status": "ready", "dependencies": status})
}

// Metrics handles GET /health/metrics.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return data(c, http.StatusOK, h.metrics.Snapshot())
}

func (h *HealthHandler) check(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		g       errgroup.Group
		results = make(map[string]error, len(h.deps))
	)
	for name, dep := range h.deps {
		name, dep := name, dep
		g.Go(func() error {
			err := dep.Ping(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
