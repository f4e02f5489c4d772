package observability

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the correlation id between client and server.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs every request and records it in metrics.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := utils.CopyString(c.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		// Ctx strings alias the request buffer and are recycled after return.
		method := utils.CopyString(c.Method())
		metrics.RecordRequest(RouteLabel(c), method, status, elapsed)
		logger.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", utils.CopyString(c.Path())),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)
		return err
	}
}

// RouteLabel is the matched route template without a trailing slash.
func RouteLabel(c *fiber.Ctx) string {
	path := c.Route().Path
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return utils.CopyString(path)
}
