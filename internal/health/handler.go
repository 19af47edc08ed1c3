package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrimech/portal/pkg/response"
)

const checkTimeout = 2 * time.Second

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

// Ping calls f.
func (f CheckFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	checks map[string]Checker
	logger *zap.Logger
}

// NewHandler creates a health handler over named dependency checks.
func NewHandler(checks map[string]Checker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{checks: checks, logger: logger}
}

// Live handles GET /health.
func (h *Handler) Live(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready. Any failing dependency makes the instance unready.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "down"
			ready = false
			continue
		}
		status[name] = "up"
	}
	if !ready {
		c.JSON(http.StatusServiceUnavailable, response.Body{Success: false, Data: status, Error: "not ready"})
		return
	}
	response.OK(c, status)
}
