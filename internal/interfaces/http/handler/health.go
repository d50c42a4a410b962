package handler

import (
	"context"
	"net/http"

	"github.com/customers/backend/internal/infrastructure/health"
	"github.com/gin-gonic/gin"
)

// ReadinessChecker runs the dependency checks
type ReadinessChecker interface {
	Check(ctx context.Context) health.Report
}

// HealthHandler serves the liveness and readiness probes. Probe bodies are
// not wrapped in the response envelope.
type HealthHandler struct {
	checker ReadinessChecker
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(checker ReadinessChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Live godoc
// @ID           healthLive
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthStatus
// @Router       /health/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthStatus{Status: health.StatusOK})
}

// Ready godoc
// @ID           healthReady
// @Summary      Readiness probe
// @Description  Checks the database, redis and the command topic. Each entry is "ok", "disabled" or "error: <reason>".
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	report := h.checker.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Ready() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
