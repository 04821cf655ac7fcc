package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gedlingdental/cohort-go/internal/application/services"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/performance"
)

// AdminHandlers serves operational status for the ops dashboard.
type AdminHandlers struct {
	perfTracker *performance.Tracker
	telemetry   *services.TelemetryService
	logger      *logging.ChanneledLogger
	startedAt   time.Time
}

// NewAdminHandlers creates the admin status handlers.
func NewAdminHandlers(perfTracker *performance.Tracker, telemetry *services.TelemetryService, logger *logging.ChanneledLogger) *AdminHandlers {
	return &AdminHandlers{
		perfTracker: perfTracker,
		telemetry:   telemetry,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

// GetPerformance returns recent pipeline markers.
func (h *AdminHandlers) GetPerformance(c *gin.Context) {
	window := 15 * time.Minute
	if parsed, err := time.ParseDuration(c.DefaultQuery("window", "15m")); err == nil {
		window = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"markers": h.perfTracker.GetRecentMetrics(window),
		"active":  h.perfTracker.ActiveCount(),
		"uptime":  time.Since(h.startedAt).String(),
	})
}

// GetHealth is the liveness endpoint.
func (h *AdminHandlers) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"pendingTelemetry": h.telemetry.Pending(),
	})
}
