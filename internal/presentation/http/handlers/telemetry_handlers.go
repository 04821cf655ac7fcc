package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gedlingdental/cohort-go/internal/application/services"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/messaging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/persistence/telemetry"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin enforcement is handled by the CORS layer; the stream
		// is additionally behind operator auth.
		return true
	},
}

// eventRequest is the client beacon payload.
type eventRequest struct {
	EventType string `json:"eventType" binding:"required"`
	Path      string `json:"path" binding:"required"`
}

// TelemetryHandlers serves telemetry ingestion, the admin event log, and the
// live websocket feed.
type TelemetryHandlers struct {
	telemetryService *services.TelemetryService
	repo             *telemetry.EventRepository
	broadcaster      *messaging.Broadcaster
	logger           *logging.ChanneledLogger
}

// NewTelemetryHandlers creates handlers for the telemetry endpoints.
func NewTelemetryHandlers(
	telemetryService *services.TelemetryService,
	repo *telemetry.EventRepository,
	broadcaster *messaging.Broadcaster,
	logger *logging.ChanneledLogger,
) *TelemetryHandlers {
	return &TelemetryHandlers{
		telemetryService: telemetryService,
		repo:             repo,
		broadcaster:      broadcaster,
		logger:           logger,
	}
}

// PostEvent ingests a beacon event from client scripts. The variant is read
// from the visitor's cookie; the IP is anonymized before buffering.
func (h *TelemetryHandlers) PostEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventType and path are required"})
		return
	}

	variant, _ := c.Cookie(config.VariantCookie)
	h.telemetryService.Record(req.EventType, c.ClientIP(), c.Request.UserAgent(), req.Path, nil, variant)

	c.Status(http.StatusNoContent)
}

// GetRecent returns the latest persisted events for the ops dashboard.
func (h *TelemetryHandlers) GetRecent(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusOK, gin.H{"events": []any{}, "pending": h.telemetryService.Pending()})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := h.repo.Recent(limit)
	if err != nil {
		h.logger.Telemetry().Error("Failed to load recent telemetry", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load telemetry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":  events,
		"pending": h.telemetryService.Pending(),
	})
}

// StreamEvents upgrades to a websocket and feeds live telemetry events until
// the client disconnects.
func (h *TelemetryHandlers) StreamEvents(c *gin.Context) {
	conn, err := streamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Telemetry().Warn("Stream upgrade failed", "error", err.Error())
		return
	}

	h.broadcaster.AddClient(conn)

	// Reader loop exists only to detect disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.broadcaster.RemoveClient(conn)
				return
			}
		}
	}()
}
