package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

// PageHandlers stands in for the downstream renderer. It reads only the
// forwarded cohort headers, exactly as the real site's server-rendered pages
// do; it never re-derives cohort data.
type PageHandlers struct {
	logger *logging.ChanneledLogger
}

// NewPageHandlers creates the page handlers.
func NewPageHandlers(logger *logging.ChanneledLogger) *PageHandlers {
	return &PageHandlers{logger: logger}
}

// GetPage renders a minimal personalized page from the forwarded headers.
func (h *PageHandlers) GetPage(c *gin.Context) {
	head := c.Request.Header

	payload := gin.H{
		"path":       c.Request.URL.Path,
		"cohort":     head.Get(cohort.HeaderSummary),
		"geo":        head.Get(cohort.HeaderGeo),
		"timeOfDay":  head.Get(cohort.HeaderTime),
		"officeOpen": head.Get(cohort.HeaderOfficeHours),
		"device":     head.Get(cohort.HeaderDevice),
		"source":     head.Get(cohort.HeaderSource),
		"intent":     head.Get(cohort.HeaderIntent),
		"city":       head.Get(cohort.HeaderCity),
		"local":      head.Get(cohort.HeaderLocal),
		"travel":     head.Get(cohort.HeaderTravel),
		"variant":    c.Writer.Header().Get(cohort.HeaderVariant),
	}

	// An emergency visitor sees the phone number above everything else.
	if head.Get(cohort.HeaderIntent) == string(cohort.IntentEmergency) {
		payload["emergencyPhone"] = config.EmergencyPhone
	}
	if head.Get(cohort.HeaderOfficeHours) == "true" {
		payload["banner"] = "We're open now"
	}

	c.JSON(http.StatusOK, payload)
}
