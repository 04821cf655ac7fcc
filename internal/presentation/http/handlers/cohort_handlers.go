// Package handlers provides HTTP handlers for the presentation layer.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gedlingdental/cohort-go/internal/application/services"
	"github.com/gedlingdental/cohort-go/internal/domain/geo"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/geoip"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/performance"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/security"
)

// CohortHandlers serves the cohort and travel JSON endpoints consumed by
// client scripts. API traffic bypasses the page middleware, so these
// endpoints run the same classification on demand.
type CohortHandlers struct {
	resolver    *geoip.Resolver
	classifier  *services.ClassifierService
	intent      *services.IntentService
	travel      *services.TravelService
	assembler   *services.AssemblerService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewCohortHandlers creates handlers for the cohort API endpoints.
func NewCohortHandlers(
	resolver *geoip.Resolver,
	classifier *services.ClassifierService,
	intent *services.IntentService,
	travel *services.TravelService,
	assembler *services.AssemblerService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *CohortHandlers {
	return &CohortHandlers{
		resolver:    resolver,
		classifier:  classifier,
		intent:      intent,
		travel:      travel,
		assembler:   assembler,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetCohort classifies the calling request and returns the cohort as JSON.
// Nothing is stored; the cohort is recomputed per call.
func (h *CohortHandlers) GetCohort(c *gin.Context) {
	marker := h.perfTracker.StartOperation("api:get_cohort", security.GenerateULID())
	defer h.perfTracker.CompleteOperation(marker)

	loc, ok := h.resolver.FromHints(c.Request.Header)
	if !ok {
		loc = h.resolver.Resolve(c.Request.Context(), c.ClientIP())
	}

	snap := services.RequestSnapshot{
		UserAgent:  c.Request.UserAgent(),
		MobileHint: c.GetHeader("Sec-CH-UA-Mobile"),
		Referer:    c.Request.Referer(),
		Query:      c.Request.URL.Query(),
		Now:        time.Now().UTC(),
		Location:   loc,
	}

	class := h.classifier.Classify(snap)
	intent := h.intent.Infer(c.Request.URL.Path, class.Referrer, snap.Query)
	travel := h.travel.Estimate(loc.Coords(), c.Query("near"))

	c.JSON(http.StatusOK, h.assembler.Assemble(snap, class, intent, travel))
}

// GetTravel returns a travel estimate for explicit coordinates, used by the
// "how far are we" page widgets.
func (h *CohortHandlers) GetTravel(c *gin.Context) {
	marker := h.perfTracker.StartOperation("api:get_travel", security.GenerateULID())
	defer h.perfTracker.CompleteOperation(marker)

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	estimate := h.travel.Estimate(geo.LatLng{Lat: lat, Lng: lng}, c.Query("near"))
	c.JSON(http.StatusOK, gin.H{"estimate": estimate})
}
