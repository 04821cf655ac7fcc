package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gedlingdental/cohort-go/internal/application/services"
	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/geoip"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/metrics"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/performance"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/security"
)

// CohortPipeline bundles the services the interceptor composes per request.
type CohortPipeline struct {
	Resolver    *geoip.Resolver
	Classifier  *services.ClassifierService
	Intent      *services.IntentService
	Travel      *services.TravelService
	Assembler   *services.AssemblerService
	Variant     *services.VariantService
	Telemetry   *services.TelemetryService
	PerfTracker *performance.Tracker
	Logger      *logging.ChanneledLogger
}

// Context keys for downstream handlers.
const (
	ContextCohort  = "cohort"
	ContextVariant = "variant"
)

var botTokens = []string{
	"bot", "crawler", "spider", "slurp", "headless",
	"lighthouse", "pingdom", "facebookexternalhit",
}

var staticExtensions = []string{
	".css", ".js", ".mjs", ".map", ".png", ".jpg", ".jpeg", ".webp", ".gif",
	".svg", ".ico", ".woff", ".woff2", ".ttf", ".otf", ".txt", ".xml", ".webmanifest",
}

var excludedPathPrefixes = []string{"/api/", "/_assets/", "/_image", "/metrics", "/health"}

// CohortMiddleware runs the classification pipeline on every qualifying
// request: resolve geo, classify, infer intent, estimate travel, assemble the
// cohort headers, then assign the sticky A/B variant. The pipeline is
// fail-open: bots and API traffic bypass it, and any internal panic results
// in an unmodified pass-through rather than an error response.
func CohortMiddleware(p *CohortPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reason := bypassReason(c); reason != "" {
			metrics.RequestsBypassed.WithLabelValues(reason).Inc()
			c.Next()
			return
		}

		runPipeline(p, c)
		c.Next()
	}
}

// runPipeline classifies the request and decorates it. Recovers internally so
// a pipeline bug never fails the page request.
func runPipeline(p *CohortPipeline, c *gin.Context) {
	requestID := security.GenerateULID()

	defer func() {
		if r := recover(); r != nil {
			p.Logger.Classify().Error("Cohort pipeline panic, passing through",
				"panic", fmt.Sprintf("%v", r),
				"path", c.Request.URL.Path,
				"requestId", requestID)
		}
	}()

	marker := p.PerfTracker.StartOperation("pipeline:classify", requestID)
	marker.AddMetadata("path", c.Request.URL.Path)

	ip := c.ClientIP()
	loc, ok := p.Resolver.FromHints(c.Request.Header)
	if !ok {
		loc = p.Resolver.Resolve(c.Request.Context(), ip)
	}

	snap := services.RequestSnapshot{
		UserAgent:  c.Request.UserAgent(),
		MobileHint: c.GetHeader("Sec-CH-UA-Mobile"),
		Referer:    c.Request.Referer(),
		Query:      c.Request.URL.Query(),
		Now:        time.Now().UTC(),
		Location:   loc,
	}

	class := p.Classifier.Classify(snap)
	intent := p.Intent.Infer(c.Request.URL.Path, class.Referrer, snap.Query)
	travel := p.Travel.Estimate(loc.Coords(), c.Query("near"))

	ch := p.Assembler.Assemble(snap, class, intent, travel)

	// Forward on the request so server-rendered pages read the same values,
	// and on the response for client scripts and caches.
	p.Assembler.WriteRequestHeaders(c.Request.Header, ch)
	p.Assembler.WriteResponseHeaders(c.Writer.Header(), ch)

	variant := assignVariant(p, c)

	// Mark both directions so internal re-invocations pass through.
	c.Request.Header.Set(cohort.HeaderProcessed, "1")
	c.Writer.Header().Set(cohort.HeaderProcessed, "1")

	p.PerfTracker.CompleteOperation(marker)
	c.Writer.Header().Set(cohort.HeaderDuration, marker.Duration.String())
	metrics.PipelineDuration.Observe(marker.Duration.Seconds())
	metrics.RequestsClassified.WithLabelValues(ch.Geo, string(ch.Intent)).Inc()

	c.Set(ContextCohort, ch)
	c.Set(ContextVariant, variant)

	if p.Telemetry != nil {
		p.Telemetry.Record("pageview", ip, snap.UserAgent, c.Request.URL.Path, ch, variant)
	}

	p.Logger.Classify().Debug("Request classified",
		"requestId", requestID,
		"geo", ch.Geo,
		"intent", ch.Intent,
		"device", ch.Device,
		"source", ch.Referrer,
		"variant", variant,
		"duration", marker.Duration)
}

// assignVariant reuses a valid sticky cookie or performs a fresh weighted
// draw. Any failure leaves the request untouched.
func assignVariant(p *CohortPipeline, c *gin.Context) string {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Variant().Error("Variant assignment panic, skipping",
				"panic", fmt.Sprintf("%v", r))
		}
	}()

	if existing, err := c.Cookie(p.Variant.CookieName()); err == nil && p.Variant.IsValid(existing) {
		c.Writer.Header().Set(cohort.HeaderVariant, existing)
		return existing
	}

	assigned := p.Variant.Assign()
	if assigned == "" {
		return ""
	}

	// Readable by client scripts, so not HttpOnly.
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(p.Variant.CookieName(), assigned, p.Variant.CookieMaxAge(), "/", "", true, false)
	c.Writer.Header().Set(cohort.HeaderVariant, assigned)
	return assigned
}

// bypassReason returns a non-empty label when the request must skip the
// pipeline entirely.
func bypassReason(c *gin.Context) string {
	if c.GetHeader(cohort.HeaderRewrite) != "" {
		return "rewrite"
	}
	if c.GetHeader(cohort.HeaderProcessed) != "" {
		return "processed"
	}

	ua := strings.ToLower(c.Request.UserAgent())
	for _, token := range botTokens {
		if strings.Contains(ua, token) {
			return "bot"
		}
	}

	accept := c.GetHeader("Accept")
	contentType := c.ContentType()
	if strings.Contains(accept, "application/json") ||
		strings.Contains(accept, "text/event-stream") ||
		strings.Contains(contentType, "application/json") {
		return "api"
	}

	if isExcludedPath(c.Request.URL.Path) {
		return "static"
	}

	return ""
}

func isExcludedPath(path string) bool {
	lower := strings.ToLower(path)

	for _, prefix := range excludedPathPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	if lower == "/favicon.ico" || lower == "/robots.txt" {
		return true
	}
	if strings.HasPrefix(lower, "/sitemap") && strings.HasSuffix(lower, ".xml") {
		return true
	}

	for _, ext := range staticExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}
