// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gedlingdental/cohort-go/internal/application/container"
	"github.com/gedlingdental/cohort-go/internal/presentation/http/handlers"
	"github.com/gedlingdental/cohort-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(container.Logger)
	cohortHandlers := handlers.NewCohortHandlers(
		container.Resolver,
		container.ClassifierService,
		container.IntentService,
		container.TravelService,
		container.AssemblerService,
		container.Logger,
		container.PerfTracker,
	)
	telemetryHandlers := handlers.NewTelemetryHandlers(
		container.TelemetryService,
		container.TelemetryRepo,
		container.Broadcaster,
		container.Logger,
	)
	adminHandlers := handlers.NewAdminHandlers(container.PerfTracker, container.TelemetryService, container.Logger)
	pageHandlers := handlers.NewPageHandlers(container.Logger)

	// System endpoints, outside the personalization pipeline
	r.GET("/health", adminHandlers.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(container.MetricsRegistry, promhttp.HandlerOpts{})))

	// API routes; these never receive cohort headers
	api := r.Group("/api/v1")
	{
		api.POST("/events", telemetryHandlers.PostEvent)
		api.GET("/cohort", cohortHandlers.GetCohort)
		api.GET("/travel", cohortHandlers.GetTravel)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.GET("/status", authHandlers.AuthMiddleware(), authHandlers.GetAuthStatus)
		}

		admin := api.Group("/admin")
		admin.Use(authHandlers.AuthMiddleware())
		{
			admin.GET("/telemetry", telemetryHandlers.GetRecent)
			admin.GET("/telemetry/stream", telemetryHandlers.StreamEvents)
			admin.GET("/performance", adminHandlers.GetPerformance)
		}
	}

	// Every remaining path is a page request: classify, decorate, render.
	r.Use(middleware.CohortMiddleware(&middleware.CohortPipeline{
		Resolver:    container.Resolver,
		Classifier:  container.ClassifierService,
		Intent:      container.IntentService,
		Travel:      container.TravelService,
		Assembler:   container.AssemblerService,
		Variant:     container.VariantService,
		Telemetry:   container.TelemetryService,
		PerfTracker: container.PerfTracker,
		Logger:      container.Logger,
	}))
	r.NoRoute(pageHandlers.GetPage)

	return r
}
