// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gedlingdental/cohort-go/internal/application/services"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/geoip"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/messaging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/metrics"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/performance"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/persistence/database"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/persistence/telemetry"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Pipeline Services (stateless singletons)
	ClassifierService *services.ClassifierService
	IntentService     *services.IntentService
	TravelService     *services.TravelService
	AssemblerService  *services.AssemblerService
	VariantService    *services.VariantService

	// Stateful services
	TelemetryService *services.TelemetryService

	// Infrastructure Dependencies
	Logger          *logging.ChanneledLogger
	PerfTracker     *performance.Tracker
	Resolver        *geoip.Resolver
	Broadcaster     *messaging.Broadcaster
	TelemetryRepo   *telemetry.EventRepository
	TelemetryDB     *database.DB
	MetricsRegistry *prometheus.Registry
}

// NewContainer creates and wires all singleton services
func NewContainer(logger *logging.ChanneledLogger) (*Container, error) {
	perfTracker := performance.NewTracker(config.SlowPipelineThreshold, logger)
	resolver := geoip.NewResolver(logger)
	broadcaster := messaging.NewBroadcaster(logger)

	var telemetryDB *database.DB
	var telemetryRepo *telemetry.EventRepository
	var store services.EventStore

	if config.TelemetryEnabled {
		db, err := database.NewTelemetryConnection(logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open telemetry store: %w", err)
		}

		repo := telemetry.NewEventRepository(db, logger)
		if err := repo.EnsureSchema(); err != nil {
			db.Close()
			return nil, err
		}

		telemetryDB = db
		telemetryRepo = repo
		store = repo
	}

	return &Container{
		// Pipeline Services (stateless singletons)
		ClassifierService: services.NewClassifierService(logger),
		IntentService:     services.NewIntentService(logger),
		TravelService:     services.NewTravelService(logger),
		AssemblerService:  services.NewAssemblerService(logger),
		VariantService:    services.NewVariantService(logger),

		// Stateful services
		TelemetryService: services.NewTelemetryService(store, broadcaster, logger),

		// Infrastructure
		Logger:          logger,
		PerfTracker:     perfTracker,
		Resolver:        resolver,
		Broadcaster:     broadcaster,
		TelemetryRepo:   telemetryRepo,
		TelemetryDB:     telemetryDB,
		MetricsRegistry: metrics.NewRegistry(),
	}, nil
}

// Close releases infrastructure resources owned by the container.
func (c *Container) Close() error {
	if c.TelemetryDB != nil {
		return c.TelemetryDB.Close()
	}
	return nil
}
