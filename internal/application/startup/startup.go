// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gedlingdental/cohort-go/internal/application/container"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/presentation/http/server"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	// Step 1: Create the channeled logger
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Startup().Info("Initializing cohort engine...")

	// Step 2: Create dependency injection container
	appContainer, err := container.NewContainer(logger)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 3: Start the telemetry flush loop
	appContainer.TelemetryService.Start()

	// Step 4: Initialize HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)
	logger.Startup().Info("HTTP server initialized", "port", port)

	// Step 5: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port,
		"telemetryEnabled", config.TelemetryEnabled)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Flushing telemetry...")
	if err := appContainer.TelemetryService.Shutdown(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during telemetry shutdown", "error", err.Error())
	}

	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing container resources", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return logger.Close()
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
