// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"database/sql"
	"time"

	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
}

// NewConnection establishes a new database connection for the specified driver.
func NewConnection(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// NewTelemetryConnection opens the telemetry store: a remote libsql database
// when TELEMETRY_DB_URL is set, otherwise a local SQLite file.
func NewTelemetryConnection(logger *logging.ChanneledLogger) (*DB, error) {
	driverName := "sqlite3"
	dataSourceName := config.TelemetryDBPath
	if config.TelemetryDBURL != "" {
		driverName = "libsql"
		dataSourceName = config.TelemetryDBURL
	}

	start := time.Now()
	logger.Database().Debug("Creating telemetry database connection", "driverName", driverName)

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open telemetry database", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	if err = db.Ping(); err != nil {
		logger.Database().Error("Telemetry database ping failed", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	logger.Database().Info("Telemetry database connection established",
		"driverName", driverName, "duration", time.Since(start))

	return &DB{db}, nil
}
