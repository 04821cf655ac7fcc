// Package telemetry provides the concrete SQL-based implementation for
// telemetry event persistence.
//
// PURPOSE: Persist batched page-view events flushed from the in-memory
// ring buffer. Entries arrive already anonymized; this layer never sees a
// raw client IP.
package telemetry

import (
	"fmt"
	"time"

	domain "github.com/gedlingdental/cohort-go/internal/domain/telemetry"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/persistence/database"
)

// EventRepository handles telemetry event persistence to the database.
type EventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewEventRepository creates a new instance of the repository.
func NewEventRepository(db *database.DB, logger *logging.ChanneledLogger) *EventRepository {
	return &EventRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the events table when it does not exist yet.
func (r *EventRepository) EnsureSchema() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS telemetry_events (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			event_type TEXT NOT NULL,
			ip TEXT NOT NULL,
			user_agent TEXT,
			path TEXT NOT NULL,
			geo_bucket TEXT,
			city TEXT,
			country TEXT,
			device TEXT,
			variant TEXT
		)`

	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to ensure telemetry schema: %w", err)
	}
	return nil
}

// StoreBatch inserts a flushed batch of entries in a single transaction.
func (r *EventRepository) StoreBatch(entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	const query = `
		INSERT INTO telemetry_events (id, created_at, event_type, ip, user_agent, path, geo_bucket, city, country, device, variant)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin telemetry batch: %w", err)
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare telemetry insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		_, err := stmt.Exec(
			entry.ID,
			entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			entry.EventType,
			entry.AnonymizedIP,
			entry.UserAgent,
			entry.Path,
			entry.GeoBucket,
			entry.City,
			entry.Country,
			entry.Device,
			entry.Variant,
		)
		if err != nil {
			tx.Rollback()
			r.logger.Database().Error("Telemetry batch insert failed",
				"error", err.Error(),
				"entryId", entry.ID,
				"batchSize", len(entries))
			return fmt.Errorf("failed to store telemetry batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit telemetry batch: %w", err)
	}

	r.logger.Database().Info("Telemetry batch stored",
		"batchSize", len(entries),
		"duration", time.Since(start))
	return nil
}

// Recent returns the most recent entries up to limit, newest first.
func (r *EventRepository) Recent(limit int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	const query = `
		SELECT id, created_at, event_type, ip, user_agent, path, geo_bucket, city, country, device, variant
		FROM telemetry_events
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent telemetry: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0, limit)
	for rows.Next() {
		var entry domain.Entry
		var createdAt string
		if err := rows.Scan(
			&entry.ID, &createdAt, &entry.EventType, &entry.AnonymizedIP,
			&entry.UserAgent, &entry.Path, &entry.GeoBucket, &entry.City,
			&entry.Country, &entry.Device, &entry.Variant,
		); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry row: %w", err)
		}
		if parsed, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
