package services

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	domain "github.com/gedlingdental/cohort-go/internal/domain/telemetry"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/geoip"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/messaging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/metrics"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

// EventStore persists flushed telemetry batches.
type EventStore interface {
	StoreBatch(entries []domain.Entry) error
}

// TelemetryService owns the bounded in-memory event buffer. Events are
// flushed to the store on a timer, when the buffer crosses the flush
// threshold, and on shutdown. The buffer is best-effort: when full, the
// oldest events are dropped, and an unflushed tail may be lost on crash.
type TelemetryService struct {
	mu             sync.Mutex
	buffer         []domain.Entry
	capacity       int
	flushThreshold int
	flushInterval  time.Duration

	store       EventStore
	broadcaster *messaging.Broadcaster
	logger      *logging.ChanneledLogger

	flushCh chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// NewTelemetryService creates the telemetry buffer service. A nil store
// disables persistence; events are still broadcast to stream clients.
func NewTelemetryService(store EventStore, broadcaster *messaging.Broadcaster, logger *logging.ChanneledLogger) *TelemetryService {
	return &TelemetryService{
		buffer:         make([]domain.Entry, 0, config.TelemetryBufferSize),
		capacity:       config.TelemetryBufferSize,
		flushThreshold: config.TelemetryFlushThreshold,
		flushInterval:  config.TelemetryFlushInterval,
		store:          store,
		broadcaster:    broadcaster,
		logger:         logger,
		flushCh:        make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start launches the flush loop. Must be called once before Record.
func (s *TelemetryService) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.run()
	s.logger.Telemetry().Info("Telemetry service started",
		"bufferSize", s.capacity,
		"flushThreshold", s.flushThreshold,
		"flushInterval", s.flushInterval)
}

// Record appends one event to the buffer. The raw client IP is anonymized
// here, before the event reaches the buffer, the stream, or the store.
func (s *TelemetryService) Record(eventType, rawIP, userAgent, path string, ch *cohort.Cohort, variant string) {
	entry := domain.Entry{
		ID:           ulid.Make().String(),
		CreatedAt:    time.Now().UTC(),
		EventType:    eventType,
		AnonymizedIP: geoip.AnonymizeIP(rawIP),
		UserAgent:    userAgent,
		Path:         path,
		Variant:      variant,
	}
	if ch != nil {
		entry.GeoBucket = ch.Geo
		entry.City = ch.City
		entry.Country = ch.Country
		entry.Device = string(ch.Device)
	}

	s.mu.Lock()
	if len(s.buffer) >= s.capacity {
		// Buffer full: drop the oldest event rather than block or grow.
		s.buffer = s.buffer[1:]
	}
	s.buffer = append(s.buffer, entry)
	pending := len(s.buffer)
	s.mu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(entry)
	}

	if pending >= s.flushThreshold {
		select {
		case s.flushCh <- struct{}{}:
		default:
		}
	}
}

// Pending returns the number of buffered, unflushed events.
func (s *TelemetryService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

func (s *TelemetryService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.flushCh:
			s.flush()
		case <-s.stopCh:
			s.flush()
			return
		}
	}
}

// flush drains the buffer and stores the batch. On store failure the batch
// is discarded; telemetry is best-effort and must never back up the engine.
func (s *TelemetryService) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]domain.Entry, 0, s.capacity)
	s.mu.Unlock()

	if s.store == nil {
		return
	}

	if err := s.store.StoreBatch(batch); err != nil {
		metrics.TelemetryFlushes.WithLabelValues("error").Inc()
		s.logger.Telemetry().Error("Telemetry flush failed, batch dropped",
			"error", err.Error(), "batchSize", len(batch))
		return
	}

	metrics.TelemetryFlushes.WithLabelValues("ok").Inc()
	s.logger.Telemetry().Debug("Telemetry flushed", "batchSize", len(batch))
}

// Shutdown stops the flush loop after a final drain, bounded by ctx.
func (s *TelemetryService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	close(s.stopCh)
	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
