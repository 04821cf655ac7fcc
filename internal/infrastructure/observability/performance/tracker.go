package performance

import (
	"sync"
	"time"

	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
)

const maxCompletedMarkers = 1000

// Tracker collects performance markers for pipeline operations. Completed
// markers are kept in a bounded window for the admin endpoints.
type Tracker struct {
	mu        sync.RWMutex
	active    map[*Marker]struct{}
	completed []Marker
	threshold time.Duration
	logger    *logging.ChanneledLogger
}

// NewTracker creates a tracker that warns through the logger when an
// operation exceeds the slow threshold.
func NewTracker(threshold time.Duration, logger *logging.ChanneledLogger) *Tracker {
	return &Tracker{
		active:    make(map[*Marker]struct{}),
		completed: make([]Marker, 0, maxCompletedMarkers),
		threshold: threshold,
		logger:    logger,
	}
}

// StartOperation begins tracking a named operation.
func (t *Tracker) StartOperation(operation, requestID string) *Marker {
	marker := &Marker{
		Operation: operation,
		RequestID: requestID,
		StartTime: time.Now(),
		Success:   true,
	}

	t.mu.Lock()
	t.active[marker] = struct{}{}
	t.mu.Unlock()

	return marker
}

// CompleteOperation finalizes a marker and records it in the completed window.
func (t *Tracker) CompleteOperation(marker *Marker) {
	marker.Complete()

	t.mu.Lock()
	delete(t.active, marker)
	t.completed = append(t.completed, *marker)
	if len(t.completed) > maxCompletedMarkers {
		t.completed = t.completed[len(t.completed)-maxCompletedMarkers:]
	}
	t.mu.Unlock()

	if t.threshold > 0 && marker.Duration > t.threshold && t.logger != nil {
		path, _ := marker.Metadata["path"].(string)
		t.logger.LogSlowPipeline(path, marker.Duration, marker.RequestID)
	}
}

// GetRecentMetrics returns completed markers within the given window.
func (t *Tracker) GetRecentMetrics(within time.Duration) []Marker {
	cutoff := time.Now().Add(-within)

	t.mu.RLock()
	defer t.mu.RUnlock()

	metrics := make([]Marker, 0)
	for _, m := range t.completed {
		if m.EndTime.After(cutoff) {
			metrics = append(metrics, m)
		}
	}
	return metrics
}

// ActiveCount returns the number of operations currently in flight.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}
