// Package performance provides performance tracking and monitoring
// capabilities for Formflow operations.
package performance

import (
	"fmt"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers map[string]*Marker // Active and completed markers by unique ID
	mu      sync.RWMutex       // Protects concurrent access
	started time.Time          // When tracking started
	config  *TrackerConfig     // Tracker configuration
	nextID  uint64
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers            int           `json:"maxMarkers"`            // Maximum number of markers to retain
	SlowResponseThreshold time.Duration `json:"slowResponseThreshold"` // When to flag an operation as slow
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:            10000,
		SlowResponseThreshold: 500 * time.Millisecond,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}

	return &Tracker{
		markers: make(map[string]*Marker),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates and registers a marker for a new operation
func (t *Tracker) StartOperation(operation string) *Marker {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := fmt.Sprintf("%s-%d-%d", operation, time.Now().UnixNano(), t.nextID)

	marker := &Marker{
		Operation: operation,
		StartTime: time.Now(),
	}

	// Drop the whole map rather than track an unbounded number of markers.
	if len(t.markers) >= t.config.MaxMarkers {
		t.markers = make(map[string]*Marker)
	}
	t.markers[id] = marker

	return marker
}

// CompletedOperations returns the number of completed markers retained
func (t *Tracker) CompletedOperations() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, marker := range t.markers {
		if marker.Completed {
			count++
		}
	}
	return count
}

// SlowOperations returns completed markers that exceeded the slow threshold
func (t *Tracker) SlowOperations() []*Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var slow []*Marker
	for _, marker := range t.markers {
		if marker.Completed && marker.Duration > t.config.SlowResponseThreshold {
			slow = append(slow, marker)
		}
	}
	return slow
}

// Uptime returns how long the tracker has been running
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
