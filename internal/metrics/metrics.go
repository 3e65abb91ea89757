// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// The Prometheus implementation backs /metrics; the others serve tests
// and disabled metrics.
type Recorder interface {
	// User metrics
	IncUserCreated()
	IncUserConflict()
	ObservePageSize(size int)

	// HTTP metrics
	IncRateLimited(route string)
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
