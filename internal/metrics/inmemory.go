package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated        uint64
	UserConflicts       uint64
	PagesServed         uint64
	PageItemsTotal      uint64
	RateLimited         uint64
	HTTPRequests        uint64
	HTTPServerErrors    uint64
	HTTPDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	usersCreated        uint64
	userConflicts       uint64
	pagesServed         uint64
	pageItemsTotal      uint64
	rateLimited         uint64
	httpRequests        uint64
	httpServerErrors    uint64
	httpDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:        atomic.LoadUint64(&m.usersCreated),
		UserConflicts:       atomic.LoadUint64(&m.userConflicts),
		PagesServed:         atomic.LoadUint64(&m.pagesServed),
		PageItemsTotal:      atomic.LoadUint64(&m.pageItemsTotal),
		RateLimited:         atomic.LoadUint64(&m.rateLimited),
		HTTPRequests:        atomic.LoadUint64(&m.httpRequests),
		HTTPServerErrors:    atomic.LoadUint64(&m.httpServerErrors),
		HTTPDurationTotalNs: atomic.LoadInt64(&m.httpDurationTotalNs),
	}
}

// IncUserCreated increments the created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserConflict increments the duplicate email counter.
func (m *InMemoryRecorder) IncUserConflict() {
	atomic.AddUint64(&m.userConflicts, 1)
}

// ObservePageSize records one served page of size items.
func (m *InMemoryRecorder) ObservePageSize(size int) {
	atomic.AddUint64(&m.pagesServed, 1)
	atomic.AddUint64(&m.pageItemsTotal, uint64(size))
}

// IncRateLimited increments the rejected request counter.
func (m *InMemoryRecorder) IncRateLimited(route string) {
	atomic.AddUint64(&m.rateLimited, 1)
}

// ObserveHTTPRequest records a finished request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&m.httpServerErrors, 1)
	}
	atomic.AddInt64(&m.httpDurationTotalNs, duration.Nanoseconds())
}
