package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "userapi"

var (
	histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	pageSizeBuckets  = []float64{0, 1, 5, 10, 25, 50, 100}
)

// PrometheusRecorder implements Recorder on a private registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	usersCreated   prometheus.Counter
	userConflicts  prometheus.Counter
	pageSize       prometheus.Histogram
	rateLimitHits  *prometheus.CounterVec
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewPrometheus registers the application collectors, plus the Go runtime
// and process collectors, on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Number of users created",
		}),
		userConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_conflicts_total",
			Help:      "Number of user creations rejected for a duplicate email",
		}),
		pageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "user_page_size",
			Help:      "Number of users returned per list request",
			Buckets:   pageSizeBuckets,
		}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.usersCreated,
		p.userConflicts,
		p.pageSize,
		p.rateLimitHits,
		p.requestTotal,
		p.requestLatency,
	)

	return p
}

// Gatherer returns the registry backing this recorder.
func (p *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return p.registry
}

// IncUserCreated increments the created counter.
func (p *PrometheusRecorder) IncUserCreated() {
	p.usersCreated.Inc()
}

// IncUserConflict increments the duplicate email counter.
func (p *PrometheusRecorder) IncUserConflict() {
	p.userConflicts.Inc()
}

// ObservePageSize records one served page of size items.
func (p *PrometheusRecorder) ObservePageSize(size int) {
	p.pageSize.Observe(float64(size))
}

// IncRateLimited increments the rejected request counter for route.
func (p *PrometheusRecorder) IncRateLimited(route string) {
	p.rateLimitHits.WithLabelValues(route).Inc()
}

// ObserveHTTPRequest records a finished request.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	p.requestTotal.With(labels).Inc()
	p.requestLatency.With(labels).Observe(duration.Seconds())
}
