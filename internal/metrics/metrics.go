// Package metrics holds the Prometheus collectors shared by the crawler,
// the scheduler, the fetcher and the query server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "spidersearch"

// Metrics holds all collectors of the application.
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	PagesIndexed  prometheus.Counter
	TermsWritten  prometheus.Counter
	StorageErrors *prometheus.CounterVec
	RedirectsDrop prometheus.Counter
	QueuedTasks   prometheus.Gauge
	RunningTasks  prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	CacheLookups *prometheus.CounterVec
}

// New registers every collector on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the application collectors on reg only.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "crawler",
			Name:      "fetch_total",
			Help:      "Fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "crawler",
			Name:      "fetch_duration_seconds",
			Help:      "Fetch latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		PagesIndexed: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "crawler",
			Name:      "pages_indexed_total",
			Help:      "Documents written to the index.",
		}),
		TermsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "crawler",
			Name:      "terms_written_total",
			Help:      "Term frequencies written to the index.",
		}),
		StorageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "index",
			Name:      "errors_total",
			Help:      "Failed index operations.",
		}, []string{"op"}),
		RedirectsDrop: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "crawler",
			Name:      "redirects_dropped_total",
			Help:      "Redirect chains dropped at the hop limit.",
		}),
		QueuedTasks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "queued_tasks",
			Help:      "Tasks waiting for a worker.",
		}),
		RunningTasks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "running_tasks",
			Help:      "Tasks being executed.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Query server requests by route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Query server latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "search",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one fetch.
func (m *Metrics) ObserveFetch(outcome string, elapsed time.Duration) {
	m.FetchTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// PageIndexed counts a stored document.
func (m *Metrics) PageIndexed() {
	m.PagesIndexed.Inc()
}

// TermWritten counts a stored term frequency.
func (m *Metrics) TermWritten() {
	m.TermsWritten.Inc()
}

// StorageError counts a failed index operation.
func (m *Metrics) StorageError(op string) {
	m.StorageErrors.WithLabelValues(op).Inc()
}

// RedirectDropped counts a redirect chain cut at the hop limit.
func (m *Metrics) RedirectDropped() {
	m.RedirectsDrop.Inc()
}

// ObserveRequest records one query server request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CacheLookup records a cache hit, miss or error.
func (m *Metrics) CacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}
