package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream portal call metrics
	UpstreamRequestTotal    *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Reference data cache metrics
	ReferenceCacheTotal *prometheus.CounterVec

	// Document recovery metrics
	DocumentsStored        prometheus.Counter
	DocumentDecodeFailures prometheus.Counter
	DocumentEvictions      prometheus.Counter

	// Search outcome metrics
	SearchTotal *prometheus.CounterVec
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics returns the process-wide Metrics, creating and registering it on first use
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		UpstreamRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jagriti_upstream_requests_total",
			Help: "Total number of calls made to the e-Jagriti portal",
		}, []string{"endpoint", "outcome"}),

		UpstreamRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jagriti_upstream_request_duration_seconds",
			Help:    "e-Jagriti portal call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "outcome"}),

		ReferenceCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jagriti_reference_cache_lookups_total",
			Help: "Reference data cache lookups by table and result",
		}, []string{"table", "result"}),

		DocumentsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jagriti_documents_stored_total",
			Help: "Embedded documents decoded and stored",
		}),

		DocumentDecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jagriti_document_decode_failures_total",
			Help: "Embedded documents that could not be decoded",
		}),

		DocumentEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jagriti_document_evictions_total",
			Help: "Documents evicted from the bounded document store",
		}),

		SearchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jagriti_searches_total",
			Help: "Case searches by kind and outcome",
		}, []string{"kind", "outcome"}),
	}

	registerMetrics(m)

	globalMetrics = m

	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	m.HTTPRequestTotal = registerOrGet(m.HTTPRequestTotal).(*prometheus.CounterVec)
	m.HTTPRequestDuration = registerOrGet(m.HTTPRequestDuration).(*prometheus.HistogramVec)
	m.UpstreamRequestTotal = registerOrGet(m.UpstreamRequestTotal).(*prometheus.CounterVec)
	m.UpstreamRequestDuration = registerOrGet(m.UpstreamRequestDuration).(*prometheus.HistogramVec)
	m.ReferenceCacheTotal = registerOrGet(m.ReferenceCacheTotal).(*prometheus.CounterVec)
	m.DocumentsStored = registerOrGet(m.DocumentsStored).(prometheus.Counter)
	m.DocumentDecodeFailures = registerOrGet(m.DocumentDecodeFailures).(prometheus.Counter)
	m.DocumentEvictions = registerOrGet(m.DocumentEvictions).(prometheus.Counter)
	m.SearchTotal = registerOrGet(m.SearchTotal).(*prometheus.CounterVec)
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}
