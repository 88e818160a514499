package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the tourism services.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Dashboard loading
	dashboardLoads     *prometheus.CounterVec
	dashboardFallbacks prometheus.Counter
	dashboardFatal     prometheus.Counter
	loadLatency        prometheus.Histogram
	staleDiscarded     prometheus.Counter

	// Receipts API client
	remoteRequests *prometheus.CounterVec
	remoteLatency  prometheus.Histogram

	// Outputs
	exports        *prometheus.CounterVec
	chartsRendered *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Store and ingestion
	storeQueryLatency *prometheus.HistogramVec
	ingestedRows      *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

type global struct {
	manager  *Manager
	registry *prometheus.Registry
}

var current atomic.Pointer[global] //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // metrics usable before Init is called
	Init()
}

// Init replaces the global manager with a fresh one on a new registry. It is
// called once at startup, before any handler records a metric.
func Init(opts ...Option) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := NewManager(append([]Option{WithPrometheusRegistry(reg)}, opts...)...)
	current.Store(&global{manager: m, registry: reg})
	return reg
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tourism",
		subsystem:        "dashboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.dashboardLoads = auto.NewCounterVec(m.counterOpts("loads_total", "Dashboard loads by data source"), []string{"source"})
	m.dashboardFallbacks = auto.NewCounter(m.counterOpts("fallbacks_total", "Loads served from the bundled dataset after a remote failure"))
	m.dashboardFatal = auto.NewCounter(m.counterOpts("fatal_loads_total", "Loads that produced no data at all"))
	m.loadLatency = auto.NewHistogram(m.histogramOpts("load_latency_milliseconds", "End-to-end dashboard load latency"))
	m.staleDiscarded = auto.NewCounter(m.counterOpts("stale_results_discarded_total", "Load results dropped because a newer load was issued"))

	m.remoteRequests = auto.NewCounterVec(m.counterOpts("remote_requests_total", "Receipts API requests by status class"), []string{"status_class"})
	m.remoteLatency = auto.NewHistogram(m.histogramOpts("remote_latency_milliseconds", "Receipts API request latency"))

	m.exports = auto.NewCounterVec(m.counterOpts("exports_total", "Table exports by format"), []string{"format"})
	m.chartsRendered = auto.NewCounterVec(m.counterOpts("charts_rendered_total", "Chart images rendered"), []string{"chart"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"})

	m.storeQueryLatency = auto.NewHistogramVec(m.histogramOpts("store_query_latency_milliseconds", "Receipts store query latency"), []string{"query"})
	m.ingestedRows = auto.NewCounterVec(m.counterOpts("ingested_rows_total", "Rows written by the ingestion job"), []string{"kind"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Most recent GC pause"))
}

func active() *Manager {
	m := current.Load().manager
	if !m.enabled {
		return nil
	}
	return m
}

// RecordDashboardLoad counts a completed load by source.
func RecordDashboardLoad(source string, latencyMs float64) {
	if m := active(); m != nil {
		m.dashboardLoads.WithLabelValues(source).Inc()
		m.loadLatency.Observe(latencyMs)
	}
}

// RecordFallback counts a load served from the bundled dataset after a remote failure.
func RecordFallback() {
	if m := active(); m != nil {
		m.dashboardFallbacks.Inc()
	}
}

// RecordFatalLoad counts a load that produced no data.
func RecordFatalLoad() {
	if m := active(); m != nil {
		m.dashboardFatal.Inc()
	}
}

// RecordStaleDiscard counts a load result dropped for being superseded.
func RecordStaleDiscard() {
	if m := active(); m != nil {
		m.staleDiscarded.Inc()
	}
}

// RecordRemoteRequest records a receipts API call. statusClass is "2xx",
// "5xx" and so on, or "error" for transport failures.
func RecordRemoteRequest(statusClass string, latencyMs float64) {
	if m := active(); m != nil {
		m.remoteRequests.WithLabelValues(statusClass).Inc()
		m.remoteLatency.Observe(latencyMs)
	}
}

// RecordExport counts a table export.
func RecordExport(format string) {
	if m := active(); m != nil {
		m.exports.WithLabelValues(format).Inc()
	}
}

// RecordChartRendered counts a rendered chart.
func RecordChartRendered(chart string) {
	if m := active(); m != nil {
		m.chartsRendered.WithLabelValues(chart).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := active(); m != nil {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordStoreQueryLatency records a store query latency.
func RecordStoreQueryLatency(query string, latencyMs float64) {
	if m := active(); m != nil {
		m.storeQueryLatency.WithLabelValues(query).Observe(latencyMs)
	}
}

// RecordIngestedRows counts rows written by the ingestion job.
func RecordIngestedRows(kind string, n int) {
	if m := active(); m != nil {
		m.ingestedRows.WithLabelValues(kind).Add(float64(n))
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry of the current global manager.
func GetRegistry() *prometheus.Registry {
	return current.Load().registry
}
