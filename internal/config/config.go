// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() builds a Config with defaults; Load layers file and env on top.
//   - Validate reports every problem at once.
//   - External errors are wrapped with this package's sentinels.
package config

import (
	"time"

	"github.com/okian/tourism/pkg/metrics"
)

// Config contains process configuration shared by the dashboard service,
// the receipts API and the tools.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the dashboard HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// APIURL is the receipts API base URL.
	APIURL string `koanf:"api_url"`

	// UseMock skips the receipts API and serves the bundled dataset.
	UseMock bool `koanf:"use_mock"`

	// MockFile replaces the embedded dataset when set.
	MockFile string `koanf:"mock_file"`

	// TopLimit is the default number of top countries; MaxLimit caps it.
	TopLimit int `koanf:"top_limit"`
	MaxLimit int `koanf:"max_limit"`

	// RequestTimeoutMS bounds each receipts API call. Zero disables the bound.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// APIAddr is the receipts API listen address.
	APIAddr string `koanf:"api_addr"`

	// DBPath is the SQLite database written by ingest and read by the receipts API.
	DBPath string `koanf:"db_path"`

	// ServeMock makes the receipts API answer from the bundled dataset.
	ServeMock bool `koanf:"serve_mock"`

	// AllowedOrigins lists CORS origins for the receipts API.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// TableRowCap bounds table_rows in receipts API responses.
	TableRowCap int `koanf:"table_row_cap"`

	// MetricsNamespace prefixes every Prometheus metric.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsEnabled turns metric recording off when false.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsPrefix is prepended to every metric name after the subsystem.
	MetricsPrefix string `koanf:"metrics_prefix"`

	// MetricsBuckets replaces the latency histogram buckets, in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels attached to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		APIURL:           "http://localhost:8000",
		TopLimit:         5,
		MaxLimit:         50,
		RequestTimeoutMS: 10_000,
		APIAddr:          ":8000",
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:9080"},
		TableRowCap:      500,
		MetricsNamespace: "tourism",
		MetricsEnabled:   true,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// MetricsOptions translates the metrics settings for metrics.Init.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithMetricsEnabled(c.MetricsEnabled),
		metrics.WithMetricPrefix(c.MetricsPrefix),
		metrics.WithHistogramBuckets(c.MetricsBuckets),
		metrics.WithCustomLabels(c.MetricsLabels),
	}
}

// MockMode reports whether the receipts API should serve the bundled dataset.
func (c *Config) MockMode() bool {
	return c.ServeMock || c.DBPath == ""
}
