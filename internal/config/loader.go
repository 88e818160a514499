package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "TOURISM_"
	envConfig  = "TOURISM_CONFIG"
	envDotFile = "TOURISM_ENV_FILE"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TOURISM_CONFIG is set
//  3. env (prefix TOURISM_), including values from a .env file
//
// The .env file (TOURISM_ENV_FILE, default ".env") never overrides variables
// already present in the process environment.
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TOURISM_API_URL -> api_url. Underscores are kept to match the koanf tags.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" || key == "env_file" {
			return "", nil
		}
		switch key {
		case "allowed_origins":
			return key, splitList(value)
		case "metrics_buckets":
			return key, splitBuckets(value)
		case "metrics_labels":
			return key, splitLabels(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv(envDotFile)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitBuckets parses "5,50,500". An unparsable entry keeps the raw list so
// unmarshalling reports it.
func splitBuckets(v string) any {
	parts := splitList(v)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return parts
		}
		out = append(out, f)
	}
	return out
}

// splitLabels parses "team=data,env=prod".
func splitLabels(v string) map[string]any {
	out := make(map[string]any)
	for _, part := range splitList(v) {
		k, val, _ := strings.Cut(part, "=")
		out[strings.TrimSpace(k)] = strings.TrimSpace(val)
	}
	return out
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.APIAddr == "" {
		errs = append(errs, errors.New("api_addr must not be empty"))
	}
	if !c.UseMock {
		if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("api_url %q must be an absolute http(s) URL", c.APIURL))
		}
	}
	if c.TopLimit < 1 {
		errs = append(errs, fmt.Errorf("top_limit %d must be at least 1", c.TopLimit))
	}
	if c.MaxLimit < c.TopLimit {
		errs = append(errs, fmt.Errorf("max_limit %d must not be below top_limit %d", c.MaxLimit, c.TopLimit))
	}
	if c.RequestTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("request_timeout_ms %d must not be negative", c.RequestTimeoutMS))
	}
	if c.TableRowCap < 1 {
		errs = append(errs, fmt.Errorf("table_row_cap %d must be at least 1", c.TableRowCap))
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			errs = append(errs, fmt.Errorf("metrics_buckets %v must be strictly increasing", c.MetricsBuckets))
			break
		}
	}
	for k := range c.MetricsLabels {
		if k == "" {
			errs = append(errs, errors.New("metrics_labels must not have an empty name"))
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
