package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tourism/internal/adapters/remote"
	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/internal/domain/normalize"
	"github.com/okian/tourism/pkg/logger"
	"github.com/okian/tourism/pkg/metrics"
)

const (
	defaultTopLimit = 5
	defaultMaxLimit = 50
)

// Fetcher retrieves raw dashboard payloads from the receipts API.
type Fetcher interface {
	Dashboard(ctx context.Context, q remote.Query, requestID string) (normalize.WirePayload, error)
}

// Synthesizer builds dashboards from the bundled dataset.
type Synthesizer interface {
	Build(filters model.Filters, limit int) (model.Dashboard, error)
}

// Loader produces a dashboard for a filter selection, preferring the
// receipts API and falling back to the bundled dataset.
type Loader struct {
	remote    Fetcher
	dataset   Synthesizer
	forceMock bool
	topLimit  int
	maxLimit  int
	newID     func() string
	logger    logger.Logger
}

// LoaderOption applies a configuration option to the Loader.
type LoaderOption func(*Loader)

// WithRemote sets the receipts API client.
func WithRemote(f Fetcher) LoaderOption {
	return func(l *Loader) { l.remote = f }
}

// WithDataset sets the bundled dataset used for mock mode and fallback.
func WithDataset(s Synthesizer) LoaderOption {
	return func(l *Loader) { l.dataset = s }
}

// WithForceMock skips the network entirely.
func WithForceMock(force bool) LoaderOption {
	return func(l *Loader) { l.forceMock = force }
}

// WithLimits sets the default and maximum number of top countries.
func WithLimits(top, maxLimit int) LoaderOption {
	return func(l *Loader) {
		if top > 0 {
			l.topLimit = top
		}
		if maxLimit > 0 {
			l.maxLimit = maxLimit
		}
	}
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(gen func() string) LoaderOption {
	return func(l *Loader) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// WithLoaderLogger sets a custom logger for the loader.
func WithLoaderLogger(log logger.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}

// NewLoader constructs a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		topLimit: defaultTopLimit,
		maxLimit: defaultMaxLimit,
		newID:    uuid.NewString,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.topLimit > l.maxLimit {
		l.topLimit = l.maxLimit
	}
	return l
}

// Limit applies the default and the upper bound to a requested limit.
func (l *Loader) Limit(limit int) int {
	switch {
	case limit < 1:
		return l.topLimit
	case limit > l.maxLimit:
		return l.maxLimit
	}
	return limit
}

// ForceMock reports whether the loader never calls the receipts API.
func (l *Loader) ForceMock() bool { return l.forceMock }

// Load returns the dashboard for filters. A remote failure of any kind is
// recovered by synthesizing from the bundled dataset; the returned error is
// non-nil only when that synthesis fails too.
func (l *Loader) Load(ctx context.Context, filters model.Filters, limit int) (Result, error) {
	start := time.Now()
	f := filters.Normalized()
	limit = l.Limit(limit)
	reqID := l.newID()

	if l.forceMock {
		d, err := l.synthesize(f, limit, model.SourceMock)
		if err != nil {
			return l.fatal(ctx, reqID, err)
		}
		l.done(ctx, reqID, d, start)
		return Result{Data: d}, nil
	}

	d, err := l.fetch(ctx, f, limit, reqID)
	if err == nil {
		l.done(ctx, reqID, d, start)
		return Result{Data: d}, nil
	}

	l.logger.Warn(ctx, "receipts api failed, using bundled dataset",
		logger.String("request_id", reqID),
		logger.Error(err),
	)
	fallback, serr := l.synthesize(f, limit, model.SourceMockLocal)
	if serr != nil {
		return l.fatal(ctx, reqID, serr)
	}
	metrics.RecordFallback()
	l.done(ctx, reqID, fallback, start)
	return Result{Data: fallback, Warning: err}, nil
}

func (l *Loader) fetch(ctx context.Context, f model.Filters, limit int, reqID string) (model.Dashboard, error) {
	if l.remote == nil {
		return model.Dashboard{}, ErrNoRemote
	}
	p, err := l.remote.Dashboard(ctx, remote.Query{Year: f.Year, Region: f.Region, Limit: limit}, reqID)
	if err != nil {
		return model.Dashboard{}, err
	}
	return normalize.Dashboard(p)
}

func (l *Loader) synthesize(f model.Filters, limit int, source model.Source) (model.Dashboard, error) {
	if l.dataset == nil {
		return model.Dashboard{}, fmt.Errorf("%w: no bundled dataset", ErrNoData)
	}
	d, err := l.dataset.Build(f, limit)
	if err != nil {
		return model.Dashboard{}, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	d.Source = source
	return d, nil
}

func (l *Loader) fatal(ctx context.Context, reqID string, err error) (Result, error) {
	metrics.RecordFatalLoad()
	l.logger.Error(ctx, "dashboard load failed",
		logger.String("request_id", reqID),
		logger.Error(err),
	)
	return Result{}, err
}

func (l *Loader) done(ctx context.Context, reqID string, d model.Dashboard, start time.Time) {
	took := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordDashboardLoad(string(d.Source), took)
	l.logger.Debug(ctx, "dashboard loaded",
		logger.String("request_id", reqID),
		logger.String("data_source", string(d.Source)),
		logger.Int("year", d.Year),
		logger.Int("rows", len(d.TableRows)),
		logger.Float64("latency_ms", took),
	)
}
