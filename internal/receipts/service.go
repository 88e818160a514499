// Package receipts answers dashboard queries for the receipts API, either
// from the SQLite store or from the bundled dataset.
package receipts

import (
	"context"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tourism/internal/adapters/mock"
	"github.com/okian/tourism/internal/adapters/repository"
	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/internal/domain/normalize"
	"github.com/okian/tourism/pkg/logger"
)

// Query limits and the declared sources.
const (
	DefaultLimit  = 5
	MaxLimit      = 50
	DefaultRowCap = 500

	SourceMock   = "mock"
	SourceSQLite = "sqlite"
)

// Query selects one dashboard.
type Query struct {
	// Year is nil for the latest year with data.
	Year   *int
	Region string
	Limit  int
}

// Health is the body of the health endpoint.
type Health struct {
	Status     string `json:"status"`
	Source     string `json:"source"`
	LatestYear *int   `json:"latest_year,omitempty"`
}

// Service builds receipts API payloads.
type Service struct {
	store   repository.Reader
	dataset *mock.Dataset
	rowCap  int
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore serves queries from the store. It takes precedence over
// WithDataset.
func WithStore(r repository.Reader) Option {
	return func(s *Service) { s.store = r }
}

// WithDataset serves queries from the bundled dataset.
func WithDataset(ds *mock.Dataset) Option {
	return func(s *Service) { s.dataset = ds }
}

// WithRowCap caps the number of table rows returned from the store.
func WithRowCap(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rowCap = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service.
func New(opts ...Option) *Service {
	s := &Service{rowCap: DefaultRowCap, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the source declared in payloads.
func (s *Service) Source() string {
	if s.store != nil {
		return SourceSQLite
	}
	return SourceMock
}

// Dashboard returns the payload for q.
func (s *Service) Dashboard(ctx context.Context, q Query) (normalize.WirePayload, error) {
	if q.Limit < 1 || q.Limit > MaxLimit {
		return normalize.WirePayload{}, fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidLimit, q.Limit, MaxLimit)
	}
	region := q.Region
	if region == "" {
		region = model.AllRegions
	}

	switch {
	case s.store != nil:
		return s.fromStore(ctx, q.Year, region, q.Limit)
	case s.dataset != nil:
		return s.fromDataset(q.Year, region, q.Limit)
	}
	return normalize.WirePayload{}, ErrNoBackend
}

func (s *Service) fromDataset(year *int, region string, limit int) (normalize.WirePayload, error) {
	d, err := s.dataset.Build(model.Filters{Year: year, Region: region}, limit)
	if err != nil {
		return normalize.WirePayload{}, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	return normalize.ToWire(d, SourceMock), nil
}

func (s *Service) fromStore(ctx context.Context, year *int, region string, limit int) (normalize.WirePayload, error) {
	var (
		years   []int
		regions []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		years, err = s.store.Years(gctx)
		return err
	})
	g.Go(func() (err error) {
		regions, err = s.store.Regions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return normalize.WirePayload{}, err
	}
	if len(years) == 0 {
		return normalize.WirePayload{}, ErrNoData
	}

	latest := years[len(years)-1]
	target := latest
	if year != nil {
		target = *year
	}
	if !slices.Contains(years, target) {
		return normalize.WirePayload{}, fmt.Errorf("%w: %d (available: %v)", ErrUnknownYear, target, years)
	}

	var (
		top, table []model.CountryRow
		totals     []model.YearTotal
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		top, err = s.store.Receipts(gctx, target, region, limit)
		return err
	})
	g.Go(func() (err error) {
		table, err = s.store.Receipts(gctx, target, region, s.rowCap)
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.store.TotalsByYear(gctx, region)
		return err
	})
	if err := g.Wait(); err != nil {
		return normalize.WirePayload{}, err
	}
	for i := range totals {
		totals[i].TotalUSDBillions = round2(totals[i].TotalUSDBillions)
	}

	s.logger.Debug(ctx, "dashboard query served",
		logger.Int("year", target),
		logger.String("region", region),
		logger.Int("rows", len(table)),
	)
	return normalize.ToWire(model.Dashboard{
		LatestYear:   latest,
		Year:         target,
		Years:        years,
		Regions:      append([]string{model.AllRegions}, regions...),
		TopCountries: top,
		TotalsByYear: totals,
		TableRows:    table,
	}, SourceSQLite), nil
}

// Health reports the backend and, for the store, its latest year.
func (s *Service) Health(ctx context.Context) (Health, error) {
	h := Health{Status: "ok", Source: s.Source()}
	if s.store == nil {
		return h, nil
	}
	latest, ok, err := s.store.LatestYear(ctx)
	if err != nil {
		return Health{}, err
	}
	if ok {
		h.LatestYear = &latest
	}
	return h, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
