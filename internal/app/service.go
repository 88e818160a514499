// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/pkg/logger"
)

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	loader     *Loader
	controller *Controller

	// Configuration
	topLimit int
	clock    clockwork.Clock

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLoader sets the dashboard loader.
func WithLoader(l *Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
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

// WithServiceClock sets the clock used for state timestamps.
func WithServiceClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDefaultLimit sets the top-countries limit used by the background state.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topLimit = n
		}
	}
}

// New constructs a new Service. Without WithLoader every load fails with
// ErrNoData.
func New(opts ...Option) *Service {
	s := &Service{
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.loader == nil {
		s.loader = NewLoader(WithLoaderLogger(s.logger))
	}
	s.controller = NewController(s.loader,
		WithClock(s.clock),
		WithTopLimit(s.topLimit),
		WithControllerLogger(s.logger),
	)
	return s
}

// Start issues the initial load for the default filters.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting dashboard service...",
		logger.Bool("forceMock", s.loader.ForceMock()),
	)
	s.controller.Refresh(ctx)
	s.started = true
	return nil
}

// Stop waits for in-flight loads to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping dashboard service...")
	s.controller.Wait()
	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

// State returns the current dashboard state.
func (s *Service) State(_ context.Context) State {
	return s.controller.Snapshot()
}

// SetFilters selects new filters and returns the load token.
func (s *Service) SetFilters(ctx context.Context, f model.Filters) uint64 {
	return s.controller.SetFilters(ctx, f)
}

// Refresh reloads the current filters and returns the load token.
func (s *Service) Refresh(ctx context.Context) uint64 {
	return s.controller.Refresh(ctx)
}

// Dashboard loads synchronously without touching the shared state.
func (s *Service) Dashboard(ctx context.Context, f model.Filters, limit int) (Result, error) {
	return s.loader.Load(ctx, f, limit)
}

// Wait blocks until in-flight loads have completed.
func (s *Service) Wait() {
	s.controller.Wait()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := s.controller.Stats()
	stats["started"] = started
	stats["forceMock"] = s.loader.ForceMock()
	stats["goroutines"] = runtime.NumGoroutine()
	return stats
}
