package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/pkg/logger"
	"github.com/okian/tourism/pkg/metrics"
)

// DashboardLoader is what the controller needs from a Loader.
type DashboardLoader interface {
	Load(ctx context.Context, filters model.Filters, limit int) (Result, error)
}

// State is a snapshot of the dashboard as the user sees it.
type State struct {
	Filters model.Filters `json:"filters"`
	Loading bool          `json:"loading"`
	// Error is the blocking failure message, or the degraded-mode notice
	// when Degraded is set.
	Error     string           `json:"error,omitempty"`
	Degraded  bool             `json:"degraded"`
	Token     uint64           `json:"token"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Data      *model.Dashboard `json:"data"`
}

// HasData reports whether a dashboard is loaded.
func (s State) HasData() bool { return s.Data != nil }

// Controller owns the current filters and the last loaded dashboard. Loads
// run asynchronously; each carries a token and only the newest token may
// publish its result.
type Controller struct {
	mu     sync.Mutex
	state  State
	loader DashboardLoader
	limit  int
	clock  clockwork.Clock
	logger logger.Logger
	wg     sync.WaitGroup

	started   uint64
	completed uint64
	stale     uint64
	degraded  uint64
	fatal     uint64
}

// ControllerOption applies a configuration option to the Controller.
type ControllerOption func(*Controller)

// WithClock sets the clock used for UpdatedAt.
func WithClock(c clockwork.Clock) ControllerOption {
	return func(ctl *Controller) {
		if c != nil {
			ctl.clock = c
		}
	}
}

// WithTopLimit sets the limit passed to every load. Zero lets the loader
// apply its default.
func WithTopLimit(n int) ControllerOption {
	return func(ctl *Controller) { ctl.limit = n }
}

// WithControllerLogger sets a custom logger for the controller.
func WithControllerLogger(log logger.Logger) ControllerOption {
	return func(ctl *Controller) {
		if log != nil {
			ctl.logger = log
		}
	}
}

// NewController constructs a Controller with "latest year, all regions"
// selected and nothing loaded.
func NewController(loader DashboardLoader, opts ...ControllerOption) *Controller {
	c := &Controller{
		loader: loader,
		clock:  clockwork.NewRealClock(),
		logger: logger.Nop(),
		state:  State{Filters: model.Filters{}.Normalized()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetFilters selects new filters and starts loading them. It returns the
// token of the issued load.
func (c *Controller) SetFilters(ctx context.Context, f model.Filters) uint64 {
	return c.begin(ctx, f.Normalized())
}

// Refresh reloads the current filters.
func (c *Controller) Refresh(ctx context.Context) uint64 {
	c.mu.Lock()
	f := c.state.Filters.Normalized()
	c.mu.Unlock()
	return c.begin(ctx, f)
}

func (c *Controller) begin(ctx context.Context, f model.Filters) uint64 {
	c.mu.Lock()
	c.state.Token++
	token := c.state.Token
	c.state.Filters = f
	c.state.Loading = true
	c.state.Error = ""
	c.state.Degraded = false
	c.started++
	c.mu.Unlock()

	// Loads outlive the request that triggered them.
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.loader.Load(ctx, f, c.limit)
		c.complete(ctx, token, res, err)
	}()
	return token
}

func (c *Controller) complete(ctx context.Context, token uint64, res Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.state.Token {
		c.stale++
		metrics.RecordStaleDiscard()
		c.logger.Debug(ctx, "discarding stale load result",
			logger.Uint64("token", token),
			logger.Uint64("latest", c.state.Token),
		)
		return
	}

	c.completed++
	c.state.Loading = false
	c.state.UpdatedAt = c.clock.Now()
	if err != nil {
		c.fatal++
		c.state.Data = nil
		c.state.Error = err.Error()
		c.state.Degraded = false
		return
	}
	d := res.Data.Clone()
	c.state.Data = &d
	c.state.Error = res.Notice()
	c.state.Degraded = res.Degraded()
	if c.state.Degraded {
		c.degraded++
	}
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Filters = c.state.Filters.Normalized()
	if c.state.Data != nil {
		d := c.state.Data.Clone()
		s.Data = &d
	}
	return s
}

// Wait blocks until every issued load has completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Stats returns load counters for monitoring.
func (c *Controller) Stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]any{
		"loadsStarted":   c.started,
		"loadsCompleted": c.completed,
		"staleDiscarded": c.stale,
		"degradedLoads":  c.degraded,
		"fatalLoads":     c.fatal,
		"token":          c.state.Token,
		"loading":        c.state.Loading,
		"hasData":        c.state.Data != nil,
	}
}
