// Package smoke drives a running dashboard service through every filter
// combination and checks the dashboards it returns.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/pkg/logger"
)

// Defaults for a smoke run.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultLimit        = 5
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
	settleTimeout       = 30 * time.Second
	percentage          = 100
)

// Run executes the complete smoke test against config.BaseURL.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	stats := &Stats{StartTime: time.Now()}
	log := config.Logger

	log.Info(ctx, "starting dashboard smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Int("limit", config.Limit),
		logger.Bool("verbose", config.Verbose),
	)

	client := NewClient(config.BaseURL, config.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, err
	}
	log.Info(ctx, "service is healthy")

	checks, err := Plan(ctx, client, config.Limit)
	if err != nil {
		return stats, err
	}
	log.Info(ctx, "checks planned", logger.Int("checks", len(checks)))

	outcomes := RunChecks(ctx, client, config, checks)
	tally(stats, outcomes)
	for _, o := range outcomes {
		if o.Passed() {
			continue
		}
		fields := []logger.Field{
			logger.Any("filters", o.Check.Filters),
			logger.Any("problems", o.Problems),
		}
		if o.Err != nil {
			fields = append(fields, logger.Error(o.Err))
		}
		log.Warn(ctx, "check failed", fields...)
	}

	var errs []error
	if stats.Failed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d", ErrChecks, stats.Failed, stats.Checks))
	}
	if len(checks) >= 2 {
		if err := CheckStateOrdering(ctx, client, checks[0].Filters, checks[len(checks)-1].Filters, config.PollInterval); err != nil {
			errs = append(errs, err)
		} else {
			log.Info(ctx, "state settled on the newest filters")
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, errors.Join(errs...)
}

// RunChecks loads and verifies every check with config.Workers workers.
// Outcomes keep the order of checks; checks cut off by ctx report
// context.Canceled.
func RunChecks(ctx context.Context, client *Client, config *Config, checks []Check) []Outcome {
	applyDefaults(config)
	outcomes := make([]Outcome, len(checks))
	for i, c := range checks {
		outcomes[i] = Outcome{Check: c, Err: context.Canceled}
	}
	var done int64

	jobs := make(chan int, config.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = runCheck(ctx, client, checks[idx])
				n := atomic.AddInt64(&done, 1)
				if config.Verbose {
					config.Logger.Info(ctx, "check finished",
						logger.Int64("done", n),
						logger.Int("total", len(checks)),
						logger.Any("filters", checks[idx].Filters),
						logger.Bool("passed", outcomes[idx].Passed()),
					)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range checks {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	return outcomes
}

func runCheck(ctx context.Context, client *Client, c Check) Outcome {
	resp, err := client.Dashboard(ctx, c.Filters, c.Limit)
	if err != nil {
		return Outcome{Check: c, Err: err}
	}
	return Outcome{
		Check:    c,
		Source:   resp.Data.Source,
		Degraded: resp.Degraded,
		Problems: Verify(c, resp),
	}
}

// CheckStateOrdering selects a and then b in quick succession and waits for
// the background state to settle. The settled state must carry b's token
// and filters, whatever order the two loads finish in.
func CheckStateOrdering(ctx context.Context, client *Client, a, b model.Filters, poll time.Duration) error {
	first, err := client.SetFilters(ctx, a)
	if err != nil {
		return err
	}
	second, err := client.SetFilters(ctx, b)
	if err != nil {
		return err
	}
	if second <= first {
		return fmt.Errorf("%w: token %d after %d", ErrStateOrder, second, first)
	}

	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		st, err := client.State(ctx)
		if err != nil {
			return err
		}
		if !st.Loading && st.Token >= second {
			return settled(st.Token, second, st.Filters, b, st.Data)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrStateOrder, ctx.Err())
		case <-ticker.C:
		}
	}
}

func settled(token, issued uint64, got, f model.Filters, d *model.Dashboard) error {
	// Another client may have moved the state on.
	if token != issued {
		return nil
	}
	want := f.Normalized()
	if got.Region != want.Region {
		return fmt.Errorf("%w: region %q, want %q", ErrStateOrder, got.Region, want.Region)
	}
	if d != nil && want.Year != nil && d.Year != *want.Year {
		return fmt.Errorf("%w: year %d, want %d", ErrStateOrder, d.Year, *want.Year)
	}
	return nil
}

func tally(stats *Stats, outcomes []Outcome) {
	stats.Checks = len(outcomes)
	for _, o := range outcomes {
		if o.Passed() {
			stats.Passed++
		} else {
			stats.Failed++
		}
		if o.Degraded {
			stats.Degraded++
		}
	}
}

func applyDefaults(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var passRate float64
	if stats.Checks > 0 {
		passRate = float64(stats.Passed) / float64(stats.Checks) * percentage
	}
	log.Info(ctx, "final statistics",
		logger.Int("checks", stats.Checks),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Int("degraded", stats.Degraded),
		logger.Float64("passRate", passRate),
		logger.Duration("duration", stats.Duration),
	)
}
