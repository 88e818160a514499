package smoke

import (
	"time"

	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/pkg/logger"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the dashboard service
	Limit   int           // Top-countries limit requested per check
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	LogFile string        // Log file for run output
	Verbose bool          // Log every check

	// PollInterval is the delay between state polls while a load settles.
	PollInterval time.Duration
	// Logger receives progress and results; nil discards them.
	Logger logger.Logger
}

// Check is one filter combination to load and verify.
type Check struct {
	Filters model.Filters
	Limit   int
}

// Outcome is the verdict on one check.
type Outcome struct {
	Check    Check
	Source   model.Source
	Degraded bool
	Problems []string
	Err      error
}

// Passed reports whether the check loaded and satisfied every property.
func (o Outcome) Passed() bool {
	return o.Err == nil && len(o.Problems) == 0
}

// Stats holds run statistics.
type Stats struct {
	Checks    int
	Passed    int
	Failed    int
	Degraded  int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
