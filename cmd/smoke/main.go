package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/tourism/internal/smoke"
	"github.com/okian/tourism/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", smoke.DefaultBaseURL, "Base URL of the dashboard service")
		limit   = flag.Int("limit", smoke.DefaultLimit, "Top-countries limit per check")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", smoke.DefaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for test output (default: smoke_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Log every check")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp(os.Stdout)
		return
	}

	closer, err := smoke.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &smoke.Config{
		BaseURL: *baseURL,
		Limit:   *limit,
		Workers: *workers,
		Timeout: *timeout,
		LogFile: *logFile,
		Verbose: *verbose,
		Logger:  logger.Get(),
	}
	if _, err := smoke.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		cancel()
		_ = closer.Close()
		os.Exit(1)
	}
}
