package smoke

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/tourism/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stdout and logFile. An empty logFile
// gets a timestamped name. The returned closer releases the file.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "smoke_log_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file, nil
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Tourism Dashboard Smoke Test
============================

Loads every year and region the dashboard offers, checks each dashboard
and checks that the background state settles on the newest filters.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string
        Base URL of the dashboard service (default "http://localhost:9080")
  -limit int
        Top-countries limit per check (default 5)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Log file for test output (default: smoke_log_TIMESTAMP.log)
  -verbose
        Log every check
  -help
        Show this help message

Examples:
  go run ./cmd/smoke
  go run ./cmd/smoke -url http://localhost:8080 -limit 10 -workers 8
`)
}
