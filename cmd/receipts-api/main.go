// Command receipts-api serves dashboard payloads from the SQLite store
// written by ingest, or from the bundled dataset in mock mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tourism/internal/adapters/http/receiptsapi"
	"github.com/okian/tourism/internal/adapters/mock"
	"github.com/okian/tourism/internal/adapters/repository"
	"github.com/okian/tourism/internal/config"
	"github.com/okian/tourism/internal/receipts"
	"github.com/okian/tourism/pkg/logger"
	"github.com/okian/tourism/pkg/metrics"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("receipts-api: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Named("receipts-api")
	metrics.Init(append(cfg.MetricsOptions(), metrics.WithSubsystem("receipts"))...)

	backend, closer, err := newBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Error(ctx, "failed to close store", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr: cfg.APIAddr,
		Handler: receiptsapi.NewServer(backend,
			receiptsapi.WithAllowedOrigins(cfg.AllowedOrigins),
			receiptsapi.WithQueryTimeout(cfg.RequestTimeout()),
			receiptsapi.WithLogger(log),
		).Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting receipts API",
			logger.String("addr", cfg.APIAddr),
			logger.String("backend", backend.Source()),
			logger.Any("allowed_origins", cfg.AllowedOrigins),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "receipts API stopped")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newBackend opens the store unless cfg selects mock mode.
func newBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*receipts.Service, io.Closer, error) {
	if cfg.MockMode() {
		var (
			ds  *mock.Dataset
			err error
		)
		if cfg.MockFile != "" {
			ds, err = mock.LoadFile(cfg.MockFile)
		} else {
			ds, err = mock.Load()
		}
		if err != nil {
			return nil, nil, err
		}
		return receipts.New(
			receipts.WithDataset(ds),
			receipts.WithRowCap(cfg.TableRowCap),
			receipts.WithLogger(log),
		), nopCloser{}, nil
	}

	store, err := repository.Open(ctx, cfg.DBPath, repository.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return receipts.New(
		receipts.WithStore(store),
		receipts.WithRowCap(cfg.TableRowCap),
		receipts.WithLogger(log),
	), store, nil
}
