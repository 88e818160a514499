// Command ingest loads the World Bank tourism receipts download into the
// SQLite store served by receipts-api.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/okian/tourism/internal/adapters/repository"
	"github.com/okian/tourism/internal/config"
	"github.com/okian/tourism/internal/ingest"
	"github.com/okian/tourism/pkg/logger"
)

const defaultEnvFile = ".env"

type options struct {
	envFile string
	dataDir string
	dbPath  string
	reset   bool
	limit   int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err == nil {
		err = run(ctx, opts, os.Stdout)
	}
	if err != nil {
		os.Stderr.WriteString("ingest: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var o options
	set := flag.NewFlagSet("ingest", flag.ContinueOnError)
	set.SetOutput(errOut)
	set.StringVar(&o.envFile, "env-file", defaultEnvFile, "Path to a .env file with TOURISM_DB_PATH")
	set.StringVar(&o.dataDir, "data-dir", "data", "Directory holding "+ingest.TravelFile+" and "+ingest.MetadataFile)
	set.StringVar(&o.dbPath, "db", "", "SQLite database path (default: TOURISM_DB_PATH)")
	set.BoolVar(&o.reset, "reset", false, "Empty the store before loading")
	set.IntVar(&o.limit, "limit", 0, "Optional cap on the number of receipts rows to load")
	if err := set.Parse(args); err != nil {
		return o, err
	}
	if o.limit < 0 {
		return o, fmt.Errorf("-limit %d must not be negative", o.limit)
	}
	return o, nil
}

func run(ctx context.Context, o options, out io.Writer) error {
	if err := godotenv.Load(o.envFile); err != nil {
		if o.envFile != defaultEnvFile || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat)), logger.WithWriter(os.Stderr)); err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Named("ingest")

	dbPath := o.dbPath
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if dbPath == "" {
		return errors.New("set -db or TOURISM_DB_PATH")
	}

	ds, err := ingest.LoadDir(o.dataDir)
	if err != nil {
		return err
	}
	log.Info(ctx, "download cleaned",
		logger.String("data_dir", o.dataDir),
		logger.Int("countries", len(ds.Countries)),
		logger.Int("receipts", len(ds.Receipts)),
	)

	store, err := repository.Open(ctx, dbPath, repository.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "failed to close store", logger.Error(err))
		}
	}()

	sum, err := ingest.Run(ctx, store, ds, ingest.Options{Reset: o.reset, Limit: o.limit}, log)
	if err != nil {
		return err
	}
	if o.reset {
		fmt.Fprintf(out, "Emptied %s\n", dbPath)
	}
	ingest.Print(out, sum)
	return nil
}
