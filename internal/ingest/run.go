package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/tourism/internal/adapters/repository"
	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/pkg/logger"
)

// SummaryTop is the number of earners reported after a load.
const SummaryTop = 5

// Target is the store an ingestion writes to and reports from.
type Target interface {
	repository.Reader
	repository.Writer
}

// Options controls one ingestion.
type Options struct {
	// Reset empties the store first.
	Reset bool
	// Limit caps the number of receipts written; zero writes all.
	Limit int
}

// Summary describes a finished ingestion.
type Summary struct {
	Countries  int
	Receipts   int
	LatestYear int
	Top        []model.CountryRow
}

// Run writes ds into store and collects the latest-year top earners.
func Run(ctx context.Context, store Target, ds Dataset, opts Options, log logger.Logger) (Summary, error) {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Reset {
		if err := store.Reset(ctx); err != nil {
			return Summary{}, err
		}
	}

	rows := ds.Receipts
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}

	var (
		sum Summary
		err error
	)
	if sum.Countries, err = store.UpsertCountries(ctx, ds.Countries); err != nil {
		return sum, err
	}
	if sum.Receipts, err = store.UpsertReceipts(ctx, rows); err != nil {
		return sum, err
	}
	log.Info(ctx, "ingestion written",
		logger.Int("countries", sum.Countries),
		logger.Int("receipts", sum.Receipts),
	)

	latest, ok, err := store.LatestYear(ctx)
	if err != nil || !ok {
		return sum, err
	}
	sum.LatestYear = latest
	sum.Top, err = store.Receipts(ctx, latest, model.AllRegions, SummaryTop)
	return sum, err
}

// Print writes the summary in the CLI's report format.
func Print(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Countries upserted/updated: %d\n", s.Countries)
	fmt.Fprintf(w, "Receipts upserted/updated: %d\n", s.Receipts)
	if len(s.Top) == 0 {
		return
	}
	fmt.Fprintf(w, "\nTop %d earners for %d:\n", len(s.Top), s.LatestYear)
	for _, r := range s.Top {
		fmt.Fprintf(w, "- %s (%s): %.2f USD billions\n", r.Country, r.Code, r.ReceiptsUSDBillions)
	}
}
