// Package repository persists countries and yearly tourism receipts.
package repository

import (
	"context"

	"github.com/okian/tourism/internal/domain/model"
)

// Country is the metadata of one real country. Aggregates such as
// "World" or income groups carry no region and are never stored.
type Country struct {
	Code        string
	Name        string
	Region      string
	IncomeGroup string
	TableName   string
}

// Reader answers the queries behind the receipts API.
type Reader interface {
	// Years returns the distinct years with data, ascending.
	Years(ctx context.Context) ([]int, error)
	// Regions returns the distinct regions with data, ascending.
	Regions(ctx context.Context) ([]string, error)
	// Receipts returns at most limit rows of year, largest receipts first.
	// The AllRegions sentinel disables the region filter.
	Receipts(ctx context.Context, year int, region string, limit int) ([]model.CountryRow, error)
	// TotalsByYear sums billions per year, ascending by year. Totals for a
	// specific region carry that region.
	TotalsByYear(ctx context.Context, region string) ([]model.YearTotal, error)
	// LatestYear returns the most recent year, or false when empty.
	LatestYear(ctx context.Context) (int, bool, error)
}

// Writer loads countries and receipts.
type Writer interface {
	// UpsertCountries inserts or replaces countries by code.
	UpsertCountries(ctx context.Context, countries []Country) (int, error)
	// UpsertReceipts inserts or replaces rows by (code, year) in batches.
	UpsertReceipts(ctx context.Context, rows []model.CountryRow) (int, error)
	// Reset removes every country and receipt.
	Reset(ctx context.Context) error
}

// Store provides read/write access to the receipts data.
type Store interface {
	Reader
	Writer
	Close() error
}
