package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/pkg/logger"
	"github.com/okian/tourism/pkg/metrics"
)

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db        *sql.DB
	batchSize int
	logger    logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// Open creates the database file if needed, migrates it and returns a
// ready store.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if err := RunMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	s := &SQLiteStore{db: db, batchSize: DefaultBatchSize, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func observe(query string, start time.Time) {
	metrics.RecordStoreQueryLatency(query, float64(time.Since(start).Microseconds())/1000)
}

func regionParam(region string) string {
	if region == "" {
		return model.AllRegions
	}
	return region
}

// Years implements Reader.
func (s *SQLiteStore) Years(ctx context.Context) ([]int, error) {
	defer observe("years", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT year FROM receipts ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("%w: years: %w", ErrQuery, err)
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("%w: years: %w", ErrQuery, err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: years: %w", ErrQuery, err)
	}
	return years, nil
}

// Regions implements Reader.
func (s *SQLiteStore) Regions(ctx context.Context) ([]string, error) {
	defer observe("regions", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT region FROM receipts ORDER BY region`)
	if err != nil {
		return nil, fmt.Errorf("%w: regions: %w", ErrQuery, err)
	}
	defer rows.Close()

	regions := make([]string, 0)
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("%w: regions: %w", ErrQuery, err)
		}
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: regions: %w", ErrQuery, err)
	}
	return regions, nil
}

// Receipts implements Reader. Ties on receipts are ordered by code.
func (s *SQLiteStore) Receipts(ctx context.Context, year int, region string, limit int) ([]model.CountryRow, error) {
	defer observe("receipts", time.Now())

	region = regionParam(region)
	rows, err := s.db.QueryContext(ctx, `
		SELECT country, code, region, year, receipts_usd, receipts_usd_billions
		FROM receipts
		WHERE year = ? AND (? = ? OR region = ?)
		ORDER BY receipts_usd DESC, code ASC
		LIMIT ?`,
		year, region, model.AllRegions, region, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: receipts: %w", ErrQuery, err)
	}
	defer rows.Close()

	out := make([]model.CountryRow, 0)
	for rows.Next() {
		var r model.CountryRow
		if err := rows.Scan(&r.Country, &r.Code, &r.Region, &r.Year, &r.ReceiptsUSD, &r.ReceiptsUSDBillions); err != nil {
			return nil, fmt.Errorf("%w: receipts: %w", ErrQuery, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: receipts: %w", ErrQuery, err)
	}
	return out, nil
}

// TotalsByYear implements Reader.
func (s *SQLiteStore) TotalsByYear(ctx context.Context, region string) ([]model.YearTotal, error) {
	defer observe("totals", time.Now())

	region = regionParam(region)
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, SUM(receipts_usd_billions)
		FROM receipts
		WHERE ? = ? OR region = ?
		GROUP BY year
		ORDER BY year`,
		region, model.AllRegions, region,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: totals: %w", ErrQuery, err)
	}
	defer rows.Close()

	out := make([]model.YearTotal, 0)
	for rows.Next() {
		var t model.YearTotal
		if err := rows.Scan(&t.Year, &t.TotalUSDBillions); err != nil {
			return nil, fmt.Errorf("%w: totals: %w", ErrQuery, err)
		}
		if region != model.AllRegions {
			t.Region = model.StringPtr(region)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: totals: %w", ErrQuery, err)
	}
	return out, nil
}

// LatestYear implements Reader.
func (s *SQLiteStore) LatestYear(ctx context.Context) (int, bool, error) {
	defer observe("latest_year", time.Now())

	var y sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(year) FROM receipts`).Scan(&y); err != nil {
		return 0, false, fmt.Errorf("%w: latest year: %w", ErrQuery, err)
	}
	return int(y.Int64), y.Valid, nil
}

// Counts returns the number of stored countries and receipts.
func (s *SQLiteStore) Counts(ctx context.Context) (countries, receipts int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM countries), (SELECT COUNT(*) FROM receipts)`,
	).Scan(&countries, &receipts)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: counts: %w", ErrQuery, err)
	}
	return countries, receipts, nil
}

// UpsertCountries implements Writer.
func (s *SQLiteStore) UpsertCountries(ctx context.Context, countries []Country) (int, error) {
	if len(countries) == 0 {
		return 0, nil
	}
	err := s.inTx(ctx, `
		INSERT INTO countries (code, name, region, income_group, table_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			region = excluded.region,
			income_group = excluded.income_group,
			table_name = excluded.table_name`,
		len(countries),
		func(stmt *sql.Stmt, i int) error {
			c := countries[i]
			_, err := stmt.ExecContext(ctx, c.Code, c.Name, c.Region, c.IncomeGroup, c.TableName)
			return err
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: countries: %w", ErrWrite, err)
	}
	metrics.RecordIngestedRows("countries", len(countries))
	return len(countries), nil
}

// UpsertReceipts implements Writer. Each batch commits on its own, so a
// failure leaves earlier batches written.
func (s *SQLiteStore) UpsertReceipts(ctx context.Context, rows []model.CountryRow) (int, error) {
	written := 0
	for start := 0; start < len(rows); start += s.batchSize {
		batch := rows[start:min(start+s.batchSize, len(rows))]
		err := s.inTx(ctx, `
			INSERT INTO receipts (code, year, country, region, receipts_usd, receipts_usd_billions)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(code, year) DO UPDATE SET
				country = excluded.country,
				region = excluded.region,
				receipts_usd = excluded.receipts_usd,
				receipts_usd_billions = excluded.receipts_usd_billions`,
			len(batch),
			func(stmt *sql.Stmt, i int) error {
				r := batch[i]
				_, err := stmt.ExecContext(ctx, r.Code, r.Year, r.Country, r.Region, r.ReceiptsUSD, r.ReceiptsUSDBillions)
				return err
			},
		)
		if err != nil {
			return written, fmt.Errorf("%w: receipts batch at %d: %w", ErrWrite, start, err)
		}
		written += len(batch)
		metrics.RecordIngestedRows("receipts", len(batch))
		s.logger.Debug(ctx, "receipts batch written",
			logger.Int("offset", start),
			logger.Int("rows", len(batch)),
		)
	}
	return written, nil
}

// Reset implements Writer.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	for _, q := range []string{`DELETE FROM receipts`, `DELETE FROM countries`} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: reset: %w", ErrWrite, err)
		}
	}
	s.logger.Info(ctx, "receipts store reset")
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range n {
		if err = exec(stmt, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}
