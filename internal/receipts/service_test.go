package receipts_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/tourism/internal/adapters/mock"
	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/internal/domain/normalize"
	"github.com/okian/tourism/internal/receipts"
)

// fakeReader serves fixed rows and records the limits it was asked for.
type fakeReader struct {
	mu      sync.Mutex
	years   []int
	regions []string
	rows    []model.CountryRow
	totals  []model.YearTotal
	limits  []int
	err     error
}

func (f *fakeReader) Years(context.Context) ([]int, error) { return f.years, f.err }

func (f *fakeReader) Regions(context.Context) ([]string, error) { return f.regions, f.err }

func (f *fakeReader) Receipts(_ context.Context, year int, region string, limit int) ([]model.CountryRow, error) {
	f.mu.Lock()
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	out := make([]model.CountryRow, 0)
	for _, r := range f.rows {
		if r.Year == year && (region == model.AllRegions || r.Region == region) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReader) TotalsByYear(context.Context, string) ([]model.YearTotal, error) {
	return append([]model.YearTotal{}, f.totals...), nil
}

func (f *fakeReader) LatestYear(context.Context) (int, bool, error) {
	if len(f.years) == 0 {
		return 0, false, f.err
	}
	return f.years[len(f.years)-1], true, f.err
}

func newReader() *fakeReader {
	return &fakeReader{
		years:   []int{2021, 2022},
		regions: []string{"Asia", "Europe"},
		rows: []model.CountryRow{
			{Country: "B", Code: "BBB", Region: "Asia", Year: 2022, ReceiptsUSD: 5e9, ReceiptsUSDBillions: 5},
			{Country: "A", Code: "AAA", Region: "Europe", Year: 2022, ReceiptsUSD: 3e9, ReceiptsUSDBillions: 3},
			{Country: "C", Code: "CCC", Region: "Europe", Year: 2022, ReceiptsUSD: 1e9, ReceiptsUSDBillions: 1},
			{Country: "A", Code: "AAA", Region: "Europe", Year: 2021, ReceiptsUSD: 2e9, ReceiptsUSDBillions: 2},
		},
		totals: []model.YearTotal{
			{Year: 2021, TotalUSDBillions: 2.004},
			{Year: 2022, TotalUSDBillions: 9.126},
		},
	}
}

func TestService_Store(t *testing.T) {
	ctx := context.Background()

	t.Run("latest year by default", func(t *testing.T) {
		r := newReader()
		svc := receipts.New(receipts.WithStore(r), receipts.WithRowCap(2))

		p, err := svc.Dashboard(ctx, receipts.Query{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, receipts.SourceSQLite, *p.Source)
		assert.Equal(t, 2022, *p.Year)
		assert.Equal(t, 2022, *p.LatestYear)
		assert.Equal(t, []string{model.AllRegions, "Asia", "Europe"}, p.Regions)
		assert.Len(t, p.TopCountries, 1)
		assert.Len(t, p.TableRows, 2)
		assert.ElementsMatch(t, []int{1, 2}, r.limits)
		assert.InDelta(t, 9.13, *p.TotalsByYear[1].TotalUSDBillions, 1e-9)
		assert.InDelta(t, 2.0, *p.TotalsByYear[0].TotalUSDBillions, 1e-9)

		d, err := normalize.Dashboard(p)
		require.NoError(t, err)
		assert.Equal(t, "BBB", d.TopCountries[0].Code)
	})

	t.Run("region and year filters", func(t *testing.T) {
		svc := receipts.New(receipts.WithStore(newReader()))
		year := 2021
		p, err := svc.Dashboard(ctx, receipts.Query{Year: &year, Region: "Europe", Limit: 5})
		require.NoError(t, err)
		require.Len(t, p.TableRows, 1)
		assert.Equal(t, 2021, *p.TableRows[0].Year)
	})

	t.Run("unknown year", func(t *testing.T) {
		svc := receipts.New(receipts.WithStore(newReader()))
		year := 1990
		_, err := svc.Dashboard(ctx, receipts.Query{Year: &year, Limit: 5})
		assert.ErrorIs(t, err, receipts.ErrUnknownYear)
		assert.Contains(t, err.Error(), "1990")
	})

	t.Run("empty store", func(t *testing.T) {
		svc := receipts.New(receipts.WithStore(&fakeReader{}))
		_, err := svc.Dashboard(ctx, receipts.Query{Limit: 5})
		assert.ErrorIs(t, err, receipts.ErrNoData)
	})

	t.Run("store failure", func(t *testing.T) {
		boom := errors.New("disk gone")
		r := newReader()
		r.err = boom
		svc := receipts.New(receipts.WithStore(r))
		_, err := svc.Dashboard(ctx, receipts.Query{Limit: 5})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("health carries the latest year", func(t *testing.T) {
		svc := receipts.New(receipts.WithStore(newReader()))
		h, err := svc.Health(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ok", h.Status)
		assert.Equal(t, receipts.SourceSQLite, h.Source)
		require.NotNil(t, h.LatestYear)
		assert.Equal(t, 2022, *h.LatestYear)
	})
}

func TestService_Dataset(t *testing.T) {
	ds, err := mock.Load()
	require.NoError(t, err)
	svc := receipts.New(receipts.WithDataset(ds))
	ctx := context.Background()

	p, err := svc.Dashboard(ctx, receipts.Query{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, receipts.SourceMock, *p.Source)
	assert.Equal(t, ds.LatestYear(), *p.Year)
	assert.Len(t, p.TopCountries, 3)

	d, err := normalize.Dashboard(p)
	require.NoError(t, err)
	assert.Equal(t, "mock", d.Upstream)

	h, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, receipts.SourceMock, h.Source)
	assert.Nil(t, h.LatestYear)
}

func TestService_Limits(t *testing.T) {
	svc := receipts.New(receipts.WithStore(newReader()))
	for _, limit := range []int{0, -1, 51} {
		_, err := svc.Dashboard(context.Background(), receipts.Query{Limit: limit})
		assert.ErrorIs(t, err, receipts.ErrInvalidLimit, "limit %d", limit)
	}

	_, err := receipts.New().Dashboard(context.Background(), receipts.Query{Limit: 5})
	assert.ErrorIs(t, err, receipts.ErrNoBackend)
}
