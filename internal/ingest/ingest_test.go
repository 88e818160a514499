package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/tourism/internal/adapters/repository"
)

const travelCSV = "\ufeff\"Data Source\",\"World Development Indicators\",\n" +
	"\n" +
	"\"Last Updated Date\",\"2024-06-28\",\n" +
	"\n" +
	"\"Country Name\",\"Country Code\",\"Indicator Name\",\"Indicator Code\",\"2019\",\"2020\",\"2021\",\n" +
	"\"Spain\",\"ESP\",\"International tourism, receipts (current US$)\",\"ST.INT.RCPT.CD\",\"79706000000\",\"\",\"34537000000\",\n" +
	"\"World\",\"WLD\",\"International tourism, receipts (current US$)\",\"ST.INT.RCPT.CD\",\"1500000000000\",\"600000000000\",\"700000000000\",\n" +
	"\"Thailand\",\"THA\",\"International tourism, receipts (current US$)\",\"ST.INT.RCPT.CD\",\"64734000000\",\"15467000000\",\"n/a\",\n"

const metadataCSV = "\ufeff\"Country Code\",\"Region\",\"IncomeGroup\",\"SpecialNotes\",\"TableName\",\n" +
	"\"ESP\",\"Europe & Central Asia\",\"High income\",\"\",\"Spain\",\n" +
	"\"THA\",\"East Asia & Pacific\",\"Upper middle income\",\"\",\"Thailand\",\n" +
	"\"WLD\",\"\",\"\",\"World aggregate\",\"World\",\n"

func TestReadMetadata(t *testing.T) {
	meta, err := ReadMetadata(strings.NewReader(metadataCSV))
	require.NoError(t, err)
	require.Len(t, meta, 3)
	assert.Equal(t, "Europe & Central Asia", meta["ESP"].Region)
	assert.Equal(t, "Upper middle income", meta["THA"].IncomeGroup)
	assert.Empty(t, meta["WLD"].Region)
}

func TestReadMetadata_BadHeader(t *testing.T) {
	_, err := ReadMetadata(strings.NewReader("\"Code\",\"Region\"\n"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestReadTravel(t *testing.T) {
	meta, err := ReadMetadata(strings.NewReader(metadataCSV))
	require.NoError(t, err)

	ds, err := ReadTravel(strings.NewReader(travelCSV), meta)
	require.NoError(t, err)

	t.Run("aggregates are dropped", func(t *testing.T) {
		require.Len(t, ds.Countries, 2)
		assert.Equal(t, "ESP", ds.Countries[0].Code)
		assert.Equal(t, "Spain", ds.Countries[0].Name)
		assert.Equal(t, "THA", ds.Countries[1].Code)
		for _, r := range ds.Receipts {
			assert.NotEqual(t, "WLD", r.Code)
		}
	})

	t.Run("years are melted and empty cells dropped", func(t *testing.T) {
		require.Len(t, ds.Receipts, 4)
		assert.Equal(t, 2019, ds.Receipts[0].Year)
		assert.Equal(t, "ESP", ds.Receipts[0].Code)
		assert.Equal(t, 2019, ds.Receipts[1].Year)
		assert.Equal(t, "THA", ds.Receipts[1].Code)
		assert.Equal(t, 2020, ds.Receipts[2].Year)
		assert.Equal(t, "THA", ds.Receipts[2].Code)
		assert.Equal(t, 2021, ds.Receipts[3].Year)
		assert.Equal(t, "ESP", ds.Receipts[3].Code)
	})

	t.Run("billions are rounded to two decimals", func(t *testing.T) {
		assert.InDelta(t, 79.71, ds.Receipts[0].ReceiptsUSDBillions, 1e-9)
		assert.InDelta(t, 79706000000.0, ds.Receipts[0].ReceiptsUSD, 1e-3)
		assert.Equal(t, "Europe & Central Asia", ds.Receipts[0].Region)
	})
}

func TestReadTravel_NoHeader(t *testing.T) {
	_, err := ReadTravel(strings.NewReader("\"Data Source\",\"WDI\"\n"), nil)
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestLoadDir_MissingFile(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TravelFile), []byte(travelCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte(metadataCSV), 0o600))

	ds, err := LoadDir(dir)
	require.NoError(t, err)

	ctx := context.Background()
	store, err := repository.Open(ctx, filepath.Join(dir, "tourism.db"), repository.WithBatchSize(3))
	require.NoError(t, err)
	defer store.Close()

	sum, err := Run(ctx, store, ds, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Countries)
	assert.Equal(t, 4, sum.Receipts)
	assert.Equal(t, 2021, sum.LatestYear)
	require.Len(t, sum.Top, 1)
	assert.Equal(t, "ESP", sum.Top[0].Code)

	t.Run("reset and limit", func(t *testing.T) {
		sum, err := Run(ctx, store, ds, Options{Reset: true, Limit: 2}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Receipts)
		assert.Equal(t, 2019, sum.LatestYear)
		assert.Len(t, sum.Top, 2)

		_, receipts, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, receipts)
	})

	t.Run("report", func(t *testing.T) {
		var buf bytes.Buffer
		Print(&buf, sum)
		assert.Contains(t, buf.String(), "Receipts upserted/updated: 4")
		assert.Contains(t, buf.String(), "Top 1 earners for 2021:")
		assert.Contains(t, buf.String(), "- Spain (ESP): 34.54 USD billions")
	})
}
