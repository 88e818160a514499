// Package ingest loads the World Bank "International tourism, receipts"
// download into the receipts store.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/tourism/internal/adapters/repository"
	"github.com/okian/tourism/internal/domain/model"
)

// File names inside the data directory.
const (
	TravelFile   = "travel_items.csv"
	MetadataFile = "metadata_country.csv"
)

const bom = "\ufeff"

// Metadata is the classification of one country code. Aggregates have an
// empty Region.
type Metadata struct {
	Region      string
	IncomeGroup string
	TableName   string
}

// Dataset is the cleaned content of one download.
type Dataset struct {
	Countries []repository.Country
	// Receipts are ordered by year, then by file order.
	Receipts []model.CountryRow
}

// LoadDir reads TravelFile and MetadataFile from dir.
func LoadDir(dir string) (Dataset, error) {
	travelPath := filepath.Join(dir, TravelFile)
	metaPath := filepath.Join(dir, MetadataFile)
	for _, p := range []string{travelPath, metaPath} {
		if _, err := os.Stat(p); err != nil {
			return Dataset{}, fmt.Errorf("%w: %s", ErrMissingFile, p)
		}
	}

	mf, err := os.Open(metaPath)
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer mf.Close()
	meta, err := ReadMetadata(mf)
	if err != nil {
		return Dataset{}, err
	}

	tf, err := os.Open(travelPath)
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer tf.Close()
	return ReadTravel(tf, meta)
}

// ReadMetadata reads the country metadata file, keyed by country code.
func ReadMetadata(r io.Reader) (map[string]Metadata, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %w", ErrRead, err)
	}
	cols, err := columns(header, "Country Code", "Region", "IncomeGroup", "TableName")
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	out := make(map[string]Metadata)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: metadata: %w", ErrRead, err)
		}
		code := strings.TrimSpace(field(rec, cols[0]))
		if code == "" {
			continue
		}
		out[code] = Metadata{
			Region:      strings.TrimSpace(field(rec, cols[1])),
			IncomeGroup: strings.TrimSpace(field(rec, cols[2])),
			TableName:   strings.TrimSpace(field(rec, cols[3])),
		}
	}
	return out, nil
}

// ReadTravel reads the indicator file and keeps the codes meta classifies
// into a region. Year columns are melted into one row per country and
// year; empty or non-numeric cells are dropped. The preamble above the
// "Country Name" header is skipped.
func ReadTravel(r io.Reader, meta map[string]Metadata) (Dataset, error) {
	cr := newReader(r)
	header, err := findHeader(cr)
	if err != nil {
		return Dataset{}, err
	}
	cols, err := columns(header, "Country Name", "Country Code")
	if err != nil {
		return Dataset{}, fmt.Errorf("travel: %w", err)
	}
	type yearCol struct{ idx, year int }
	var years []yearCol
	for i, h := range header {
		if y, err := strconv.Atoi(strings.TrimSpace(h)); err == nil {
			years = append(years, yearCol{idx: i, year: y})
		}
	}

	var (
		ds   Dataset
		recs [][]string
		seen = make(map[string]bool)
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("%w: travel: %w", ErrRead, err)
		}
		code := strings.TrimSpace(field(rec, cols[1]))
		m, ok := meta[code]
		if !ok || m.Region == "" {
			continue
		}
		recs = append(recs, rec)
		if !seen[code] {
			seen[code] = true
			ds.Countries = append(ds.Countries, repository.Country{
				Code:        code,
				Name:        strings.TrimSpace(field(rec, cols[0])),
				Region:      m.Region,
				IncomeGroup: m.IncomeGroup,
				TableName:   m.TableName,
			})
		}
	}

	for _, yc := range years {
		for _, rec := range recs {
			raw := strings.TrimSpace(field(rec, yc.idx))
			if raw == "" {
				continue
			}
			usd, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(usd) || math.IsInf(usd, 0) {
				continue
			}
			code := strings.TrimSpace(field(rec, cols[1]))
			ds.Receipts = append(ds.Receipts, model.CountryRow{
				Country:             strings.TrimSpace(field(rec, cols[0])),
				Code:                code,
				Region:              meta[code].Region,
				Year:                yc.year,
				ReceiptsUSD:         usd,
				ReceiptsUSDBillions: math.Round(model.Billions(usd)*100) / 100,
			})
		}
	}
	return ds, nil
}

// newReader drops a leading UTF-8 byte order mark, which would otherwise
// leave the first field's quotes in place.
func newReader(r io.Reader) *csv.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && string(head) == bom {
		_, _ = br.Discard(len(bom))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func findHeader(cr *csv.Reader) ([]string, error) {
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no \"Country Name\" row", ErrBadHeader)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: travel: %w", ErrRead, err)
		}
		if len(rec) > 0 && strings.TrimSpace(rec[0]) == "Country Name" {
			return rec, nil
		}
	}
}

// columns returns the index of each name in header.
func columns(header []string, names ...string) ([]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	out := make([]int, len(names))
	for i, n := range names {
		idx, ok := index[n]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadHeader, n)
		}
		out[i] = idx
	}
	return out, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}
