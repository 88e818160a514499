// Package mock serves dashboards from the bundled sample dataset. It is used
// when mock mode is forced and as the fallback when the receipts API fails.
package mock

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/internal/domain/normalize"
	"github.com/okian/tourism/internal/domain/ranking"
)

//go:embed dashboard_sample.json
var sample []byte

type file struct {
	LatestYear   *int                  `json:"latestYear"`
	Years        []int                 `json:"years"`
	Regions      []string              `json:"regions"`
	TableRows    []normalize.MockRow   `json:"tableRows"`
	TotalsByYear []normalize.MockTotal `json:"totalsByYear"`
	RegionTotals []normalize.MockTotal `json:"regionTotals"`
}

// Dataset is a parsed, validated mock dataset. It is read-only after Parse
// and safe for concurrent use.
type Dataset struct {
	latestYear   int
	years        []int
	regions      []string
	rows         []model.CountryRow
	totals       []model.YearTotal
	regionTotals []model.YearTotal
}

// Load parses the embedded sample dataset.
func Load() (*Dataset, error) {
	return Parse(bytes.NewReader(sample))
}

// LoadFile parses a dataset from disk.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads and validates a dataset.
func Parse(r io.Reader) (*Dataset, error) {
	var raw file
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	if raw.LatestYear == nil {
		return nil, fmt.Errorf("%w: missing latestYear", ErrInvalidDataset)
	}

	d := &Dataset{
		latestYear: *raw.LatestYear,
		years:      append([]int{}, raw.Years...),
		regions:    append([]string{}, raw.Regions...),
		rows:       make([]model.CountryRow, 0, len(raw.TableRows)),
	}
	for i, r := range raw.TableRows {
		row, err := normalize.FromMockRow(r)
		if err != nil {
			return nil, fmt.Errorf("%w: tableRows[%d]: %w", ErrInvalidDataset, i, err)
		}
		d.rows = append(d.rows, row)
	}
	var err error
	if d.totals, err = totals("totalsByYear", raw.TotalsByYear); err != nil {
		return nil, err
	}
	if d.regionTotals, err = totals("regionTotals", raw.RegionTotals); err != nil {
		return nil, err
	}
	return d, nil
}

func totals(field string, in []normalize.MockTotal) ([]model.YearTotal, error) {
	out := make([]model.YearTotal, 0, len(in))
	for i, t := range in {
		yt, err := normalize.FromMockTotal(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %w", ErrInvalidDataset, field, i, err)
		}
		out = append(out, yt)
	}
	return out, nil
}

// LatestYear returns the most recent year in the dataset.
func (d *Dataset) LatestYear() int { return d.latestYear }

// Rows returns a copy of every row in dataset order.
func (d *Dataset) Rows() []model.CountryRow {
	return append([]model.CountryRow{}, d.rows...)
}

// Build synthesizes the dashboard for the filters. Source is left empty for
// the caller to tag.
//
// A region without its own totals gets the all-region series.
func (d *Dataset) Build(filters model.Filters, limit int) (model.Dashboard, error) {
	f := filters.Normalized()
	year := d.latestYear
	if f.Year != nil {
		year = *f.Year
	}

	rows := make([]model.CountryRow, 0)
	for _, r := range d.rows {
		if f.Matches(r, year) {
			rows = append(rows, r)
		}
	}

	var series []model.YearTotal
	if f.AllRegionsSelected() {
		series = d.totals
	} else {
		for _, t := range d.regionTotals {
			if t.Region != nil && *t.Region == f.Region {
				series = append(series, t)
			}
		}
		if len(series) == 0 {
			series = d.totals
		}
	}
	if len(series) == 0 {
		return model.Dashboard{}, ErrNoTotals
	}

	out := model.Dashboard{
		LatestYear:   d.latestYear,
		Year:         year,
		Years:        append([]int{}, d.years...),
		Regions:      append([]string{}, d.regions...),
		TopCountries: ranking.Top(rows, limit),
		TotalsByYear: copyTotals(series),
		TableRows:    rows,
	}
	return out, nil
}

func copyTotals(in []model.YearTotal) []model.YearTotal {
	out := make([]model.YearTotal, len(in))
	for i, t := range in {
		out[i] = t
		if t.Region != nil {
			out[i].Region = model.StringPtr(*t.Region)
		}
	}
	return out
}
