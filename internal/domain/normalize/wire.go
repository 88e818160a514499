// Package normalize converts receipts API payloads and bundled dataset rows
// into the canonical dashboard model. All functions are pure.
package normalize

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/okian/tourism/internal/domain/model"
)

// WirePayload mirrors the receipts API response body. Pointer and slice
// fields stay nil when the key is absent so missing data can be told apart
// from zero values.
type WirePayload struct {
	Source       *string     `json:"source"`
	LatestYear   *int        `json:"latest_year"`
	Year         *int        `json:"year"`
	Years        []int       `json:"years"`
	Regions      []string    `json:"regions"`
	TopCountries []WireRow   `json:"top_countries"`
	TotalsByYear []WireTotal `json:"totals_by_year"`
	TableRows    []WireRow   `json:"table_rows"`
}

// WireRow is a country row in snake_case with raw USD and, usually, a
// precomputed billions value.
type WireRow struct {
	Country             *string  `json:"country"`
	Code                *string  `json:"code"`
	Region              *string  `json:"region"`
	Year                *int     `json:"year"`
	ReceiptsUSD         *float64 `json:"receipts_usd"`
	ReceiptsUSDBillions *float64 `json:"receipts_usd_billions,omitempty"`
}

// WireTotal is a yearly total in snake_case.
type WireTotal struct {
	Year             *int     `json:"year"`
	TotalUSDBillions *float64 `json:"total_usd_billions"`
	Region           *string  `json:"region,omitempty"`
}

func (WireRow) isRowInput() {}

// DecodePayload reads a JSON receipts API body.
func DecodePayload(r io.Reader) (WirePayload, error) {
	var p WirePayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return WirePayload{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return p, nil
}

// Dashboard converts a wire payload into the canonical dashboard. The
// returned Source is SourceRemote; the declared source is kept in Upstream.
func Dashboard(p WirePayload) (model.Dashboard, error) {
	switch {
	case p.Source == nil:
		return model.Dashboard{}, missing("source")
	case p.LatestYear == nil:
		return model.Dashboard{}, missing("latest_year")
	case p.Year == nil:
		return model.Dashboard{}, missing("year")
	case p.Years == nil:
		return model.Dashboard{}, missing("years")
	case p.Regions == nil:
		return model.Dashboard{}, missing("regions")
	case p.TopCountries == nil:
		return model.Dashboard{}, missing("top_countries")
	case p.TotalsByYear == nil:
		return model.Dashboard{}, missing("totals_by_year")
	case p.TableRows == nil:
		return model.Dashboard{}, missing("table_rows")
	}

	top, err := wireRows("top_countries", p.TopCountries)
	if err != nil {
		return model.Dashboard{}, err
	}
	table, err := wireRows("table_rows", p.TableRows)
	if err != nil {
		return model.Dashboard{}, err
	}
	totals := make([]model.YearTotal, len(p.TotalsByYear))
	for i, t := range p.TotalsByYear {
		yt, err := FromWireTotal(t)
		if err != nil {
			return model.Dashboard{}, fmt.Errorf("totals_by_year[%d]: %w", i, err)
		}
		totals[i] = yt
	}

	return model.Dashboard{
		Source:       model.SourceRemote,
		Upstream:     *p.Source,
		LatestYear:   *p.LatestYear,
		Year:         *p.Year,
		Years:        append([]int{}, p.Years...),
		Regions:      append([]string{}, p.Regions...),
		TopCountries: top,
		TotalsByYear: totals,
		TableRows:    table,
	}, nil
}

func wireRows(field string, in []WireRow) ([]model.CountryRow, error) {
	out := make([]model.CountryRow, len(in))
	for i, r := range in {
		row, err := FromWireRow(r)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out[i] = row
	}
	return out, nil
}

// FromWireRow maps a snake_case row to the canonical row.
func FromWireRow(r WireRow) (model.CountryRow, error) {
	switch {
	case r.Country == nil:
		return model.CountryRow{}, missing("country")
	case r.Code == nil:
		return model.CountryRow{}, missing("code")
	case r.Region == nil:
		return model.CountryRow{}, missing("region")
	case r.Year == nil:
		return model.CountryRow{}, missing("year")
	case r.ReceiptsUSD == nil:
		return model.CountryRow{}, missing("receipts_usd")
	}
	return canonicalRow(*r.Country, *r.Code, *r.Region, *r.Year, *r.ReceiptsUSD, r.ReceiptsUSDBillions)
}

// FromWireTotal maps a snake_case total to the canonical total.
func FromWireTotal(t WireTotal) (model.YearTotal, error) {
	switch {
	case t.Year == nil:
		return model.YearTotal{}, missing("year")
	case t.TotalUSDBillions == nil:
		return model.YearTotal{}, missing("total_usd_billions")
	}
	out := model.YearTotal{Year: *t.Year, TotalUSDBillions: *t.TotalUSDBillions}
	if t.Region != nil {
		out.Region = model.StringPtr(*t.Region)
	}
	return out, nil
}

// ToWire encodes a canonical dashboard as a receipts API payload declaring
// the given source. Dashboard(ToWire(d, s)) reproduces d's data.
func ToWire(d model.Dashboard, source string) WirePayload {
	p := WirePayload{
		Source:       &source,
		LatestYear:   model.IntPtr(d.LatestYear),
		Year:         model.IntPtr(d.Year),
		Years:        append([]int{}, d.Years...),
		Regions:      append([]string{}, d.Regions...),
		TopCountries: toWireRows(d.TopCountries),
		TotalsByYear: make([]WireTotal, len(d.TotalsByYear)),
		TableRows:    toWireRows(d.TableRows),
	}
	for i, t := range d.TotalsByYear {
		billions := t.TotalUSDBillions
		wt := WireTotal{Year: model.IntPtr(t.Year), TotalUSDBillions: &billions}
		if t.Region != nil {
			wt.Region = model.StringPtr(*t.Region)
		}
		p.TotalsByYear[i] = wt
	}
	return p
}

func toWireRows(rows []model.CountryRow) []WireRow {
	out := make([]WireRow, len(rows))
	for i, r := range rows {
		country, code, region := r.Country, r.Code, r.Region
		usd, billions := r.ReceiptsUSD, r.ReceiptsUSDBillions
		out[i] = WireRow{
			Country:             &country,
			Code:                &code,
			Region:              &region,
			Year:                model.IntPtr(r.Year),
			ReceiptsUSD:         &usd,
			ReceiptsUSDBillions: &billions,
		}
	}
	return out
}

func canonicalRow(country, code, region string, year int, usd float64, billions *float64) (model.CountryRow, error) {
	if usd < 0 || math.IsNaN(usd) || math.IsInf(usd, 0) {
		return model.CountryRow{}, fmt.Errorf("%w: receipts %v", ErrInvalidValue, usd)
	}
	row := model.CountryRow{
		Country:     country,
		Code:        code,
		Region:      region,
		Year:        year,
		ReceiptsUSD: usd,
	}
	if billions != nil {
		row.ReceiptsUSDBillions = *billions
	} else {
		row.ReceiptsUSDBillions = model.Billions(usd)
	}
	return row, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
