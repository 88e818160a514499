package normalize

import (
	"fmt"

	"github.com/okian/tourism/internal/domain/model"
)

// MockRow is a bundled dataset row. It is already camelCase but older
// records carry no billions value.
type MockRow struct {
	Country             *string  `json:"country"`
	Code                *string  `json:"code"`
	Region              *string  `json:"region"`
	Year                *int     `json:"year"`
	ReceiptsUSD         *float64 `json:"receiptsUsd"`
	ReceiptsUSDBillions *float64 `json:"receiptsUsdBillions,omitempty"`
}

// MockTotal is a bundled dataset yearly total.
type MockTotal struct {
	Year             *int     `json:"year"`
	TotalUSDBillions *float64 `json:"totalUsdBillions"`
	Region           *string  `json:"region,omitempty"`
}

func (MockRow) isRowInput() {}

// RowInput is one of the two row shapes accepted at the normalizer boundary:
// WireRow or MockRow.
type RowInput interface {
	isRowInput()
}

// Row maps either row variant to the canonical row.
func Row(in RowInput) (model.CountryRow, error) {
	switch r := in.(type) {
	case WireRow:
		return FromWireRow(r)
	case *WireRow:
		return FromWireRow(*r)
	case MockRow:
		return FromMockRow(r)
	case *MockRow:
		return FromMockRow(*r)
	}
	return model.CountryRow{}, fmt.Errorf("%w: %T", ErrUnknownVariant, in)
}

// FromMockRow maps a dataset row to the canonical row, deriving billions
// from raw USD when the record has none.
func FromMockRow(r MockRow) (model.CountryRow, error) {
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
		return model.CountryRow{}, missing("receiptsUsd")
	}
	return canonicalRow(*r.Country, *r.Code, *r.Region, *r.Year, *r.ReceiptsUSD, r.ReceiptsUSDBillions)
}

// FromMockTotal maps a dataset total to the canonical total.
func FromMockTotal(t MockTotal) (model.YearTotal, error) {
	switch {
	case t.Year == nil:
		return model.YearTotal{}, missing("year")
	case t.TotalUSDBillions == nil:
		return model.YearTotal{}, missing("totalUsdBillions")
	}
	out := model.YearTotal{Year: *t.Year, TotalUSDBillions: *t.TotalUSDBillions}
	if t.Region != nil {
		out.Region = model.StringPtr(*t.Region)
	}
	return out, nil
}
