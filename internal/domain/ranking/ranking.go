// Package ranking orders country rows: top earners for the charts and the
// user-selected ordering of the receipts table.
package ranking

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/tourism/internal/domain/model"
)

// ErrUnknownSortKey is returned for a sort key the table does not support.
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey is a sortable table column.
type SortKey string

const (
	ByCountry  SortKey = "country"
	ByRegion   SortKey = "region"
	ByYear     SortKey = "year"
	ByReceipts SortKey = "receiptsUsdBillions"
)

// Direction is ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is a table ordering.
type Order struct {
	Key       SortKey
	Direction Direction
}

// DefaultOrder sorts by receipts, largest first.
var DefaultOrder = Order{Key: ByReceipts, Direction: Desc}

// DefaultDirection is the direction used when a column is first selected:
// receipts start descending, text and year columns ascending.
func DefaultDirection(key SortKey) Direction {
	if key == ByReceipts {
		return Desc
	}
	return Asc
}

// Toggle returns the order after the user clicks the key's column header.
func (o Order) Toggle(key SortKey) Order {
	if key == o.Key {
		if o.Direction == Asc {
			return Order{Key: key, Direction: Desc}
		}
		return Order{Key: key, Direction: Asc}
	}
	return Order{Key: key, Direction: DefaultDirection(key)}
}

// ParseOrder reads an order from query values. Empty key yields DefaultOrder;
// empty direction yields the key's default direction.
func ParseOrder(key, dir string) (Order, error) {
	if key == "" {
		return DefaultOrder, nil
	}
	k := SortKey(key)
	switch k {
	case ByCountry, ByRegion, ByYear, ByReceipts:
	default:
		return Order{}, fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
	}
	switch Direction(strings.ToLower(dir)) {
	case Asc:
		return Order{Key: k, Direction: Asc}, nil
	case Desc:
		return Order{Key: k, Direction: Desc}, nil
	case "":
		return Order{Key: k, Direction: DefaultDirection(k)}, nil
	}
	return Order{}, fmt.Errorf("%w: direction %q", ErrUnknownSortKey, dir)
}

// Top returns the first limit rows ranked by raw receipts, largest first.
// Ties keep their input order. The input is not modified.
func Top(rows []model.CountryRow, limit int) []model.CountryRow {
	ranked := slices.Clone(rows)
	slices.SortStableFunc(ranked, func(a, b model.CountryRow) int {
		switch {
		case a.ReceiptsUSD > b.ReceiptsUSD:
			return -1
		case a.ReceiptsUSD < b.ReceiptsUSD:
			return 1
		}
		return 0
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []model.CountryRow{}
	}
	return ranked
}

// Sort returns rows ordered for the table. The input is not modified.
func Sort(rows []model.CountryRow, o Order) []model.CountryRow {
	sorted := slices.Clone(rows)
	if sorted == nil {
		return []model.CountryRow{}
	}
	sign := 1
	if o.Direction == Desc {
		sign = -1
	}
	slices.SortStableFunc(sorted, func(a, b model.CountryRow) int {
		return sign * compare(a, b, o.Key)
	})
	return sorted
}

func compare(a, b model.CountryRow, key SortKey) int {
	switch key {
	case ByCountry:
		return strings.Compare(a.Country, b.Country)
	case ByRegion:
		return strings.Compare(a.Region, b.Region)
	case ByYear:
		return a.Year - b.Year
	default:
		switch {
		case a.ReceiptsUSDBillions < b.ReceiptsUSDBillions:
			return -1
		case a.ReceiptsUSDBillions > b.ReceiptsUSDBillions:
			return 1
		}
		return 0
	}
}

// IsTopPrefix reports whether top is a descending-by-receipts prefix of the
// table's ranking with at most limit rows.
func IsTopPrefix(top, table []model.CountryRow, limit int) bool {
	if len(top) > limit || len(top) > len(table) {
		return false
	}
	for i := 1; i < len(top); i++ {
		if top[i].ReceiptsUSD > top[i-1].ReceiptsUSD {
			return false
		}
	}
	ranked := Top(table, len(top))
	for i := range top {
		if ranked[i].ReceiptsUSD != top[i].ReceiptsUSD {
			return false
		}
	}
	return true
}

// UniqueYears reports whether totals hold at most one entry per year for
// each region.
func UniqueYears(totals []model.YearTotal) bool {
	seen := make(map[string]map[int]bool)
	for _, t := range totals {
		r := t.RegionName()
		if seen[r] == nil {
			seen[r] = make(map[int]bool)
		}
		if seen[r][t.Year] {
			return false
		}
		seen[r][t.Year] = true
	}
	return true
}
