package smoke

import (
	"fmt"
	"math"

	"github.com/okian/tourism/internal/domain/model"
	"github.com/okian/tourism/internal/domain/ranking"
)

// billionsTolerance absorbs two-decimal rounding of the billions column.
const billionsTolerance = 0.005

// Verify returns every property of resp that does not hold for c.
func Verify(c Check, resp DashboardResponse) []string {
	d := resp.Data
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !d.Source.Valid() {
		report("unknown source %q", d.Source)
	}
	if resp.Degraded != (d.Source == model.SourceMockLocal) {
		report("degraded=%t with source %q", resp.Degraded, d.Source)
	}
	if c.Filters.Year != nil && d.Year != *c.Filters.Year {
		report("year %d, requested %d", d.Year, *c.Filters.Year)
	}
	if c.Limit > 0 && len(d.TopCountries) > c.Limit {
		report("%d top countries, limit %d", len(d.TopCountries), c.Limit)
	}
	limit := c.Limit
	if limit <= 0 {
		limit = len(d.TopCountries)
	}
	if !ranking.IsTopPrefix(d.TopCountries, d.TableRows, limit) {
		report("top countries are not the table's highest earners")
	}
	if !ranking.UniqueYears(d.TotalsByYear) {
		report("totals repeat a year")
	}

	for _, row := range d.TableRows {
		if !c.Filters.Matches(row, d.Year) {
			report("row %s (%s, %d) outside the filter", row.Code, row.Region, row.Year)
		}
		if math.Abs(row.ReceiptsUSDBillions-model.Billions(row.ReceiptsUSD)) > billionsTolerance {
			report("row %s billions %.4f for %.0f USD", row.Code, row.ReceiptsUSDBillions, row.ReceiptsUSD)
		}
	}
	return problems
}
