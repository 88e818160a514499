// Package model contains domain models passed between layers.
package model

// AllRegions is the region filter sentinel meaning "no region restriction".
const AllRegions = "All"

// BillionUSD is the divisor from raw USD to USD billions.
const BillionUSD = 1e9

// Source tells where the data behind a Dashboard came from.
type Source string

const (
	// SourceRemote marks data fetched from the receipts API.
	SourceRemote Source = "remote"
	// SourceMock marks data synthesized because mock mode is forced by configuration.
	SourceMock Source = "mock"
	// SourceMockLocal marks data synthesized after a remote failure (degraded mode).
	SourceMockLocal Source = "mock-local"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceRemote, SourceMock, SourceMockLocal:
		return true
	}
	return false
}

// CountryRow is the receipts of one country for one year.
type CountryRow struct {
	Country             string  `json:"country"`
	Code                string  `json:"code"`
	Region              string  `json:"region"`
	Year                int     `json:"year"`
	ReceiptsUSD         float64 `json:"receiptsUsd"`
	ReceiptsUSDBillions float64 `json:"receiptsUsdBillions"`
}

// YearTotal is the receipts total for one year. A nil Region is the
// all-regions aggregate.
type YearTotal struct {
	Year             int     `json:"year"`
	TotalUSDBillions float64 `json:"totalUsdBillions"`
	Region           *string `json:"region"`
}

// RegionName returns the total's region or AllRegions for the aggregate.
func (t YearTotal) RegionName() string {
	if t.Region == nil {
		return AllRegions
	}
	return *t.Region
}

// Filters selects the year and region shown on the dashboard.
type Filters struct {
	// Year is nil for "latest available year".
	Year   *int   `json:"year,omitempty"`
	Region string `json:"region"`
}

// Normalized returns a copy with the default region applied.
func (f Filters) Normalized() Filters {
	out := Filters{Region: f.Region}
	if out.Region == "" {
		out.Region = AllRegions
	}
	if f.Year != nil {
		y := *f.Year
		out.Year = &y
	}
	return out
}

// AllRegionsSelected reports whether the region filter is the sentinel.
func (f Filters) AllRegionsSelected() bool {
	return f.Region == "" || f.Region == AllRegions
}

// Matches reports whether row belongs to the filter for the given target year.
func (f Filters) Matches(row CountryRow, year int) bool {
	if row.Year != year {
		return false
	}
	return f.AllRegionsSelected() || row.Region == f.Region
}

// Dashboard is the canonical normalized view of one filter selection.
// It is never mutated after construction; a new selection yields a new value.
type Dashboard struct {
	Source Source `json:"source"`
	// Upstream is the source string declared by the receipts API, if any.
	Upstream     string       `json:"upstream,omitempty"`
	LatestYear   int          `json:"latestYear"`
	Year         int          `json:"year"`
	Years        []int        `json:"years"`
	Regions      []string     `json:"regions"`
	TopCountries []CountryRow `json:"topCountries"`
	TotalsByYear []YearTotal  `json:"totalsByYear"`
	TableRows    []CountryRow `json:"tableRows"`
}

// Clone returns a deep copy of d.
func (d Dashboard) Clone() Dashboard {
	out := d
	out.Years = append([]int{}, d.Years...)
	out.Regions = append([]string{}, d.Regions...)
	out.TopCountries = append([]CountryRow{}, d.TopCountries...)
	out.TableRows = append([]CountryRow{}, d.TableRows...)
	out.TotalsByYear = make([]YearTotal, len(d.TotalsByYear))
	for i, t := range d.TotalsByYear {
		out.TotalsByYear[i] = t
		if t.Region != nil {
			r := *t.Region
			out.TotalsByYear[i].Region = &r
		}
	}
	return out
}

// TotalBillions sums the billions column of the table rows.
func (d Dashboard) TotalBillions() float64 {
	var sum float64
	for _, r := range d.TableRows {
		sum += r.ReceiptsUSDBillions
	}
	return sum
}

// TopCountry returns the highest earner, if any.
func (d Dashboard) TopCountry() (CountryRow, bool) {
	if len(d.TopCountries) == 0 {
		return CountryRow{}, false
	}
	return d.TopCountries[0], true
}

// Billions converts raw USD to USD billions.
func Billions(usd float64) float64 {
	return usd / BillionUSD
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
