package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/tourism/internal/adapters/http/api"
	service "github.com/okian/tourism/internal/app"
	"github.com/okian/tourism/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	mu        sync.Mutex
	state     service.State
	token     uint64
	filters   model.Filters
	limit     int
	result    service.Result
	resultErr error
}

func (f *fakeDeps) State(context.Context) service.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeDeps) SetFilters(_ context.Context, filters model.Filters) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = filters
	f.token++
	return f.token
}

func (f *fakeDeps) Refresh(context.Context) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token++
	return f.token
}

func (f *fakeDeps) Dashboard(_ context.Context, filters model.Filters, limit int) (service.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = filters
	f.limit = limit
	return f.result, f.resultErr
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]any {
	return map[string]any{"loadsStarted": 3}
}

func sampleDashboard() *model.Dashboard {
	europe := "Europe"
	return &model.Dashboard{
		Source:     model.SourceMock,
		LatestYear: 2022,
		Year:       2022,
		Years:      []int{2021, 2022},
		Regions:    []string{model.AllRegions, "Europe", "Asia"},
		TopCountries: []model.CountryRow{
			{Country: "B", Code: "BBB", Region: "Asia", Year: 2022, ReceiptsUSD: 5e9, ReceiptsUSDBillions: 5},
			{Country: "A", Code: "AAA", Region: "Europe", Year: 2022, ReceiptsUSD: 3e9, ReceiptsUSDBillions: 3},
		},
		TableRows: []model.CountryRow{
			{Country: "B", Code: "BBB", Region: "Asia", Year: 2022, ReceiptsUSD: 5e9, ReceiptsUSDBillions: 5},
			{Country: "A", Code: "AAA", Region: "Europe", Year: 2022, ReceiptsUSD: 3e9, ReceiptsUSDBillions: 3},
		},
		TotalsByYear: []model.YearTotal{
			{Year: 2021, TotalUSDBillions: 7, Region: &europe},
			{Year: 2022, TotalUSDBillions: 8, Region: &europe},
		},
	}
}

func newMux(deps *fakeDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, fakeStats{}).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestStateEndpoints(t *testing.T) {
	Convey("Given a server with a loaded state", t, func() {
		deps := &fakeDeps{state: service.State{
			Filters: model.Filters{Region: model.AllRegions},
			Token:   4,
			Data:    sampleDashboard(),
		}}
		mux := newMux(deps)

		Convey("When the state is requested", func() {
			w := do(mux, http.MethodGet, "/api/state", "")

			Convey("Then the snapshot is returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")

				var got service.State
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Token, ShouldEqual, uint64(4))
				So(got.Data.TableRows, ShouldHaveLength, 2)
				So(got.Filters.Region, ShouldEqual, model.AllRegions)
			})
		})

		Convey("When new filters are posted", func() {
			w := do(mux, http.MethodPost, "/api/filters", `{"year": 2021, "region": "Asia"}`)

			Convey("Then the load is accepted with its token", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"token":1`)
				So(*deps.filters.Year, ShouldEqual, 2021)
				So(deps.filters.Region, ShouldEqual, "Asia")
			})
		})

		Convey("When filters without a region are posted", func() {
			w := do(mux, http.MethodPost, "/api/filters", `{}`)

			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.filters.Year, ShouldBeNil)
			So(deps.filters.Region, ShouldBeEmpty)
		})

		Convey("When a malformed body is posted", func() {
			for _, body := range []string{``, `{"year": "x"}`, `{"country": "A"}`, `not json`} {
				w := do(mux, http.MethodPost, "/api/filters", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
			So(deps.token, ShouldEqual, uint64(0))
		})

		Convey("When a refresh is requested", func() {
			w := do(mux, http.MethodPost, "/api/refresh", "")

			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, `"token":1`)
		})

		Convey("When the state is requested with the wrong method", func() {
			w := do(mux, http.MethodPost, "/api/state", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestDashboardEndpoint(t *testing.T) {
	Convey("Given a server whose loads fall back to bundled data", t, func() {
		deps := &fakeDeps{result: service.Result{
			Data:    *sampleDashboard(),
			Warning: errors.New("API error 500: boom"),
		}}
		mux := newMux(deps)

		Convey("When a dashboard is requested", func() {
			w := do(mux, http.MethodGet, "/api/dashboard?year=2021&limit=3", "")

			Convey("Then the data and the fallback notice are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var body struct {
					Data     model.Dashboard `json:"data"`
					Notice   string          `json:"notice"`
					Degraded bool            `json:"degraded"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Notice, ShouldEqual, "API error 500: boom (showing mock data)")
				So(body.Degraded, ShouldBeTrue)
				So(body.Data.TopCountries, ShouldHaveLength, 2)
			})

			Convey("Then the query is passed to the loader", func() {
				So(*deps.filters.Year, ShouldEqual, 2021)
				So(deps.filters.Region, ShouldEqual, model.AllRegions)
				So(deps.limit, ShouldEqual, 3)
			})
		})

		Convey("When the year or limit is not an integer", func() {
			for _, target := range []string{"/api/dashboard?year=abc", "/api/dashboard?limit=five"} {
				w := do(mux, http.MethodGet, target, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When no data can be produced at all", func() {
			deps.resultErr = fmt.Errorf("%w: nothing bundled", service.ErrNoData)
			w := do(mux, http.MethodGet, "/api/dashboard", "")

			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeError(w)["code"], ShouldEqual, "no_data")
		})
	})
}

func TestExportEndpoints(t *testing.T) {
	Convey("Given a server with a loaded state", t, func() {
		deps := &fakeDeps{state: service.State{Data: sampleDashboard()}}
		mux := newMux(deps)

		Convey("When the CSV export is requested sorted by country", func() {
			w := do(mux, http.MethodGet, "/api/export.csv?sort=country&dir=asc", "")

			Convey("Then the rows are downloaded in that order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/csv; charset=utf-8")
				So(w.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename="tourism_receipts.csv"`)

				lines := strings.Split(w.Body.String(), "\n")
				So(lines, ShouldHaveLength, 3)
				So(lines[0], ShouldEqual, "Country,Code,Region,Year,Receipts USD,Receipts USD Billions")
				So(lines[1], ShouldStartWith, `"A","AAA"`)
				So(lines[2], ShouldStartWith, `"B","BBB"`)
			})
		})

		Convey("When the XLSX export is requested", func() {
			w := do(mux, http.MethodGet, "/api/export.xlsx", "")

			Convey("Then a zip-packaged workbook is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual,
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
				So(w.Body.String(), ShouldStartWith, "PK")
			})
		})

		Convey("When the sort key is unknown", func() {
			w := do(mux, http.MethodGet, "/api/export.csv?sort=population", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the current filter has no rows", func() {
			deps.state.Data.TableRows = nil
			w := do(mux, http.MethodGet, "/api/export.csv", "")

			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeError(w)["code"], ShouldEqual, "no_rows")
		})

		Convey("When nothing has been loaded yet", func() {
			deps.state.Data = nil
			w := do(mux, http.MethodGet, "/api/export.xlsx", "")

			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeError(w)["code"], ShouldEqual, "no_state")
		})
	})
}

func TestChartEndpoints(t *testing.T) {
	Convey("Given a server with a loaded state", t, func() {
		deps := &fakeDeps{state: service.State{Data: sampleDashboard()}}
		mux := newMux(deps)

		Convey("Then both charts render as PNG", func() {
			for _, target := range []string{"/api/charts/top.png", "/api/charts/trends.png"} {
				w := do(mux, http.MethodGet, target, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "image/png")
				So(w.Body.String(), ShouldStartWith, "\x89PNG")
			}
		})

		Convey("When nothing has been loaded yet", func() {
			deps.state.Data = nil
			w := do(mux, http.MethodGet, "/api/charts/top.png", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When there are no top countries", func() {
			deps.state.Data.TopCountries = nil
			w := do(mux, http.MethodGet, "/api/charts/top.png", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeError(w)["code"], ShouldEqual, "empty_chart")
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		mux := newMux(&fakeDeps{})

		Convey("Then the dashboard page is served", func() {
			w := do(mux, http.MethodGet, "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/html")
			So(w.Body.String(), ShouldContainSubstring, "International Tourism Receipts")
		})

		Convey("Then stats are served as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"loadsStarted":3`)
		})

		Convey("Then metrics are exposed with request counters", func() {
			do(mux, http.MethodGet, "/stats", "")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})
	})
}
