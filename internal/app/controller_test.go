package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	service "github.com/okian/tourism/internal/app"
	"github.com/okian/tourism/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// gatedLoader blocks each Load until the test releases the gate keyed by
// the requested year, so completion order can be chosen independently of
// the order the load goroutines happen to start in.
type gatedLoader struct {
	gates   map[int]chan outcome
	started chan int
}

// latestGate keys loads that ask for the latest year.
const latestGate = 0

type outcome struct {
	res service.Result
	err error
}

func newGatedLoader(years ...int) *gatedLoader {
	g := &gatedLoader{
		gates:   make(map[int]chan outcome, len(years)),
		started: make(chan int, len(years)),
	}
	for _, y := range years {
		g.gates[y] = make(chan outcome, 1)
	}
	return g
}

func (g *gatedLoader) Load(_ context.Context, f model.Filters, _ int) (service.Result, error) {
	year := latestGate
	if f.Year != nil {
		year = *f.Year
	}
	g.started <- year
	o := <-g.gates[year]
	return o.res, o.err
}

func (g *gatedLoader) release(year int, o outcome) { g.gates[year] <- o }

func dashboardFor(year int) service.Result {
	return service.Result{Data: model.Dashboard{
		Source:       model.SourceRemote,
		Year:         year,
		Years:        []int{year},
		TableRows:    []model.CountryRow{{Country: "A", Year: year}},
		TotalsByYear: []model.YearTotal{{Year: year, TotalUSDBillions: 1}},
	}}
}

func TestController_Ordering(t *testing.T) {
	Convey("Given two loads for the same region", t, func() {
		g := newGatedLoader(2019, 2022)
		ctl := service.NewController(g)
		ctx := context.Background()

		first := ctl.SetFilters(ctx, model.Filters{Year: model.IntPtr(2019), Region: "Asia"})
		second := ctl.SetFilters(ctx, model.Filters{Year: model.IntPtr(2022), Region: "Asia"})
		<-g.started
		<-g.started

		So(second, ShouldBeGreaterThan, first)
		So(ctl.Snapshot().Loading, ShouldBeTrue)

		Convey("When the newer load finishes before the older one", func() {
			g.release(2022, outcome{res: dashboardFor(2022)})
			g.release(2019, outcome{res: dashboardFor(2019)})
			ctl.Wait()

			Convey("Then the newer result is kept", func() {
				s := ctl.Snapshot()
				So(s.Loading, ShouldBeFalse)
				So(s.Token, ShouldEqual, second)
				So(s.Data.Year, ShouldEqual, 2022)
				So(ctl.Stats()["staleDiscarded"], ShouldEqual, uint64(1))
			})
		})

		Convey("When the loads finish in issue order", func() {
			g.release(2019, outcome{res: dashboardFor(2019)})
			g.release(2022, outcome{res: dashboardFor(2022)})
			ctl.Wait()

			Convey("Then the newer result is kept as well", func() {
				So(ctl.Snapshot().Data.Year, ShouldEqual, 2022)
			})
		})
	})
}

func TestController_Outcomes(t *testing.T) {
	Convey("Given a controller with a fake clock", t, func() {
		clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
		g := newGatedLoader(latestGate, 1990)
		ctl := service.NewController(g, service.WithClock(clock))
		ctx := context.Background()

		Convey("Initially nothing is loaded and all regions are selected", func() {
			s := ctl.Snapshot()
			So(s.HasData(), ShouldBeFalse)
			So(s.Filters.Region, ShouldEqual, model.AllRegions)
			So(s.Filters.Year, ShouldBeNil)
		})

		Convey("When a degraded load completes", func() {
			ctl.Refresh(ctx)
			<-g.started
			res := dashboardFor(2022)
			res.Data.Source = model.SourceMockLocal
			res.Warning = errors.New("API error 500: boom")
			g.release(latestGate, outcome{res: res})
			ctl.Wait()

			Convey("Then data and the fallback notice are both set", func() {
				s := ctl.Snapshot()
				So(s.HasData(), ShouldBeTrue)
				So(s.Degraded, ShouldBeTrue)
				So(s.Error, ShouldEqual, "API error 500: boom (showing mock data)")
				So(s.UpdatedAt.Equal(clock.Now()), ShouldBeTrue)
			})

			Convey("And a following fatal load clears the data", func() {
				ctl.SetFilters(ctx, model.Filters{Year: model.IntPtr(1990)})
				<-g.started
				So(ctl.Snapshot().Error, ShouldBeEmpty)

				clock.Advance(time.Minute)
				g.release(1990, outcome{err: fmt.Errorf("%w: no totals", service.ErrNoData)})
				ctl.Wait()

				s := ctl.Snapshot()
				So(s.HasData(), ShouldBeFalse)
				So(s.Degraded, ShouldBeFalse)
				So(s.Error, ShouldContainSubstring, "no dashboard data available")
				So(*s.Filters.Year, ShouldEqual, 1990)
				So(s.UpdatedAt.Equal(clock.Now()), ShouldBeTrue)
				So(ctl.Stats()["fatalLoads"], ShouldEqual, uint64(1))
			})
		})

		Convey("When a snapshot is mutated", func() {
			ctl.Refresh(ctx)
			<-g.started
			g.release(latestGate, outcome{res: dashboardFor(2022)})
			ctl.Wait()

			s := ctl.Snapshot()
			s.Data.TableRows[0].Country = "changed"
			s.Data.Years[0] = 1

			Convey("Then the controller state is unaffected", func() {
				again := ctl.Snapshot()
				So(again.Data.TableRows[0].Country, ShouldEqual, "A")
				So(again.Data.Years[0], ShouldEqual, 2022)
			})
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service backed by the bundled dataset in mock mode", t, func() {
		svc := service.New(
			service.WithLoader(service.NewLoader(service.WithForceMock(true), service.WithDataset(newDataset()))),
			service.WithDefaultLimit(2),
		)

		Convey("When it is started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()

			Convey("Then the initial load has populated the state", func() {
				s := svc.State(context.Background())
				So(s.HasData(), ShouldBeTrue)
				So(s.Data.Source, ShouldEqual, model.SourceMock)
				So(s.Data.TopCountries, ShouldHaveLength, 2)
				So(s.Token, ShouldEqual, uint64(1))

				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
				So(stats["forceMock"], ShouldEqual, true)
				So(stats["loadsCompleted"], ShouldEqual, uint64(1))
			})
		})

		Convey("When filters change after start", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			token := svc.SetFilters(context.Background(), model.Filters{Region: "Europe"})
			svc.Wait()

			So(token, ShouldEqual, uint64(2))
			s := svc.State(context.Background())
			So(s.Data.TableRows, ShouldHaveLength, 2)
			So(s.Filters.Region, ShouldEqual, "Europe")
			svc.Stop()
		})

		Convey("When a synchronous load is requested", func() {
			res, err := svc.Dashboard(context.Background(), model.Filters{Region: "Asia"}, 1)
			So(err, ShouldBeNil)
			So(res.Data.TopCountries, ShouldHaveLength, 1)
			So(svc.State(context.Background()).HasData(), ShouldBeFalse)
		})
	})
}
