package model_test

import (
	"testing"

	"github.com/okian/tourism/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFilters(t *testing.T) {
	Convey("Given dashboard filters", t, func() {
		Convey("When the region is empty", func() {
			f := model.Filters{}.Normalized()

			Convey("Then the all-regions sentinel is applied", func() {
				So(f.Region, ShouldEqual, model.AllRegions)
				So(f.Year, ShouldBeNil)
				So(f.AllRegionsSelected(), ShouldBeTrue)
			})
		})

		Convey("When a year is set", func() {
			year := 2020
			f := model.Filters{Year: &year, Region: "Europe"}.Normalized()
			year = 1999

			Convey("Then the normalized copy does not alias the caller's year", func() {
				So(*f.Year, ShouldEqual, 2020)
			})
		})

		Convey("When matching rows", func() {
			row := model.CountryRow{Country: "Spain", Region: "Europe", Year: 2021}

			So(model.Filters{Region: model.AllRegions}.Matches(row, 2021), ShouldBeTrue)
			So(model.Filters{Region: "Europe"}.Matches(row, 2021), ShouldBeTrue)
			So(model.Filters{Region: "Asia"}.Matches(row, 2021), ShouldBeFalse)
			So(model.Filters{Region: "Europe"}.Matches(row, 2020), ShouldBeFalse)
		})
	})
}

func TestSource(t *testing.T) {
	Convey("Given data sources", t, func() {
		So(model.SourceRemote.Valid(), ShouldBeTrue)
		So(model.SourceMock.Valid(), ShouldBeTrue)
		So(model.SourceMockLocal.Valid(), ShouldBeTrue)
		So(model.Source("mongo").Valid(), ShouldBeFalse)
	})
}

func TestDashboardClone(t *testing.T) {
	Convey("Given a dashboard", t, func() {
		d := model.Dashboard{
			Source:       model.SourceRemote,
			Years:        []int{2020, 2021},
			Regions:      []string{"All", "Europe"},
			TopCountries: []model.CountryRow{{Country: "Spain", ReceiptsUSD: 1e9, ReceiptsUSDBillions: 1}},
			TableRows:    []model.CountryRow{{Country: "Spain", ReceiptsUSD: 1e9, ReceiptsUSDBillions: 1}},
			TotalsByYear: []model.YearTotal{{Year: 2021, TotalUSDBillions: 1, Region: model.StringPtr("Europe")}},
		}

		Convey("When the clone is modified", func() {
			c := d.Clone()
			c.Years[0] = 1990
			c.TableRows[0].Country = "France"
			*c.TotalsByYear[0].Region = "Asia"

			Convey("Then the original is untouched", func() {
				So(d.Years[0], ShouldEqual, 2020)
				So(d.TableRows[0].Country, ShouldEqual, "Spain")
				So(*d.TotalsByYear[0].Region, ShouldEqual, "Europe")
			})
		})

		Convey("Then summary helpers read the table", func() {
			So(d.TotalBillions(), ShouldAlmostEqual, 1.0)
			top, ok := d.TopCountry()
			So(ok, ShouldBeTrue)
			So(top.Country, ShouldEqual, "Spain")
			So(d.TotalsByYear[0].RegionName(), ShouldEqual, "Europe")
			So(model.YearTotal{}.RegionName(), ShouldEqual, model.AllRegions)
		})
	})
}
