// Package charts renders dashboard charts as PNG images.
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/okian/tourism/internal/domain/model"
)

// ErrEmpty is returned when there is nothing to plot.
var ErrEmpty = errors.New("nothing to plot")

var (
	barColor  = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	lineColor = color.RGBA{R: 0, G: 100, B: 0, A: 255}
)

// Size is the rendered image size.
type Size struct {
	Width, Height vg.Length
}

// DefaultSize fits the dashboard page.
var DefaultSize = Size{Width: 8 * vg.Inch, Height: 4 * vg.Inch}

// TopCountries writes a bar chart of the top earners in USD billions.
func TopCountries(w io.Writer, d model.Dashboard, size Size) error {
	if len(d.TopCountries) == 0 {
		return ErrEmpty
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d countries by tourism receipts, %d", len(d.TopCountries), d.Year)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Receipts (USD billions)"

	values := make(plotter.Values, len(d.TopCountries))
	labels := make([]string, len(d.TopCountries))
	for i, r := range d.TopCountries {
		values[i] = r.ReceiptsUSDBillions
		labels[i] = r.Code
	}

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars, plotter.NewGrid())
	p.NominalX(labels...)
	p.Y.Min = 0

	for i, v := range values {
		label, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: float64(i), Y: v}},
			Labels: []string{strconv.FormatFloat(v, 'f', 1, 64)},
		})
		if err != nil {
			return fmt.Errorf("bar label: %w", err)
		}
		label.TextStyle[0].XAlign = draw.XCenter
		p.Add(label)
	}
	p.Y.Max = math.Max(p.Y.Max, maxOf(values)*1.15)

	return save(w, p, size)
}

// Trends writes a line chart of the yearly totals.
func Trends(w io.Writer, d model.Dashboard, size Size) error {
	if len(d.TotalsByYear) == 0 {
		return ErrEmpty
	}

	region := d.TotalsByYear[0].RegionName()
	p := plot.New()
	p.Title.Text = "Tourism receipts by year, " + region
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Total (USD billions)"

	points := make(plotter.XYs, len(d.TotalsByYear))
	for i, t := range d.TotalsByYear {
		points[i].X = float64(t.Year)
		points[i].Y = t.TotalUSDBillions
	}

	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return fmt.Errorf("line chart: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(2)
	scatter.GlyphStyle.Color = lineColor
	p.Add(line, scatter, plotter.NewGrid())
	p.X.Tick.Marker = yearTicks{}

	return save(w, p, size)
}

// yearTicks labels every integer year in range.
type yearTicks struct{}

func (yearTicks) Ticks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for y := math.Ceil(lo); y <= hi; y++ {
		ticks = append(ticks, plot.Tick{Value: y, Label: strconv.Itoa(int(y))})
	}
	return ticks
}

func save(w io.Writer, p *plot.Plot, size Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	wt, err := p.WriterTo(size.Width, size.Height, "png")
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func maxOf(v plotter.Values) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}
