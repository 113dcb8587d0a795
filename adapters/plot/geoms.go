package plot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"gostatsplot/adapters/stats/subtitle"
)

var centralityColor = color.RGBA{R: 0xd5, G: 0x3e, B: 0x4f, A: 0xff}

// sturges picks the number of histogram bins for n observations
func sturges(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

func centralityLine(xys plotter.XYs) (*plotter.Line, error) {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.Color = centralityColor
	l.Width = vg.Points(1.5)
	l.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
	return l, nil
}

// Histogram draws x with a dashed vertical line at centrality. A NaN
// centrality draws no line.
func (f *Figure) Histogram(x []float64, centrality float64) error {
	h, err := plotter.NewHist(plotter.Values(x), sturges(len(x)))
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	f.Plot.Add(h)
	if math.IsNaN(centrality) {
		return nil
	}
	top := 0.0
	for _, b := range h.Bins {
		top = math.Max(top, b.Weight)
	}
	l, err := centralityLine(plotter.XYs{{X: centrality, Y: 0}, {X: centrality, Y: top}})
	if err != nil {
		return err
	}
	f.Plot.Add(l)
	return nil
}

// Dots draws one point per label, labels on the y axis
func (f *Figure) Dots(labels []string, values []float64, centrality float64) error {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: v, Y: float64(i)}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("dot plot: %w", err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)
	f.Plot.Add(s)
	f.Plot.NominalY(labels...)
	if math.IsNaN(centrality) || len(values) == 0 {
		return nil
	}
	top := float64(len(values)) - 0.5
	l, err := centralityLine(plotter.XYs{{X: centrality, Y: -0.5}, {X: centrality, Y: top}})
	if err != nil {
		return err
	}
	f.Plot.Add(l)
	return nil
}

// Boxes draws a box plot per group. means, when not nil, adds a marker per
// group at the given centrality value.
func (f *Figure) Boxes(labels []string, groups [][]float64, means []float64) error {
	for i, g := range groups {
		b, err := plotter.NewBoxPlot(vg.Points(24), float64(i), plotter.Values(g))
		if err != nil {
			return fmt.Errorf("box plot %q: %w", labels[i], err)
		}
		b.FillColor = plotutil.Color(i)
		f.Plot.Add(b)
	}
	if means != nil {
		xys := make(plotter.XYs, len(means))
		for i, m := range means {
			xys[i] = plotter.XY{X: float64(i), Y: m}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		s.GlyphStyle.Shape = draw.CrossGlyph{}
		s.GlyphStyle.Color = centralityColor
		s.GlyphStyle.Radius = vg.Points(4)
		f.Plot.Add(s)
	}
	f.Plot.NominalX(labels...)
	return nil
}

// Scatter draws y against x with the least-squares line
func (f *Figure) Scatter(x, y []float64) error {
	xys := make(plotter.XYs, len(x))
	for i := range x {
		xys[i] = plotter.XY{X: x[i], Y: y[i]}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	f.Plot.Add(s)
	if len(x) < 2 {
		return nil
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	lo, hi := floats.Min(x), floats.Max(x)
	l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: alpha + beta*lo}, {X: hi, Y: alpha + beta*hi}})
	if err != nil {
		return err
	}
	l.Color = centralityColor
	f.Plot.Add(l)
	return nil
}

// StackedPercent draws one 100% bar per category, stacked by level.
// percent[level][category] holds the share of a level within a category.
// Each segment is labelled with its percentage at percK decimals.
func (f *Figure) StackedPercent(categories, levels []string, percent [][]float64, percK int) error {
	var below *plotter.BarChart
	base := make([]float64, len(categories))
	var labels plotter.XYLabels
	for l, row := range percent {
		bc, err := plotter.NewBarChart(plotter.Values(row), vg.Points(40))
		if err != nil {
			return fmt.Errorf("bar %q: %w", levels[l], err)
		}
		bc.Color = plotutil.Color(l)
		bc.LineStyle.Width = 0
		if below != nil {
			bc.StackOn(below)
		}
		f.Plot.Add(bc)
		f.Plot.Legend.Add(levels[l], bc)
		below = bc

		for c, v := range row {
			if v > 0 {
				labels.XYs = append(labels.XYs, plotter.XY{X: float64(c), Y: base[c] + v/2})
				labels.Labels = append(labels.Labels, subtitle.Number(v, percK)+"%")
			}
			base[c] += v
		}
	}
	if len(labels.Labels) > 0 {
		lb, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		f.Plot.Add(lb)
	}
	f.Plot.NominalX(categories...)
	f.Plot.Y.Min, f.Plot.Y.Max = 0, 100
	return nil
}

// corrGrid exposes a correlation matrix as a heat map grid
type corrGrid struct {
	m *mat.SymDense
}

func (g corrGrid) Dims() (c, r int)   { n := g.m.SymmetricDim(); return n, n }
func (g corrGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// HeatMap draws a correlation matrix with a text label in every cell.
// NaN coefficients are left blank.
func (f *Figure) HeatMap(names []string, m *mat.SymDense, cellLabels [][]string) error {
	hm := plotter.NewHeatMap(corrGrid{m: m}, palette.Heat(12, 1))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Transparent
	f.Plot.Add(hm)

	var labels plotter.XYLabels
	for r, row := range cellLabels {
		for c, s := range row {
			if s == "" {
				continue
			}
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			labels.Labels = append(labels.Labels, s)
		}
	}
	if len(labels.Labels) > 0 {
		lb, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		f.Plot.Add(lb)
	}
	f.Plot.NominalX(names...)
	f.Plot.NominalY(names...)
	return nil
}
