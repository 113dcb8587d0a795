package plot

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"gostatsplot/domain/core"
)

var pngMagic = []byte("\x89PNG")

func TestFigureText(t *testing.T) {
	f := NewFigure("Title", "x", "count")
	f.Subtitle = "t_Student(4) = 4.24"
	assert.Equal(t, "Title\nt_Student(4) = 4.24", f.Text())

	f.Caption = "Pairwise test: Welch's t-test"
	assert.Equal(t, "Title\nt_Student(4) = 4.24\nPairwise test: Welch's t-test", f.Text())
	assert.NotEmpty(t, f.ID)
}

func TestFigureRendersEveryGeom(t *testing.T) {
	cases := map[string]func(f *Figure) error{
		"histogram": func(f *Figure) error { return f.Histogram([]float64{1, 2, 2, 3, 3, 3, 4}, 2.5) },
		"dots":      func(f *Figure) error { return f.Dots([]string{"a", "b"}, []float64{1, 3}, 2) },
		"boxes": func(f *Figure) error {
			return f.Boxes([]string{"a", "b"}, [][]float64{{1, 2, 3}, {2, 3, 4}}, []float64{2, 3})
		},
		"scatter": func(f *Figure) error { return f.Scatter([]float64{1, 2, 3}, []float64{2, 4, 5}) },
		"stacked": func(f *Figure) error {
			return f.StackedPercent([]string{"x", "y"}, []string{"p", "q"}, [][]float64{{25, 60}, {75, 40}}, 0)
		},
		"heatmap": func(f *Figure) error {
			m := mat.NewSymDense(2, []float64{1, 0.5, 0.5, 1})
			return f.HeatMap([]string{"u", "v"}, m, [][]string{{"1.00", "0.50"}, {"0.50", "1.00"}})
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			f := NewFigure(name, "x", "y")
			f.Subtitle = "subtitle"
			require.NoError(t, build(f))

			var buf bytes.Buffer
			_, err := f.WriteTo(&buf)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
		})
	}
}

func TestHistogramWithoutCentrality(t *testing.T) {
	f := NewFigure("", "", "")
	require.NoError(t, f.Histogram([]float64{1, 2, 3}, math.NaN()))
}

func TestNewGridDefaults(t *testing.T) {
	cases := []struct {
		n, rows, cols int
	}{
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{5, 2, 3},
		{10, 3, 4},
	}
	for _, tc := range cases {
		g, err := NewGrid(make([]*Figure, tc.n), GridOptions{})
		require.NoError(t, err)
		assert.Equal(t, tc.rows, g.Rows, "n=%d", tc.n)
		assert.Equal(t, tc.cols, g.Cols, "n=%d", tc.n)
	}
}

func TestNewGridExplicitDims(t *testing.T) {
	g, err := NewGrid(make([]*Figure, 5), GridOptions{Rows: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, g.Cols)

	g, err = NewGrid(make([]*Figure, 5), GridOptions{Cols: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Rows)

	row, col := g.Position(3)
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	_, err = NewGrid(make([]*Figure, 5), GridOptions{Rows: 2, Cols: 2})
	assert.ErrorIs(t, err, core.ErrInvalidOption)

	_, err = NewGrid(nil, GridOptions{})
	assert.ErrorIs(t, err, core.ErrInvalidOption)
}

func TestGridLabels(t *testing.T) {
	g, err := NewGrid(make([]*Figure, 3), GridOptions{AutoLabels: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"(a)", "(b)", "(c)"}, g.Labels)

	g, err = NewGrid(make([]*Figure, 2), GridOptions{Labels: []string{"first", "second"}, AutoLabels: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, g.Labels)

	_, err = NewGrid(make([]*Figure, 2), GridOptions{Labels: []string{"only"}})
	assert.ErrorIs(t, err, core.ErrInvalidOption)

	assert.Equal(t, "(z)", PanelLabel(25))
	assert.Equal(t, "(aa)", PanelLabel(26))
}

func TestGridWritesImage(t *testing.T) {
	var panels []*Figure
	for _, lvl := range []string{"a", "b", "c"} {
		f := NewFigure(lvl, "x", "count")
		require.NoError(t, f.Histogram([]float64{1, 2, 2, 3}, 2))
		panels = append(panels, f)
	}
	g, err := NewGrid(panels, GridOptions{Title: "grouped", AutoLabels: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = g.WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	path := filepath.Join(t.TempDir(), "grid.svg")
	require.NoError(t, g.Save(path))
	assert.FileExists(t, path)
}
