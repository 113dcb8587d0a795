package plot

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"gostatsplot/domain/core"
)

// Panel size inside a grid
const (
	PanelWidth  = 5 * vg.Inch
	PanelHeight = 4 * vg.Inch
)

// GridOptions controls how panels are combined
type GridOptions struct {
	Title      string   `json:"title" yaml:"title"`
	Rows       int      `json:"rows" yaml:"rows"`
	Cols       int      `json:"cols" yaml:"cols"`
	Labels     []string `json:"labels,omitempty" yaml:"labels,omitempty"` // one per panel
	AutoLabels bool     `json:"auto_labels" yaml:"auto_labels"`           // (a), (b), ...
	Parallel   int      `json:"parallel" yaml:"parallel"`                 // panels computed at once; 1 is sequential
}

// Grid is a row-major arrangement of figures
type Grid struct {
	ID     core.FigureID `json:"id"`
	Title  string        `json:"title"`
	Panels []*Figure     `json:"panels"`
	Labels []string      `json:"labels,omitempty"`
	Rows   int           `json:"rows"`
	Cols   int           `json:"cols"`
}

// NewGrid lays panels out. Without explicit dimensions the grid has
// ceil(sqrt(n)) columns.
func NewGrid(panels []*Figure, opts GridOptions) (*Grid, error) {
	n := len(panels)
	if n == 0 {
		return nil, core.NewInvalidOptionError("grid", "needs at least one panel")
	}
	rows, cols := opts.Rows, opts.Cols
	switch {
	case cols <= 0 && rows <= 0:
		cols = int(math.Ceil(math.Sqrt(float64(n))))
		rows = ceilDiv(n, cols)
	case cols <= 0:
		cols = ceilDiv(n, rows)
	case rows <= 0:
		rows = ceilDiv(n, cols)
	}
	if rows*cols < n {
		return nil, core.NewInvalidOptionError("grid", fmt.Sprintf("%dx%d cannot hold %d panels", rows, cols, n))
	}

	labels := opts.Labels
	switch {
	case len(labels) > 0 && len(labels) != n:
		return nil, core.NewInvalidOptionError("labels", fmt.Sprintf("got %d for %d panels", len(labels), n))
	case len(labels) == 0 && opts.AutoLabels:
		labels = make([]string, n)
		for i := range labels {
			labels[i] = PanelLabel(i)
		}
	}
	return &Grid{
		ID:     core.FigureID(core.NewID()),
		Title:  opts.Title,
		Panels: panels,
		Labels: labels,
		Rows:   rows,
		Cols:   cols,
	}, nil
}

// PanelLabel returns "(a)" for 0, "(b)" for 1, ..., "(aa)" after "(z)"
func PanelLabel(i int) string {
	var s []byte
	for i >= 0 {
		s = append([]byte{byte('a' + i%26)}, s...)
		i = i/26 - 1
	}
	return "(" + string(s) + ")"
}

// Position returns the row and column of panel i
func (g *Grid) Position(i int) (row, col int) {
	return i / g.Cols, i % g.Cols
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func (g *Grid) size() (vg.Length, vg.Length) {
	return vg.Length(g.Cols) * PanelWidth, vg.Length(g.Rows) * PanelHeight
}

func (g *Grid) draw(c vg.CanvasSizer) {
	dc := draw.New(c)
	if g.Title != "" {
		sty := gplot.New().Title.TextStyle
		h := sty.Height(g.Title)
		dc.FillText(sty, vg.Point{X: dc.Center().X, Y: dc.Max.Y - h}, g.Title)
		dc.Max.Y -= 2 * h
	}

	plots := make([][]*gplot.Plot, g.Rows)
	for r := range plots {
		plots[r] = make([]*gplot.Plot, g.Cols)
	}
	for i, f := range g.Panels {
		label := ""
		if g.Labels != nil {
			label = g.Labels[i]
		}
		r, col := g.Position(i)
		plots[r][col] = f.render(label)
	}

	tiles := draw.Tiles{
		Rows: g.Rows,
		Cols: g.Cols,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := gplot.Align(plots, tiles, dc)
	for r, row := range plots {
		for col, p := range row {
			if p != nil {
				p.Draw(canvases[r][col])
			}
		}
	}
}

// Save writes the grid to path; the extension selects the format.
func (g *Grid) Save(path string) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	w, h := g.size()
	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return fmt.Errorf("save grid %s: %w", path, err)
	}
	g.draw(c)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("save grid %s: %w", path, err)
	}
	return out.Close()
}

// WriteTo streams the grid as PNG
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	width, height := g.size()
	c, err := draw.NewFormattedCanvas(width, height, "png")
	if err != nil {
		return 0, err
	}
	g.draw(c)
	return c.WriteTo(w)
}
