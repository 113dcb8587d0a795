// Package plot assembles gonum/plot figures that carry a statistical
// subtitle, and lays several of them out as a grid.
package plot

import (
	"fmt"
	"io"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"gostatsplot/domain/core"
	"gostatsplot/domain/stats"
)

// Default figure size
const (
	Width  = 6 * vg.Inch
	Height = 5 * vg.Inch
)

// Figure is one plot plus the text printed around it. Subtitle holds the
// rendered statistics and is empty when they were not requested.
type Figure struct {
	ID       core.FigureID `json:"id"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Caption  string        `json:"caption"`
	XLabel   string        `json:"x_label"`
	YLabel   string        `json:"y_label"`
	Result   *stats.Result `json:"result,omitempty"`
	Plot     *gplot.Plot   `json:"-"`
}

// NewFigure returns an empty figure with axis labels
func NewFigure(title, xlabel, ylabel string) *Figure {
	return &Figure{
		ID:     core.FigureID(core.NewID()),
		Title:  title,
		XLabel: xlabel,
		YLabel: ylabel,
		Plot:   gplot.New(),
	}
}

// Text returns title, subtitle and caption as the lines a reader sees
func (f *Figure) Text() string {
	return joinLines(f.Title, f.Subtitle, f.Caption)
}

// render copies the text fields onto the underlying plot. label, when set,
// prefixes the title as in "(a) title".
func (f *Figure) render(label string) *gplot.Plot {
	title := f.Title
	if label != "" {
		title = strings.TrimSpace(label + " " + title)
	}
	f.Plot.Title.Text = joinLines(title, f.Subtitle)
	f.Plot.X.Label.Text = joinLines(f.XLabel, f.Caption)
	f.Plot.Y.Label.Text = f.YLabel
	return f.Plot
}

// Save writes the figure to path; the extension selects PNG, SVG or PDF.
func (f *Figure) Save(path string) error {
	if err := f.render("").Save(Width, Height, path); err != nil {
		return fmt.Errorf("save figure %s: %w", path, err)
	}
	return nil
}

// WriteTo streams the figure as PNG
func (f *Figure) WriteTo(w io.Writer) (int64, error) {
	wt, err := f.render("").WriterTo(Width, Height, "png")
	if err != nil {
		return 0, err
	}
	return wt.WriteTo(w)
}

func joinLines(lines ...string) string {
	kept := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
