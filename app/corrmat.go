package app

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gostatsplot/adapters/plot"
	"gostatsplot/adapters/stats/runners"
	"gostatsplot/adapters/stats/subtitle"
	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
	"gostatsplot/domain/stats"
)

// SigLevel is the adjusted p-value at or above which a coefficient is
// marked as not significant
const SigLevel = 0.05

// CorrMatrix holds every pairwise correlation among a set of columns. P
// holds adjusted p-values and is NaN on the diagonal and for Bayes.
type CorrMatrix struct {
	Names  []string
	R      *mat.SymDense
	P      *mat.SymDense
	N      [][]int
	Method string
	Adjust stats.PAdjust
}

// Caption names the correlation method and the adjustment
func (m *CorrMatrix) Caption() string {
	if m.Adjust == stats.AdjustNone {
		return "Correlation: " + m.Method
	}
	return "Correlation: " + m.Method + "; Adjustment (p-value): " + m.Adjust.Label()
}

// numericColumns lists the numeric columns of t in schema order
func numericColumns(t *dataset.Table) []string {
	var out []string
	for _, n := range t.Names() {
		if c, err := t.Column(n); err == nil && c.Kind == dataset.Numeric {
			out = append(out, n)
		}
	}
	return out
}

// CorrelationMatrix correlates every pair of columns on its complete rows
// with the correlation test of Options.Type.
func (s *StatsPlotService) CorrelationMatrix(ctx context.Context, req Request) (*CorrMatrix, error) {
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if req.Data == nil {
		return nil, fmt.Errorf("%w: no data", core.ErrInsufficientData)
	}
	names := req.Columns
	if len(names) == 0 {
		names = numericColumns(req.Data)
	}
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: a correlation matrix needs at least 2 numeric columns, got %d",
			core.ErrInsufficientData, len(names))
	}
	refs := make([]dataset.VarRef, len(names))
	for i, n := range names {
		refs[i] = dataset.Ref(n, dataset.RoleX)
	}
	if err := req.Data.Require(refs...); err != nil {
		return nil, err
	}
	runner, _, err := Select(stats.Correlation, stats.Variant{Type: opts.Type})
	if err != nil {
		return nil, err
	}

	k := len(names)
	m := &CorrMatrix{
		Names:  names,
		R:      mat.NewSymDense(k, nil),
		P:      mat.NewSymDense(k, nil),
		N:      make([][]int, k),
		Adjust: opts.PAdjust,
	}
	if opts.Type == stats.Bayes {
		m.Adjust = stats.AdjustNone
	}
	for i := range m.N {
		m.N[i] = make([]int, k)
	}

	var raw []float64
	var cells [][2]int
	for i := 0; i < k; i++ {
		m.R.SetSym(i, i, 1)
		m.P.SetSym(i, i, math.NaN())
		for j := i + 1; j < k; j++ {
			out, err := Prepare(stats.Correlation, req.Data, []dataset.VarRef{
				dataset.Ref(names[i], dataset.RoleX),
				dataset.Ref(names[j], dataset.RoleY),
			}, false)
			if err != nil {
				return nil, err
			}
			res, err := runner(ctx, out.Input, opts)
			if err != nil {
				return nil, fmt.Errorf("%s ~ %s: %w", names[i], names[j], err)
			}
			m.Method = res.Method
			m.R.SetSym(i, j, res.Estimate)
			m.N[i][j], m.N[j][i] = res.N, res.N
			raw = append(raw, res.PValue)
			cells = append(cells, [2]int{i, j})
		}
	}
	for i := 0; i < k; i++ {
		m.N[i][i] = req.Data.Len()
	}
	for c, p := range runners.AdjustPValues(raw, m.Adjust) {
		m.P.SetSym(cells[c][0], cells[c][1], p)
	}
	s.logger.Debug("[StatsPlot] correlation matrix over %d columns (%s)", k, m.Method)
	return m, nil
}

// GGCorrMat draws the correlation matrix as a labelled heat map.
// Coefficients whose adjusted p-value reaches SigLevel are marked with "×".
func (s *StatsPlotService) GGCorrMat(ctx context.Context, req Request) (*plot.Figure, error) {
	m, err := s.CorrelationMatrix(ctx, req)
	if err != nil {
		return nil, err
	}
	k := len(m.Names)
	labels := make([][]string, k)
	for i := range labels {
		labels[i] = make([]string, k)
		for j := range labels[i] {
			r := m.R.At(i, j)
			if math.IsNaN(r) {
				continue
			}
			labels[i][j] = subtitle.Number(r, req.Options.K)
			if p := m.P.At(i, j); !math.IsNaN(p) && p >= SigLevel {
				labels[i][j] += " ×"
			}
		}
	}

	fig := plot.NewFigure(req.Title, req.XLabel, req.YLabel)
	fig.Caption = m.Caption()
	if err := fig.HeatMap(m.Names, m.R, labels); err != nil {
		return nil, err
	}
	return fig, nil
}
