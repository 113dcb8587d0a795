package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"gostatsplot/adapters/plot"
	"gostatsplot/adapters/stats/describe"
	"gostatsplot/adapters/stats/runners"
	"gostatsplot/adapters/stats/subtitle"
	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
	"gostatsplot/domain/run"
	"gostatsplot/domain/stats"
	"gostatsplot/internal"
	"gostatsplot/ports"
)

// Operation names as used by the CLI, the API and the run store
const (
	OpHistoStats   = "gghistostats"
	OpDotplotStats = "ggdotplotstats"
	OpBetweenStats = "ggbetweenstats"
	OpWithinStats  = "ggwithinstats"
	OpScatterStats = "ggscatterstats"
	OpPieStats     = "ggpiestats"
	OpBarStats     = "ggbarstats"
	OpCorrMat      = "ggcorrmat"
)

// Request names the data and columns of one plot operation. Which columns
// are read depends on the operation:
//   - histostats: X (numeric)
//   - dotplotstats: X (numeric), Y (labels)
//   - betweenstats, withinstats: X (grouping), Y (numeric), Subject (within only)
//   - scatterstats: X, Y (numeric)
//   - piestats, barstats: Main, Condition, Counts
//   - corrmat: Columns (all numeric columns when empty)
type Request struct {
	Data      *dataset.Table `json:"-"`
	X         string         `json:"x,omitempty"`
	Y         string         `json:"y,omitempty"`
	Main      string         `json:"main,omitempty"`
	Condition string         `json:"condition,omitempty"`
	Counts    string         `json:"counts,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Columns   []string       `json:"columns,omitempty"`
	Options   stats.Options  `json:"options"`
	Title     string         `json:"title,omitempty"`
	XLabel    string         `json:"x_label,omitempty"`
	YLabel    string         `json:"y_label,omitempty"`
}

// Variables lists the referenced column names in a fixed order
func (r Request) Variables() []string {
	names := []string{r.X, r.Y, r.Main, r.Condition, r.Counts, r.Subject}
	var out []string
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return append(out, r.Columns...)
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

// PlotFunc is the signature shared by every plot operation
type PlotFunc func(ctx context.Context, req Request) (*plot.Figure, error)

// StatsPlotService runs plot operations: validate, test, render, draw.
type StatsPlotService struct {
	logger *internal.Logger
	runs   ports.RunStore
}

// NewStatsPlotService creates a plot service. runs may be nil when runs are
// not persisted.
func NewStatsPlotService(logger *internal.Logger, runs ports.RunStore) *StatsPlotService {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &StatsPlotService{logger: logger, runs: runs}
}

// Operation looks a plot operation up by name
func (s *StatsPlotService) Operation(name string) (PlotFunc, error) {
	ops := map[string]PlotFunc{
		OpHistoStats:   s.GGHistoStats,
		OpDotplotStats: s.GGDotplotStats,
		OpBetweenStats: s.GGBetweenStats,
		OpWithinStats:  s.GGWithinStats,
		OpScatterStats: s.GGScatterStats,
		OpPieStats:     s.GGPieStats,
		OpBarStats:     s.GGBarStats,
		OpCorrMat:      s.GGCorrMat,
	}
	fn, ok := ops[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, core.NewUnsupportedTestKindError("operation", name, Operations())
	}
	return fn, nil
}

// Operations lists every operation name in a stable order
func Operations() []string {
	ops := []string{OpHistoStats, OpDotplotStats, OpBetweenStats, OpWithinStats,
		OpScatterStats, OpPieStats, OpBarStats, OpCorrMat}
	sort.Strings(ops)
	return ops
}

// annotate runs the test selected for family on in and writes the subtitle
// and the Bayes caption into fig. Nothing is computed when
// ResultsSubtitle is off.
func (s *StatsPlotService) annotate(ctx context.Context, fig *plot.Figure, family stats.Family, in runners.Input, opts stats.Options) error {
	if !opts.ResultsSubtitle {
		return nil
	}
	runner, _, err := Select(family, opts.Variant())
	if err != nil {
		return err
	}
	res, err := runner(ctx, in, opts)
	if err != nil {
		return err
	}
	fig.Result = res
	fig.Subtitle = subtitle.New(opts).Render(res)
	fig.Caption = s.bayesCaption(ctx, family, in, opts)
	s.logger.Debug("[StatsPlot] %s %s: %s", family, opts.Variant(), res.Method)
	return nil
}

// bayesCaption renders the Bayes test of the same family under a
// parametric plot when BFMessage is set.
func (s *StatsPlotService) bayesCaption(ctx context.Context, family stats.Family, in runners.Input, opts stats.Options) string {
	if !opts.BFMessage || opts.Type != stats.Parametric {
		return ""
	}
	bopts := opts
	bopts.Type = stats.Bayes
	runner, _, err := Select(family, bopts.Variant())
	if err != nil {
		return ""
	}
	res, err := runner(ctx, in, bopts)
	if err != nil {
		s.logger.Warn("[StatsPlot] Bayes caption skipped: %v", err)
		return ""
	}
	return subtitle.New(bopts).Render(res)
}

func appendCaption(fig *plot.Figure, line string) {
	if line == "" {
		return
	}
	if fig.Caption == "" {
		fig.Caption = line
		return
	}
	fig.Caption += "\n" + line
}

// centrality is the location measure matching the test type
func centrality(x []float64, opts stats.Options) float64 {
	if !opts.Centrality {
		return math.NaN()
	}
	switch opts.Type {
	case stats.Nonparametric:
		return describe.Median(x)
	case stats.Robust:
		return describe.TrimmedMean(x, opts.TrimLevel)
	default:
		return describe.Mean(x)
	}
}

// GGHistoStats tests x against Options.TestValue and draws its histogram
func (s *StatsPlotService) GGHistoStats(ctx context.Context, req Request) (*plot.Figure, error) {
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	out, err := Prepare(stats.OneSample, req.Data, []dataset.VarRef{dataset.Ref(req.X, dataset.RoleX)}, false)
	if err != nil {
		return nil, err
	}
	x := out.Input.Groups[0]
	fig := plot.NewFigure(req.Title, orDefault(req.XLabel, req.X), orDefault(req.YLabel, "count"))
	if err := s.annotate(ctx, fig, stats.OneSample, out.Input, opts); err != nil {
		return nil, err
	}
	if err := fig.Histogram(x, centrality(x, opts)); err != nil {
		return nil, err
	}
	return fig, nil
}

// GGDotplotStats averages X within each label of Y and tests the label
// means against Options.TestValue.
func (s *StatsPlotService) GGDotplotStats(ctx context.Context, req Request) (*plot.Figure, error) {
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	refs := []dataset.VarRef{dataset.Ref(req.X, dataset.RoleX), dataset.Ref(req.Y, dataset.RoleLabel)}
	if req.Data == nil {
		return nil, fmt.Errorf("%w: no data", core.ErrInsufficientData)
	}
	if err := req.Data.Require(refs...); err != nil {
		return nil, err
	}
	clean, err := req.Data.DropMissing(dataset.Names(refs...)...)
	if err != nil {
		return nil, err
	}
	labels, groups, err := clean.SplitBy(req.X, req.Y)
	if err != nil {
		return nil, err
	}
	means := make([]float64, len(groups))
	for i, g := range groups {
		means[i] = describe.Mean(g)
	}

	in := runners.Input{Groups: [][]float64{means}, Labels: []string{req.X}}
	fig := plot.NewFigure(req.Title, orDefault(req.XLabel, req.X), orDefault(req.YLabel, req.Y))
	if err := s.annotate(ctx, fig, stats.OneSample, in, opts); err != nil {
		return nil, err
	}
	if err := fig.Dots(labels, means, centrality(means, opts)); err != nil {
		return nil, err
	}
	return fig, nil
}

// GGBetweenStats compares Y across the levels of X: a two-sample test for
// two levels, a one-way ANOVA for more, plus pairwise comparisons.
func (s *StatsPlotService) GGBetweenStats(ctx context.Context, req Request) (*plot.Figure, error) {
	opts := req.Options
	opts.Paired = false
	return s.groupComparison(ctx, req, opts, []dataset.VarRef{
		dataset.Ref(req.X, dataset.RoleX),
		dataset.Ref(req.Y, dataset.RoleY),
	})
}

// GGWithinStats is GGBetweenStats for repeated measures. Rows are matched
// by Subject when given, else by order within each condition.
func (s *StatsPlotService) GGWithinStats(ctx context.Context, req Request) (*plot.Figure, error) {
	opts := req.Options
	opts.Paired = true
	return s.groupComparison(ctx, req, opts, []dataset.VarRef{
		dataset.Ref(req.X, dataset.RoleX),
		dataset.Ref(req.Y, dataset.RoleY),
		dataset.Ref(req.Subject, dataset.RoleSubject),
	})
}

func (s *StatsPlotService) groupComparison(ctx context.Context, req Request, opts stats.Options, refs []dataset.VarRef) (*plot.Figure, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	out, err := Prepare(stats.TwoSample, req.Data, refs, opts.Paired)
	if err != nil {
		return nil, err
	}
	in := out.Input
	family := stats.TwoSample
	if len(in.Groups) > 2 {
		family = stats.Anova
	}

	fig := plot.NewFigure(req.Title, orDefault(req.XLabel, req.X), orDefault(req.YLabel, req.Y))
	if err := s.annotate(ctx, fig, family, in, opts); err != nil {
		return nil, err
	}
	if opts.ResultsSubtitle && opts.Pairwise && family == stats.Anova {
		pw, err := runners.Pairwise(ctx, in, opts)
		if err != nil {
			return nil, err
		}
		appendCaption(fig, pw.Caption())
	}

	var means []float64
	if opts.Centrality {
		means = make([]float64, len(in.Groups))
		for i, g := range in.Groups {
			means[i] = centrality(g, opts)
		}
	}
	if err := fig.Boxes(in.Labels, in.Groups, means); err != nil {
		return nil, err
	}
	return fig, nil
}

// GGScatterStats correlates X and Y
func (s *StatsPlotService) GGScatterStats(ctx context.Context, req Request) (*plot.Figure, error) {
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	out, err := Prepare(stats.Correlation, req.Data, []dataset.VarRef{
		dataset.Ref(req.X, dataset.RoleX),
		dataset.Ref(req.Y, dataset.RoleY),
	}, false)
	if err != nil {
		return nil, err
	}
	fig := plot.NewFigure(req.Title, orDefault(req.XLabel, req.X), orDefault(req.YLabel, req.Y))
	if err := s.annotate(ctx, fig, stats.Correlation, out.Input, opts); err != nil {
		return nil, err
	}
	if err := fig.Scatter(out.Input.X, out.Input.Y); err != nil {
		return nil, err
	}
	return fig, nil
}

// GGPieStats tests the distribution of Main, alone (goodness of fit) or by
// Condition, and draws the shares as 100% bars.
func (s *StatsPlotService) GGPieStats(ctx context.Context, req Request) (*plot.Figure, error) {
	return s.contingency(ctx, req)
}

// GGBarStats is GGPieStats with a required Condition
func (s *StatsPlotService) GGBarStats(ctx context.Context, req Request) (*plot.Figure, error) {
	if req.Condition == "" {
		return nil, core.NewInvalidOptionError("condition", "is required for a bar chart")
	}
	return s.contingency(ctx, req)
}

func (s *StatsPlotService) contingency(ctx context.Context, req Request) (*plot.Figure, error) {
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	out, err := Prepare(stats.Contingency, req.Data, []dataset.VarRef{
		dataset.Ref(req.Main, dataset.RoleMain),
		dataset.Ref(req.Condition, dataset.RoleCondition),
		dataset.Ref(req.Counts, dataset.RoleCounts),
	}, opts.Paired)
	if err != nil {
		return nil, err
	}
	tab := out.Input.Table
	fig := plot.NewFigure(req.Title, orDefault(req.XLabel, req.Condition), orDefault(req.YLabel, "percent"))
	if err := s.annotate(ctx, fig, stats.Contingency, out.Input, opts); err != nil {
		return nil, err
	}

	categories := tab.ColLevels
	if tab.OneWay() {
		categories = []string{req.Main}
	}
	colSums := tab.ColSums()
	percent := make([][]float64, len(tab.RowLevels))
	for r, row := range tab.Counts {
		percent[r] = make([]float64, len(row))
		for c, v := range row {
			if colSums[c] > 0 {
				percent[r][c] = 100 * v / colSums[c]
			}
		}
	}
	if err := fig.StackedPercent(categories, tab.RowLevels, percent, opts.PercK); err != nil {
		return nil, err
	}
	return fig, nil
}

// Record persists a finished figure as a run. It is a no-op without a
// run store.
func (s *StatsPlotService) Record(ctx context.Context, op string, req Request, fig *plot.Figure, imagePath string) (*run.Run, error) {
	r := run.NewRun(op, req.Variables(), req.Options.Type.String(), req.Options.Paired, req.Options.Seed)
	r.Title, r.Subtitle, r.Caption, r.ImagePath = fig.Title, fig.Subtitle, fig.Caption, imagePath
	if s.runs == nil {
		return r, nil
	}
	if err := s.runs.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("record %s run: %w", op, err)
	}
	s.logger.Info("[StatsPlot] recorded run %s (%s)", r.ID, op)
	return r, nil
}
