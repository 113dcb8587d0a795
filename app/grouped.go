package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"gostatsplot/adapters/plot"
	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
)

// PanelFunc builds the figure of one level from that level's rows
type PanelFunc func(ctx context.Context, level string, data *dataset.Table) (*plot.Figure, error)

// Grouped calls fn once per level of groupingVar, in first-appearance
// order, and lays the figures out as a grid. Every call receives the same
// options, so a panel equals the standalone call on its subset. With
// opts.Parallel > 1 up to that many panels are built at once; the grid is
// the same either way. The first error aborts the remaining panels.
func Grouped(ctx context.Context, data *dataset.Table, groupingVar string, fn PanelFunc, opts plot.GridOptions) (*plot.Grid, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: no data", core.ErrInsufficientData)
	}
	if err := data.Require(dataset.Ref(groupingVar, dataset.RoleGrouping)); err != nil {
		return nil, err
	}
	levels, err := data.Levels(groupingVar)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: grouping variable %q has no levels", core.ErrInsufficientData, groupingVar)
	}

	subsets := make([]*dataset.Table, len(levels))
	for i, lvl := range levels {
		if subsets[i], err = data.Filter(groupingVar, lvl); err != nil {
			return nil, err
		}
	}

	panels := make([]*plot.Figure, len(levels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Parallel))
	for i, lvl := range levels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := fn(gctx, lvl, subsets[i])
			if err != nil {
				return fmt.Errorf("%s = %s: %w", groupingVar, lvl, err)
			}
			panels[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plot.NewGrid(panels, opts)
}

// GroupedRequest is a Request repeated over the levels of GroupingVar
type GroupedRequest struct {
	Request
	GroupingVar string           `json:"grouping_var"`
	Grid        plot.GridOptions `json:"grid"`
}

func (s *StatsPlotService) grouped(ctx context.Context, req GroupedRequest, op PlotFunc) (*plot.Grid, error) {
	s.logger.Debug("[Grouped] %s by %q", req.Title, req.GroupingVar)
	grid, err := Grouped(ctx, req.Data, req.GroupingVar, func(ctx context.Context, level string, data *dataset.Table) (*plot.Figure, error) {
		sub := req.Request
		sub.Data = data
		sub.Title = level
		return op(ctx, sub)
	}, req.Grid)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[Grouped] %d panels by %q", len(grid.Panels), req.GroupingVar)
	return grid, nil
}

// GroupedGGHistoStats repeats GGHistoStats per level of GroupingVar
func (s *StatsPlotService) GroupedGGHistoStats(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
	return s.grouped(ctx, req, s.GGHistoStats)
}

// GroupedGGDotplotStats repeats GGDotplotStats per level of GroupingVar
func (s *StatsPlotService) GroupedGGDotplotStats(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
	return s.grouped(ctx, req, s.GGDotplotStats)
}

// GroupedGGBetweenStats repeats GGBetweenStats per level of GroupingVar
func (s *StatsPlotService) GroupedGGBetweenStats(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
	return s.grouped(ctx, req, s.GGBetweenStats)
}

// GroupedGGWithinStats repeats GGWithinStats per level of GroupingVar
func (s *StatsPlotService) GroupedGGWithinStats(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
	return s.grouped(ctx, req, s.GGWithinStats)
}

// GroupedGGScatterStats repeats GGScatterStats per level of GroupingVar
func (s *StatsPlotService) GroupedGGScatterStats(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
	return s.grouped(ctx, req, s.GGScatterStats)
}

// GroupedGGPieStats repeats GGPieStats per level of GroupingVar
func (s *StatsPlotService) GroupedGGPieStats(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
	return s.grouped(ctx, req, s.GGPieStats)
}

// GroupedGGBarStats repeats GGBarStats per level of GroupingVar
func (s *StatsPlotService) GroupedGGBarStats(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
	return s.grouped(ctx, req, s.GGBarStats)
}

// GroupedGGCorrMat repeats GGCorrMat per level of GroupingVar
func (s *StatsPlotService) GroupedGGCorrMat(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
	return s.grouped(ctx, req, s.GGCorrMat)
}

// GroupedOperation looks a grouped plot operation up by base name
func (s *StatsPlotService) GroupedOperation(name string) (func(context.Context, GroupedRequest) (*plot.Grid, error), error) {
	op, err := s.Operation(name)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, req GroupedRequest) (*plot.Grid, error) {
		return s.grouped(ctx, req, op)
	}, nil
}
