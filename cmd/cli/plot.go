package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gostatsplot/adapters/excel"
	"gostatsplot/adapters/plot"
	"gostatsplot/app"
	"gostatsplot/domain/dataset"
	"gostatsplot/domain/stats"
	"gostatsplot/internal/container"
	"gostatsplot/internal/errors"
)

// plotFlags are the command line form of app.Request and stats.Options.
// Option flags only override the configuration when set.
type plotFlags struct {
	req app.Request

	testType    string
	paired      bool
	k           int
	confLevel   float64
	nboot       int
	seed        uint64
	testValue   float64
	varEqual    bool
	trim        float64
	pAdjust     string
	effsize     string
	noSubtitle  bool
	noBF        bool
	noPairwise  bool
	groupingVar string
	parallel    int
	autoLabels  bool

	query       string
	sheet       string
	categorical []string
	out         string
}

func newPlotCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Run a plot operation on a CSV or XLSX file",
		Long: `Run a plot operation and write the figure. The subtitle and caption
are printed to stdout.

Example:
  gostatsplot plot ggbetweenstats study.csv --x group --y score --type robust
  gostatsplot plot ggscatterstats study.xlsx --x score --y rating --grouping-var region`,
	}
	for _, op := range app.Operations() {
		cmd.AddCommand(newOperationCmd(c, op))
	}
	return cmd
}

func newOperationCmd(c *cli, op string) *cobra.Command {
	f := &plotFlags{}
	cmd := &cobra.Command{
		Use:   op + " [data-file]",
		Short: "Run " + op,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runPlot(cmd, c, op, path, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.req.X, "x", "", "X column")
	fl.StringVar(&f.req.Y, "y", "", "Y column")
	fl.StringVar(&f.req.Main, "main", "", "Main categorical column")
	fl.StringVar(&f.req.Condition, "condition", "", "Condition column of a contingency table")
	fl.StringVar(&f.req.Counts, "counts", "", "Column of case weights")
	fl.StringVar(&f.req.Subject, "subject", "", "Subject column of a within-subjects design")
	fl.StringSliceVar(&f.req.Columns, "columns", nil, "Columns of a correlation matrix")
	fl.StringVar(&f.req.Title, "title", "", "Plot title")
	fl.StringVar(&f.req.XLabel, "xlab", "", "X axis label")
	fl.StringVar(&f.req.YLabel, "ylab", "", "Y axis label")

	fl.StringVar(&f.testType, "type", "", "Test type: parametric, nonparametric, robust or bayes")
	fl.BoolVar(&f.paired, "paired", false, "Paired design")
	fl.IntVar(&f.k, "k", 0, "Decimal places of statistics")
	fl.Float64Var(&f.confLevel, "conf-level", 0, "Confidence level")
	fl.IntVar(&f.nboot, "nboot", 0, "Bootstrap resamples")
	fl.Uint64Var(&f.seed, "seed", 0, "Random seed")
	fl.Float64Var(&f.testValue, "test-value", 0, "Value a one-sample test compares against")
	fl.BoolVar(&f.varEqual, "var-equal", false, "Assume equal variances")
	fl.Float64Var(&f.trim, "tr", 0, "Trim level of robust tests")
	fl.StringVar(&f.pAdjust, "p-adjust", "", "P-value adjustment of pairwise tests")
	fl.StringVar(&f.effsize, "effsize-type", "", "Effect size type")
	fl.BoolVar(&f.noSubtitle, "no-subtitle", false, "Skip the statistics")
	fl.BoolVar(&f.noBF, "no-bf", false, "Skip the Bayes factor caption")
	fl.BoolVar(&f.noPairwise, "no-pairwise", false, "Skip pairwise comparisons")

	fl.StringVar(&f.groupingVar, "grouping-var", "", "Repeat the plot per level of this column")
	fl.IntVar(&f.parallel, "parallel", 0, "Panels computed at once")
	fl.BoolVar(&f.autoLabels, "auto-labels", true, "Label panels (a), (b), ...")

	fl.StringVar(&f.query, "query", "", "Load the table with this SQL query instead of a file")
	fl.StringVar(&f.sheet, "sheet", "", "XLSX sheet")
	fl.StringSliceVar(&f.categorical, "categorical", nil, "Columns read as categorical")
	fl.StringVarP(&f.out, "out", "o", "", "Output image; its extension picks png, svg or pdf")
	return cmd
}

// options layers the set flags over the configured defaults
func (f *plotFlags) options(cmd *cobra.Command, base stats.Options) (stats.Options, error) {
	o := base
	fl := cmd.Flags()
	var err error
	if fl.Changed("type") {
		if o.Type, err = stats.ParseTestType(f.testType); err != nil {
			return o, err
		}
	}
	if fl.Changed("p-adjust") {
		if o.PAdjust, err = stats.ParsePAdjust(f.pAdjust); err != nil {
			return o, err
		}
	}
	if fl.Changed("effsize-type") {
		if o.EffsizeType, err = stats.ParseEffsizeType(f.effsize); err != nil {
			return o, err
		}
	}
	if fl.Changed("paired") {
		o.Paired = f.paired
	}
	if fl.Changed("k") {
		o.K = f.k
	}
	if fl.Changed("conf-level") {
		o.ConfLevel = f.confLevel
	}
	if fl.Changed("nboot") {
		o.NBoot = f.nboot
	}
	if fl.Changed("seed") {
		o.Seed = f.seed
	}
	if fl.Changed("test-value") {
		o.TestValue = f.testValue
	}
	if fl.Changed("var-equal") {
		o.VarEqual = f.varEqual
	}
	if fl.Changed("tr") {
		o.TrimLevel = f.trim
	}
	if f.noSubtitle {
		o.ResultsSubtitle = false
	}
	if f.noBF {
		o.BFMessage = false
	}
	if f.noPairwise {
		o.Pairwise = false
	}
	return o, o.Validate()
}

func (c *cli) loadTable(cmd *cobra.Command, ctr *container.Container, path string, f *plotFlags) (*dataset.Table, error) {
	ctx := cmd.Context()
	if f.query != "" {
		if ctr.Tables == nil {
			return nil, errors.ConfigInvalid("--query needs DATABASE_URL")
		}
		return ctr.Tables.Load(ctx, f.query)
	}
	if path == "" {
		return nil, errors.InvalidInput("a data file or --query is required")
	}
	rc := excel.DefaultReaderConfig()
	rc.Sheet = f.sheet
	rc.Categorical = f.categorical
	return excel.NewDataReader(rc, c.logger).ReadFile(ctx, path)
}

func (c *cli) outputPath(op string, f *plotFlags) (string, error) {
	path := f.out
	if path == "" {
		path = filepath.Join(c.cfg.Output.Dir, op+"."+strings.ToLower(c.cfg.Output.Format))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(err, "failed to create output directory")
		}
	}
	return path, nil
}

func runPlot(cmd *cobra.Command, c *cli, op, path string, f *plotFlags) error {
	ctx := cmd.Context()
	ctr, err := c.container(ctx)
	if err != nil {
		return err
	}
	defer ctr.Close()

	req := f.req
	if req.Options, err = f.options(cmd, c.cfg.Plot.Options); err != nil {
		return err
	}
	if req.Data, err = c.loadTable(cmd, ctr, path, f); err != nil {
		return err
	}
	out, err := c.outputPath(op, f)
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()

	if f.groupingVar != "" {
		return runGrouped(cmd, c, ctr, op, req, f, out)
	}

	fn, err := ctr.Plots.Operation(op)
	if err != nil {
		return err
	}
	fig, err := fn(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s failed", op)
	}
	if err := fig.Save(out); err != nil {
		return err
	}
	rn, err := ctr.Plots.Record(ctx, op, req, fig, out)
	if err != nil {
		return err
	}
	printFigure(stdout, "", fig)
	fmt.Fprintf(stdout, "wrote %s (run %s)\n", out, rn.ID)
	return nil
}

func runGrouped(cmd *cobra.Command, c *cli, ctr *container.Container, op string, req app.Request, f *plotFlags, out string) error {
	ctx := cmd.Context()
	fn, err := ctr.Plots.GroupedOperation(op)
	if err != nil {
		return err
	}
	parallel := c.cfg.Plot.Parallel
	if cmd.Flags().Changed("parallel") {
		parallel = f.parallel
	}
	grid, err := fn(ctx, app.GroupedRequest{
		Request:     req,
		GroupingVar: f.groupingVar,
		Grid:        plot.GridOptions{Title: req.Title, AutoLabels: f.autoLabels, Parallel: parallel},
	})
	if err != nil {
		return errors.Wrapf(err, "grouped %s failed", op)
	}
	if err := grid.Save(out); err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	for i, fig := range grid.Panels {
		if _, err := ctr.Plots.Record(ctx, op, req, fig, out); err != nil {
			return err
		}
		label := ""
		if i < len(grid.Labels) {
			label = grid.Labels[i]
		}
		printFigure(stdout, label, fig)
	}
	fmt.Fprintf(stdout, "wrote %s (%d panels)\n", out, len(grid.Panels))
	return nil
}

func printFigure(w io.Writer, label string, fig *plot.Figure) {
	title := strings.TrimSpace(label + " " + fig.Title)
	if title != "" {
		fmt.Fprintln(w, title)
	}
	if fig.Subtitle != "" {
		fmt.Fprintln(w, fig.Subtitle)
	}
	if fig.Caption != "" {
		fmt.Fprintln(w, fig.Caption)
	}
}
