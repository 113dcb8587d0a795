package app

import (
	"context"
	"fmt"

	"gostatsplot/adapters/stats/runners"
	"gostatsplot/adapters/stats/subtitle"
	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
	"gostatsplot/domain/stats"
)

// Select maps a family and the active variant to exactly one runner and
// the template its result renders with. Only values outside the closed
// enums fail, with ErrUnsupportedTestKind.
func Select(family stats.Family, v stats.Variant) (runners.Runner, stats.Template, error) {
	if !v.Type.Valid() {
		return nil, 0, core.NewUnsupportedTestKindError("type", v.Type.String(), stats.AcceptedTestTypes())
	}
	if v.Type == stats.Bayes {
		if family == stats.Contingency {
			return runners.BayesContingency, stats.TemplateBayes, nil
		}
		r, err := selectBayes(family, v.Paired)
		return r, stats.TemplateBayes, err
	}

	switch family {
	case stats.OneSample:
		switch v.Type {
		case stats.Parametric:
			return runners.OneSampleT, stats.TemplateTTest, nil
		case stats.Nonparametric:
			return runners.OneSampleWilcoxon, stats.TemplateTTest, nil
		case stats.Robust:
			return runners.OneSampleBootstrapT, stats.TemplateTTest, nil
		}
	case stats.TwoSample:
		switch {
		case v.Type == stats.Parametric && v.Paired:
			return runners.PairedT, stats.TemplateTTest, nil
		case v.Type == stats.Parametric:
			return runners.TwoSampleT, stats.TemplateTTest, nil
		case v.Type == stats.Nonparametric && v.Paired:
			return runners.PairedWilcoxon, stats.TemplateTTest, nil
		case v.Type == stats.Nonparametric:
			return runners.MannWhitney, stats.TemplateTTest, nil
		case v.Type == stats.Robust && v.Paired:
			return runners.YuenPaired, stats.TemplateTTest, nil
		case v.Type == stats.Robust:
			return runners.Yuen, stats.TemplateTTest, nil
		}
	case stats.Anova:
		switch {
		case v.Type == stats.Parametric && v.Paired:
			return runners.RepeatedMeasuresAnova, stats.TemplateAnova, nil
		case v.Type == stats.Parametric:
			return runners.OneWayAnova, stats.TemplateAnova, nil
		case v.Type == stats.Nonparametric && v.Paired:
			return runners.Friedman, stats.TemplateAnova, nil
		case v.Type == stats.Nonparametric:
			return runners.KruskalWallis, stats.TemplateAnova, nil
		case v.Type == stats.Robust && v.Paired:
			return runners.TrimmedRepeatedAnova, stats.TemplateAnova, nil
		case v.Type == stats.Robust:
			return runners.TrimmedMeansAnova, stats.TemplateAnova, nil
		}
	case stats.Correlation:
		switch v.Type {
		case stats.Parametric:
			return runners.Pearson, stats.TemplateCorrelation, nil
		case stats.Nonparametric:
			return runners.Spearman, stats.TemplateCorrelation, nil
		case stats.Robust:
			return runners.PercentageBend, stats.TemplateCorrelation, nil
		}
	case stats.Contingency:
		// Frequentist contingency tests do not depend on the type
		if v.Paired {
			return runners.McNemar, stats.TemplateContingency, nil
		}
		return chiSquared, stats.TemplateContingency, nil
	}
	return nil, 0, core.NewUnsupportedTestKindError("family", family.String(),
		[]string{"one-sample", "two-sample", "anova", "correlation", "contingency"})
}

func selectBayes(family stats.Family, paired bool) (runners.Runner, error) {
	switch family {
	case stats.OneSample:
		return runners.BayesOneSample, nil
	case stats.TwoSample:
		if paired {
			return runners.BayesPaired, nil
		}
		return runners.BayesTwoSample, nil
	case stats.Anova:
		if paired {
			return runners.BayesRepeatedAnova, nil
		}
		return runners.BayesAnova, nil
	case stats.Correlation:
		return runners.BayesCorrelation, nil
	}
	return nil, core.NewUnsupportedTestKindError("family", family.String(),
		[]string{"one-sample", "two-sample", "anova", "correlation", "contingency"})
}

// chiSquared runs goodness of fit on a one-way table and the test of
// independence otherwise.
func chiSquared(ctx context.Context, in runners.Input, opts stats.Options) (*stats.Result, error) {
	if in.Table != nil && in.Table.OneWay() {
		return runners.GoodnessOfFit(ctx, in, opts)
	}
	return runners.Independence(ctx, in, opts)
}

// Outcome is a dispatched test: the cleaned data it ran on, the reshaped
// input, the result and its rendered subtitle.
type Outcome struct {
	Family   stats.Family
	Data     *dataset.Table
	Input    runners.Input
	Result   *stats.Result
	Subtitle string
}

// Dispatch validates refs against data, drops incomplete rows, reshapes
// the columns for the family, runs the selected test and renders it.
func Dispatch(ctx context.Context, family stats.Family, data *dataset.Table, refs []dataset.VarRef, opts stats.Options) (*Outcome, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	runner, _, err := Select(family, opts.Variant())
	if err != nil {
		return nil, err
	}
	out, err := Prepare(family, data, refs, opts.Paired)
	if err != nil {
		return nil, err
	}
	res, err := runner(ctx, out.Input, opts)
	if err != nil {
		return nil, err
	}
	out.Result = res
	out.Subtitle = subtitle.New(opts).Render(res)
	return out, nil
}

// Prepare validates and cleans data and reshapes it into a runner input
// without running a test.
func Prepare(family stats.Family, data *dataset.Table, refs []dataset.VarRef, paired bool) (*Outcome, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: no data", core.ErrInsufficientData)
	}
	if err := data.Require(refs...); err != nil {
		return nil, err
	}
	clean, err := data.DropMissing(dataset.Names(refs...)...)
	if err != nil {
		return nil, err
	}
	in, err := reshape(family, clean, refs, paired)
	if err != nil {
		return nil, err
	}
	return &Outcome{Family: family, Data: clean, Input: in}, nil
}

func refFor(refs []dataset.VarRef, role dataset.Role) string {
	for _, r := range refs {
		if r.Role == role {
			return r.Name
		}
	}
	return ""
}

func reshape(family stats.Family, t *dataset.Table, refs []dataset.VarRef, paired bool) (runners.Input, error) {
	x, y := refFor(refs, dataset.RoleX), refFor(refs, dataset.RoleY)
	switch family {
	case stats.OneSample:
		xs, err := t.Numeric(x)
		if err != nil {
			return runners.Input{}, err
		}
		return runners.Input{Groups: [][]float64{xs}, Labels: []string{x}}, nil

	case stats.TwoSample, stats.Anova:
		var (
			levels []string
			groups [][]float64
			err    error
		)
		if paired {
			levels, groups, err = MatchSubjects(t, y, x, refFor(refs, dataset.RoleSubject))
		} else {
			levels, groups, err = t.SplitBy(y, x)
		}
		if err != nil {
			return runners.Input{}, err
		}
		return runners.Input{Groups: groups, Labels: levels}, nil

	case stats.Correlation:
		xs, err := t.Numeric(x)
		if err != nil {
			return runners.Input{}, err
		}
		ys, err := t.Numeric(y)
		if err != nil {
			return runners.Input{}, err
		}
		return runners.Input{X: xs, Y: ys}, nil

	case stats.Contingency:
		tab, err := Crosstab(t, refFor(refs, dataset.RoleMain), refFor(refs, dataset.RoleCondition), refFor(refs, dataset.RoleCounts))
		if err != nil {
			return runners.Input{}, err
		}
		return runners.Input{Table: tab}, nil
	}
	return runners.Input{}, core.NewUnsupportedTestKindError("family", family.String(), nil)
}
