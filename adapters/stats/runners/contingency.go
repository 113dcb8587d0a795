package runners

import (
	"context"
	"math"

	"gostatsplot/adapters/stats/distributions"
	"gostatsplot/adapters/stats/effsize"
	"gostatsplot/domain/core"
	"gostatsplot/domain/stats"
)

func requireTable(test string, tab *Crosstab) error {
	if tab == nil || tab.Total() < 1 {
		return core.NewInsufficientDataError(test, 1, 0)
	}
	if len(tab.RowLevels) < 2 {
		return core.NewInsufficientDataError(test+" (levels)", 2, len(tab.RowLevels))
	}
	return nil
}

// expectedRatio normalises ratio to proportions over k categories; an empty
// ratio means equal proportions.
func expectedRatio(ratio []float64, k int) ([]float64, error) {
	p := make([]float64, k)
	if len(ratio) == 0 {
		for i := range p {
			p[i] = 1 / float64(k)
		}
		return p, nil
	}
	if len(ratio) != k {
		return nil, core.NewInvalidOptionError("ratio", "needs one entry per level")
	}
	var s float64
	for _, r := range ratio {
		s += r
	}
	for i, r := range ratio {
		p[i] = r / s
	}
	return p, nil
}

// GoodnessOfFit is the one-way chi-square test against Options.Ratio
func GoodnessOfFit(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	tab := in.Table
	if err := requireTable("chi-squared goodness of fit test", tab); err != nil {
		return nil, err
	}
	obs := tab.RowSums()
	k := len(obs)
	p, err := expectedRatio(opts.Ratio, k)
	if err != nil {
		return nil, err
	}
	n := tab.Total()
	var chi2 float64
	for i, o := range obs {
		e := n * p[i]
		chi2 += (o - e) * (o - e) / e
	}

	res := stats.NewResult("Chi-squared test for given probabilities", stats.TemplateContingency)
	res.StatisticSymbol, res.StatisticLabel = "χ²", "gof"
	res.Statistic = chi2
	res.DF1 = float64(k - 1)
	res.PValue = distributions.UpperChiSquare(chi2, res.DF1)
	res.N = int(n)
	res.EffsizeSymbol = "V_Cramer"
	setEstimate(res, effsize.CramersV(chi2, res.DF1, int(n), float64(k-1), opts.ConfLevel), opts.ConfLevel)
	return res, nil
}

// pearsonChi2 returns the independence statistic of a two-way table
func pearsonChi2(tab *Crosstab) float64 {
	rows, cols := tab.RowSums(), tab.ColSums()
	n := tab.Total()
	var chi2 float64
	for i, row := range tab.Counts {
		for j, o := range row {
			e := rows[i] * cols[j] / n
			if e == 0 {
				return math.NaN()
			}
			chi2 += (o - e) * (o - e) / e
		}
	}
	return chi2
}

// Independence is Pearson's chi-square test without continuity correction
func Independence(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	tab := in.Table
	if err := requireTable("Pearson's chi-squared test", tab); err != nil {
		return nil, err
	}
	if len(tab.ColLevels) < 2 {
		return nil, core.NewInsufficientDataError("Pearson's chi-squared test (condition levels)", 2, len(tab.ColLevels))
	}
	r, c := len(tab.RowLevels), len(tab.ColLevels)
	chi2 := pearsonChi2(tab)
	n := tab.Total()

	res := stats.NewResult("Pearson's Chi-squared test", stats.TemplateContingency)
	res.StatisticSymbol, res.StatisticLabel = "χ²", "Pearson"
	res.Statistic = chi2
	res.DF1 = float64((r - 1) * (c - 1))
	res.PValue = distributions.UpperChiSquare(chi2, res.DF1)
	res.N = int(n)
	res.EffsizeSymbol = "V_Cramer"
	k := float64(min(r, c) - 1)
	setEstimate(res, effsize.CramersV(chi2, res.DF1, int(n), k, opts.ConfLevel), opts.ConfLevel)
	return res, nil
}

// discordant sums the cells above and below the diagonal of a square table
func discordant(tab *Crosstab) (upper, lower float64) {
	for i, row := range tab.Counts {
		for j, v := range row {
			switch {
			case j > i:
				upper += v
			case j < i:
				lower += v
			}
		}
	}
	return upper, lower
}

// McNemar tests marginal homogeneity of a square paired table without
// continuity correction. Tables larger than 2x2 use Bowker's symmetry
// statistic.
func McNemar(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	tab := in.Table
	if err := requireTable("McNemar's chi-squared test", tab); err != nil {
		return nil, err
	}
	if len(tab.RowLevels) != len(tab.ColLevels) {
		return nil, core.NewInvalidOptionError("paired", "McNemar's test needs a square table")
	}
	var chi2, df float64
	for i := range tab.Counts {
		for j := i + 1; j < len(tab.Counts); j++ {
			b, c := tab.Counts[i][j], tab.Counts[j][i]
			if b+c == 0 {
				continue
			}
			chi2 += (b - c) * (b - c) / (b + c)
			df++
		}
	}

	res := stats.NewResult("McNemar's Chi-squared test", stats.TemplateContingency)
	res.StatisticSymbol, res.StatisticLabel = "χ²", "McNemar"
	res.N, res.NLabel = int(tab.Total()), "pairs"
	if df > 0 {
		res.Statistic = chi2
		res.DF1 = df
		res.PValue = distributions.UpperChiSquare(chi2, df)
	}
	upper, lower := discordant(tab)
	res.EffsizeSymbol = "g_Cohen"
	setEstimate(res, effsize.CohensG(int(upper), int(lower), opts.ConfLevel), opts.ConfLevel)
	return res, nil
}
