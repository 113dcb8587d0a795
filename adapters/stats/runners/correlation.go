package runners

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"gostatsplot/adapters/stats/describe"
	"gostatsplot/adapters/stats/effsize"
	"gostatsplot/domain/core"
	"gostatsplot/domain/stats"
)

// PercentageBendBeta is the bending constant of the percentage bend
// correlation.
const PercentageBendBeta = 0.2

func requirePairs(test string, x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: %s needs equal-length x and y, got %d and %d", core.ErrInsufficientData, test, len(x), len(y))
	}
	if len(x) < 3 {
		return core.NewInsufficientDataError(test, 3, len(x))
	}
	return nil
}

// corrT converts a correlation over n pairs to its t statistic
func corrT(r float64, n int) tStat {
	df := float64(n - 2)
	return newTStat(r*math.Sqrt(df/(1-r*r)), df)
}

func fisherSE(n int) float64 {
	if n <= 3 {
		return math.NaN()
	}
	return 1 / math.Sqrt(float64(n-3))
}

// Pearson is the product-moment correlation test
func Pearson(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePairs("Pearson's correlation", in.X, in.Y); err != nil {
		return nil, err
	}
	n := len(in.X)
	r := stat.Correlation(in.X, in.Y, nil)
	ts := corrT(r, n)

	res := stats.NewResult("Pearson's product-moment correlation", stats.TemplateCorrelation)
	res.StatisticSymbol, res.StatisticLabel = "t", "Student"
	res.Statistic, res.DF1, res.PValue = ts.T, ts.DF, ts.P
	res.N, res.NLabel = n, "pairs"
	res.EffsizeSymbol = "r_Pearson"
	setEstimate(res, effsize.FisherZInterval(r, fisherSE(n), opts.ConfLevel), opts.ConfLevel)
	return res, nil
}

// Spearman is the rank correlation test. The statistic is S, the sum of
// squared rank differences, with a t-approximated p-value.
func Spearman(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePairs("Spearman's rank correlation", in.X, in.Y); err != nil {
		return nil, err
	}
	n := len(in.X)
	rx, _ := describe.Ranks(in.X)
	ry, _ := describe.Ranks(in.Y)
	rho := stat.Correlation(rx, ry, nil)
	nf := float64(n)

	res := stats.NewResult("Spearman's rank correlation rho", stats.TemplateCorrelation)
	res.StatisticSymbol = "S"
	res.Statistic = (nf*nf*nf - nf) * (1 - rho) / 6
	res.PValue = corrT(rho, n).P
	res.N, res.NLabel = n, "pairs"
	res.EffsizeSymbol = "ρ_Spearman"

	se := math.NaN()
	if n > 3 {
		se = math.Sqrt((1 + rho*rho/2) / (nf - 3))
	}
	setEstimate(res, effsize.FisherZInterval(rho, se, opts.ConfLevel), opts.ConfLevel)
	return res, nil
}

// bend returns the bent scores (x - phi) / omega clamped to [-1, 1]
func bend(x []float64, beta float64) []float64 {
	n := len(x)
	med := describe.Median(x)
	dev := make([]float64, n)
	for i, v := range x {
		dev[i] = math.Abs(v - med)
	}
	sort.Float64s(dev)
	m := int(math.Floor((1 - beta) * float64(n)))
	if m < 1 {
		m = 1
	}
	omega := dev[m-1]

	out := make([]float64, n)
	if omega == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var below, above int
	var inner float64
	for _, v := range x {
		psi := (v - med) / omega
		switch {
		case psi < -1:
			below++
		case psi > 1:
			above++
		default:
			inner += v
		}
	}
	phi := (omega*float64(above-below) + inner) / float64(n-below-above)
	for i, v := range x {
		out[i] = math.Max(-1, math.Min(1, (v-phi)/omega))
	}
	return out
}

// PercentageBendCorrelation computes Wilcox's percentage bend correlation
func PercentageBendCorrelation(x, y []float64, beta float64) float64 {
	a, b := bend(x, beta), bend(y, beta)
	var ab, aa, bb float64
	for i := range a {
		ab += a[i] * b[i]
		aa += a[i] * a[i]
		bb += b[i] * b[i]
	}
	return ab / math.Sqrt(aa*bb)
}

// PercentageBend is the robust correlation test
func PercentageBend(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePairs("percentage bend correlation", in.X, in.Y); err != nil {
		return nil, err
	}
	n := len(in.X)
	r := PercentageBendCorrelation(in.X, in.Y, PercentageBendBeta)
	ts := corrT(r, n)

	res := stats.NewResult("Percentage bend correlation", stats.TemplateCorrelation)
	res.StatisticSymbol, res.StatisticLabel = "t", "Student"
	res.Statistic, res.DF1, res.PValue = ts.T, ts.DF, ts.P
	res.N, res.NLabel = n, "pairs"
	res.EffsizeSymbol = "ρ_pb"
	setEstimate(res, effsize.FisherZInterval(r, fisherSE(n), opts.ConfLevel), opts.ConfLevel)
	return res, nil
}
