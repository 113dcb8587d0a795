package runners

import (
	"context"
	"errors"
	"math"

	mstats "github.com/aclements/go-moremath/stats"

	"gostatsplot/adapters/stats/describe"
	"gostatsplot/adapters/stats/distributions"
	"gostatsplot/adapters/stats/effsize"
	"gostatsplot/domain/stats"
)

// tStat is a t statistic with its degrees of freedom and two-sided p-value
type tStat struct {
	T, DF, P float64
}

func newTStat(t, df float64) tStat {
	return tStat{T: t, DF: df, P: distributions.TwoSidedT(t, df)}
}

// welchT compares the means of x and y, pooling variances when varEqual
func welchT(x, y []float64, varEqual bool) tStat {
	n1, n2 := float64(len(x)), float64(len(y))
	v1, v2 := describe.Variance(x), describe.Variance(y)
	diff := describe.Mean(x) - describe.Mean(y)
	if varEqual {
		df := n1 + n2 - 2
		pooled := ((n1-1)*v1 + (n2-1)*v2) / df
		if !(pooled > 0) {
			return newTStat(math.NaN(), df)
		}
		return newTStat(diff/math.Sqrt(pooled*(1/n1+1/n2)), df)
	}
	a, b := v1/n1, v2/n2
	if !(a+b > 0) {
		return newTStat(math.NaN(), math.NaN())
	}
	return newTStat(diff/math.Sqrt(a+b), (a+b)*(a+b)/(a*a/(n1-1)+b*b/(n2-1)))
}

// meanT tests the mean of d against mu
func meanT(d []float64, mu float64) tStat {
	n := float64(len(d))
	sd := describe.SD(d)
	if !(sd > 0) {
		return newTStat(math.NaN(), n-1)
	}
	return newTStat((describe.Mean(d)-mu)/(sd/math.Sqrt(n)), n-1)
}

// TwoSampleT is Welch's t-test, or Student's when VarEqual is set. The
// difference is Groups[0] minus Groups[1].
func TwoSampleT(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("two-sample t-test", in.Groups, 2, 2); err != nil {
		return nil, err
	}
	x, y := in.Groups[0], in.Groups[1]

	res := stats.NewResult("Welch Two Sample t-test", stats.TemplateTTest)
	res.StatisticLabel = "Welch"
	if opts.VarEqual {
		res = stats.NewResult("Two Sample t-test", stats.TemplateTTest)
		res.StatisticLabel = "Student"
	}
	ts := welchT(x, y, opts.VarEqual)
	res.StatisticSymbol = "t"
	res.Statistic, res.DF1, res.PValue = ts.T, ts.DF, ts.P
	res.N = len(x) + len(y)
	setTTestEffect(res, opts, effsize.TwoSampleD(x, y, opts.ConfLevel, opts.EffsizeType.ForTTest() == stats.EffsizeG))
	return res, nil
}

// PairedT is the paired t-test of Groups[0] minus Groups[1]
func PairedT(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePaired("paired t-test", in.Groups, 2); err != nil {
		return nil, err
	}
	d := describe.Diff(in.Groups[0], in.Groups[1])
	ts := meanT(d, 0)
	res := stats.NewResult("Paired t-test", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "t", "Student"
	res.Statistic, res.DF1, res.PValue = ts.T, ts.DF, ts.P
	res.N, res.NLabel = len(d), "pairs"
	setTTestEffect(res, opts, effsize.OneSampleD(d, 0, opts.ConfLevel, opts.EffsizeType.ForTTest() == stats.EffsizeG))
	return res, nil
}

// MannWhitney is the Wilcoxon rank-sum test. W counts the pairs in which
// Groups[0] exceeds Groups[1], ties counting one half.
func MannWhitney(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("Wilcoxon rank sum test", in.Groups, 2, 2); err != nil {
		return nil, err
	}
	x, y := in.Groups[0], in.Groups[1]
	ranks, ties := describe.Ranks(describe.Concat(x, y))
	var r1 float64
	for _, r := range ranks[:len(x)] {
		r1 += r
	}
	n1 := float64(len(x))
	w := r1 - n1*(n1+1)/2

	res := stats.NewResult("Wilcoxon rank sum test", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "W", "Mann-Whitney"
	res.Statistic = w
	res.N = len(x) + len(y)

	if ties > 0 || len(x) >= mannWhitneyExactLimit || len(y) >= mannWhitneyExactLimit {
		res.PValue = mannWhitneyNormalP(w, len(x), len(y), ties)
	} else {
		utest, err := mstats.MannWhitneyUTest(x, y, mstats.LocationDiffers)
		switch {
		case err == nil:
			res.PValue = utest.P
		case errors.Is(err, mstats.ErrSamplesEqual):
			res.PValue = 1
		default:
			return nil, err
		}
	}

	res.EffsizeSymbol = "r_biserial^rank"
	setEstimate(res, effsize.RankBiserialTwoSample(w, len(x), len(y), opts.ConfLevel), opts.ConfLevel)
	return res, nil
}

// mannWhitneyExactLimit is the group size from which the exact W
// distribution gives way to the normal approximation
const mannWhitneyExactLimit = 50

// mannWhitneyNormalP is the two-sided normal approximation of W with the
// tie and continuity corrections. ties is Σ(t³ - t) over tied ranks.
func mannWhitneyNormalP(w float64, n1, n2 int, ties float64) float64 {
	a, b := float64(n1), float64(n2)
	n := a + b
	sigma := math.Sqrt(a * b / 12 * ((n + 1) - ties/(n*(n-1))))
	if sigma == 0 {
		return 1
	}
	z := w - a*b/2
	if z != 0 {
		z -= math.Copysign(0.5, z)
	}
	return distributions.TwoSidedNormal(z / sigma)
}

// PairedWilcoxon is the Wilcoxon signed-rank test on paired differences
func PairedWilcoxon(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePaired("Wilcoxon signed rank test", in.Groups, 2); err != nil {
		return nil, err
	}
	sr := wilcoxonSignedRank(describe.Diff(in.Groups[0], in.Groups[1]))
	res := stats.NewResult("Wilcoxon signed rank test", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "V", "Wilcoxon"
	res.Statistic = sr.V
	res.PValue = sr.P
	res.N, res.NLabel = len(in.Groups[0]), "pairs"
	res.EffsizeSymbol = "r_biserial^rank"
	setEstimate(res, effsize.RankBiserialPaired(sr.V, sr.N, opts.ConfLevel), opts.ConfLevel)
	return res, nil
}

// yuenT compares trimmed means of independent samples
func yuenT(x, y []float64, tr float64) tStat {
	d1, h1 := yuenTerm(x, tr)
	d2, h2 := yuenTerm(y, tr)
	t := (describe.TrimmedMean(x, tr) - describe.TrimmedMean(y, tr)) / math.Sqrt(d1+d2)
	return newTStat(t, (d1+d2)*(d1+d2)/(d1*d1/(h1-1)+d2*d2/(h2-1)))
}

// yuenPairedT compares trimmed means of dependent samples
func yuenPairedT(x, y []float64, tr float64) tStat {
	n := float64(len(x))
	h := n - 2*float64(describe.TrimCount(len(x), tr))
	q1 := (n - 1) * describe.WinsorizedVariance(x, tr)
	q2 := (n - 1) * describe.WinsorizedVariance(y, tr)
	q3 := (n - 1) * describe.WinsorizedCovariance(x, y, tr)
	t := (describe.TrimmedMean(x, tr) - describe.TrimmedMean(y, tr)) / math.Sqrt((q1+q2-2*q3)/(h*(h-1)))
	return newTStat(t, h-1)
}

// Yuen compares trimmed means of independent samples. The effect size is
// AKP's robust delta with a bootstrap interval.
func Yuen(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("Yuen's test", in.Groups, 2, 2); err != nil {
		return nil, err
	}
	x, y := in.Groups[0], in.Groups[1]
	tr := opts.TrimLevel
	ts := yuenT(x, y, tr)

	res := stats.NewResult("Yuen's test on trimmed means for independent samples", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "t", "Yuen"
	res.Statistic, res.DF1, res.PValue = ts.T, ts.DF, ts.P
	res.N = len(x) + len(y)

	est, err := effsize.BootstrapGroups(ctx, stream(opts, "akp"), opts.NBoot, in.Groups, opts.ConfLevel, func(g [][]float64) float64 {
		return effsize.AKP(g[0], g[1], tr)
	})
	if err != nil {
		return nil, err
	}
	res.EffsizeSymbol = "δ_R^AKP"
	setEstimate(res, est, opts.ConfLevel)
	return res, nil
}

// yuenTerm returns the squared standard error contribution and the
// effective sample size of one group.
func yuenTerm(x []float64, tr float64) (d, h float64) {
	n := float64(len(x))
	h = n - 2*float64(describe.TrimCount(len(x), tr))
	d = (n - 1) * describe.WinsorizedVariance(x, tr) / (h * (h - 1))
	return d, h
}

// YuenPaired compares trimmed means of dependent samples
func YuenPaired(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePaired("Yuen's paired test", in.Groups, 2); err != nil {
		return nil, err
	}
	x, y := in.Groups[0], in.Groups[1]
	tr := opts.TrimLevel
	ts := yuenPairedT(x, y, tr)

	res := stats.NewResult("Yuen's test on trimmed means for dependent samples", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "t", "Yuen"
	res.Statistic, res.DF1, res.PValue = ts.T, ts.DF, ts.P
	res.N, res.NLabel = len(x), "pairs"

	d := describe.Diff(x, y)
	est, err := effsize.BootstrapGroups(ctx, stream(opts, "akp"), opts.NBoot, [][]float64{d}, opts.ConfLevel, func(g [][]float64) float64 {
		return effsize.AKPOneSample(g[0], 0, tr)
	})
	if err != nil {
		return nil, err
	}
	res.EffsizeSymbol = "δ_R^AKP"
	setEstimate(res, est, opts.ConfLevel)
	return res, nil
}
