package runners

import (
	"context"
	"math"

	"gostatsplot/adapters/stats/describe"
	"gostatsplot/adapters/stats/distributions"
	"gostatsplot/adapters/stats/effsize"
	"gostatsplot/adapters/stats/resample"
	"gostatsplot/domain/stats"
)

// OneSampleT is Student's one-sample t-test of Groups[0] against TestValue
func OneSampleT(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("one-sample t-test", in.Groups, 1, 2); err != nil {
		return nil, err
	}
	x := in.Groups[0]
	ts := meanT(x, opts.TestValue)
	res := stats.NewResult("One Sample t-test", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "t", "Student"
	res.Statistic, res.DF1, res.PValue = ts.T, ts.DF, ts.P
	res.N = len(x)
	setTTestEffect(res, opts, effsize.OneSampleD(x, opts.TestValue, opts.ConfLevel, opts.EffsizeType.ForTTest() == stats.EffsizeG))
	return res, nil
}

func setTTestEffect(res *stats.Result, opts stats.Options, est effsize.Estimate) {
	res.EffsizeSymbol = "d_Cohen"
	if opts.EffsizeType.ForTTest() == stats.EffsizeG {
		res.EffsizeSymbol = "g_Hedges"
	}
	setEstimate(res, est, opts.ConfLevel)
}

func setEstimate(res *stats.Result, est effsize.Estimate, confLevel float64) {
	res.Estimate, res.ConfLow, res.ConfHigh = est.Value, est.Low, est.High
	res.ConfLevel = confLevel
}

// signedRank computes the Wilcoxon signed-rank statistic of d against zero.
type signedRank struct {
	V     float64 // sum of ranks of positive differences
	N     int     // non-zero differences
	P     float64
	exact bool
}

func wilcoxonSignedRank(d []float64) signedRank {
	nz := make([]float64, 0, len(d))
	zeros := false
	for _, v := range d {
		if v == 0 {
			zeros = true
			continue
		}
		nz = append(nz, v)
	}
	n := len(nz)
	if n == 0 {
		return signedRank{V: 0, N: 0, P: math.NaN()}
	}

	abs := make([]float64, n)
	for i, v := range nz {
		abs[i] = math.Abs(v)
	}
	ranks, ties := describe.Ranks(abs)
	var v float64
	for i, r := range ranks {
		if nz[i] > 0 {
			v += r
		}
	}

	nf := float64(n)
	if n < 50 && ties == 0 && !zeros {
		return signedRank{V: v, N: n, P: distributions.SignedRankExact(v, n), exact: true}
	}
	z := v - nf*(nf+1)/4
	sigma := math.Sqrt(nf*(nf+1)*(2*nf+1)/24 - ties/48)
	if sigma == 0 {
		return signedRank{V: v, N: n, P: math.NaN()}
	}
	correction := 0.5
	if z < 0 {
		correction = -0.5
	} else if z == 0 {
		correction = 0
	}
	return signedRank{V: v, N: n, P: distributions.TwoSidedNormal((z - correction) / sigma)}
}

// OneSampleWilcoxon is the Wilcoxon signed-rank test of Groups[0] against
// TestValue with a rank-biserial effect size.
func OneSampleWilcoxon(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("Wilcoxon signed-rank test", in.Groups, 1, 2); err != nil {
		return nil, err
	}
	x := in.Groups[0]
	d := make([]float64, len(x))
	for i, v := range x {
		d[i] = v - opts.TestValue
	}
	sr := wilcoxonSignedRank(d)

	res := stats.NewResult("Wilcoxon signed rank test", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "V", "Wilcoxon"
	res.Statistic = sr.V
	res.PValue = sr.P
	res.N = len(x)
	res.EffsizeSymbol = "r_biserial^rank"
	setEstimate(res, effsize.RankBiserialPaired(sr.V, sr.N, opts.ConfLevel), opts.ConfLevel)
	return res, nil
}

// OneSampleBootstrapT tests the trimmed mean of Groups[0] against TestValue
// with a bootstrap-t null distribution. The effect size is the trimmed mean
// itself with a bootstrap-t interval.
func OneSampleBootstrapT(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("bootstrap-t test", in.Groups, 1, 2); err != nil {
		return nil, err
	}
	x := in.Groups[0]
	tr := opts.TrimLevel
	tm := describe.TrimmedMean(x, tr)
	se := trimmedSE(x, tr)

	res := stats.NewResult("Bootstrap-t method for one-sample test", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "t", "bootstrap"
	res.N = len(x)
	res.EffsizeSymbol = "μ_trimmed"
	res.ConfLevel = opts.ConfLevel
	res.Estimate = tm
	if !(se > 0) {
		return res, nil
	}
	res.Statistic = (tm - opts.TestValue) / se

	// Bootstrap the studentized trimmed mean around the observed one.
	reps, err := resample.Groups(ctx, stream(opts, "bootstrap-t"), opts.NBoot, [][]float64{x}, func(g [][]float64) float64 {
		s := trimmedSE(g[0], tr)
		if !(s > 0) {
			return math.NaN()
		}
		return (describe.TrimmedMean(g[0], tr) - tm) / s
	})
	if err != nil {
		return nil, err
	}
	var extreme, valid int
	for _, r := range reps {
		if math.IsNaN(r) {
			continue
		}
		valid++
		if math.Abs(r) >= math.Abs(res.Statistic) {
			extreme++
		}
	}
	if valid > 0 {
		res.PValue = float64(extreme) / float64(valid)
	}
	lo, hi := distributions.PercentileInterval(reps, opts.ConfLevel)
	res.ConfLow, res.ConfHigh = tm-hi*se, tm-lo*se
	return res, nil
}

// trimmedSE is the Tukey-McLaughlin standard error of a trimmed mean
func trimmedSE(x []float64, tr float64) float64 {
	n := float64(len(x))
	return math.Sqrt(describe.WinsorizedVariance(x, tr)) / ((1 - 2*tr) * math.Sqrt(n))
}
