package runners

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"gostatsplot/adapters/stats/describe"
	"gostatsplot/adapters/stats/distributions"
	"gostatsplot/adapters/stats/effsize"
	"gostatsplot/adapters/stats/resample"
	"gostatsplot/domain/stats"
)

// fStat is an F statistic with both degrees of freedom and its upper-tail p
type fStat struct {
	F, DF1, DF2, P float64
}

func newFStat(f, df1, df2 float64) fStat {
	return fStat{F: f, DF1: df1, DF2: df2, P: distributions.UpperF(f, df1, df2)}
}

func setFResult(res *stats.Result, fs fStat) {
	res.StatisticSymbol = "F"
	res.Statistic, res.DF1, res.DF2, res.PValue = fs.F, fs.DF1, fs.DF2, fs.P
}

func setAnovaEffect(res *stats.Result, fs fStat, opts stats.Options) {
	if opts.EffsizeType.ForAnova() == stats.EffsizeEta {
		res.EffsizeSymbol = "η²_p"
		setEstimate(res, effsize.PartialEta2FromF(fs.F, fs.DF1, fs.DF2, opts.ConfLevel), opts.ConfLevel)
		return
	}
	res.EffsizeSymbol = "ω²_p"
	setEstimate(res, effsize.PartialOmega2FromF(fs.F, fs.DF1, fs.DF2, opts.ConfLevel), opts.ConfLevel)
}

func totalN(groups [][]float64) int {
	var n int
	for _, g := range groups {
		n += len(g)
	}
	return n
}

// fisherF is the classical one-way ANOVA
func fisherF(groups [][]float64) fStat {
	k := float64(len(groups))
	all := describe.Concat(groups...)
	grand := describe.Mean(all)
	var between, within float64
	for _, g := range groups {
		m := describe.Mean(g)
		between += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			within += (v - m) * (v - m)
		}
	}
	df1, df2 := k-1, float64(len(all))-k
	return newFStat((between/df1)/(within/df2), df1, df2)
}

// welchF is Welch's heteroscedastic one-way ANOVA
func welchF(groups [][]float64) fStat {
	k := float64(len(groups))
	w := make([]float64, len(groups))
	m := make([]float64, len(groups))
	var sw, swm float64
	for j, g := range groups {
		w[j] = float64(len(g)) / describe.Variance(g)
		m[j] = describe.Mean(g)
		sw += w[j]
		swm += w[j] * m[j]
	}
	mw := swm / sw
	var a, lambda float64
	for j, g := range groups {
		a += w[j] * (m[j] - mw) * (m[j] - mw)
		r := 1 - w[j]/sw
		lambda += r * r / float64(len(g)-1)
	}
	a /= k - 1
	lambda *= 3 / (k*k - 1)
	return newFStat(a/(1+2*(k-2)*lambda/3), k-1, 1/lambda)
}

// OneWayAnova is Welch's ANOVA, or Fisher's when VarEqual is set
func OneWayAnova(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("one-way ANOVA", in.Groups, 2, 2); err != nil {
		return nil, err
	}
	var res *stats.Result
	var fs fStat
	if opts.VarEqual {
		res = stats.NewResult("One-way analysis of means", stats.TemplateAnova)
		res.StatisticLabel = "Fisher"
		fs = fisherF(in.Groups)
	} else {
		res = stats.NewResult("One-way analysis of means (not assuming equal variances)", stats.TemplateAnova)
		res.StatisticLabel = "Welch"
		fs = welchF(in.Groups)
	}
	setFResult(res, fs)
	res.N = totalN(in.Groups)
	setAnovaEffect(res, fs, opts)
	return res, nil
}

// kruskalH returns the tie-corrected Kruskal-Wallis statistic
func kruskalH(groups [][]float64) float64 {
	ranks, ties := describe.Ranks(describe.Concat(groups...))
	n := float64(len(ranks))
	var sum float64
	off := 0
	for _, g := range groups {
		var r float64
		for _, v := range ranks[off : off+len(g)] {
			r += v
		}
		off += len(g)
		sum += r * r / float64(len(g))
	}
	h := 12/(n*(n+1))*sum - 3*(n+1)
	if c := 1 - ties/(n*n*n-n); c > 0 {
		return h / c
	}
	return math.NaN()
}

// KruskalWallis is the rank-based one-way test with an ordinal
// epsilon-squared effect size.
func KruskalWallis(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("Kruskal-Wallis rank sum test", in.Groups, 2, 2); err != nil {
		return nil, err
	}
	h := kruskalH(in.Groups)
	res := stats.NewResult("Kruskal-Wallis rank sum test", stats.TemplateAnova)
	res.StatisticSymbol, res.StatisticLabel = "χ²", "Kruskal-Wallis"
	res.Statistic = h
	res.DF1 = float64(len(in.Groups) - 1)
	res.PValue = distributions.UpperChiSquare(h, res.DF1)
	res.N = totalN(in.Groups)

	epsilon := func(g [][]float64) float64 {
		return kruskalH(g) / float64(totalN(g)-1)
	}
	est, err := effsize.BootstrapGroups(ctx, stream(opts, "epsilon2"), opts.NBoot, in.Groups, opts.ConfLevel, epsilon)
	if err != nil {
		return nil, err
	}
	res.EffsizeSymbol = "ε²_ordinal"
	setEstimate(res, est, opts.ConfLevel)
	return res, nil
}

// trimmedF is Wilcox's heteroscedastic ANOVA on trimmed means
func trimmedF(groups [][]float64, tr float64) fStat {
	k := float64(len(groups))
	w := make([]float64, len(groups))
	h := make([]float64, len(groups))
	tm := make([]float64, len(groups))
	var u float64
	for j, g := range groups {
		n := float64(len(g))
		h[j] = n - 2*float64(describe.TrimCount(len(g), tr))
		w[j] = h[j] * (h[j] - 1) / ((n - 1) * describe.WinsorizedVariance(g, tr))
		tm[j] = describe.TrimmedMean(g, tr)
		u += w[j]
	}
	var xt float64
	for j := range groups {
		xt += w[j] * tm[j] / u
	}
	var a, s float64
	for j := range groups {
		a += w[j] * (tm[j] - xt) * (tm[j] - xt)
		r := 1 - w[j]/u
		s += r * r / (h[j] - 1)
	}
	a /= k - 1
	b := 2 * (k - 2) / (k*k - 1) * s
	return newFStat(a/(1+b), k-1, 1/(3/(k*k-1)*s))
}

// TrimmedMeansAnova is the robust one-way ANOVA with the explanatory
// measure of effect size xi.
func TrimmedMeansAnova(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("trimmed-means ANOVA", in.Groups, 2, 2); err != nil {
		return nil, err
	}
	tr := opts.TrimLevel
	res := stats.NewResult("A heteroscedastic one-way ANOVA for trimmed means", stats.TemplateAnova)
	setFResult(res, trimmedF(in.Groups, tr))
	res.StatisticLabel = "trimmed-means"
	res.N = totalN(in.Groups)

	est, err := effsize.BootstrapGroups(ctx, stream(opts, "xi"), opts.NBoot, in.Groups, opts.ConfLevel, func(g [][]float64) float64 {
		return effsize.Xi(g, tr)
	})
	if err != nil {
		return nil, err
	}
	res.EffsizeSymbol = "ξ"
	setEstimate(res, est, opts.ConfLevel)
	return res, nil
}

// subjectMatrix lays paired groups out as an n x k matrix, one row per
// subject and one column per condition.
func subjectMatrix(groups [][]float64) *mat.Dense {
	n, k := len(groups[0]), len(groups)
	m := mat.NewDense(n, k, nil)
	for j, g := range groups {
		m.SetCol(j, g)
	}
	return m
}

func pickRows(m *mat.Dense, idx []int) *mat.Dense {
	_, k := m.Dims()
	out := mat.NewDense(len(idx), k, nil)
	for i, r := range idx {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}

// greenhouseGeisser returns the sphericity correction of the condition
// covariance matrix.
func greenhouseGeisser(m mat.Matrix) float64 {
	_, k := m.Dims()
	if k < 3 {
		return 1
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, m, nil)

	center := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			v := -1 / float64(k)
			if i == j {
				v += 1
			}
			center.Set(i, j, v)
		}
	}
	var dc mat.Dense
	dc.Product(center, &cov, center)

	tr := mat.Trace(&dc)
	var ss float64
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			v := dc.At(i, j)
			ss += v * v
		}
	}
	if !(ss > 0) {
		return math.NaN()
	}
	eps := tr * tr / (float64(k-1) * ss)
	return math.Max(1/float64(k-1), math.Min(1, eps))
}

// repeatedF is the within-subjects ANOVA with Greenhouse-Geisser corrected
// degrees of freedom.
func repeatedF(m *mat.Dense) fStat {
	n, k := m.Dims()
	grand := mat.Sum(m) / float64(n*k)
	var ssCond, ssSubj, ssTot float64
	for j := 0; j < k; j++ {
		d := describe.Mean(mat.Col(nil, j, m)) - grand
		ssCond += float64(n) * d * d
	}
	for i := 0; i < n; i++ {
		d := describe.Mean(m.RawRowView(i)) - grand
		ssSubj += float64(k) * d * d
		for _, v := range m.RawRowView(i) {
			ssTot += (v - grand) * (v - grand)
		}
	}
	ssErr := ssTot - ssCond - ssSubj
	df1, df2 := float64(k-1), float64((k-1)*(n-1))
	f := (ssCond / df1) / (ssErr / df2)
	eps := greenhouseGeisser(m)
	return newFStat(f, eps*df1, eps*df2)
}

// RepeatedMeasuresAnova is the within-subjects Fisher ANOVA
func RepeatedMeasuresAnova(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePaired("repeated measures ANOVA", in.Groups, 2); err != nil {
		return nil, err
	}
	fs := repeatedF(subjectMatrix(in.Groups))
	res := stats.NewResult("ANOVA estimation for factorial designs using 'afex'", stats.TemplateAnova)
	setFResult(res, fs)
	res.StatisticLabel = "Fisher"
	res.N, res.NLabel = len(in.Groups[0]), "pairs"
	setAnovaEffect(res, fs, opts)
	return res, nil
}

// friedmanQ returns the tie-corrected Friedman statistic of an n x k matrix
func friedmanQ(m mat.Matrix) float64 {
	n, k := m.Dims()
	colRanks := make([]float64, k)
	var ties float64
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		mat.Row(row, i, m)
		r, t := describe.Ranks(row)
		ties += t
		for j, v := range r {
			colRanks[j] += v
		}
	}
	nf, kf := float64(n), float64(k)
	var sum float64
	for _, r := range colRanks {
		sum += r * r
	}
	q := 12/(nf*kf*(kf+1))*sum - 3*nf*(kf+1)
	c := 1 - ties/(nf*kf*(kf*kf-1))
	if !(c > 0) {
		return math.NaN()
	}
	return q / c
}

// Friedman is the rank-based repeated measures test with Kendall's W
func Friedman(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePaired("Friedman rank sum test", in.Groups, 2); err != nil {
		return nil, err
	}
	m := subjectMatrix(in.Groups)
	n, k := m.Dims()
	res := stats.NewResult("Friedman rank sum test", stats.TemplateAnova)
	res.StatisticSymbol, res.StatisticLabel = "χ²", "Friedman"
	res.Statistic = friedmanQ(m)
	res.DF1 = float64(k - 1)
	res.PValue = distributions.UpperChiSquare(res.Statistic, res.DF1)
	res.N, res.NLabel = n, "pairs"

	kendall := func(idx []int) float64 {
		return friedmanQ(pickRows(m, idx)) / (float64(len(idx)) * float64(k-1))
	}
	est, err := effsize.BootstrapRows(ctx, stream(opts, "kendall"), opts.NBoot, n, opts.ConfLevel, kendall)
	if err != nil {
		return nil, err
	}
	res.EffsizeSymbol = "W_Kendall"
	setEstimate(res, est, opts.ConfLevel)
	return res, nil
}

// trimmedRepeatedF is Wilcox's rmanova: a repeated measures ANOVA on
// trimmed means with winsorized residuals and corrected df.
func trimmedRepeatedF(m *mat.Dense, tr float64) fStat {
	n, k := m.Dims()
	g := describe.TrimCount(n, tr)
	h := float64(n - 2*g)

	tms := make([]float64, k)
	win := mat.NewDense(n, k, nil)
	for j := 0; j < k; j++ {
		col := mat.Col(nil, j, m)
		tms[j] = describe.TrimmedMean(col, tr)
		win.SetCol(j, describe.Winsorize(col, tr))
	}
	grandTM := describe.Mean(tms)
	var qc float64
	for _, t := range tms {
		qc += h * (t - grandTM) * (t - grandTM)
	}

	grand := mat.Sum(win) / float64(n*k)
	colMeans := make([]float64, k)
	for j := range colMeans {
		colMeans[j] = describe.Mean(mat.Col(nil, j, win))
	}
	var qe float64
	for i := 0; i < n; i++ {
		row := win.RawRowView(i)
		rm := describe.Mean(row)
		for j, v := range row {
			e := v - rm - colMeans[j] + grand
			qe += e * e
		}
	}
	kf := float64(k)
	f := (qc / (kf - 1)) / (qe / ((h - 1) * (kf - 1)))
	eps := greenhouseGeisser(win)
	return newFStat(f, eps*(kf-1), eps*(kf-1)*(h-1))
}

// TrimmedRepeatedAnova is the robust within-subjects ANOVA. The effect size
// is xi over the conditions with subjects resampled as whole rows.
func TrimmedRepeatedAnova(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePaired("trimmed-means repeated measures ANOVA", in.Groups, 2); err != nil {
		return nil, err
	}
	tr := opts.TrimLevel
	m := subjectMatrix(in.Groups)
	n, k := m.Dims()
	res := stats.NewResult("A heteroscedastic one-way repeated measures ANOVA for trimmed means", stats.TemplateAnova)
	setFResult(res, trimmedRepeatedF(m, tr))
	res.StatisticLabel = "trimmed-means"
	res.N, res.NLabel = n, "pairs"

	xi := func(idx []int) float64 {
		cols := make([][]float64, k)
		for j := range cols {
			cols[j] = resample.Pick(in.Groups[j], idx)
		}
		return effsize.Xi(cols, tr)
	}
	est, err := effsize.BootstrapRows(ctx, stream(opts, "xi"), opts.NBoot, n, opts.ConfLevel, xi)
	if err != nil {
		return nil, err
	}
	res.EffsizeSymbol = "ξ"
	setEstimate(res, est, opts.ConfLevel)
	return res, nil
}
