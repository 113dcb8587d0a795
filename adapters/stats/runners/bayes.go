package runners

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gostatsplot/adapters/stats/describe"
	"gostatsplot/adapters/stats/distributions"
	"gostatsplot/domain/core"
	"gostatsplot/domain/stats"
)

const (
	legendreNodes  = 16
	gPanels        = 100 // panels over log g in [-25, 25]
	rhoPanels      = 200
	deltaGridSize  = 2001
	posteriorDraws = 4000
	// GunelDickeyPrior is the Dirichlet concentration of every cell
	GunelDickeyPrior = 1.0
)

// logGrid evaluates logf at Gauss-Legendre nodes over [lo, hi] split into
// equal panels and returns the nodes with their log masses
// log(weight) + logf(node).
func logGrid(logf func(float64) float64, lo, hi float64, panels int) (nodes, logMass []float64) {
	x := make([]float64, legendreNodes)
	w := make([]float64, legendreNodes)
	nodes = make([]float64, 0, panels*legendreNodes)
	logMass = make([]float64, 0, panels*legendreNodes)
	width := (hi - lo) / float64(panels)
	for p := 0; p < panels; p++ {
		a := lo + float64(p)*width
		quad.Legendre{}.FixedLocations(x, w, a, a+width)
		for i := range x {
			lf := logf(x[i])
			if math.IsNaN(lf) {
				lf = math.Inf(-1)
			}
			nodes = append(nodes, x[i])
			logMass = append(logMass, math.Log(w[i])+lf)
		}
	}
	return nodes, logMass
}

// posteriorSummary returns the median and the highest-density interval at
// confLevel of a discrete distribution over values with log masses.
func posteriorSummary(values, logMass []float64, confLevel float64) (median, lo, hi float64) {
	nan := math.NaN()
	if len(values) == 0 {
		return nan, nan, nan
	}
	top := floats.Max(logMass)
	if math.IsInf(top, -1) || math.IsNaN(top) {
		return nan, nan, nan
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	v := make([]float64, len(values))
	m := make([]float64, len(values))
	var total float64
	for i, j := range idx {
		v[i] = values[j]
		m[i] = math.Exp(logMass[j] - top)
		total += m[i]
	}
	floats.Scale(1/total, m)

	var cum float64
	median = v[len(v)-1]
	for i := range m {
		cum += m[i]
		if cum >= 0.5 {
			median = v[i]
			break
		}
	}

	// Shortest window of sorted values holding confLevel of the mass.
	lo, hi = v[0], v[len(v)-1]
	var mass float64
	j := 0
	for i := range v {
		for j < len(v) && mass < confLevel {
			mass += m[j]
			j++
		}
		if mass < confLevel {
			break
		}
		if v[j-1]-v[i] < hi-lo {
			lo, hi = v[i], v[j-1]
		}
		mass -= m[i]
	}
	return median, lo, hi
}

func newBayesResult(method, symbol string, opts stats.Options) *stats.Result {
	res := stats.NewResult(method, stats.TemplateBayes)
	res.EffsizeSymbol = symbol
	res.ConfLevel = opts.ConfLevel
	return res
}

// ============================================================================
// JZS T-TESTS
// ============================================================================

// logInverseGammaHalf is the log density of an inverse-gamma(1/2, scale/2)
// variable at g.
func logInverseGammaHalf(g, scale float64) float64 {
	return 0.5*math.Log(scale/2) - 0.5*math.Log(math.Pi) - 1.5*math.Log(g) - scale/(2*g)
}

// JZSLogBF10 is the log Bayes factor of a t statistic under a Cauchy(0, r)
// prior on the standardized effect, where nEff is the effective sample size
// (n for one sample, n1*n2/(n1+n2) for two) and df the t degrees of freedom.
func JZSLogBF10(t, nEff, df, r float64) float64 {
	if math.IsNaN(t) || !(df > 0) || !(nEff > 0) {
		return math.NaN()
	}
	null := math.Log1p(t * t / df)
	logf := func(u float64) float64 {
		g := math.Exp(u)
		s := 1 + nEff*g*r*r
		return logInverseGammaHalf(g, 1) + u - 0.5*math.Log(s) - (df+1)/2*(math.Log1p(t*t/(s*df))-null)
	}
	_, logMass := logGrid(logf, -25, 25, gPanels)
	return floats.LogSumExp(logMass)
}

// logTLikelihood is the log density of an observed t under noncentrality
// ncp. Far in the tails the normal approximation takes over.
func logTLikelihood(t, df, ncp float64) float64 {
	if p := distributions.NoncentralTPDF(t, df, ncp); p > 1e-300 && !math.IsInf(p, 0) {
		return math.Log(p)
	}
	v := 1 + ncp*ncp/(2*df)
	return -0.5*(t-ncp)*(t-ncp)/v - 0.5*math.Log(2*math.Pi*v)
}

// deltaPosterior summarises the posterior of the standardized effect on a
// regular grid around the observed effect.
func deltaPosterior(t, nEff, df, r, confLevel float64) (median, lo, hi float64) {
	center := t / math.Sqrt(nEff)
	spread := math.Sqrt(1/nEff + center*center/(2*df))
	a, b := center-10*spread, center+10*spread
	step := (b - a) / float64(deltaGridSize-1)
	values := make([]float64, deltaGridSize)
	logMass := make([]float64, deltaGridSize)
	cauchy := distuv.StudentsT{Mu: 0, Sigma: r, Nu: 1}
	for i := range values {
		d := a + float64(i)*step
		values[i] = d
		logMass[i] = cauchy.LogProb(d) + logTLikelihood(t, df, d*math.Sqrt(nEff))
	}
	return posteriorSummary(values, logMass, confLevel)
}

func jzsResult(t, nEff, df float64, n int, opts stats.Options) *stats.Result {
	res := newBayesResult("Bayesian t-test", "δ_difference", opts)
	res.LogBF01 = -JZSLogBF10(t, nEff, df, opts.BFPrior)
	res.Estimate, res.ConfLow, res.ConfHigh = deltaPosterior(t, nEff, df, opts.BFPrior, opts.ConfLevel)
	res.PriorSymbol, res.PriorValue = "r_Cauchy^JZS", opts.BFPrior
	res.N = n
	return res
}

// BayesOneSample is the JZS Bayes factor of Groups[0] against TestValue
func BayesOneSample(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("Bayesian one-sample t-test", in.Groups, 1, 2); err != nil {
		return nil, err
	}
	x := in.Groups[0]
	ts := meanT(x, opts.TestValue)
	return jzsResult(ts.T, float64(len(x)), ts.DF, len(x), opts), nil
}

// BayesTwoSample is the JZS Bayes factor for two independent samples
func BayesTwoSample(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("Bayesian two-sample t-test", in.Groups, 2, 2); err != nil {
		return nil, err
	}
	x, y := in.Groups[0], in.Groups[1]
	n1, n2 := float64(len(x)), float64(len(y))
	ts := welchT(x, y, true)
	return jzsResult(ts.T, n1*n2/(n1+n2), ts.DF, len(x)+len(y), opts), nil
}

// BayesPaired is the JZS Bayes factor on paired differences
func BayesPaired(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePaired("Bayesian paired t-test", in.Groups, 2); err != nil {
		return nil, err
	}
	d := describe.Diff(in.Groups[0], in.Groups[1])
	ts := meanT(d, 0)
	res := jzsResult(ts.T, float64(len(d)), ts.DF, len(d), opts)
	res.NLabel = "pairs"
	return res, nil
}

// ============================================================================
// ZELLNER-SIOW ANOVA
// ============================================================================

// zellnerSiow returns the log Bayes factor and the posterior of Bayesian R²
// for a linear model with p predictors explaining r2 of the variance in n
// observations.
func zellnerSiow(r2 float64, n, p int, r, confLevel float64) (logBF10, median, lo, hi float64) {
	nan := math.NaN()
	if math.IsNaN(r2) || n-p-1 <= 0 {
		return nan, nan, nan, nan
	}
	nf, pf := float64(n), float64(p)
	logf := func(u float64) float64 {
		g := math.Exp(u)
		return logInverseGammaHalf(g, r*r*nf) + u +
			(nf-pf-1)/2*math.Log1p(g) - (nf-1)/2*math.Log1p(g*(1-r2))
	}
	nodes, logMass := logGrid(logf, -25, 25, gPanels)
	logBF10 = floats.LogSumExp(logMass)
	shrunk := make([]float64, len(nodes))
	for i, u := range nodes {
		g := math.Exp(u)
		shrunk[i] = g / (1 + g) * r2
	}
	median, lo, hi = posteriorSummary(shrunk, logMass, confLevel)
	return logBF10, median, lo, hi
}

// BayesAnova is the one-way Bayes factor ANOVA with a Zellner-Siow prior
func BayesAnova(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requireGroups("Bayesian ANOVA", in.Groups, 2, 2); err != nil {
		return nil, err
	}
	all := describe.Concat(in.Groups...)
	grand := describe.Mean(all)
	var between, total float64
	for _, g := range in.Groups {
		m := describe.Mean(g)
		between += float64(len(g)) * (m - grand) * (m - grand)
	}
	for _, v := range all {
		total += (v - grand) * (v - grand)
	}
	res := newBayesResult("Bayes factors for linear models", "R²_Bayesian", opts)
	logBF10, med, lo, hi := zellnerSiow(between/total, len(all), len(in.Groups)-1, opts.BFPrior, opts.ConfLevel)
	res.LogBF01 = -logBF10
	res.Estimate, res.ConfLow, res.ConfHigh = med, lo, hi
	res.PriorSymbol, res.PriorValue = "r_Cauchy^JZS", opts.BFPrior
	res.N = len(all)
	return res, nil
}

// BayesRepeatedAnova is BayesAnova on within-subject variation: subject
// means are removed before the condition effect is assessed.
func BayesRepeatedAnova(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePaired("Bayesian repeated measures ANOVA", in.Groups, 2); err != nil {
		return nil, err
	}
	m := subjectMatrix(in.Groups)
	n, k := m.Dims()
	grand := describe.Concat(in.Groups...)
	gm := describe.Mean(grand)
	var ssCond, ssWithin float64
	for j := range in.Groups {
		d := describe.Mean(in.Groups[j]) - gm
		ssCond += float64(n) * d * d
	}
	for i := 0; i < n; i++ {
		row := m.RawRowView(i)
		rm := describe.Mean(row)
		for _, v := range row {
			ssWithin += (v - rm) * (v - rm)
		}
	}
	res := newBayesResult("Bayes factors for linear models", "R²_Bayesian", opts)
	// n*k observations less the n-1 subject parameters
	logBF10, med, lo, hi := zellnerSiow(ssCond/ssWithin, n*k-(n-1), k-1, opts.BFPrior, opts.ConfLevel)
	res.LogBF01 = -logBF10
	res.Estimate, res.ConfLow, res.ConfHigh = med, lo, hi
	res.PriorSymbol, res.PriorValue = "r_Cauchy^JZS", opts.BFPrior
	res.N, res.NLabel = n, "pairs"
	return res, nil
}

// ============================================================================
// CORRELATION
// ============================================================================

// BayesCorrelation is the Bayes factor for a Pearson correlation with a
// stretched beta(1/kappa, 1/kappa) prior on rho, using Jeffreys'
// approximation to the likelihood.
func BayesCorrelation(_ context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	if err := requirePairs("Bayesian correlation", in.X, in.Y); err != nil {
		return nil, err
	}
	n := float64(len(in.X))
	r := stat.Correlation(in.X, in.Y, nil)
	a := 1 / opts.BFPrior
	lbeta := lbetaFn(a, a)
	logf := func(rho float64) float64 {
		prior := (a-1)*math.Log((1-rho*rho)/4) - math.Ln2 - lbeta
		like := (n-1)/2*math.Log1p(-rho*rho) - (n-1.5)*math.Log1p(-rho*r)
		return prior + like
	}
	nodes, logMass := logGrid(logf, -1, 1, rhoPanels)

	res := newBayesResult("Bayesian Pearson correlation", "ρ", opts)
	res.LogBF01 = -floats.LogSumExp(logMass)
	res.Estimate, res.ConfLow, res.ConfHigh = posteriorSummary(nodes, logMass, opts.ConfLevel)
	res.PriorSymbol, res.PriorValue = "r_beta^JZS", opts.BFPrior
	res.N, res.NLabel = len(in.X), "pairs"
	return res, nil
}

func lbetaFn(a, b float64) float64 {
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	return la + lb - lab
}

// ============================================================================
// CONTINGENCY TABLES
// ============================================================================

// ldirichlet is the log multivariate beta function of alpha
func ldirichlet(alpha []float64) float64 {
	var s, sum float64
	for _, a := range alpha {
		lg, _ := math.Lgamma(a)
		s += lg
		sum += a
	}
	lg, _ := math.Lgamma(sum)
	return s - lg
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func plus(x []float64, a float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v + a
	}
	return out
}

// dirichletDraw fills p with one draw from Dirichlet(alpha)
func dirichletDraw(rng *rand.Rand, alpha, p []float64) {
	var sum float64
	for i, a := range alpha {
		p[i] = distuv.Gamma{Alpha: a, Beta: 1, Src: rng}.Rand()
		sum += p[i]
	}
	floats.Scale(1/sum, p)
}

// GunelDickeyLogBF10 is the joint-multinomial Bayes factor against
// independence of the rows and columns of tab.
func GunelDickeyLogBF10(tab *Crosstab, a float64) float64 {
	r, c := len(tab.RowLevels), len(tab.ColLevels)
	cells := make([]float64, 0, r*c)
	for _, row := range tab.Counts {
		cells = append(cells, row...)
	}
	ar := a*float64(c) - float64(c-1)
	ac := a*float64(r) - float64(r-1)
	h1 := ldirichlet(plus(cells, a)) - ldirichlet(filled(len(cells), a))
	h0 := ldirichlet(plus(tab.RowSums(), ar)) - ldirichlet(filled(r, ar)) +
		ldirichlet(plus(tab.ColSums(), ac)) - ldirichlet(filled(c, ac))
	return h1 - h0
}

// BayesContingency covers one-way tables against Options.Ratio and two-way
// tables against independence. The posterior estimate is Cramer's V of the
// cell probabilities, summarised over seeded Dirichlet draws.
func BayesContingency(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error) {
	tab := in.Table
	if err := requireTable("Bayesian contingency table analysis", tab); err != nil {
		return nil, err
	}
	a := GunelDickeyPrior
	res := newBayesResult("Bayesian contingency table analysis", "V_Cramer", opts)
	res.PriorSymbol, res.PriorValue = "a_Gunel-Dickey", a
	res.N = int(tab.Total())
	if opts.Paired {
		res.NLabel = "pairs"
	}
	rng := stream(opts, "dirichlet")

	if tab.OneWay() {
		obs := tab.RowSums()
		p0, err := expectedRatio(opts.Ratio, len(obs))
		if err != nil {
			return nil, err
		}
		logBF10 := ldirichlet(plus(obs, a)) - ldirichlet(filled(len(obs), a))
		for i, y := range obs {
			logBF10 -= y * math.Log(p0[i])
		}
		res.LogBF01 = -logBF10

		v, err := drawV(ctx, rng, plus(obs, a), func(p []float64) float64 {
			var phi2 float64
			for i := range p {
				phi2 += (p[i] - p0[i]) * (p[i] - p0[i]) / p0[i]
			}
			return math.Sqrt(math.Min(1, phi2/float64(len(p)-1)))
		})
		if err != nil {
			return nil, err
		}
		res.Estimate, res.ConfLow, res.ConfHigh = posteriorSummary(v, make([]float64, len(v)), opts.ConfLevel)
		return res, nil
	}

	if len(tab.ColLevels) < 2 {
		return nil, core.NewInsufficientDataError("Bayesian contingency table analysis (condition levels)", 2, len(tab.ColLevels))
	}
	res.LogBF01 = -GunelDickeyLogBF10(tab, a)
	r, c := len(tab.RowLevels), len(tab.ColLevels)
	cells := make([]float64, 0, r*c)
	for _, row := range tab.Counts {
		cells = append(cells, plus(row, a)...)
	}
	v, err := drawV(ctx, rng, cells, func(p []float64) float64 {
		return cramerVOfProbabilities(p, r, c)
	})
	if err != nil {
		return nil, err
	}
	res.Estimate, res.ConfLow, res.ConfHigh = posteriorSummary(v, make([]float64, len(v)), opts.ConfLevel)
	return res, nil
}

func drawV(ctx context.Context, rng *rand.Rand, alpha []float64, v func([]float64) float64) ([]float64, error) {
	out := make([]float64, posteriorDraws)
	p := make([]float64, len(alpha))
	for i := range out {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		dirichletDraw(rng, alpha, p)
		out[i] = v(p)
	}
	return out, nil
}

// cramerVOfProbabilities is Cramer's V of an r x c table of cell
// probabilities stored row-major.
func cramerVOfProbabilities(p []float64, r, c int) float64 {
	rows := make([]float64, r)
	cols := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			rows[i] += p[i*c+j]
			cols[j] += p[i*c+j]
		}
	}
	var phi2 float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			e := rows[i] * cols[j]
			d := p[i*c+j] - e
			phi2 += d * d / e
		}
	}
	return math.Sqrt(math.Min(1, phi2/float64(min(r, c)-1)))
}
