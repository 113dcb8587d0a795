// Package effsize computes standardized effect sizes and their confidence
// intervals. Nothing here rounds; rounding belongs to the formatter.
package effsize

import (
	"math"

	"gostatsplot/adapters/stats/describe"
	"gostatsplot/adapters/stats/distributions"
)

// Estimate is a point estimate with a confidence interval. Any field may be
// NaN when the data carry no information about it.
type Estimate struct {
	Value float64 `json:"value"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// NA is an estimate with every field missing
func NA() Estimate {
	return Estimate{Value: math.NaN(), Low: math.NaN(), High: math.NaN()}
}

func (e Estimate) scale(f float64) Estimate {
	return Estimate{Value: e.Value * f, Low: e.Low * f, High: e.High * f}
}

// HedgesCorrection is the exact small-sample bias correction J(df). J
// tends to 0 as df approaches 1, so two observations give g = 0.
func HedgesCorrection(df float64) float64 {
	switch {
	case df == 1:
		return 0
	case !(df > 1):
		return math.NaN()
	}
	a, _ := math.Lgamma(df / 2)
	b, _ := math.Lgamma((df - 1) / 2)
	return math.Exp(a - 0.5*math.Log(df/2) - b)
}

// OneSampleD returns Cohen's d (or Hedges' g) of x against mu with a
// noncentral-t interval.
func OneSampleD(x []float64, mu, confLevel float64, hedges bool) Estimate {
	n := float64(len(x))
	sd := describe.SD(x)
	if n < 2 || !(sd > 0) {
		return NA()
	}
	d := (describe.Mean(x) - mu) / sd
	df := n - 1
	lo, hi := distributions.TNoncentralityInterval(d*math.Sqrt(n), df, confLevel)
	est := Estimate{Value: d, Low: lo / math.Sqrt(n), High: hi / math.Sqrt(n)}
	if hedges {
		est = est.scale(HedgesCorrection(df))
	}
	return est
}

// TwoSampleD returns Cohen's d (or Hedges' g) for x minus y using the pooled
// standard deviation.
func TwoSampleD(x, y []float64, confLevel float64, hedges bool) Estimate {
	n1, n2 := float64(len(x)), float64(len(y))
	if n1 < 2 || n2 < 2 {
		return NA()
	}
	df := n1 + n2 - 2
	pooled := math.Sqrt(((n1-1)*describe.Variance(x) + (n2-1)*describe.Variance(y)) / df)
	if !(pooled > 0) {
		return NA()
	}
	d := (describe.Mean(x) - describe.Mean(y)) / pooled
	se := math.Sqrt(1/n1 + 1/n2)
	lo, hi := distributions.TNoncentralityInterval(d/se, df, confLevel)
	est := Estimate{Value: d, Low: lo * se, High: hi * se}
	if hedges {
		est = est.scale(HedgesCorrection(df))
	}
	return est
}

// PartialEta2FromF converts an F statistic to partial eta-squared with a
// noncentral-F interval. Bounds without a non-negative noncentrality are NaN.
func PartialEta2FromF(f, df1, df2, confLevel float64) Estimate {
	if math.IsNaN(f) || !(df1 > 0) || !(df2 > 0) {
		return NA()
	}
	value := f * df1 / (f*df1 + df2)
	lo, hi := distributions.FNoncentralityInterval(f, df1, df2, confLevel)
	toEta := func(ncp float64) float64 {
		if math.IsNaN(ncp) {
			return ncp
		}
		return ncp / (ncp + df2)
	}
	return Estimate{Value: value, Low: toEta(lo), High: toEta(hi)}
}

// PartialOmega2FromF converts an F statistic to partial omega-squared.
// Negative values truncate to zero; bounds without a non-negative
// noncentrality are NaN.
func PartialOmega2FromF(f, df1, df2, confLevel float64) Estimate {
	if math.IsNaN(f) || !(df1 > 0) || !(df2 > 0) {
		return NA()
	}
	value := math.Max(0, (f-1)*df1/(f*df1+df2+1))
	lo, hi := distributions.FNoncentralityInterval(f, df1, df2, confLevel)
	toOmega := func(ncp float64) float64 {
		if math.IsNaN(ncp) {
			return ncp
		}
		return math.Max(0, (ncp-df1)/(ncp+df2+1))
	}
	return Estimate{Value: value, Low: toOmega(lo), High: toOmega(hi)}
}

// CramersV converts a chi-square statistic to Cramer's V. k is
// min(rows, cols) - 1 for a two-way table or the number of categories minus
// one for goodness of fit. The lower bound truncates at zero.
func CramersV(chi2, df float64, n int, k float64, confLevel float64) Estimate {
	if math.IsNaN(chi2) || n <= 0 || !(k > 0) {
		return NA()
	}
	denom := float64(n) * k
	lo, hi := distributions.ChiSquareNoncentralityInterval(chi2, df, confLevel)
	if math.IsNaN(lo) {
		lo = 0
	}
	if math.IsNaN(hi) {
		hi = 0
	}
	return Estimate{
		Value: math.Min(1, math.Sqrt(chi2/denom)),
		Low:   math.Min(1, math.Sqrt(lo/denom)),
		High:  math.Min(1, math.Sqrt(hi/denom)),
	}
}

// CohensG is the McNemar effect size for b discordant pairs of one kind and
// c of the other, with a Clopper-Pearson interval.
func CohensG(b, c int, confLevel float64) Estimate {
	n := b + c
	if n == 0 {
		return NA()
	}
	alpha := 1 - confLevel
	p := float64(b) / float64(n)
	lo, hi := 0.0, 1.0
	if b > 0 {
		lo = distributions.BetaQuantile(alpha/2, float64(b), float64(c+1))
	}
	if c > 0 {
		hi = distributions.BetaQuantile(1-alpha/2, float64(b+1), float64(c))
	}
	return Estimate{Value: p - 0.5, Low: lo - 0.5, High: hi - 0.5}
}

// FisherZInterval builds a correlation-type interval from tanh(atanh(r) ± z*se)
func FisherZInterval(r, se, confLevel float64) Estimate {
	if math.IsNaN(r) || math.IsNaN(se) {
		return Estimate{Value: r, Low: math.NaN(), High: math.NaN()}
	}
	if math.Abs(r) >= 1 {
		return Estimate{Value: r, Low: r, High: r}
	}
	z := distributions.NormalQuantile(1 - (1-confLevel)/2)
	rf := math.Atanh(r)
	return Estimate{Value: r, Low: math.Tanh(rf - z*se), High: math.Tanh(rf + z*se)}
}

// RankBiserialPaired is the matched-pairs rank-biserial correlation from the
// positive rank sum vPlus over n non-zero differences.
func RankBiserialPaired(vPlus float64, n int, confLevel float64) Estimate {
	if n < 1 {
		return NA()
	}
	nf := float64(n)
	maxw := (nf*nf + nf) / 2
	r := (vPlus - (maxw - vPlus)) / maxw
	se := math.Sqrt((2*nf*nf*nf+3*nf*nf+nf)/6) / maxw
	return FisherZInterval(r, se, confLevel)
}

// RankBiserialTwoSample is the rank-biserial correlation from the
// Mann-Whitney statistic u of the first sample.
func RankBiserialTwoSample(u float64, n1, n2 int, confLevel float64) Estimate {
	if n1 < 1 || n2 < 1 {
		return NA()
	}
	a, b := float64(n1), float64(n2)
	r := 2*u/(a*b) - 1
	se := math.Sqrt((a + b + 1) / (3 * a * b))
	return FisherZInterval(r, se, confLevel)
}

// AKPConstant rescales a winsorized standard deviation so it estimates the
// standard deviation under normality for trimming proportion tr.
func AKPConstant(tr float64) float64 {
	if tr <= 0 {
		return 1
	}
	z := distributions.NormalQuantile(1 - tr)
	phi := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
	winvar := (1 - 2*tr) - 2*z*phi + 2*tr*z*z
	return math.Sqrt(winvar)
}

// AKP is the Algina-Keselman-Penfield robust standardized difference
// between the trimmed means of x and y.
func AKP(x, y []float64, tr float64) float64 {
	n1, n2 := float64(len(x)), float64(len(y))
	if n1 < 2 || n2 < 2 {
		return math.NaN()
	}
	pooled := ((n1-1)*describe.WinsorizedVariance(x, tr) + (n2-1)*describe.WinsorizedVariance(y, tr)) / (n1 + n2 - 2)
	if !(pooled > 0) {
		return math.NaN()
	}
	return AKPConstant(tr) * (describe.TrimmedMean(x, tr) - describe.TrimmedMean(y, tr)) / math.Sqrt(pooled)
}

// AKPOneSample is AKP for a single sample of differences against mu
func AKPOneSample(d []float64, mu, tr float64) float64 {
	if len(d) < 2 {
		return math.NaN()
	}
	v := describe.WinsorizedVariance(d, tr)
	if !(v > 0) {
		return math.NaN()
	}
	return AKPConstant(tr) * (describe.TrimmedMean(d, tr) - mu) / math.Sqrt(v)
}

// Xi is Wilcox's explanatory measure of effect size for k groups:
// the spread of trimmed means relative to the rescaled winsorized spread of
// the pooled data, capped at one.
func Xi(groups [][]float64, tr float64) float64 {
	if len(groups) < 2 {
		return math.NaN()
	}
	tms := make([]float64, len(groups))
	for j, g := range groups {
		if len(g) == 0 {
			return math.NaN()
		}
		tms[j] = describe.TrimmedMean(g, tr)
	}
	between := describe.Variance(tms)
	c := AKPConstant(tr)
	within := describe.WinsorizedVariance(describe.Concat(groups...), tr) / (c * c)
	if !(within > 0) {
		return math.NaN()
	}
	return math.Sqrt(math.Min(1, between/within))
}
