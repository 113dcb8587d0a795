// Package distributions wraps the gonum distributions used by the test
// runners and adds the noncentral t, F and chi-square families needed for
// effect-size confidence intervals.
package distributions

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// TwoSidedT returns the two-tailed p-value of a t statistic. Fractional
// degrees of freedom (Welch) are allowed.
func TwoSidedT(t, df float64) float64 {
	if math.IsNaN(t) || !(df > 0) {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clampProb(2 * (1 - dist.CDF(math.Abs(t))))
}

// UpperF returns P(F > f) for an F(d1, d2) variable
func UpperF(f, d1, d2 float64) float64 {
	if math.IsNaN(f) || !(d1 > 0) || !(d2 > 0) {
		return math.NaN()
	}
	if math.IsInf(f, 1) {
		return 0
	}
	dist := distuv.F{D1: d1, D2: d2}
	return clampProb(1 - dist.CDF(f))
}

// UpperChiSquare returns P(X > x) for a chi-square variable with k df
func UpperChiSquare(x, k float64) float64 {
	if math.IsNaN(x) || !(k > 0) {
		return math.NaN()
	}
	if math.IsInf(x, 1) {
		return 0
	}
	dist := distuv.ChiSquared{K: k}
	return clampProb(1 - dist.CDF(x))
}

// TwoSidedNormal returns the two-tailed p-value of a z statistic
func TwoSidedNormal(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return clampProb(2 * distuv.UnitNormal.CDF(-math.Abs(z)))
}

// NormalQuantile is the inverse standard normal CDF
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// NormalCDF is the standard normal CDF
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// TQuantile is the inverse CDF of Student's t with df degrees of freedom
func TQuantile(p, df float64) float64 {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(p)
}

// BetaQuantile is the inverse CDF of Beta(a, b)
func BetaQuantile(p, a, b float64) float64 {
	return distuv.Beta{Alpha: a, Beta: b}.Quantile(p)
}

// TwoSidedBinomial returns the exact two-sided p-value of k successes in n
// trials with success probability 0.5.
func TwoSidedBinomial(k, n int) float64 {
	if n <= 0 {
		return math.NaN()
	}
	if 2*k > n {
		k = n - k
	}
	dist := distuv.Binomial{N: float64(n), P: 0.5}
	return clampProb(2 * dist.CDF(float64(k)))
}

// SignedRankExact returns the exact two-sided p-value of the Wilcoxon
// signed-rank statistic V (sum of positive ranks) for n untied, non-zero
// differences.
func SignedRankExact(v float64, n int) float64 {
	if n <= 0 {
		return math.NaN()
	}
	wObs := int(math.Round(v))
	if wObs < 0 {
		wObs = 0
	}
	total := n * (n + 1) / 2
	if wObs > total {
		wObs = total
	}

	// Two-sided p-value uses symmetry around total/2.
	w := wObs
	if total-wObs < w {
		w = total - wObs
	}

	// dp[s] = number of sign assignments producing V = s. Counts are kept
	// as float64 so n beyond 63 does not overflow.
	dp := make([]float64, total+1)
	dp[0] = 1
	for r := 1; r <= n; r++ {
		for s := total; s >= r; s-- {
			dp[s] += dp[s-r]
		}
	}

	var cum float64
	for s := 0; s <= w; s++ {
		cum += dp[s]
	}
	return clampProb(2 * cum / math.Exp2(float64(n)))
}

// PercentileInterval returns the equal-tailed percentile interval of a set
// of bootstrap replicates. NaN replicates are ignored.
func PercentileInterval(samples []float64, confLevel float64) (lower, upper float64) {
	sorted := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !math.IsNaN(s) {
			sorted = append(sorted, s)
		}
	}
	if len(sorted) == 0 {
		return math.NaN(), math.NaN()
	}
	sort.Float64s(sorted)

	alpha := 1.0 - confLevel
	return quantileSorted(sorted, alpha/2), quantileSorted(sorted, 1-alpha/2)
}

// quantileSorted interpolates linearly between order statistics (type 7).
func quantileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

func clampProb(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
