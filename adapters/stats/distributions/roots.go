package distributions

import (
	"math"
)

const (
	bisectTol     = 1e-10
	bisectMaxIter = 300
)

// Bisect finds x in [lo, hi] with f(x) = 0. f(lo) and f(hi) must differ in
// sign; ok is false otherwise.
func Bisect(f func(float64) float64, lo, hi float64) (root float64, ok bool) {
	flo, fhi := f(lo), f(hi)
	if math.IsNaN(flo) || math.IsNaN(fhi) {
		return math.NaN(), false
	}
	if flo == 0 {
		return lo, true
	}
	if fhi == 0 {
		return hi, true
	}
	if (flo > 0) == (fhi > 0) {
		return math.NaN(), false
	}
	for i := 0; i < bisectMaxIter && hi-lo > bisectTol*math.Max(1, math.Abs(lo)); i++ {
		mid := lo + (hi-lo)/2
		fm := f(mid)
		if fm == 0 {
			return mid, true
		}
		if (fm > 0) == (flo > 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2, true
}

// TNoncentralityInterval returns the confidence interval for the
// noncentrality parameter of an observed t statistic. Both bounds always
// exist.
func TNoncentralityInterval(t, df, confLevel float64) (lower, upper float64) {
	if math.IsNaN(t) || math.IsInf(t, 0) || !(df > 0) {
		return math.NaN(), math.NaN()
	}
	alpha := 1 - confLevel
	span := 10 + math.Abs(t)
	lo, hi := t-span, t+span

	solve := func(target float64) float64 {
		f := func(ncp float64) float64 { return NoncentralTCDF(t, df, ncp) - target }
		a, b := lo, hi
		for i := 0; i < 50 && f(a) < 0; i++ {
			a -= span
		}
		for i := 0; i < 50 && f(b) > 0; i++ {
			b += span
		}
		root, ok := Bisect(f, a, b)
		if !ok {
			return math.NaN()
		}
		return root
	}
	// The CDF decreases in ncp, so the upper tail target gives the lower bound.
	return solve(1 - alpha/2), solve(alpha / 2)
}

// FNoncentralityInterval returns the confidence interval for the
// noncentrality parameter of an observed F statistic. A bound for which no
// non-negative noncentrality exists is NaN.
func FNoncentralityInterval(f, d1, d2, confLevel float64) (lower, upper float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) || !(d1 > 0) || !(d2 > 0) {
		return math.NaN(), math.NaN()
	}
	cdf := func(ncp float64) float64 { return NoncentralFCDF(f, d1, d2, ncp) }
	return nonNegativeNCPInterval(cdf, math.Max(f*d1, 1), confLevel)
}

// ChiSquareNoncentralityInterval is FNoncentralityInterval for an observed
// chi-square statistic.
func ChiSquareNoncentralityInterval(x, k, confLevel float64) (lower, upper float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) || !(k > 0) {
		return math.NaN(), math.NaN()
	}
	cdf := func(ncp float64) float64 { return NoncentralChiSquareCDF(x, k, ncp) }
	return nonNegativeNCPInterval(cdf, math.Max(x, 1), confLevel)
}

func nonNegativeNCPInterval(cdf func(float64) float64, scale, confLevel float64) (lower, upper float64) {
	alpha := 1 - confLevel
	at0 := cdf(0)

	solve := func(target float64) float64 {
		if at0 < target {
			return math.NaN()
		}
		if at0 == target {
			return 0
		}
		hi := scale
		for i := 0; i < 60 && cdf(hi) > target; i++ {
			hi *= 2
		}
		root, ok := Bisect(func(ncp float64) float64 { return cdf(ncp) - target }, 0, hi)
		if !ok {
			return math.NaN()
		}
		return root
	}
	return solve(1 - alpha/2), solve(alpha / 2)
}
