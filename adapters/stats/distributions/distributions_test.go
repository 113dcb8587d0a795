package distributions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestTwoSidedT(t *testing.T) {
	// x = 1..5 against 0: t = 3 / (sd / sqrt(5)) with sd = sqrt(2.5)
	tStat := 3 / (math.Sqrt(2.5) / math.Sqrt(5))
	assert.InDelta(t, 4.2426, tStat, 1e-4)
	assert.InDelta(t, 0.0132, TwoSidedT(tStat, 4), 1e-3)

	assert.Equal(t, 1.0, TwoSidedT(0, 10))
	assert.Equal(t, 0.0, TwoSidedT(math.Inf(1), 10))
	assert.True(t, math.IsNaN(TwoSidedT(math.NaN(), 10)))
	assert.True(t, math.IsNaN(TwoSidedT(1, 0)))
}

func TestUpperTails(t *testing.T) {
	assert.InDelta(t, 0.05, UpperChiSquare(3.841459, 1), 1e-5)
	assert.InDelta(t, 0.05, TwoSidedNormal(1.959964), 1e-5)
	assert.InDelta(t, 1.0, UpperF(0, 2, 10), 1e-12)
	assert.True(t, math.IsNaN(UpperF(1, 0, 10)))
}

func TestSignedRankExact(t *testing.T) {
	// all five differences positive: only one of 32 sign patterns is as extreme
	assert.InDelta(t, 0.0625, SignedRankExact(15, 5), 1e-12)
	assert.InDelta(t, 0.0625, SignedRankExact(0, 5), 1e-12)
	assert.Equal(t, 1.0, SignedRankExact(7.5, 5))
}

func TestTwoSidedBinomial(t *testing.T) {
	assert.InDelta(t, 0.0625, TwoSidedBinomial(0, 5), 1e-12)
	assert.InDelta(t, 0.0625, TwoSidedBinomial(5, 5), 1e-12)
	assert.Equal(t, 1.0, TwoSidedBinomial(5, 10))
}

func TestPercentileInterval(t *testing.T) {
	samples := make([]float64, 101)
	for i := range samples {
		samples[i] = float64(100 - i)
	}
	samples = append(samples, math.NaN())
	lo, hi := PercentileInterval(samples, 0.90)
	assert.InDelta(t, 5, lo, 1e-12)
	assert.InDelta(t, 95, hi, 1e-12)

	lo, hi = PercentileInterval(nil, 0.95)
	assert.True(t, math.IsNaN(lo))
	assert.True(t, math.IsNaN(hi))
}

func TestNoncentralTCDF(t *testing.T) {
	central := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: 7}
	assert.InDelta(t, central.CDF(1.3), NoncentralTCDF(1.3, 7, 0), 1e-12)

	// at t = 0 the probability is the normal mass below -ncp
	assert.InDelta(t, distuv.UnitNormal.CDF(-1.2), NoncentralTCDF(0, 9, 1.2), 1e-10)

	// with many df the distribution approaches N(ncp, 1)
	assert.InDelta(t, distuv.UnitNormal.CDF(1.0), NoncentralTCDF(2.5, 1e4, 1.5), 2e-3)
	assert.InDelta(t, distuv.UnitNormal.CDF(-1.0), NoncentralTCDF(-2.5, 1e4, -1.5), 2e-3)

	// decreasing in the noncentrality
	prev := 1.0
	for ncp := -3.0; ncp <= 6; ncp += 0.5 {
		p := NoncentralTCDF(1.7, 12, ncp)
		assert.LessOrEqual(t, p, prev+1e-12, "ncp %v", ncp)
		prev = p
	}
}

func TestNoncentralTPDFIntegratesToOne(t *testing.T) {
	const step = 0.01
	var total float64
	for x := -12.0; x <= 20; x += step {
		total += NoncentralTPDF(x, 8, 2) * step
	}
	assert.InDelta(t, 1.0, total, 2e-3)
}

func TestNoncentralFMatchesChiSquareLimit(t *testing.T) {
	// d1*F converges to a noncentral chi-square as d2 grows
	for _, ncp := range []float64{0, 1.5, 8} {
		f := NoncentralFCDF(2.2, 3, 1e6, ncp)
		c := NoncentralChiSquareCDF(6.6, 3, ncp)
		assert.InDelta(t, c, f, 1e-3, "ncp %v", ncp)
	}
	assert.InDelta(t, distuv.ChiSquared{K: 4}.CDF(3), NoncentralChiSquareCDF(3, 4, 0), 1e-12)
}

func TestTNoncentralityInterval(t *testing.T) {
	lo, hi := TNoncentralityInterval(2.4, 20, 0.95)
	assert.Less(t, lo, 2.4)
	assert.Greater(t, hi, 2.4)
	assert.InDelta(t, 0.975, NoncentralTCDF(2.4, 20, lo), 1e-6)
	assert.InDelta(t, 0.025, NoncentralTCDF(2.4, 20, hi), 1e-6)
}

func TestFNoncentralityIntervalMissingLowerBound(t *testing.T) {
	lo, hi := FNoncentralityInterval(0.05, 2, 100, 0.95)
	assert.True(t, math.IsNaN(lo))
	assert.False(t, math.IsNaN(hi))
	assert.Greater(t, hi, 0.0)

	lo, hi = FNoncentralityInterval(12, 2, 100, 0.95)
	assert.Greater(t, lo, 0.0)
	assert.Greater(t, hi, lo)
	assert.InDelta(t, 0.975, NoncentralFCDF(12, 2, 100, lo), 1e-6)
}

func TestBisect(t *testing.T) {
	root, ok := Bisect(func(x float64) float64 { return x*x - 2 }, 0, 2)
	assert.True(t, ok)
	assert.InDelta(t, math.Sqrt2, root, 1e-8)

	_, ok = Bisect(func(x float64) float64 { return x*x + 1 }, -1, 1)
	assert.False(t, ok)
}
