package runners

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostatsplot/domain/stats"
)

func bayesOptions() stats.Options {
	opts := stats.DefaultOptions()
	opts.Type = stats.Bayes
	return opts
}

func TestJZSFavoursNullWithoutEffect(t *testing.T) {
	assert.Less(t, JZSLogBF10(0, 30, 29, 0.707), 0.0)
	assert.Greater(t, JZSLogBF10(6, 30, 29, 0.707), 3.0)
	// a wider prior penalises the alternative more under the null
	assert.Less(t, JZSLogBF10(0, 30, 29, 1.41), JZSLogBF10(0, 30, 29, 0.707))
	assert.True(t, math.IsNaN(JZSLogBF10(math.NaN(), 30, 29, 0.707)))
}

func TestJZSGrowsWithEvidence(t *testing.T) {
	prev := math.Inf(-1)
	for _, tv := range []float64{0.5, 1, 2, 3, 4} {
		bf := JZSLogBF10(tv, 20, 19, 0.707)
		assert.Greater(t, bf, prev, "t = %v", tv)
		prev = bf
	}
}

func TestBayesOneSample(t *testing.T) {
	x := []float64{1.2, 2.3, 1.9, 2.8, 3.1, 2.2, 1.7, 2.6, 2.9, 2.0}
	res, err := BayesOneSample(context.Background(), groups(x), bayesOptions())
	require.NoError(t, err)

	assert.Equal(t, stats.TemplateBayes, res.Template)
	assert.Equal(t, "δ_difference", res.EffsizeSymbol)
	assert.Equal(t, "r_Cauchy^JZS", res.PriorSymbol)
	assert.Equal(t, 0.707, res.PriorValue)
	assert.Less(t, res.LogBF01, 0.0)
	assert.Greater(t, res.Estimate, 1.0)
	assert.Less(t, res.ConfLow, res.Estimate)
	assert.Greater(t, res.ConfHigh, res.Estimate)
	assert.Equal(t, 10, res.N)
}

func TestBayesTwoSampleAndPaired(t *testing.T) {
	x := []float64{5.1, 4.9, 6.2, 5.8, 6.0, 5.5, 5.3, 4.8}
	y := []float64{5.0, 5.9, 5.2, 6.1, 4.7, 5.6, 5.4, 5.7}
	res, err := BayesTwoSample(context.Background(), groups(x, y), bayesOptions())
	require.NoError(t, err)
	assert.Greater(t, res.LogBF01, 0.0)
	assert.Less(t, res.ConfLow, 0.0)
	assert.Greater(t, res.ConfHigh, 0.0)
	assert.Equal(t, 16, res.N)

	paired, err := BayesPaired(context.Background(), groups(x, y), bayesOptions())
	require.NoError(t, err)
	assert.Equal(t, "pairs", paired.NLabel)
	assert.Equal(t, 8, paired.N)
}

func TestBayesAnova(t *testing.T) {
	res, err := BayesAnova(context.Background(), threeGroups(), bayesOptions())
	require.NoError(t, err)
	assert.Equal(t, "R²_Bayesian", res.EffsizeSymbol)
	assert.Less(t, res.LogBF01, 0.0)
	// posterior R² shrinks the observed 96/102 towards zero
	assert.Less(t, res.Estimate, 96.0/102.0)
	assert.Greater(t, res.Estimate, 0.5)
	assert.LessOrEqual(t, res.ConfHigh, 96.0/102.0)

	rm, err := BayesRepeatedAnova(context.Background(), withinData(), bayesOptions())
	require.NoError(t, err)
	assert.Equal(t, "pairs", rm.NLabel)
	assert.Less(t, rm.LogBF01, 0.0)
}

func TestBayesCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	strong := []float64{1.1, 2.3, 2.8, 4.2, 5.1, 5.8, 7.2, 8.1, 8.7, 10.2, 11.1, 11.8}
	res, err := BayesCorrelation(context.Background(), Input{X: x, Y: strong}, bayesOptions())
	require.NoError(t, err)
	assert.Equal(t, "ρ", res.EffsizeSymbol)
	assert.Less(t, res.LogBF01, -5.0)
	assert.Greater(t, res.Estimate, 0.8)
	assert.LessOrEqual(t, res.ConfHigh, 1.0)

	flat := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8}
	null, err := BayesCorrelation(context.Background(), Input{X: []float64{5, 3, 8, 1, 9, 2, 7, 4, 6, 10, 12, 11}, Y: flat}, bayesOptions())
	require.NoError(t, err)
	assert.Greater(t, null.LogBF01, res.LogBF01)
}

func TestBayesContingencyIsSeeded(t *testing.T) {
	in := Input{Table: twoByTwo(30, 10, 8, 32)}
	a, err := BayesContingency(context.Background(), in, bayesOptions())
	require.NoError(t, err)
	b, err := BayesContingency(context.Background(), in, bayesOptions())
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b, cmpopts.EquateNaNs()))

	assert.Equal(t, "a_Gunel-Dickey", a.PriorSymbol)
	assert.Equal(t, 1.0, a.PriorValue)
	assert.Less(t, a.LogBF01, 0.0)
	assert.Greater(t, a.Estimate, 0.3)
	assert.GreaterOrEqual(t, a.ConfLow, 0.0)
	assert.Equal(t, 80, a.N)
}

func TestBayesGoodnessOfFit(t *testing.T) {
	even, err := BayesContingency(context.Background(), Input{Table: oneWay(20, 21, 19)}, bayesOptions())
	require.NoError(t, err)
	skewed, err := BayesContingency(context.Background(), Input{Table: oneWay(5, 15, 40)}, bayesOptions())
	require.NoError(t, err)
	assert.Greater(t, even.LogBF01, 0.0)
	assert.Less(t, skewed.LogBF01, 0.0)
	assert.Greater(t, skewed.Estimate, even.Estimate)
}

func TestPosteriorSummary(t *testing.T) {
	values := []float64{5, 1, 3, 2, 4}
	logMass := []float64{math.Log(0.05), math.Log(0.05), math.Log(0.5), math.Log(0.2), math.Log(0.2)}
	median, lo, hi := posteriorSummary(values, logMass, 0.85)
	assert.Equal(t, 3.0, median)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 4.0, hi)

	median, _, _ = posteriorSummary(nil, nil, 0.95)
	assert.True(t, math.IsNaN(median))
}
