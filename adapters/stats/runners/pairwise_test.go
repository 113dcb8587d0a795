package runners

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostatsplot/domain/stats"
)

func TestAdjustPValues(t *testing.T) {
	p := []float64{0.01, 0.04, 0.03, 0.005}
	cases := map[stats.PAdjust][]float64{
		stats.AdjustNone:       {0.01, 0.04, 0.03, 0.005},
		stats.AdjustBonferroni: {0.04, 0.16, 0.12, 0.02},
		stats.AdjustHolm:       {0.03, 0.06, 0.06, 0.02},
		stats.AdjustHochberg:   {0.03, 0.04, 0.04, 0.02},
		stats.AdjustBH:         {0.02, 0.04, 0.04, 0.02},
	}
	for method, want := range cases {
		t.Run(string(method), func(t *testing.T) {
			assert.InDeltaSlice(t, want, AdjustPValues(p, method), 1e-12)
		})
	}

	by := AdjustPValues(p, stats.AdjustBY)
	for i, v := range AdjustPValues(p, stats.AdjustBH) {
		assert.InDelta(t, math.Min(1, v*(1+1.0/2+1.0/3+1.0/4)), by[i], 1e-12)
	}
}

func TestAdjustPValuesSkipsNaN(t *testing.T) {
	got := AdjustPValues([]float64{0.01, math.NaN(), 0.02}, stats.AdjustBonferroni)
	assert.InDelta(t, 0.02, got[0], 1e-12)
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 0.04, got[2], 1e-12)
	assert.Equal(t, []float64{0.3}, AdjustPValues([]float64{0.3}, stats.AdjustHolm))
}

func TestPairwiseOrderAndAdjustment(t *testing.T) {
	ctx := context.Background()
	for _, typ := range []stats.TestType{stats.Parametric, stats.Nonparametric, stats.Robust} {
		t.Run(typ.String(), func(t *testing.T) {
			opts := stats.DefaultOptions()
			opts.Type = typ
			in := Input{
				Groups: [][]float64{
					{1, 2, 3, 2.5, 1.5, 2.2},
					{4, 5, 6, 4.5, 5.5, 5.2},
					{7, 8, 9, 7.5, 8.5, 8.2},
				},
				Labels: []string{"a", "b", "c"},
			}
			res, err := Pairwise(ctx, in, opts)
			require.NoError(t, err)
			require.Len(t, res.Comparisons, 3)

			pairs := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}}
			for i, c := range res.Comparisons {
				assert.Equal(t, pairs[i][0], c.Group1)
				assert.Equal(t, pairs[i][1], c.Group2)
				assert.GreaterOrEqual(t, c.PValue, c.PValueRaw)
				assert.Less(t, c.Statistic, 0.0)
			}
			assert.Contains(t, res.Caption(), "Holm")
		})
	}
}

func TestPairwiseBayesSkipsAdjustment(t *testing.T) {
	opts := stats.DefaultOptions()
	opts.Type = stats.Bayes
	opts.Paired = true
	res, err := Pairwise(context.Background(), withinData(), opts)
	require.NoError(t, err)
	assert.Equal(t, stats.AdjustNone, res.Adjust)
	assert.Equal(t, "Pairwise test: Student's t-test", res.Caption())
	for _, c := range res.Comparisons {
		assert.True(t, math.IsNaN(c.PValue))
		assert.False(t, math.IsNaN(c.LogBF01))
	}
}
