package subtitle

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostatsplot/domain/stats"
)

func TestNumberRoundsHalfUp(t *testing.T) {
	cases := []struct {
		v    float64
		k    int
		want string
	}{
		{2.675, 2, "2.68"},
		{1.005, 2, "1.01"},
		{0.125, 2, "0.13"},
		{-0.125, 2, "-0.13"},
		{9.995, 2, "10.00"},
		{99.5, 0, "100"},
		{4.242640687, 2, "4.24"},
		{4.242640687, 4, "4.2426"},
		{3, 2, "3.00"},
		{-0.001, 2, "0.00"},
		{1e-7, 3, "0.000"},
		{12345.6789, 1, "12345.7"},
		{math.NaN(), 2, "NA"},
		{math.Inf(1), 2, "Inf"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Number(tc.v, tc.k), "Number(%v, %d)", tc.v, tc.k)
	}
}

func TestNumberStaysWithinHalfAUnit(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 5000; i++ {
		v := (rng.Float64() - 0.5) * math.Pow(10, float64(rng.IntN(6)))
		k := rng.IntN(6)
		s := Number(v, k)

		_, frac, _ := strings.Cut(s, ".")
		require.LessOrEqual(t, len(frac), k, s)

		shown, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err)
		require.LessOrEqual(t, math.Abs(v-shown), 0.5*math.Pow(10, -float64(k))+1e-9, "v=%v k=%d s=%s", v, k, s)
	}
}

func TestDFAndPercent(t *testing.T) {
	f := Formatter{K: 2, PercK: 0}
	assert.Equal(t, "699", f.DF(699))
	assert.Equal(t, "92.21", f.DF(92.2094))
	assert.Equal(t, "NA", f.DF(math.NaN()))
	assert.Equal(t, "95%", f.Percent(0.95))
	assert.Equal(t, "90%", f.Percent(0.9))
	assert.Equal(t, "99.9%", Formatter{PercK: 1}.Percent(0.999))
}

func ttestResult() *stats.Result {
	res := stats.NewResult("One Sample t-test", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "t", "Student"
	res.Statistic, res.DF1, res.PValue = 2.3449, 699, 0.0193
	res.EffsizeSymbol = "g_Hedges"
	res.Estimate, res.ConfLow, res.ConfHigh, res.ConfLevel = 0.0886, 0.0144, 0.1627, 0.95
	res.N = 700
	return res
}

func TestRenderTTest(t *testing.T) {
	got := Formatter{K: 2}.Render(ttestResult())
	assert.Equal(t, "t_Student(699) = 2.34, p = 0.02, g_Hedges = 0.09, CI95% [0.01, 0.16], n_obs = 700", got)
}

func TestRenderSmallPValue(t *testing.T) {
	res := ttestResult()
	res.PValue = 0.000999
	assert.Contains(t, Formatter{K: 4}.Render(res), "p < 0.001,")

	res.PValue = 0.001
	assert.Contains(t, Formatter{K: 3}.Render(res), "p = 0.001,")
}

func TestRenderAnovaWithNABound(t *testing.T) {
	res := stats.NewResult("One-way analysis of means", stats.TemplateAnova)
	res.StatisticSymbol, res.StatisticLabel = "F", "Welch"
	res.Statistic, res.DF1, res.DF2, res.PValue = 3.1, 2, 92.2094, 0.0498
	res.EffsizeSymbol = "ω²_p"
	res.Estimate, res.ConfLow, res.ConfHigh, res.ConfLevel = 0.0201, math.NaN(), 1, 0.95
	res.N = 150

	got := Formatter{K: 2}.Render(res)
	assert.Equal(t, "F_Welch(2, 92.21) = 3.10, p = 0.05, ω²_p = 0.02, CI95% [NA, 1.00], n_obs = 150", got)
}

func TestRenderWithoutDF(t *testing.T) {
	res := stats.NewResult("Wilcoxon signed rank test", stats.TemplateTTest)
	res.StatisticSymbol, res.StatisticLabel = "V", "Wilcoxon"
	res.Statistic, res.PValue = 15, 0.0625
	res.EffsizeSymbol = "r_biserial^rank"
	res.Estimate, res.ConfLow, res.ConfHigh, res.ConfLevel = 1, 1, 1, 0.95
	res.N, res.NLabel = 5, "pairs"

	got := Formatter{K: 2}.Render(res)
	assert.Equal(t, "V_Wilcoxon = 15.00, p = 0.06, r_biserial^rank = 1.00, CI95% [1.00, 1.00], n_pairs = 5", got)
}

func TestRenderBayes(t *testing.T) {
	res := stats.NewResult("Bayesian t-test", stats.TemplateBayes)
	res.LogBF01 = 1.2
	res.EffsizeSymbol = "δ_difference"
	res.Estimate, res.ConfLow, res.ConfHigh, res.ConfLevel = 0.1, -0.05, 0.25, 0.95
	res.PriorSymbol, res.PriorValue = "r_Cauchy^JZS", 0.707

	got := Formatter{K: 2}.Render(res)
	assert.Equal(t, "log_e(BF01) = 1.20, δ_difference^posterior = 0.10, CI95%_HDI [-0.05, 0.25], r_Cauchy^JZS = 0.71", got)
}

func TestRenderIsIdempotent(t *testing.T) {
	f := New(stats.DefaultOptions())
	res := ttestResult()
	assert.Equal(t, f.Render(res), f.Render(res))
	assert.Empty(t, f.Render(nil))
}
