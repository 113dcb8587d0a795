package runners

import (
	"math"
	"sort"

	"gostatsplot/domain/stats"
)

// AdjustPValues corrects p for multiple comparisons. NaN entries are left
// in place and do not count towards the number of tests.
func AdjustPValues(p []float64, method stats.PAdjust) []float64 {
	out := make([]float64, len(p))
	copy(out, p)

	var idx []int
	for i, v := range p {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	m := len(idx)
	if m <= 1 || method == stats.AdjustNone {
		return out
	}
	mf := float64(m)

	switch method {
	case stats.AdjustBonferroni:
		for _, i := range idx {
			out[i] = math.Min(1, mf*p[i])
		}

	case stats.AdjustHolm:
		sort.SliceStable(idx, func(a, b int) bool { return p[idx[a]] < p[idx[b]] })
		running := 0.0
		for rank, i := range idx {
			running = math.Max(running, (mf-float64(rank))*p[i])
			out[i] = math.Min(1, running)
		}

	case stats.AdjustHochberg, stats.AdjustBH, stats.AdjustBY:
		sort.SliceStable(idx, func(a, b int) bool { return p[idx[a]] > p[idx[b]] })
		q := 1.0
		if method == stats.AdjustBY {
			q = 0
			for i := 1; i <= m; i++ {
				q += 1 / float64(i)
			}
		}
		running := math.Inf(1)
		for pos, i := range idx {
			rank := mf - float64(pos) // rank in ascending order
			var v float64
			if method == stats.AdjustHochberg {
				v = (mf - rank + 1) * p[i]
			} else {
				v = q * mf / rank * p[i]
			}
			running = math.Min(running, v)
			out[i] = math.Min(1, running)
		}
	}
	return out
}
