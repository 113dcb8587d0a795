package effsize

import (
	"context"
	"math"
	"math/rand/v2"

	"gostatsplot/adapters/stats/distributions"
	"gostatsplot/adapters/stats/resample"
)

// BootstrapGroups returns stat on groups with a percentile interval over
// nboot within-group resamples.
func BootstrapGroups(ctx context.Context, rng *rand.Rand, nboot int, groups [][]float64, confLevel float64, stat func([][]float64) float64) (Estimate, error) {
	value := stat(groups)
	if math.IsNaN(value) {
		return NA(), nil
	}
	reps, err := resample.Groups(ctx, rng, nboot, groups, stat)
	if err != nil {
		return NA(), err
	}
	lo, hi := distributions.PercentileInterval(reps, confLevel)
	return Estimate{Value: value, Low: lo, High: hi}, nil
}

// BootstrapRows is BootstrapGroups for linked observations: whole rows
// (subjects) are resampled together.
func BootstrapRows(ctx context.Context, rng *rand.Rand, nboot, n int, confLevel float64, stat func(idx []int) float64) (Estimate, error) {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	value := stat(all)
	if math.IsNaN(value) {
		return NA(), nil
	}
	reps, err := resample.Rows(ctx, rng, nboot, n, stat)
	if err != nil {
		return NA(), err
	}
	lo, hi := distributions.PercentileInterval(reps, confLevel)
	return Estimate{Value: value, Low: lo, High: hi}, nil
}
