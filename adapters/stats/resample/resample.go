// Package resample owns every random draw made while computing a subtitle.
// Streams are derived from an explicit seed and a stream name, so two calls
// with the same seed and data produce identical replicates.
package resample

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
)

// Stream returns a PCG generator keyed by seed and name
func Stream(seed uint64, name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

// Streams hands out Stream generators behind ports.RNGPort
type Streams struct{}

func (Streams) Stream(seed uint64, name string) *rand.Rand {
	return Stream(seed, name)
}

// Groups draws nboot replicates of stat, resampling each group with
// replacement while keeping group sizes fixed.
func Groups(ctx context.Context, rng *rand.Rand, nboot int, groups [][]float64, stat func([][]float64) float64) ([]float64, error) {
	out := make([]float64, 0, nboot)
	draw := make([][]float64, len(groups))
	for j, g := range groups {
		draw[j] = make([]float64, len(g))
	}
	for b := 0; b < nboot; b++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, g := range groups {
			for i := range draw[j] {
				draw[j][i] = g[rng.IntN(len(g))]
			}
		}
		out = append(out, stat(draw))
	}
	return out, nil
}

// Rows draws nboot replicates of stat over row indices 0..n-1 sampled with
// replacement. Used when observations are linked, e.g. repeated measures.
func Rows(ctx context.Context, rng *rand.Rand, nboot, n int, stat func(idx []int) float64) ([]float64, error) {
	out := make([]float64, 0, nboot)
	idx := make([]int, n)
	for b := 0; b < nboot; b++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range idx {
			idx[i] = rng.IntN(n)
		}
		out = append(out, stat(idx))
	}
	return out, nil
}

// Pick returns data[idx[i]] for every i
func Pick(data []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = data[j]
	}
	return out
}
