// Package describe computes the location, spread and rank summaries the
// test runners build on.
package describe

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Mean returns the arithmetic mean, NaN for an empty sample
func Mean(data []float64) float64 {
	mean, err := stats.Mean(data)
	if err != nil {
		return math.NaN()
	}
	return mean
}

// SD returns the sample standard deviation (n - 1 denominator)
func SD(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil {
		return math.NaN()
	}
	return sd
}

// Variance returns the sample variance (n - 1 denominator)
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	v, err := stats.SampleVariance(data)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Median returns the sample median
func Median(data []float64) float64 {
	median, err := stats.Median(data)
	if err != nil {
		return math.NaN()
	}
	return median
}

// Sum returns the sum of data
func Sum(data []float64) float64 {
	s, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return s
}

// Diff returns x[i] - y[i]. The slices must have equal length.
func Diff(x, y []float64) []float64 {
	d := make([]float64, len(x))
	for i := range x {
		d[i] = x[i] - y[i]
	}
	return d
}

// Concat joins samples into one slice
func Concat(samples ...[]float64) []float64 {
	var n int
	for _, s := range samples {
		n += len(s)
	}
	out := make([]float64, 0, n)
	for _, s := range samples {
		out = append(out, s...)
	}
	return out
}

func sorted(data []float64) []float64 {
	s := append([]float64(nil), data...)
	sort.Float64s(s)
	return s
}

// TrimCount is the number of observations removed from each tail
func TrimCount(n int, tr float64) int {
	return int(math.Floor(tr * float64(n)))
}

// TrimmedMean drops floor(tr*n) observations from each tail and averages
// the rest.
func TrimmedMean(data []float64, tr float64) float64 {
	n := len(data)
	if n == 0 {
		return math.NaN()
	}
	g := TrimCount(n, tr)
	s := sorted(data)
	return Mean(s[g : n-g])
}

// Winsorize replaces the g smallest and g largest values by the nearest
// retained order statistic. Order of data is preserved.
func Winsorize(data []float64, tr float64) []float64 {
	n := len(data)
	out := append([]float64(nil), data...)
	if n == 0 {
		return out
	}
	g := TrimCount(n, tr)
	s := sorted(data)
	lo, hi := s[g], s[n-g-1]
	for i, v := range out {
		if v < lo {
			out[i] = lo
		} else if v > hi {
			out[i] = hi
		}
	}
	return out
}

// WinsorizedVariance is the sample variance of the winsorized data
func WinsorizedVariance(data []float64, tr float64) float64 {
	return Variance(Winsorize(data, tr))
}

// WinsorizedCovariance is the sample covariance of paired winsorized data
func WinsorizedCovariance(x, y []float64, tr float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	c, err := stats.Covariance(Winsorize(x, tr), Winsorize(y, tr))
	if err != nil {
		return math.NaN()
	}
	return c
}

// Ranks assigns average ranks (1-based) to data and returns the tie term
// sum(t^3 - t) over tie groups.
func Ranks(data []float64) (ranks []float64, ties float64) {
	n := len(data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return data[idx[a]] < data[idx[b]] })

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && data[idx[j+1]] == data[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		if t := float64(j - i + 1); t > 1 {
			ties += t*t*t - t
		}
		i = j + 1
	}
	return ranks, ties
}
