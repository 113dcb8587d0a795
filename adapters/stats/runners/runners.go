// Package runners holds one function per hypothesis test. Every runner takes
// already cleaned samples and returns an unrounded stats.Result.
package runners

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gostatsplot/adapters/stats/resample"
	"gostatsplot/domain/core"
	"gostatsplot/domain/stats"
)

// Input is the cleaned data handed to a runner. Which fields are read depends
// on the family:
//   - OneSample: Groups[0]
//   - TwoSample, Anova: Groups, aligned by subject when paired
//   - Correlation: X and Y
//   - Contingency: Table
type Input struct {
	Groups [][]float64
	Labels []string
	X, Y   []float64
	Table  *Crosstab
}

// Runner executes one hypothesis test
type Runner func(ctx context.Context, in Input, opts stats.Options) (*stats.Result, error)

// Crosstab is a contingency table of counts. A one-way table has a single
// column level.
type Crosstab struct {
	RowLevels []string
	ColLevels []string
	Counts    [][]float64 // Counts[row][col]
}

// Total returns the number of observations in the table
func (c *Crosstab) Total() float64 {
	var n float64
	for _, row := range c.Counts {
		for _, v := range row {
			n += v
		}
	}
	return n
}

// RowSums and ColSums return the margins
func (c *Crosstab) RowSums() []float64 {
	out := make([]float64, len(c.Counts))
	for i, row := range c.Counts {
		for _, v := range row {
			out[i] += v
		}
	}
	return out
}

func (c *Crosstab) ColSums() []float64 {
	out := make([]float64, len(c.ColLevels))
	for _, row := range c.Counts {
		for j, v := range row {
			out[j] += v
		}
	}
	return out
}

// OneWay reports whether the table has a single column
func (c *Crosstab) OneWay() bool {
	return len(c.ColLevels) <= 1
}

func requireGroups(test string, groups [][]float64, k, minN int) error {
	if len(groups) < k {
		return fmt.Errorf("%w: %s needs %d groups, got %d", core.ErrInsufficientData, test, k, len(groups))
	}
	for _, g := range groups {
		if len(g) < minN {
			return core.NewInsufficientDataError(test, minN, len(g))
		}
	}
	return nil
}

func requirePaired(test string, groups [][]float64, minN int) error {
	if err := requireGroups(test, groups, 2, minN); err != nil {
		return err
	}
	for _, g := range groups[1:] {
		if len(g) != len(groups[0]) {
			return fmt.Errorf("%w: %s needs equal observations per condition, got %d and %d",
				core.ErrInsufficientData, test, len(groups[0]), len(g))
		}
	}
	return nil
}

func stream(opts stats.Options, name string) *rand.Rand {
	return resample.Stream(opts.Seed, name)
}
