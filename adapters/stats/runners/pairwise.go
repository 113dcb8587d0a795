package runners

import (
	"context"
	"math"

	"gostatsplot/adapters/stats/describe"
	"gostatsplot/adapters/stats/distributions"
	"gostatsplot/domain/stats"
)

// Comparison is one test between two levels. PValue is adjusted for the
// number of comparisons; Bayes comparisons carry LogBF01 instead.
type Comparison struct {
	Group1    string  `json:"group1"`
	Group2    string  `json:"group2"`
	Statistic float64 `json:"statistic"`
	PValueRaw float64 `json:"p_value_raw"`
	PValue    float64 `json:"p_value"`
	LogBF01   float64 `json:"log_bf01"`
}

// PairwiseResult is the set of all comparisons between levels
type PairwiseResult struct {
	Test        string        `json:"test"`
	Adjust      stats.PAdjust `json:"p_adjust_method"`
	Comparisons []Comparison  `json:"comparisons"`
}

// pairwiseTest returns (statistic, p, log BF01) for groups i and j
type pairwiseTest func(i, j int) (float64, float64, float64)

// Pairwise compares every pair of groups with the test matching the
// variant. Labels name the groups; comparisons follow level order.
func Pairwise(ctx context.Context, in Input, opts stats.Options) (*PairwiseResult, error) {
	k := len(in.Groups)
	if opts.Paired {
		if err := requirePaired("pairwise comparisons", in.Groups, 2); err != nil {
			return nil, err
		}
	} else if err := requireGroups("pairwise comparisons", in.Groups, 2, 2); err != nil {
		return nil, err
	}

	name, test := pairwiseFor(in.Groups, opts)
	out := &PairwiseResult{Test: name, Adjust: opts.PAdjust}
	if opts.Type == stats.Bayes {
		out.Adjust = stats.AdjustNone
	}
	var raw []float64
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s, p, bf := test(i, j)
			out.Comparisons = append(out.Comparisons, Comparison{
				Group1:    label(in.Labels, i),
				Group2:    label(in.Labels, j),
				Statistic: s,
				PValueRaw: p,
				LogBF01:   bf,
			})
			raw = append(raw, p)
		}
	}
	adjusted := AdjustPValues(raw, out.Adjust)
	for i := range out.Comparisons {
		out.Comparisons[i].PValue = adjusted[i]
	}
	return out, nil
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}

func pairwiseFor(groups [][]float64, opts stats.Options) (string, pairwiseTest) {
	nan := math.NaN()
	tr := opts.TrimLevel
	paired := opts.Paired
	switch opts.Type {
	case stats.Parametric:
		if paired {
			return "Student's t-test", func(i, j int) (float64, float64, float64) {
				ts := meanT(describe.Diff(groups[i], groups[j]), 0)
				return ts.T, ts.P, nan
			}
		}
		name := "Welch's t-test"
		if opts.VarEqual {
			name = "Student's t-test"
		}
		return name, func(i, j int) (float64, float64, float64) {
			ts := welchT(groups[i], groups[j], opts.VarEqual)
			return ts.T, ts.P, nan
		}

	case stats.Nonparametric:
		if paired {
			return "Wilcoxon signed-rank test", func(i, j int) (float64, float64, float64) {
				sr := wilcoxonSignedRank(describe.Diff(groups[i], groups[j]))
				return sr.V, sr.P, nan
			}
		}
		dunn := dunnTest(groups)
		return "Dunn test", func(i, j int) (float64, float64, float64) {
			z := dunn(i, j)
			return z, distributions.TwoSidedNormal(z), nan
		}

	case stats.Robust:
		if paired {
			return "Yuen's trimmed means test", func(i, j int) (float64, float64, float64) {
				ts := yuenPairedT(groups[i], groups[j], tr)
				return ts.T, ts.P, nan
			}
		}
		return "Yuen's trimmed means test", func(i, j int) (float64, float64, float64) {
			ts := yuenT(groups[i], groups[j], tr)
			return ts.T, ts.P, nan
		}

	default:
		return "Student's t-test", func(i, j int) (float64, float64, float64) {
			x, y := groups[i], groups[j]
			if paired {
				ts := meanT(describe.Diff(x, y), 0)
				return ts.T, nan, -JZSLogBF10(ts.T, float64(len(x)), ts.DF, opts.BFPrior)
			}
			n1, n2 := float64(len(x)), float64(len(y))
			ts := welchT(x, y, true)
			return ts.T, nan, -JZSLogBF10(ts.T, n1*n2/(n1+n2), ts.DF, opts.BFPrior)
		}
	}
}

// dunnTest ranks all groups jointly and returns the z statistic of the
// mean-rank difference between two groups, corrected for ties.
func dunnTest(groups [][]float64) func(i, j int) float64 {
	ranks, ties := describe.Ranks(describe.Concat(groups...))
	n := float64(len(ranks))
	meanRanks := make([]float64, len(groups))
	off := 0
	for g, grp := range groups {
		meanRanks[g] = describe.Mean(ranks[off : off+len(grp)])
		off += len(grp)
	}
	base := n*(n+1)/12 - ties/(12*(n-1))
	return func(i, j int) float64 {
		se := math.Sqrt(base * (1/float64(len(groups[i])) + 1/float64(len(groups[j]))))
		return (meanRanks[i] - meanRanks[j]) / se
	}
}

// Caption describes the pairwise test and adjustment for a plot caption
func (p *PairwiseResult) Caption() string {
	if p.Adjust == stats.AdjustNone {
		return "Pairwise test: " + p.Test
	}
	return "Pairwise test: " + p.Test + "; Adjustment (p-value): " + p.Adjust.Label()
}
