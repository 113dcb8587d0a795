package testkit

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gostatsplot/domain/dataset"
	"gostatsplot/ports"
)

// StudyConfig configures the synthetic between-subjects study
type StudyConfig struct {
	Rows        int      `json:"rows"`
	Groups      []string `json:"groups"`
	GroupShift  float64  `json:"group_shift"` // mean score difference between adjacent groups
	Regions     []string `json:"regions"`
	MissingRate float64  `json:"missing_rate"` // share of score values set to NaN
	Seed        uint64   `json:"seed"`
}

// DefaultStudyConfig returns sensible defaults for study data generation
func DefaultStudyConfig() StudyConfig {
	return StudyConfig{
		Rows:        150,
		Groups:      []string{"control", "low", "high"},
		GroupShift:  4,
		Regions:     []string{"north", "south", "east"},
		MissingRate: 0.05,
		Seed:        42,
	}
}

// StudyGenerator produces tables with known structure for tests and demos
type StudyGenerator struct {
	config StudyConfig
	rng    *rand.Rand
}

// NewStudyGenerator creates a generator drawing from a named seeded stream
func NewStudyGenerator(config StudyConfig, rng ports.RNGPort) *StudyGenerator {
	return &StudyGenerator{
		config: config,
		rng:    rng.Stream(config.Seed, "testkit/study"),
	}
}

// Generate builds the study table. Columns:
//   - id: subject label
//   - group, region, genre, outcome: categorical
//   - score: normal, shifted by group, with missing values
//   - rating: correlated with score
//   - hours: uniform on [0, 40)
func (g *StudyGenerator) Generate() *dataset.Table {
	n := g.config.Rows
	ids := make([]string, n)
	groups := make([]string, n)
	regions := make([]string, n)
	genres := make([]string, n)
	outcomes := make([]string, n)
	scores := make([]float64, n)
	ratings := make([]float64, n)
	hours := make([]float64, n)

	genreLevels := []string{"drama", "comedy", "action"}
	for i := 0; i < n; i++ {
		gi := g.rng.IntN(len(g.config.Groups))
		ids[i] = fmt.Sprintf("s%03d", i+1)
		groups[i] = g.config.Groups[gi]
		regions[i] = g.config.Regions[g.rng.IntN(len(g.config.Regions))]
		genres[i] = genreLevels[g.rng.IntN(len(genreLevels))]

		z := g.rng.NormFloat64()
		scores[i] = 50 + g.config.GroupShift*float64(gi) + 10*z
		ratings[i] = 5 + 1.2*z + 0.8*g.rng.NormFloat64()
		hours[i] = 40 * g.rng.Float64()

		outcomes[i] = "no"
		if g.rng.Float64() < 0.3+0.2*float64(gi) {
			outcomes[i] = "yes"
		}
		if g.rng.Float64() < g.config.MissingRate {
			scores[i] = math.NaN()
		}
	}

	return dataset.MustTable(
		dataset.NewCategorical("id", ids),
		dataset.NewCategorical("group", groups),
		dataset.NewCategorical("region", regions),
		dataset.NewCategorical("genre", genres),
		dataset.NewCategorical("outcome", outcomes),
		dataset.NewNumeric("score", scores),
		dataset.NewNumeric("rating", ratings),
		dataset.NewNumeric("hours", hours),
	)
}

// WithinTable generates a long repeated-measures table with columns id,
// condition and score. Each condition adds effect to the subject's
// baseline. Rows are shuffled so matching must go through id.
func WithinTable(rng ports.RNGPort, subjects int, conditions []string, effect float64, seed uint64) *dataset.Table {
	r := rng.Stream(seed, "testkit/within")
	type row struct {
		id, cond string
		score    float64
	}
	var rows []row
	for s := 0; s < subjects; s++ {
		base := 20 + 5*r.NormFloat64()
		for c, cond := range conditions {
			rows = append(rows, row{
				id:    fmt.Sprintf("p%02d", s+1),
				cond:  cond,
				score: base + effect*float64(c) + r.NormFloat64(),
			})
		}
	}
	r.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	ids := make([]string, len(rows))
	conds := make([]string, len(rows))
	scores := make([]float64, len(rows))
	for i, rw := range rows {
		ids[i], conds[i], scores[i] = rw.id, rw.cond, rw.score
	}
	return dataset.MustTable(
		dataset.NewCategorical("id", ids),
		dataset.NewCategorical("condition", conds),
		dataset.NewNumeric("score", scores),
	)
}

// TwoPointSample returns a column x holding n/2 copies of lo followed by
// n - n/2 copies of hi. Its t statistic against any value has a closed form.
func TwoPointSample(n int, lo, hi float64) *dataset.Table {
	x := make([]float64, n)
	for i := range x {
		if i < n/2 {
			x[i] = lo
		} else {
			x[i] = hi
		}
	}
	return dataset.MustTable(dataset.NewNumeric("x", x))
}

// NormalSample returns a column x of n draws from N(mean, sd²) on the
// "testkit/normal" stream of seed.
func NormalSample(rng ports.RNGPort, n int, mean, sd float64, seed uint64) *dataset.Table {
	r := rng.Stream(seed, "testkit/normal")
	x := make([]float64, n)
	for i := range x {
		x[i] = mean + sd*r.NormFloat64()
	}
	return dataset.MustTable(dataset.NewNumeric("x", x))
}
