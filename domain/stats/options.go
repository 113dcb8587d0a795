package stats

import (
	"gostatsplot/domain/core"
)

// DefaultSeed is used when a caller does not pick one
const DefaultSeed uint64 = 42

// Options is the configuration record shared by every plot operation.
type Options struct {
	ResultsSubtitle bool        `json:"results_subtitle" yaml:"results_subtitle"` // compute stats or skip
	Type            TestType    `json:"type" yaml:"type"`
	Paired          bool        `json:"paired" yaml:"paired"`
	K               int         `json:"k" yaml:"k"`           // decimals for statistics
	PercK           int         `json:"perc_k" yaml:"perc_k"` // decimals for percentages
	ConfLevel       float64     `json:"conf_level" yaml:"conf_level"`
	NBoot           int         `json:"nboot" yaml:"nboot"`
	BFMessage       bool        `json:"bf_message" yaml:"bf_message"`
	BFPrior         float64     `json:"bf_prior" yaml:"bf_prior"`
	EffsizeType     EffsizeType `json:"effsize_type" yaml:"effsize_type"`
	VarEqual        bool        `json:"var_equal" yaml:"var_equal"`
	TrimLevel       float64     `json:"tr" yaml:"tr"`
	TestValue       float64     `json:"test_value" yaml:"test_value"`
	Seed            uint64      `json:"seed" yaml:"seed"`
	Pairwise        bool        `json:"pairwise_comparisons" yaml:"pairwise_comparisons"`
	PAdjust         PAdjust     `json:"p_adjust_method" yaml:"p_adjust_method"`
	Centrality      bool        `json:"centrality_plotting" yaml:"centrality_plotting"`
	Ratio           []float64   `json:"ratio,omitempty" yaml:"ratio,omitempty"` // expected proportions for goodness of fit
}

// DefaultOptions returns the defaults every operation starts from
func DefaultOptions() Options {
	return Options{
		ResultsSubtitle: true,
		Type:            Parametric,
		K:               2,
		PercK:           0,
		ConfLevel:       0.95,
		NBoot:           100,
		BFMessage:       true,
		BFPrior:         0.707,
		TrimLevel:       0.2,
		Seed:            DefaultSeed,
		Pairwise:        true,
		PAdjust:         AdjustHolm,
		Centrality:      true,
	}
}

// Variant returns the active test combination
func (o Options) Variant() Variant {
	return Variant{Type: o.Type, Paired: o.Paired}
}

// Validate rejects option values no runner can honour
func (o Options) Validate() error {
	if !o.Type.Valid() {
		return core.NewUnsupportedTestKindError("type", o.Type.String(), AcceptedTestTypes())
	}
	if o.K < 0 || o.K > 15 {
		return core.NewInvalidOptionError("k", "must be between 0 and 15")
	}
	if o.PercK < 0 || o.PercK > 15 {
		return core.NewInvalidOptionError("perc.k", "must be between 0 and 15")
	}
	if !(o.ConfLevel > 0 && o.ConfLevel < 1) {
		return core.NewInvalidOptionError("conf.level", "must lie strictly between 0 and 1")
	}
	if o.NBoot < 1 {
		return core.NewInvalidOptionError("nboot", "must be a positive integer")
	}
	if !(o.TrimLevel >= 0 && o.TrimLevel < 0.5) {
		return core.NewInvalidOptionError("tr", "must lie in [0, 0.5)")
	}
	if !(o.BFPrior > 0) {
		return core.NewInvalidOptionError("bf.prior", "must be positive")
	}
	for _, r := range o.Ratio {
		if !(r > 0) {
			return core.NewInvalidOptionError("ratio", "entries must be positive")
		}
	}
	return nil
}
