package stats

import (
	"fmt"
	"math"
)

// Template selects the subtitle grammar a result renders with
type Template int

const (
	TemplateTTest Template = iota
	TemplateAnova
	TemplateCorrelation
	TemplateContingency
	TemplateBayes
)

func (t Template) String() string {
	switch t {
	case TemplateTTest:
		return "t-test"
	case TemplateAnova:
		return "anova"
	case TemplateCorrelation:
		return "correlation"
	case TemplateContingency:
		return "contingency"
	case TemplateBayes:
		return "bayes"
	}
	return fmt.Sprintf("Template(%d)", int(t))
}

// Result is the record a test runner hands to the formatter. Values are
// unrounded; NaN marks a quantity that could not be computed.
type Result struct {
	Method   string   `json:"method"`   // e.g. "Welch Two Sample t-test"
	Template Template `json:"template"` // subtitle grammar

	StatisticSymbol string  `json:"statistic_symbol"` // "t", "F", "χ²", "W", "V", "S"
	StatisticLabel  string  `json:"statistic_label"`  // "Student", "Welch", "Kruskal-Wallis", ...
	Statistic       float64 `json:"statistic"`
	DF1             float64 `json:"df1"` // NaN when the statistic has no df
	DF2             float64 `json:"df2"` // NaN unless the statistic is F-distributed
	PValue          float64 `json:"p_value"`

	EffsizeSymbol string  `json:"effsize_symbol"` // "g_Hedges", "ω²_p", ...
	Estimate      float64 `json:"estimate"`
	ConfLow       float64 `json:"conf_low"`
	ConfHigh      float64 `json:"conf_high"`
	ConfLevel     float64 `json:"conf_level"`

	N      int    `json:"n"`
	NLabel string `json:"n_label"` // "obs" or "pairs"

	// Bayes-only fields
	LogBF01     float64 `json:"log_bf01,omitempty"`
	PriorSymbol string  `json:"prior_symbol,omitempty"` // "r_Cauchy^JZS", "a_Gunel-Dickey"
	PriorValue  float64 `json:"prior_value,omitempty"`
}

// NewResult returns a record with every numeric field unset (NaN)
func NewResult(method string, template Template) *Result {
	nan := math.NaN()
	return &Result{
		Method:    method,
		Template:  template,
		Statistic: nan,
		DF1:       nan,
		DF2:       nan,
		PValue:    nan,
		Estimate:  nan,
		ConfLow:   nan,
		ConfHigh:  nan,
		ConfLevel: nan,
		NLabel:    "obs",
		LogBF01:   nan,
	}
}

// BF10 returns the Bayes factor in favour of the alternative
func (r *Result) BF10() float64 {
	return math.Exp(-r.LogBF01)
}

// HasDF reports whether the statistic carries degrees of freedom
func (r *Result) HasDF() bool {
	return !math.IsNaN(r.DF1)
}
