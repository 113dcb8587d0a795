package stats

import (
	"fmt"
	"strings"

	"gostatsplot/domain/core"
)

// ============================================================================
// TEST SELECTION (closed enums, parsed once at the input boundary)
// ============================================================================

// TestType selects the statistical approach
type TestType int

const (
	Parametric TestType = iota
	Nonparametric
	Robust
	Bayes
)

var testTypeNames = [...]string{"parametric", "nonparametric", "robust", "bayes"}

func (t TestType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TestType(%d)", int(t))
	}
	return testTypeNames[t]
}

// Valid reports whether t is one of the declared test types
func (t TestType) Valid() bool {
	return t >= Parametric && t <= Bayes
}

// AcceptedTestTypes lists every spelling ParseTestType understands
func AcceptedTestTypes() []string {
	return []string{"parametric", "nonparametric", "robust", "bayes", "p", "np", "r", "bf"}
}

// ParseTestType maps a user-facing tag to a TestType. Abbreviations
// p, np, r and bf are accepted; matching ignores case and surrounding space.
func ParseTestType(s string) (TestType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parametric", "p":
		return Parametric, nil
	case "nonparametric", "np":
		return Nonparametric, nil
	case "robust", "r":
		return Robust, nil
	case "bayes", "bf":
		return Bayes, nil
	}
	return 0, core.NewUnsupportedTestKindError("type", s, AcceptedTestTypes())
}

// MarshalText implements encoding.TextMarshaler
func (t TestType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, core.NewUnsupportedTestKindError("type", t.String(), AcceptedTestTypes())
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *TestType) UnmarshalText(b []byte) error {
	v, err := ParseTestType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Family is the shape of the hypothesis being tested
type Family int

const (
	OneSample Family = iota
	TwoSample
	Anova
	Correlation
	Contingency
)

var familyNames = [...]string{"one-sample", "two-sample", "anova", "correlation", "contingency"}

func (f Family) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Family(%d)", int(f))
	}
	return familyNames[f]
}

// Valid reports whether f is one of the declared families
func (f Family) Valid() bool {
	return f >= OneSample && f <= Contingency
}

// Variant is the single active (type, design) combination of an invocation
type Variant struct {
	Type   TestType `json:"type"`
	Paired bool     `json:"paired"`
}

func (v Variant) String() string {
	design := "unpaired"
	if v.Paired {
		design = "paired"
	}
	return v.Type.String() + "/" + design
}

// ============================================================================
// EFFECT SIZE TAGS
// ============================================================================

// EffsizeType selects the standardized effect size
type EffsizeType int

const (
	// EffsizeDefault lets the family pick: Hedges' g for t-tests, partial
	// omega-squared for ANOVA.
	EffsizeDefault EffsizeType = iota
	EffsizeD
	EffsizeG
	EffsizeEta
	EffsizeOmega
	// EffsizeBiased and EffsizeUnbiased resolve per family.
	EffsizeBiased
	EffsizeUnbiased
)

func (e EffsizeType) String() string {
	switch e {
	case EffsizeDefault:
		return "default"
	case EffsizeD:
		return "d"
	case EffsizeG:
		return "g"
	case EffsizeEta:
		return "eta"
	case EffsizeOmega:
		return "omega"
	case EffsizeBiased:
		return "biased"
	case EffsizeUnbiased:
		return "unbiased"
	}
	return fmt.Sprintf("EffsizeType(%d)", int(e))
}

// AcceptedEffsizeTypes lists every spelling ParseEffsizeType understands
func AcceptedEffsizeTypes() []string {
	return []string{"d", "g", "eta", "omega", "biased", "unbiased"}
}

// ParseEffsizeType maps an effect-size tag to EffsizeType. Unknown tags are
// an error; there is no fallback to a default measure.
func ParseEffsizeType(s string) (EffsizeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return EffsizeDefault, nil
	case "d", "cohens_d":
		return EffsizeD, nil
	case "g", "hedges_g":
		return EffsizeG, nil
	case "eta", "partial_eta":
		return EffsizeEta, nil
	case "omega", "partial_omega":
		return EffsizeOmega, nil
	case "biased":
		return EffsizeBiased, nil
	case "unbiased":
		return EffsizeUnbiased, nil
	}
	return 0, core.NewUnsupportedTestKindError("effsize.type", s, AcceptedEffsizeTypes())
}

// ForTTest resolves the tag for a two-group comparison
func (e EffsizeType) ForTTest() EffsizeType {
	switch e {
	case EffsizeD, EffsizeEta, EffsizeBiased:
		return EffsizeD
	default:
		return EffsizeG
	}
}

// ForAnova resolves the tag for a k-group comparison
func (e EffsizeType) ForAnova() EffsizeType {
	switch e {
	case EffsizeEta, EffsizeD, EffsizeBiased:
		return EffsizeEta
	default:
		return EffsizeOmega
	}
}

// ============================================================================
// MULTIPLE COMPARISONS
// ============================================================================

// PAdjust names a p-value adjustment method
type PAdjust string

const (
	AdjustHolm       PAdjust = "holm"
	AdjustHochberg   PAdjust = "hochberg"
	AdjustBonferroni PAdjust = "bonferroni"
	AdjustBH         PAdjust = "BH"
	AdjustBY         PAdjust = "BY"
	AdjustNone       PAdjust = "none"
)

// ParsePAdjust accepts the method names plus the "fdr" alias for BH.
func ParsePAdjust(s string) (PAdjust, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "holm":
		return AdjustHolm, nil
	case "hochberg":
		return AdjustHochberg, nil
	case "bonferroni":
		return AdjustBonferroni, nil
	case "bh", "fdr":
		return AdjustBH, nil
	case "by":
		return AdjustBY, nil
	case "none":
		return AdjustNone, nil
	}
	return "", core.NewUnsupportedTestKindError("p.adjust.method", s,
		[]string{"holm", "hochberg", "bonferroni", "BH", "fdr", "BY", "none"})
}

// Label is the human-readable name used in captions
func (p PAdjust) Label() string {
	switch p {
	case AdjustHolm:
		return "Holm"
	case AdjustHochberg:
		return "Hochberg"
	case AdjustBonferroni:
		return "Bonferroni"
	case AdjustBH:
		return "Benjamini & Hochberg"
	case AdjustBY:
		return "Benjamini & Yekutieli"
	default:
		return "None"
	}
}

// MarshalText implements encoding.TextMarshaler
func (e EffsizeType) MarshalText() ([]byte, error) {
	if e == EffsizeDefault {
		return []byte{}, nil
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *EffsizeType) UnmarshalText(b []byte) error {
	v, err := ParseEffsizeType(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *PAdjust) UnmarshalText(b []byte) error {
	v, err := ParsePAdjust(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
