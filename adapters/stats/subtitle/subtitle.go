// Package subtitle renders a stats.Result into the one-line statistical
// subtitle printed under a plot. All rounding happens here.
package subtitle

import (
	"math"
	"strconv"
	"strings"

	"gostatsplot/domain/stats"
)

// PThreshold is the smallest p-value printed as a number
const PThreshold = 0.001

// Formatter renders results with fixed precision
type Formatter struct {
	K     int // decimals for statistics, estimates and fractional df
	PercK int // decimals for the confidence level percentage
}

// New returns a Formatter using the precision of opts
func New(opts stats.Options) Formatter {
	return Formatter{K: opts.K, PercK: opts.PercK}
}

// Render returns the subtitle for res in the grammar of its template
func (f Formatter) Render(res *stats.Result) string {
	if res == nil {
		return ""
	}
	if res.Template == stats.TemplateBayes {
		return f.bayes(res)
	}
	parts := []string{
		f.statistic(res),
		f.pValue(res.PValue),
		f.estimate(res.EffsizeSymbol, res.Estimate),
		f.interval(res, false),
		"n_" + res.NLabel + " = " + strconv.Itoa(res.N),
	}
	return strings.Join(parts, ", ")
}

// statistic renders "t_Student(4) = 4.24", "F_Welch(2, 92.21) = 3.10" or,
// without df, "V_Wilcoxon = 15.00".
func (f Formatter) statistic(res *stats.Result) string {
	var b strings.Builder
	b.WriteString(res.StatisticSymbol)
	if res.StatisticLabel != "" {
		b.WriteString("_")
		b.WriteString(res.StatisticLabel)
	}
	if res.HasDF() {
		b.WriteString("(")
		b.WriteString(f.DF(res.DF1))
		if !math.IsNaN(res.DF2) {
			b.WriteString(", ")
			b.WriteString(f.DF(res.DF2))
		}
		b.WriteString(")")
	}
	b.WriteString(" = ")
	b.WriteString(Number(res.Statistic, f.K))
	return b.String()
}

func (f Formatter) pValue(p float64) string {
	if !math.IsNaN(p) && p < PThreshold {
		return "p < " + strconv.FormatFloat(PThreshold, 'f', -1, 64)
	}
	return "p = " + Number(p, f.K)
}

func (f Formatter) estimate(symbol string, v float64) string {
	return symbol + " = " + Number(v, f.K)
}

// interval renders "CI95% [0.05, 0.61]", or "CI95%_HDI [...]" for a
// posterior highest-density interval.
func (f Formatter) interval(res *stats.Result, hdi bool) string {
	label := "CI" + f.Percent(res.ConfLevel)
	if hdi {
		label += "_HDI"
	}
	return label + " [" + Number(res.ConfLow, f.K) + ", " + Number(res.ConfHigh, f.K) + "]"
}

func (f Formatter) bayes(res *stats.Result) string {
	parts := []string{
		"log_e(BF01) = " + Number(res.LogBF01, f.K),
		f.estimate(res.EffsizeSymbol+"^posterior", res.Estimate),
		f.interval(res, true),
	}
	if res.PriorSymbol != "" {
		parts = append(parts, res.PriorSymbol+" = "+Number(res.PriorValue, f.K))
	}
	return strings.Join(parts, ", ")
}

// DF renders degrees of freedom: integral values without decimals,
// corrected (fractional) values with K decimals.
func (f Formatter) DF(df float64) string {
	if math.IsNaN(df) {
		return "NA"
	}
	if df == math.Trunc(df) && !math.IsInf(df, 0) {
		return strconv.FormatFloat(df, 'f', 0, 64)
	}
	return Number(df, f.K)
}

// Percent renders a proportion as a percentage with PercK decimals, e.g.
// 0.95 -> "95%".
func (f Formatter) Percent(p float64) string {
	return Number(p*100, f.PercK) + "%"
}

// Number rounds v half up to k decimals on its shortest decimal
// representation. NaN renders as "NA".
func Number(v float64, k int) string {
	switch {
	case math.IsNaN(v):
		return "NA"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	digits := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	intPart, frac, _ := strings.Cut(digits, ".")
	if len(frac) <= k {
		frac += strings.Repeat("0", k-len(frac))
		return sign(v, intPart+frac) + joinDecimal(intPart, frac)
	}

	roundUp := frac[k] >= '5'
	kept := []byte(intPart + frac[:k])
	if roundUp {
		i := len(kept) - 1
		for ; i >= 0; i-- {
			if kept[i] < '9' {
				kept[i]++
				break
			}
			kept[i] = '0'
		}
		if i < 0 {
			kept = append([]byte{'1'}, kept...)
		}
	}
	s := string(kept)
	intPart, frac = s[:len(s)-k], s[len(s)-k:]
	return sign(v, s) + joinDecimal(intPart, frac)
}

func joinDecimal(intPart, frac string) string {
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}

// sign returns "-" for negative v unless every rendered digit is zero
func sign(v float64, digits string) string {
	if v < 0 && strings.Trim(digits, "0") != "" {
		return "-"
	}
	return ""
}
