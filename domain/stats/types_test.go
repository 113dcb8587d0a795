package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostatsplot/domain/core"
)

func TestParseTestType(t *testing.T) {
	cases := map[string]TestType{
		"parametric":    Parametric,
		"p":             Parametric,
		"NP":            Nonparametric,
		"nonparametric": Nonparametric,
		" r ":           Robust,
		"robust":        Robust,
		"bf":            Bayes,
		"Bayes":         Bayes,
	}
	for in, want := range cases {
		got, err := ParseTestType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTestType("xyz")
	assert.True(t, core.IsUnsupportedTestKind(err))
	assert.Contains(t, err.Error(), "parametric, nonparametric, robust, bayes, p, np, r, bf")
}

func TestParseEffsizeTypeRejectsUnknownTags(t *testing.T) {
	_, err := ParseEffsizeType("bogus")
	require.Error(t, err)
	assert.True(t, core.IsUnsupportedTestKind(err))

	e, err := ParseEffsizeType("unbiased")
	require.NoError(t, err)
	assert.Equal(t, EffsizeG, e.ForTTest())
	assert.Equal(t, EffsizeOmega, e.ForAnova())

	e, err = ParseEffsizeType("biased")
	require.NoError(t, err)
	assert.Equal(t, EffsizeD, e.ForTTest())
	assert.Equal(t, EffsizeEta, e.ForAnova())

	assert.Equal(t, EffsizeG, EffsizeDefault.ForTTest())
	assert.Equal(t, EffsizeOmega, EffsizeDefault.ForAnova())
}

func TestParsePAdjust(t *testing.T) {
	p, err := ParsePAdjust("fdr")
	require.NoError(t, err)
	assert.Equal(t, AdjustBH, p)

	_, err = ParsePAdjust("tukey")
	assert.True(t, core.IsUnsupportedTestKind(err))
}

func TestOptionsJSONUsesTags(t *testing.T) {
	var o Options
	err := json.Unmarshal([]byte(`{"type":"np","effsize_type":"eta","p_adjust_method":"fdr"}`), &o)
	require.NoError(t, err)
	assert.Equal(t, Nonparametric, o.Type)
	assert.Equal(t, EffsizeEta, o.EffsizeType)
	assert.Equal(t, AdjustBH, o.PAdjust)

	err = json.Unmarshal([]byte(`{"effsize_type":"bogus"}`), &o)
	assert.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	o := DefaultOptions()
	o.ConfLevel = 1
	assert.ErrorIs(t, o.Validate(), core.ErrInvalidOption)

	o = DefaultOptions()
	o.NBoot = 0
	assert.ErrorIs(t, o.Validate(), core.ErrInvalidOption)

	o = DefaultOptions()
	o.Type = TestType(9)
	assert.True(t, core.IsUnsupportedTestKind(o.Validate()))
}

func TestNewResultStartsUnset(t *testing.T) {
	r := NewResult("x", TemplateTTest)
	assert.True(t, math.IsNaN(r.Statistic))
	assert.False(t, r.HasDF())
	assert.Equal(t, "obs", r.NLabel)
}
