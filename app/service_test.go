package app

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
	"gostatsplot/domain/stats"
	"gostatsplot/internal/testkit"
	"gostatsplot/ports"
)

func newTestService(t *testing.T) (*StatsPlotService, *testkit.TestKit) {
	t.Helper()
	kit := testkit.NewTestKit()
	return NewStatsPlotService(nil, kit.RunStore()), kit
}

func pngBytes(t *testing.T, write func(*bytes.Buffer) error) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, write(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "output is not a PNG")
}

func TestGGHistoStats(t *testing.T) {
	svc, kit := newTestService(t)
	req := Request{Data: kit.StudyTable(1), X: "score", Title: "Scores", Options: stats.DefaultOptions()}
	req.Options.TestValue = 50

	fig, err := svc.GGHistoStats(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fig.Subtitle, "t_Student("), fig.Subtitle)
	assert.True(t, strings.HasPrefix(fig.Caption, "log_e(BF01) = "), fig.Caption)
	assert.Equal(t, "score", fig.XLabel)
	require.NotNil(t, fig.Result)
	assert.Less(t, fig.Result.N, 150)
	pngBytes(t, func(b *bytes.Buffer) error { _, err := fig.WriteTo(b); return err })
}

func TestResultsSubtitleOffSkipsStatistics(t *testing.T) {
	svc, kit := newTestService(t)
	opts := stats.DefaultOptions()
	opts.ResultsSubtitle = false

	fig, err := svc.GGBetweenStats(context.Background(), Request{Data: kit.StudyTable(1), X: "group", Y: "score", Options: opts})
	require.NoError(t, err)
	assert.Empty(t, fig.Subtitle)
	assert.Empty(t, fig.Caption)
	assert.Nil(t, fig.Result)
}

func TestNoBayesCaptionForOtherTypes(t *testing.T) {
	svc, kit := newTestService(t)
	for _, typ := range []stats.TestType{stats.Nonparametric, stats.Robust, stats.Bayes} {
		opts := stats.DefaultOptions()
		opts.Type = typ
		fig, err := svc.GGHistoStats(context.Background(), Request{Data: kit.StudyTable(1), X: "score", Options: opts})
		require.NoError(t, err, typ.String())
		assert.Empty(t, fig.Caption, typ.String())
		assert.NotEmpty(t, fig.Subtitle, typ.String())
	}
}

func TestGGBetweenStats(t *testing.T) {
	svc, kit := newTestService(t)
	data := kit.StudyTable(2)

	fig, err := svc.GGBetweenStats(context.Background(), Request{Data: data, X: "group", Y: "score", Options: stats.DefaultOptions()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fig.Subtitle, "F_Welch(2, "), fig.Subtitle)
	assert.Contains(t, fig.Caption, "log_e(BF01) = ")
	assert.Contains(t, fig.Caption, "Pairwise test: ")
	assert.Contains(t, fig.Caption, "Adjustment (p-value): Holm")
}

func TestGGBetweenStatsTwoGroups(t *testing.T) {
	svc, _ := newTestService(t)
	data := dataset.MustTable(
		dataset.NewCategorical("g", []string{"a", "a", "a", "a", "b", "b", "b", "b"}),
		dataset.NewNumeric("y", []float64{1, 2, 3, 4, 3, 4, 5, 7}),
	)
	fig, err := svc.GGBetweenStats(context.Background(), Request{Data: data, X: "g", Y: "y", Options: stats.DefaultOptions()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fig.Subtitle, "t_Welch("), fig.Subtitle)
	assert.NotContains(t, fig.Caption, "Pairwise test")

	opts := stats.DefaultOptions()
	opts.Type = stats.Nonparametric
	fig, err = svc.GGBetweenStats(context.Background(), Request{Data: data, X: "g", Y: "y", Options: opts})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fig.Subtitle, "W_Mann-Whitney = "), fig.Subtitle)
	assert.Empty(t, fig.Caption)
}

func TestGGWithinStatsMatchesBySubject(t *testing.T) {
	svc, kit := newTestService(t)
	data := testkit.WithinTable(kit.RNGAdapter(), 20, []string{"pre", "mid", "post"}, 1.5, 9)

	fig, err := svc.GGWithinStats(context.Background(), Request{
		Data: data, X: "condition", Y: "score", Subject: "id", Options: stats.DefaultOptions(),
	})
	require.NoError(t, err)
	require.NotNil(t, fig.Result)
	assert.Equal(t, 20, fig.Result.N)
	assert.True(t, strings.HasSuffix(fig.Subtitle, "n_pairs = 20"), fig.Subtitle)
	assert.Contains(t, fig.Caption, "Pairwise test: ")

	opts := stats.DefaultOptions()
	opts.Type = stats.Nonparametric
	fig, err = svc.GGWithinStats(context.Background(), Request{
		Data: data, X: "condition", Y: "score", Subject: "id", Options: opts,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fig.Subtitle, "χ²_Friedman(2) = "), fig.Subtitle)
}

func TestGGScatterStats(t *testing.T) {
	svc, kit := newTestService(t)
	fig, err := svc.GGScatterStats(context.Background(), Request{
		Data: kit.StudyTable(4), X: "score", Y: "rating", Options: stats.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.Contains(t, fig.Subtitle, "r_Pearson = ")
	assert.Greater(t, fig.Result.Estimate, 0.5)
	pngBytes(t, func(b *bytes.Buffer) error { _, err := fig.WriteTo(b); return err })
}

func TestGGPieAndBarStats(t *testing.T) {
	svc, kit := newTestService(t)
	data := kit.StudyTable(5)
	ctx := context.Background()

	pie, err := svc.GGPieStats(ctx, Request{Data: data, Main: "outcome", Options: stats.DefaultOptions()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pie.Subtitle, "χ²_gof(1) = "), pie.Subtitle)

	bar, err := svc.GGBarStats(ctx, Request{Data: data, Main: "outcome", Condition: "group", Options: stats.DefaultOptions()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bar.Subtitle, "χ²_Pearson(2) = "), bar.Subtitle)
	assert.Contains(t, bar.Caption, "log_e(BF01) = ")
	pngBytes(t, func(b *bytes.Buffer) error { _, err := bar.WriteTo(b); return err })

	_, err = svc.GGBarStats(ctx, Request{Data: data, Main: "outcome", Options: stats.DefaultOptions()})
	assert.ErrorIs(t, err, core.ErrInvalidOption)
}

func TestGGDotplotStats(t *testing.T) {
	svc, kit := newTestService(t)
	opts := stats.DefaultOptions()
	opts.TestValue = 50
	fig, err := svc.GGDotplotStats(context.Background(), Request{
		Data: kit.StudyTable(6), X: "score", Y: "genre", Options: opts,
	})
	require.NoError(t, err)
	require.NotNil(t, fig.Result)
	assert.Equal(t, 3, fig.Result.N)

	_, err = svc.GGDotplotStats(context.Background(), Request{X: "score", Y: "genre", Options: opts})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestCorrelationMatrix(t *testing.T) {
	svc, kit := newTestService(t)
	req := Request{Data: kit.StudyTable(7), Columns: []string{"score", "rating", "hours"}, Options: stats.DefaultOptions()}

	m, err := svc.CorrelationMatrix(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.R.At(1, 1))
	assert.True(t, math.IsNaN(m.P.At(0, 0)))
	assert.Equal(t, m.R.At(0, 1), m.R.At(1, 0))
	assert.Equal(t, 150, m.N[1][2])
	assert.Less(t, m.N[0][1], 150)
	assert.Less(t, m.P.At(0, 1), SigLevel)
	assert.Equal(t, "Correlation: Pearson's product-moment correlation; Adjustment (p-value): Holm", m.Caption())

	fig, err := svc.GGCorrMat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, m.Caption(), fig.Caption)

	req.Options.Type = stats.Bayes
	m, err = svc.CorrelationMatrix(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, stats.AdjustNone, m.Adjust)

	_, err = svc.CorrelationMatrix(context.Background(), Request{Data: kit.StudyTable(7), Columns: []string{"score"}, Options: stats.DefaultOptions()})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestOperationLookup(t *testing.T) {
	svc, _ := newTestService(t)
	for _, name := range Operations() {
		fn, err := svc.Operation(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn)
	}
	_, err := svc.Operation(" GGPieStats ")
	assert.NoError(t, err)
	_, err = svc.Operation("ggviolin")
	assert.ErrorIs(t, err, core.ErrUnsupportedTestKind)
}

func TestRecordSavesRun(t *testing.T) {
	svc, kit := newTestService(t)
	ctx := context.Background()
	req := Request{Data: kit.StudyTable(1), X: "score", Options: stats.DefaultOptions()}
	fig, err := svc.GGHistoStats(ctx, req)
	require.NoError(t, err)

	r, err := svc.Record(ctx, OpHistoStats, req, fig, "out/hist.png")
	require.NoError(t, err)
	assert.Equal(t, fig.Subtitle, r.Subtitle)
	assert.Equal(t, []string{"score"}, r.Variables)

	runs, err := kit.RunStore().List(ctx, ports.RunFilters{Operation: OpHistoStats})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r.ID, runs[0].ID)

	detached := NewStatsPlotService(nil, nil)
	_, err = detached.Record(ctx, OpHistoStats, req, fig, "")
	assert.NoError(t, err)
}
