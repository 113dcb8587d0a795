package excel

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
	"gostatsplot/ports"
)

var _ ports.TableReader = (*DataReader)(nil)

const studyCSV = `id, group, score, zip
1, a, 3.5, 01234
2, b, NA, 02139
3, a, 4, 10001

4, , 5.25, NA
`

func TestReadCSVInfersKinds(t *testing.T) {
	r := NewDataReader(DefaultReaderConfig(), nil)
	table, err := r.ReadTable(context.Background(), "study.csv", strings.NewReader(studyCSV))
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, []string{"id", "group", "score", "zip"}, table.Names())

	score, err := table.Numeric("score")
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{3.5, math.NaN(), 4, 5.25}, score, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("score (-want +got):\n%s", diff)
	}
	group, err := table.Categorical("group")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a", ""}, group)

	// zip codes parse as numbers unless forced categorical
	_, err = table.Numeric("zip")
	assert.NoError(t, err)

	cfg := DefaultReaderConfig()
	cfg.Categorical = []string{"zip"}
	table, err = NewDataReader(cfg, nil).ReadTable(context.Background(), "study.csv", strings.NewReader(studyCSV))
	require.NoError(t, err)
	zips, err := table.Categorical("zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"01234", "02139", "10001", ""}, zips)
}

func TestReadCSVHeaders(t *testing.T) {
	r := NewDataReader(DefaultReaderConfig(), nil)
	table, err := r.ReadTable(context.Background(), "x.csv", strings.NewReader("a,,c\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "V2", "c"}, table.Names())
	c, _ := table.Numeric("c")
	assert.True(t, math.IsNaN(c[0]))

	_, err = r.ReadTable(context.Background(), "x.csv", strings.NewReader("a,a\n1,2\n"))
	assert.ErrorIs(t, err, core.ErrInvalidOption)

	_, err = r.ReadTable(context.Background(), "x.csv", strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = r.ReadTable(context.Background(), "x.json", strings.NewReader("{}"))
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestReadTSV(t *testing.T) {
	// the .tsv extension switches the default comma to a tab
	table, err := NewDataReader(DefaultReaderConfig(), nil).ReadTable(context.Background(), "x.tsv", strings.NewReader("x\ty\n1\tu\n2\tv\n"))
	require.NoError(t, err)
	y, err := table.Categorical("y")
	require.NoError(t, err)
	assert.Equal(t, []string{"u", "v"}, y)
}

func TestXLSXRoundTrip(t *testing.T) {
	src := dataset.MustTable(
		dataset.NewCategorical("region", []string{"north", "", "east"}),
		dataset.NewNumeric("score", []float64{1.5, 2, math.NaN()}),
	)
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, src))

	got, err := NewDataReader(DefaultReaderConfig(), nil).ReadTable(context.Background(), "round.xlsx", &buf)
	require.NoError(t, err)
	region, err := got.Categorical("region")
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "", "east"}, region)
	score, err := got.Numeric("score")
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{1.5, 2, math.NaN()}, score, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("score (-want +got):\n%s", diff)
	}
}

func TestWriteCSV(t *testing.T) {
	src := dataset.MustTable(
		dataset.NewCategorical("g", []string{"a", ""}),
		dataset.NewNumeric("y", []float64{0.25, math.NaN()}),
	)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, src))
	assert.Equal(t, "g,y\na,0.25\nNA,NA\n", buf.String())
}

func TestReadTableHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDataReader(DefaultReaderConfig(), nil).ReadTable(ctx, "x.csv", strings.NewReader(studyCSV))
	assert.ErrorIs(t, err, context.Canceled)
}
