package app

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gostatsplot/adapters/plot"
	"gostatsplot/domain/core"
	"gostatsplot/domain/run"
	"gostatsplot/domain/stats"
	"gostatsplot/ports"
)

type mockRunStore struct {
	mock.Mock
}

func (m *mockRunStore) Save(ctx context.Context, r *run.Run) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRunStore) Get(ctx context.Context, id core.RunID) (*run.Run, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*run.Run)
	return r, args.Error(1)
}

func (m *mockRunStore) List(ctx context.Context, filters ports.RunFilters) ([]*run.Run, error) {
	args := m.Called(ctx, filters)
	runs, _ := args.Get(0).([]*run.Run)
	return runs, args.Error(1)
}

func TestRecordPassesRunToStore(t *testing.T) {
	store := &mockRunStore{}
	svc := NewStatsPlotService(nil, store)

	opts := stats.DefaultOptions()
	opts.Type = stats.Robust
	opts.Seed = 11
	req := Request{X: "group", Y: "score", Options: opts}
	fig := plot.NewFigure("Scores", "group", "score")
	fig.Subtitle, fig.Caption = "F_trimmed-means(2, 40.12) = 3.00", "Pairwise test: Yuen"

	store.On("Save", mock.Anything, mock.MatchedBy(func(r *run.Run) bool {
		return r.Operation == OpBetweenStats &&
			r.TestType == "robust" &&
			r.Seed == 11 &&
			r.Subtitle == fig.Subtitle &&
			r.Caption == fig.Caption &&
			r.ImagePath == "out/b.png" &&
			r.Fingerprint == run.Fingerprint(OpBetweenStats, []string{"group", "score"}, "robust", false, 11)
	})).Return(nil).Once()

	r, err := svc.Record(context.Background(), OpBetweenStats, req, fig, "out/b.png")
	require.NoError(t, err)
	assert.Equal(t, "Scores", r.Title)
	store.AssertExpectations(t)
}

func TestRecordWrapsStoreError(t *testing.T) {
	store := &mockRunStore{}
	svc := NewStatsPlotService(nil, store)
	store.On("Save", mock.Anything, mock.Anything).Return(stderrors.New("connection reset")).Once()

	_, err := svc.Record(context.Background(), OpPieStats, Request{Main: "outcome", Options: stats.DefaultOptions()}, plot.NewFigure("", "", ""), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record ggpiestats run: connection reset")
	store.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}
