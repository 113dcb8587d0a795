package postgres

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"gostatsplot/domain/core"
	"gostatsplot/domain/run"
	"gostatsplot/ports"
)

// openTestDB opens a migrated SQLite file. The queries in this package are
// portable, so the store is exercised without a Postgres server.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ran, err := NewMigrator(db).Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002"}, ran)
	return db
}

func TestMigratorIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	ran, err := NewMigrator(db).Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)

	status, err := NewMigrator(db).Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	for _, s := range status {
		assert.True(t, s.Applied, s.Version)
		assert.Len(t, s.Checksum, 64)
	}
	assert.Equal(t, "create_runs", status[0].Name)
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	store := NewRunRepository(openTestDB(t))
	ctx := context.Background()

	r := run.NewRun("ggbetweenstats", []string{"group", "score"}, "robust", false, math.MaxUint64)
	r.Title, r.Subtitle, r.Caption = "Scores", "t_Yuen(5.2) = 1.00", "Pairwise test: Yuen"
	r.CreatedAt = r.CreatedAt.Truncate(time.Microsecond)
	require.NoError(t, store.Save(ctx, r))

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(r, got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("run (-want +got):\n%s", diff)
	}

	_, err = store.Get(ctx, core.RunID("missing"))
	assert.True(t, core.IsNotFoundError(err), "got %v", err)

	assert.Error(t, store.Save(ctx, r))
}

func TestRunRepositoryList(t *testing.T) {
	store := NewRunRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ids []core.RunID
	for i, op := range []string{"gghistostats", "ggpiestats", "gghistostats"} {
		r := run.NewRun(op, nil, "parametric", false, 42)
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, r))
		ids = append(ids, r.ID)
	}

	all, err := store.List(ctx, ports.RunFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, []string{}, all[0].Variables)

	hist, err := store.List(ctx, ports.RunFilters{Operation: "gghistostats"})
	require.NoError(t, err)
	assert.Len(t, hist, 2)

	page, err := store.List(ctx, ports.RunFilters{Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)

	one, err := store.List(ctx, ports.RunFilters{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, ids[0], one[0].ID)
}

func TestTableLoader(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	db.MustExecContext(ctx, `CREATE TABLE scores (grp TEXT, score REAL, n INTEGER, note TEXT)`)
	db.MustExecContext(ctx, `INSERT INTO scores VALUES ('a', 1.5, 3, 'x'), ('b', NULL, 4, '12'), (NULL, 2.5, NULL, 'y')`)

	loader := NewTableLoader(db)
	table, err := loader.Load(ctx, `SELECT grp, score, n, note FROM scores WHERE n IS NULL OR n > ?`, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"grp", "score", "n", "note"}, table.Names())

	grp, err := table.Categorical("grp")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", ""}, grp)

	score, err := table.Numeric("score")
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{1.5, math.NaN(), 2.5}, score, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("score (-want +got):\n%s", diff)
	}
	n, err := table.Numeric("n")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(n[2]))

	note, err := table.Categorical("note")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "12", "y"}, note)

	_, err = loader.Load(ctx, `SELECT * FROM nope`)
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("plain")))
}
