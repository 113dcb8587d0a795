package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gostatsplot/domain/core"
	"gostatsplot/domain/run"
	"gostatsplot/ports"
)

// runRow is the storage shape of run.Run. Variables are kept as a JSON
// array and the seed as its two's-complement int64.
type runRow struct {
	ID          string    `db:"id"`
	Operation   string    `db:"operation"`
	Variables   string    `db:"variables"`
	TestType    string    `db:"test_type"`
	Paired      bool      `db:"paired"`
	Title       string    `db:"title"`
	Subtitle    string    `db:"subtitle"`
	Caption     string    `db:"caption"`
	ImagePath   string    `db:"image_path"`
	Seed        int64     `db:"seed"`
	Fingerprint string    `db:"fingerprint"`
	CreatedAt   time.Time `db:"created_at"`
}

func toRow(r *run.Run) (runRow, error) {
	vars, err := json.Marshal(r.Variables)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal variables: %w", err)
	}
	if r.Variables == nil {
		vars = []byte("[]")
	}
	return runRow{
		ID:          r.ID.String(),
		Operation:   r.Operation,
		Variables:   string(vars),
		TestType:    r.TestType,
		Paired:      r.Paired,
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Caption:     r.Caption,
		ImagePath:   r.ImagePath,
		Seed:        int64(r.Seed),
		Fingerprint: r.Fingerprint,
		CreatedAt:   r.CreatedAt.UTC(),
	}, nil
}

func (row runRow) toRun() (*run.Run, error) {
	r := &run.Run{
		ID:          core.RunID(row.ID),
		Operation:   row.Operation,
		TestType:    row.TestType,
		Paired:      row.Paired,
		Title:       row.Title,
		Subtitle:    row.Subtitle,
		Caption:     row.Caption,
		ImagePath:   row.ImagePath,
		Seed:        uint64(row.Seed),
		Fingerprint: row.Fingerprint,
		CreatedAt:   row.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.Variables), &r.Variables); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
	}
	return r, nil
}

const runColumns = `id, operation, variables, test_type, paired, title, subtitle, caption,
	image_path, seed, fingerprint, created_at`

// runRepository implements ports.RunStore
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a run store over db. Queries are written with
// ? placeholders and rebound for the driver.
func NewRunRepository(db *sqlx.DB) ports.RunStore {
	return &runRepository{db: db}
}

// Save inserts a new run
func (r *runRepository) Save(ctx context.Context, rn *run.Run) error {
	row, err := toRow(rn)
	if err != nil {
		return err
	}
	query := `INSERT INTO runs (` + runColumns + `) VALUES (
		:id, :operation, :variables, :test_type, :paired, :title, :subtitle, :caption,
		:image_path, :seed, :fingerprint, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: run %s", core.ErrConflict, rn.ID)
		}
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Get retrieves a run by its ID
func (r *runRepository) Get(ctx context.Context, id core.RunID) (*run.Run, error) {
	var row runRow
	query := r.db.Rebind(`SELECT ` + runColumns + ` FROM runs WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("run", id.String())
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return row.toRun()
}

// List returns runs newest first, optionally filtered by operation
func (r *runRepository) List(ctx context.Context, filters ports.RunFilters) ([]*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if filters.Operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, filters.Operation)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filters.Limit > 0 || filters.Offset > 0 {
		limit := filters.Limit
		if limit <= 0 {
			limit = math.MaxInt32
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, max(0, filters.Offset))
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	out := make([]*run.Run, 0, len(rows))
	for _, row := range rows {
		rn, err := row.toRun()
		if err != nil {
			return nil, err
		}
		out = append(out, rn)
	}
	return out, nil
}

// isUniqueViolation recognises Postgres error 23505
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
