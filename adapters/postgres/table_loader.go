package postgres

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"gostatsplot/domain/dataset"
	"gostatsplot/ports"
)

// tableLoader implements ports.TableLoader
type tableLoader struct {
	db *sqlx.DB
}

// NewTableLoader creates a loader that turns any result set into a table
func NewTableLoader(db *sqlx.DB) ports.TableLoader {
	return &tableLoader{db: db}
}

// Load runs query and builds one column per result column. A column is
// numeric when every non-NULL value is a number (or a string that parses as
// one, which is how the driver returns NUMERIC); NULL is missing.
func (l *tableLoader) Load(ctx context.Context, query string, args ...any) (*dataset.Table, error) {
	rows, err := l.db.QueryxContext(ctx, l.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query table: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	cells := make([][]any, len(names))
	for rows.Next() {
		rec := make(map[string]interface{}, len(names))
		if err := rows.MapScan(rec); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for j, n := range names {
			cells[j] = append(cells[j], rec[n])
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	cols := make([]*dataset.Column, len(names))
	for j, n := range names {
		cols[j] = toColumn(n, cells[j])
	}
	return dataset.NewTable(cols...)
}

func toColumn(name string, values []any) *dataset.Column {
	floats := make([]float64, len(values))
	numeric := true
	for i, v := range values {
		f, ok := asFloat(v)
		if !ok {
			numeric = false
			break
		}
		floats[i] = f
	}
	if numeric {
		return dataset.NewNumeric(name, floats)
	}
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = asLabel(v)
	}
	return dataset.NewCategorical(name, labels)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func asLabel(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
