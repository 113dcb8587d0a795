package ports

import (
	"context"
	"io"

	"gostatsplot/domain/dataset"
)

// TableReader turns an external source into an in-memory table
type TableReader interface {
	// ReadTable parses a whole document. name is used to pick the format
	// (".csv", ".xlsx").
	ReadTable(ctx context.Context, name string, r io.Reader) (*dataset.Table, error)
}

// TableLoader builds a table from a query against a database
type TableLoader interface {
	Load(ctx context.Context, query string, args ...any) (*dataset.Table, error)
}
