package ports

import (
	"context"

	"gostatsplot/domain/core"
	"gostatsplot/domain/run"
)

// RunStore persists rendered plot runs
type RunStore interface {
	Save(ctx context.Context, r *run.Run) error
	Get(ctx context.Context, id core.RunID) (*run.Run, error)
	List(ctx context.Context, filters RunFilters) ([]*run.Run, error)
}

// RunFilters for querying runs
type RunFilters struct {
	Operation string
	Limit     int
	Offset    int
}
