package testkit

import (
	"context"
	"sort"
	"sync"

	"gostatsplot/adapters/stats/resample"
	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
	"gostatsplot/domain/run"
	"gostatsplot/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	runs *InMemoryRunStore // Shared run store instance
	rng  ports.RNGPort
}

// NewTestKit creates a new test kit instance with synthetic data
func NewTestKit() *TestKit {
	return &TestKit{runs: NewInMemoryRunStore(), rng: resample.Streams{}}
}

// RNGAdapter returns the seeded stream source used by the generators
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// RunStore returns the shared in-memory run store
func (t *TestKit) RunStore() *InMemoryRunStore {
	return t.runs
}

// StudyTable generates the default between-subjects study dataset
func (t *TestKit) StudyTable(seed uint64) *dataset.Table {
	cfg := DefaultStudyConfig()
	cfg.Seed = seed
	return NewStudyGenerator(cfg, t.rng).Generate()
}

// InMemoryRunStore keeps runs in memory; it satisfies ports.RunStore.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs map[core.RunID]*run.Run
}

// NewInMemoryRunStore creates an empty store
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{runs: make(map[core.RunID]*run.Run)}
}

// Save stores a copy of r
func (s *InMemoryRunStore) Save(ctx context.Context, r *run.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.runs[r.ID] = &cp
	return nil
}

// Get returns a run by ID
func (s *InMemoryRunStore) Get(ctx context.Context, id core.RunID) (*run.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	cp := *r
	return &cp, nil
}

// List returns runs newest first, filtered by operation
func (s *InMemoryRunStore) List(ctx context.Context, filters ports.RunFilters) ([]*run.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*run.Run
	for _, r := range s.runs {
		if filters.Operation != "" && r.Operation != filters.Operation {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return nil, nil
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}
