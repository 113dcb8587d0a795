package testkit

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"gostatsplot/domain/core"
	"gostatsplot/domain/run"
	"gostatsplot/ports"
)

func TestStudyGenerator_Basic(t *testing.T) {
	kit := NewTestKit()
	config := DefaultStudyConfig()
	config.Rows = 30

	table := NewStudyGenerator(config, kit.RNGAdapter()).Generate()
	if table.Len() != 30 {
		t.Fatalf("Expected 30 rows, got %d", table.Len())
	}
	for _, name := range []string{"id", "group", "region", "genre", "outcome", "score", "rating", "hours"} {
		if !table.Has(name) {
			t.Errorf("Missing column %q", name)
		}
	}

	groups, _ := table.Levels("group")
	for _, g := range groups {
		found := false
		for _, want := range config.Groups {
			found = found || g == want
		}
		if !found {
			t.Errorf("Unexpected group level %q", g)
		}
	}
}

func TestStudyGenerator_Deterministic(t *testing.T) {
	kit := NewTestKit()
	a := kit.StudyTable(7)
	b := kit.StudyTable(7)
	c := kit.StudyTable(8)

	sa, _ := a.Numeric("score")
	sb, _ := b.Numeric("score")
	sc, _ := c.Numeric("score")
	if diff := cmp.Diff(sa, sb, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("Same seed should give the same table (-a +b):\n%s", diff)
	}
	if cmp.Equal(sa, sc, cmpopts.EquateNaNs()) {
		t.Error("Different seeds should give different tables")
	}
}

func TestStudyGenerator_MissingRate(t *testing.T) {
	config := DefaultStudyConfig()
	config.Rows = 2000
	config.MissingRate = 0.1
	table := NewStudyGenerator(config, NewTestKit().RNGAdapter()).Generate()

	scores, _ := table.Numeric("score")
	missing := 0
	for _, v := range scores {
		if math.IsNaN(v) {
			missing++
		}
	}
	if rate := float64(missing) / float64(len(scores)); rate < 0.07 || rate > 0.13 {
		t.Errorf("Missing rate %.3f far from 0.1", rate)
	}
}

func TestWithinTable(t *testing.T) {
	table := WithinTable(NewTestKit().RNGAdapter(), 12, []string{"pre", "post"}, 2, 1)
	if table.Len() != 24 {
		t.Fatalf("Expected 24 rows, got %d", table.Len())
	}
	ids, _ := table.Levels("id")
	if len(ids) != 12 {
		t.Errorf("Expected 12 subjects, got %d", len(ids))
	}
}

func TestTwoPointSample(t *testing.T) {
	x, _ := TwoPointSample(5, 1, 3).Numeric("x")
	if diff := cmp.Diff([]float64{1, 1, 3, 3, 3}, x); diff != "" {
		t.Errorf("Unexpected sample (-want +got):\n%s", diff)
	}
}

func TestNormalSample(t *testing.T) {
	kit := NewTestKit()
	x, _ := NormalSample(kit.RNGAdapter(), 700, 20.3, 4, 3).Numeric("x")
	if len(x) != 700 {
		t.Fatalf("Expected 700 draws, got %d", len(x))
	}
	want := []float64{26.51269099133717, 18.224615136915094, 19.626887855221167}
	if diff := cmp.Diff(want, x[:3], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Unexpected first draws (-want +got):\n%s", diff)
	}

	again, _ := NormalSample(kit.RNGAdapter(), 700, 20.3, 4, 3).Numeric("x")
	if diff := cmp.Diff(x, again); diff != "" {
		t.Errorf("Same seed gave different samples (-first +second):\n%s", diff)
	}
}

func TestInMemoryRunStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryRunStore()
	var _ ports.RunStore = store

	first := run.NewRun("gghistostats", []string{"x"}, "parametric", false, 1)
	second := run.NewRun("ggpiestats", []string{"a"}, "bayes", false, 1)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	for _, r := range []*run.Run{first, second} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := store.Get(ctx, first.ID)
	if err != nil || got.Operation != "gghistostats" {
		t.Errorf("Get returned %v, %v", got, err)
	}
	if _, err := store.Get(ctx, core.RunID("missing")); !core.IsNotFoundError(err) {
		t.Errorf("Expected not found, got %v", err)
	}

	all, _ := store.List(ctx, ports.RunFilters{})
	if len(all) != 2 || all[0].ID != second.ID {
		t.Errorf("List should return newest first, got %v", all)
	}
	pies, _ := store.List(ctx, ports.RunFilters{Operation: "ggpiestats"})
	if len(pies) != 1 {
		t.Errorf("Expected 1 pie run, got %d", len(pies))
	}
	page, _ := store.List(ctx, ports.RunFilters{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID != first.ID {
		t.Errorf("Unexpected page %v", page)
	}
}
