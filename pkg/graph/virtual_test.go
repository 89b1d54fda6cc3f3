package graph

import (
	"slices"
	"testing"

	"github.com/storyloom/storyflow/pkg/relate"
)

func injectFixture(t *testing.T) ([]Edge, Diagnostics) {
	t.Helper()
	c := mysteryFixture(t)
	b := NewBuilder(c)
	b.AddAll(relate.Extract(c))
	inj := Injector{Entities: c}
	return inj.Inject(b.Edges(), b.Usage())
}

func TestInjectDualRoleDependency(t *testing.T) {
	edges, _ := injectFixture(t)

	// el-key is rewarded by pz-safe and required by pz-desk, so the
	// injector must order pz-safe strictly before pz-desk.
	e := edgeByID(t, edges, EdgeID(EdgeVirtualDependency, "pz-safe", "pz-desk"))
	if !e.Virtual {
		t.Error("dependency edge not flagged virtual")
	}
	if e.MinRankGap != 1 {
		t.Errorf("MinRankGap = %d, want 1", e.MinRankGap)
	}
	if e.Weight <= weightSubPuzzle {
		t.Errorf("weight = %v, want stronger than any structural edge", e.Weight)
	}
}

func TestInjectGroupingEdges(t *testing.T) {
	edges, _ := injectFixture(t)

	// pz-desk and pz-drawer both consume el-note and are not ordered by a
	// dependency, so they get a same-rank grouping pull. Only pz-desk
	// carries the inheritance thread, so no thread boost applies.
	e := edgeByID(t, edges, EdgeID(EdgeGrouping, "pz-desk", "pz-drawer"))
	if !e.Virtual || e.MinRankGap != 0 {
		t.Errorf("grouping edge = %+v, want virtual with gap 0", e)
	}
	if e.Weight != groupingWeight {
		t.Errorf("weight = %v, want %v", e.Weight, groupingWeight)
	}

	// pz-safe and pz-desk share el-key but are dependency-ordered, so the
	// same-rank pull must be suppressed.
	for _, e := range edges {
		if e.Kind != EdgeGrouping {
			continue
		}
		if (e.Source == "pz-safe" && e.Target == "pz-desk") ||
			(e.Source == "pz-desk" && e.Target == "pz-safe") {
			t.Errorf("grouping edge %s fights dependency ordering", e.ID)
		}
	}
}

func TestInjectDiagnostics(t *testing.T) {
	_, diag := injectFixture(t)

	// el-will is rewarded by pz-desk but never required: dead end.
	// el-cipher and el-note are required but never rewarded: orphans.
	if !slices.Contains(diag.DeadEnds, "el-will") {
		t.Errorf("DeadEnds = %v, want el-will", diag.DeadEnds)
	}
	wantOrphans := []string{"el-cipher", "el-note"}
	if !slices.Equal(diag.Orphans, wantOrphans) {
		t.Errorf("Orphans = %v, want %v", diag.Orphans, wantOrphans)
	}
}

func TestInjectDeterministicAndOrderIndependent(t *testing.T) {
	c := mysteryFixture(t)
	records := relate.Extract(c)

	build := func(recs []relate.Record) []Edge {
		b := NewBuilder(c)
		b.AddAll(recs)
		edges, _ := Injector{Entities: c}.Inject(b.Edges(), b.Usage())
		virtual := make([]Edge, 0)
		for _, e := range edges {
			if e.Virtual {
				virtual = append(virtual, e)
			}
		}
		slices.SortFunc(virtual, func(a, b Edge) int {
			if a.ID < b.ID {
				return -1
			}
			if a.ID > b.ID {
				return 1
			}
			return 0
		})
		return virtual
	}

	forward := build(records)
	reversed := slices.Clone(records)
	slices.Reverse(reversed)
	backward := build(reversed)

	if !slices.Equal(forward, backward) {
		t.Errorf("virtual edge set depends on record order:\n%v\nvs\n%v", forward, backward)
	}
}

func TestInjectIdempotent(t *testing.T) {
	c := mysteryFixture(t)
	b := NewBuilder(c)
	b.AddAll(relate.Extract(c))
	inj := Injector{Entities: c}

	once, _ := inj.Inject(b.Edges(), b.Usage())
	twice, _ := inj.Inject(once, b.Usage())
	if len(once) != len(twice) {
		t.Errorf("second injection grew edge set: %d vs %d", len(once), len(twice))
	}
}

func TestVisibleEdgesFiltersVirtual(t *testing.T) {
	edges, _ := injectFixture(t)
	for _, e := range VisibleEdges(edges) {
		if e.Virtual {
			t.Errorf("virtual edge %s leaked into visible set", e.ID)
		}
	}
}
