package layout

import (
	"testing"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/relate"
)

// chainFixture builds the adversarial dual-role case: pz-a rewards el-x,
// pz-b requires el-x, and pz-a and pz-b share no direct edge. A correct
// layout must still place pz-a strictly left of pz-b.
func chainFixture(t *testing.T) ([]graph.Node, []graph.Edge) {
	t.Helper()
	c, dropped := entity.FromSlice([]entity.Entity{
		{ID: "el-x", Kind: entity.KindElement},
		{ID: "el-start", Kind: entity.KindElement},
		{ID: "el-end", Kind: entity.KindElement},
		{ID: "pz-a", Kind: entity.KindPuzzle, RequirementIDs: []string{"el-start"}, RewardIDs: []string{"el-x"}},
		{ID: "pz-b", Kind: entity.KindPuzzle, RequirementIDs: []string{"el-x"}, RewardIDs: []string{"el-end"}},
	})
	if dropped != 0 {
		t.Fatalf("dropped %d entities", dropped)
	}
	b := graph.NewBuilder(c)
	b.AddAll(relate.Extract(c))
	edges, _ := graph.Injector{Entities: c}.Inject(b.Edges(), b.Usage())
	return graph.NodesFrom(c), edges
}

func TestLayoutOrderingInvariant(t *testing.T) {
	nodes, edges := chainFixture(t)
	res := NewHierarchical(DefaultOptions()).Layout(nodes, edges)

	for _, e := range edges {
		if e.Virtual || (e.Kind != graph.EdgeRequirement && e.Kind != graph.EdgeReward) {
			continue
		}
		rs, rt := res.Ranks[e.Source], res.Ranks[e.Target]
		if rt < rs+float64(e.MinRankGap) {
			t.Errorf("edge %s: rank(%s)=%v, rank(%s)=%v violates gap %d",
				e.ID, e.Source, rs, e.Target, rt, e.MinRankGap)
		}
	}
}

func TestLayoutDualRoleOrdering(t *testing.T) {
	nodes, edges := chainFixture(t)
	res := NewHierarchical(DefaultOptions()).Layout(nodes, edges)

	if res.Ranks["pz-b"] <= res.Ranks["pz-a"] {
		t.Errorf("rank(pz-b)=%v not strictly right of rank(pz-a)=%v",
			res.Ranks["pz-b"], res.Ranks["pz-a"])
	}

	var a, b graph.Node
	for _, n := range res.Nodes {
		switch n.ID {
		case "pz-a":
			a = n
		case "pz-b":
			b = n
		}
	}
	if b.X <= a.X {
		t.Errorf("pz-b at x=%v not right of pz-a at x=%v", b.X, a.X)
	}
}

func TestLayoutFractionalRank(t *testing.T) {
	nodes, edges := chainFixture(t)
	opts := DefaultOptions()
	opts.FractionalRanks = true
	res := NewHierarchical(opts).Layout(nodes, edges)

	p, c, el := res.Ranks["pz-a"], res.Ranks["pz-b"], res.Ranks["el-x"]
	if el <= p || el >= c {
		t.Errorf("dual-role el-x at rank %v, want strictly between %v and %v", el, p, c)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	nodes, edges := chainFixture(t)
	h := NewHierarchical(DefaultOptions())
	first := h.Layout(nodes, edges)
	second := h.Layout(nodes, edges)

	if len(first.Nodes) != len(second.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(first.Nodes), len(second.Nodes))
	}
	for i := range first.Nodes {
		a, b := first.Nodes[i], second.Nodes[i]
		if a != b {
			t.Errorf("node %d differs across runs: %+v vs %+v", i, a, b)
		}
	}
}

func TestLayoutDoesNotMutateInput(t *testing.T) {
	nodes, edges := chainFixture(t)
	before := make([]graph.Node, len(nodes))
	copy(before, nodes)

	NewHierarchical(DefaultOptions()).Layout(nodes, edges)

	for i := range nodes {
		if nodes[i] != before[i] {
			t.Errorf("input node %d mutated: %+v vs %+v", i, nodes[i], before[i])
		}
	}
}

func TestLayoutEmptyAndSingle(t *testing.T) {
	h := NewHierarchical(DefaultOptions())

	res := h.Layout(nil, nil)
	if len(res.Nodes) != 0 {
		t.Errorf("empty layout produced %d nodes", len(res.Nodes))
	}

	single := []graph.Node{{ID: "only", Kind: entity.KindElement, Width: 140, Height: 50}}
	res = h.Layout(single, nil)
	if len(res.Nodes) != 1 {
		t.Fatalf("single layout produced %d nodes", len(res.Nodes))
	}
	if res.Ranks["only"] != 0 {
		t.Errorf("single node rank = %v, want 0", res.Ranks["only"])
	}
}

func TestLayoutCycleTolerance(t *testing.T) {
	nodes := []graph.Node{
		{ID: "a", Kind: entity.KindPuzzle, Width: 180, Height: 80},
		{ID: "b", Kind: entity.KindPuzzle, Width: 180, Height: 80},
	}
	edges := []graph.Edge{
		{ID: "1", Source: "a", Target: "b", Kind: graph.EdgeChain, Weight: 5, MinRankGap: 1},
		{ID: "2", Source: "b", Target: "a", Kind: graph.EdgeChain, Weight: 5, MinRankGap: 1},
	}
	res := NewHierarchical(DefaultOptions()).Layout(nodes, edges)
	if len(res.Nodes) != 2 {
		t.Fatalf("cyclic layout produced %d nodes", len(res.Nodes))
	}
	if res.Ranks["a"] == res.Ranks["b"] {
		t.Error("cycle breaking left both puzzles on the same rank")
	}
}

func TestLayoutDropsDanglingEdges(t *testing.T) {
	nodes := []graph.Node{{ID: "a", Kind: entity.KindElement, Width: 140, Height: 50}}
	edges := []graph.Edge{
		{ID: "ghost", Source: "a", Target: "missing", Kind: graph.EdgeRequirement, Weight: 1, MinRankGap: 1},
	}
	res := NewHierarchical(DefaultOptions()).Layout(nodes, edges)
	if len(res.Nodes) != 1 {
		t.Fatalf("layout produced %d nodes, want 1", len(res.Nodes))
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"defaults valid", func(o *Options) {}, nil},
		{"zero rank sep", func(o *Options) { o.RankSep = 0 }, ErrBadRankSep},
		{"negative node sep", func(o *Options) { o.NodeSep = -1 }, ErrBadNodeSep},
		{"compression out of range", func(o *Options) { o.Compression = 1.5 }, ErrBadCompression},
		{"compression ignored without clustering", func(o *Options) { o.Clustering = false; o.Compression = 0 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if err := opts.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
