package engine

import (
	"context"
	"testing"

	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout"
	"github.com/storyloom/storyflow/pkg/layout/quality"
)

func runAlgorithm(t *testing.T, a Algorithm, nodes []graph.Node, edges []graph.Edge) []graph.Node {
	t.Helper()
	out, err := a.Layout(context.Background(), nodes, edges)
	if err != nil {
		t.Fatalf("%s.Layout error: %v", a.Name(), err)
	}
	if len(out) != len(nodes) {
		t.Fatalf("%s.Layout returned %d nodes, want %d", a.Name(), len(out), len(nodes))
	}
	return out
}

func TestAlgorithmsAreDeterministic(t *testing.T) {
	opts := layout.DefaultOptions()
	algorithms := []Algorithm{
		Hierarchical{Opts: opts},
		&ForceDirected{Opts: opts},
		&ForceDirected{Opts: opts, Optimized: true},
		Circular{Opts: opts},
		Grid{Opts: opts},
		Radial{Opts: opts},
	}
	nodes, edges := makeNodes(12), []graph.Edge{
		{ID: "1", Source: "n-000", Target: "n-001", Kind: graph.EdgeRequirement, Weight: 1, MinRankGap: 1},
		{ID: "2", Source: "n-001", Target: "n-002", Kind: graph.EdgeReward, Weight: 2, MinRankGap: 1},
		{ID: "3", Source: "n-003", Target: "n-004", Kind: graph.EdgeOwnership, Weight: 1.5, MinRankGap: 1},
	}

	for _, a := range algorithms {
		t.Run(a.Name(), func(t *testing.T) {
			first := runAlgorithm(t, a, nodes, edges)
			second := runAlgorithm(t, a, nodes, edges)
			for i := range first {
				if first[i] != second[i] {
					t.Errorf("node %d differs across runs: %+v vs %+v", i, first[i], second[i])
				}
			}
		})
	}
}

func TestAlgorithmsDoNotMutateInput(t *testing.T) {
	opts := layout.DefaultOptions()
	algorithms := []Algorithm{
		Hierarchical{Opts: opts},
		&ForceDirected{Opts: opts},
		Circular{Opts: opts},
		Grid{Opts: opts},
		Radial{Opts: opts},
	}
	nodes := makeNodes(8)
	before := make([]graph.Node, len(nodes))
	copy(before, nodes)

	for _, a := range algorithms {
		t.Run(a.Name(), func(t *testing.T) {
			runAlgorithm(t, a, nodes, nil)
			for i := range nodes {
				if nodes[i] != before[i] {
					t.Errorf("input node %d mutated", i)
				}
			}
		})
	}
}

func TestCircularSpreadsNodes(t *testing.T) {
	nodes := makeNodes(6)
	for i := range nodes {
		nodes[i].Width, nodes[i].Height = 140, 50
	}
	out := runAlgorithm(t, Circular{Opts: layout.DefaultOptions()}, nodes, nil)
	if got := quality.CountOverlaps(out); got != 0 {
		t.Errorf("circular layout has %d overlaps, want 0", got)
	}
}

func TestGridDimensions(t *testing.T) {
	nodes := makeNodes(9)
	out := runAlgorithm(t, Grid{Opts: layout.DefaultOptions()}, nodes, nil)

	xs, ys := map[float64]bool{}, map[float64]bool{}
	for _, n := range out {
		xs[n.X] = true
		ys[n.Y] = true
	}
	if len(xs) != 3 || len(ys) != 3 {
		t.Errorf("grid is %dx%d, want 3x3", len(xs), len(ys))
	}
}

func TestRadialRootAtCenter(t *testing.T) {
	nodes := makeNodes(5)
	// n-000 connects to everything, so it should anchor the center.
	var edges []graph.Edge
	for i := 1; i < 5; i++ {
		edges = append(edges, graph.Edge{
			ID:     graph.EdgeID(graph.EdgeOwnership, nodes[0].ID, nodes[i].ID),
			Source: nodes[0].ID, Target: nodes[i].ID,
			Kind: graph.EdgeOwnership, Weight: 1, MinRankGap: 1,
		})
	}
	out := runAlgorithm(t, Radial{Opts: layout.DefaultOptions()}, nodes, edges)

	root := out[0]
	for _, n := range out[1:] {
		dRoot := (n.X-root.X)*(n.X-root.X) + (n.Y-root.Y)*(n.Y-root.Y)
		if dRoot == 0 {
			t.Errorf("leaf %s landed on the root", n.ID)
		}
	}
}

func TestForceProgressiveCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &ForceDirected{Opts: layout.DefaultOptions()}
	_, err := f.LayoutProgressive(ctx, makeNodes(10), nil, nil)
	if err == nil {
		t.Error("cancelled context did not stop the simulation")
	}
}
