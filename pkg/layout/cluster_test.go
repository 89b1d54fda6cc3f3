package layout

import (
	"math"
	"testing"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/graph"
)

func clusterFixture() ([]graph.Node, []graph.Edge) {
	nodes := []graph.Node{
		{ID: "pz-1", Kind: entity.KindPuzzle, X: 400, Y: 200, Width: 180, Height: 80},
		{ID: "el-1", Kind: entity.KindElement, X: 100, Y: 0, Width: 140, Height: 50},
		{ID: "el-2", Kind: entity.KindElement, X: 100, Y: 500, Width: 140, Height: 50},
	}
	edges := []graph.Edge{
		{ID: "r1", Source: "el-1", Target: "pz-1", Kind: graph.EdgeRequirement, Weight: 1, MinRankGap: 1},
		{ID: "r2", Source: "el-2", Target: "pz-1", Kind: graph.EdgeRequirement, Weight: 1, MinRankGap: 1},
	}
	return nodes, edges
}

func TestClusterCompressesTowardPuzzle(t *testing.T) {
	nodes, edges := clusterFixture()
	out := Cluster(nodes, edges, 0.6, 40)

	puzzleCenter := nodes[0].CenterY()
	for i := 1; i < len(nodes); i++ {
		before := math.Abs(nodes[i].CenterY() - puzzleCenter)
		after := math.Abs(out[i].CenterY() - puzzleCenter)
		if after >= before {
			t.Errorf("%s: distance to puzzle grew from %v to %v", nodes[i].ID, before, after)
		}
	}
}

func TestClusterAvoidsCollisions(t *testing.T) {
	nodes, edges := clusterFixture()
	// Full compression would land both elements on the puzzle's center.
	out := Cluster(nodes, edges, 1, 40)

	a, b := out[1], out[2]
	if a.Y < b.Y+b.Height && b.Y < a.Y+a.Height {
		t.Errorf("elements overlap after clustering: %v and %v", a, b)
	}
}

func TestClusterPreservesInput(t *testing.T) {
	nodes, edges := clusterFixture()
	before := make([]graph.Node, len(nodes))
	copy(before, nodes)

	Cluster(nodes, edges, 0.6, 40)

	for i := range nodes {
		if nodes[i] != before[i] {
			t.Errorf("input node %d mutated", i)
		}
	}
}

func TestClusterDeterministic(t *testing.T) {
	nodes, edges := clusterFixture()
	first := Cluster(nodes, edges, 0.6, 40)
	second := Cluster(nodes, edges, 0.6, 40)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("node %d differs across runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestClusterInvalidCompressionIsNoop(t *testing.T) {
	nodes, edges := clusterFixture()
	out := Cluster(nodes, edges, 0, 40)
	for i := range nodes {
		if out[i] != nodes[i] {
			t.Errorf("node %d moved with zero compression", i)
		}
	}
}
