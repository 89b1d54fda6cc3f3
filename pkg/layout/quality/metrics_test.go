package quality

import (
	"math"
	"testing"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/graph"
)

func node(id string, kind entity.Kind, x, y float64) graph.Node {
	return graph.Node{ID: id, Kind: kind, X: x, Y: y}
}

func TestCountCrossings(t *testing.T) {
	// Two edges forming an X.
	nodes := []graph.Node{
		node("a", entity.KindElement, 0, 0),
		node("b", entity.KindElement, 100, 100),
		node("c", entity.KindElement, 0, 100),
		node("d", entity.KindElement, 100, 0),
	}
	edges := []graph.Edge{
		{ID: "1", Source: "a", Target: "b"},
		{ID: "2", Source: "c", Target: "d"},
	}
	if got := CountCrossings(nodes, edges); got != 1 {
		t.Errorf("CountCrossings() = %d, want 1", got)
	}

	// Edges sharing an endpoint never cross.
	shared := []graph.Edge{
		{ID: "1", Source: "a", Target: "b"},
		{ID: "2", Source: "a", Target: "d"},
	}
	if got := CountCrossings(nodes, shared); got != 0 {
		t.Errorf("CountCrossings() with shared endpoint = %d, want 0", got)
	}
}

func TestCountOverlaps(t *testing.T) {
	tests := []struct {
		name  string
		nodes []graph.Node
		want  int
	}{
		{
			"stacked pair",
			[]graph.Node{
				node("a", entity.KindElement, 0, 0),
				node("b", entity.KindElement, 10, 10),
			},
			1,
		},
		{
			"well separated",
			[]graph.Node{
				node("a", entity.KindElement, 0, 0),
				node("b", entity.KindElement, 200, 0),
			},
			0,
		},
		{
			"near on one axis only",
			[]graph.Node{
				node("a", entity.KindElement, 0, 0),
				node("b", entity.KindElement, 10, 300),
			},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountOverlaps(tt.nodes); got != tt.want {
				t.Errorf("CountOverlaps() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEvaluateEmptyAndSingle(t *testing.T) {
	m := Evaluate(nil, nil)
	if m.AspectRatio != 1 {
		t.Errorf("empty AspectRatio = %v, want 1", m.AspectRatio)
	}
	if m.Crossings != 0 || m.Overlaps != 0 || m.EdgeLengthSum != 0 {
		t.Errorf("empty metrics not zero: %+v", m)
	}

	m = Evaluate([]graph.Node{node("only", entity.KindElement, 10, 10)}, nil)
	if m.AspectRatio != 1 {
		t.Errorf("single AspectRatio = %v, want 1", m.AspectRatio)
	}
}

func TestEdgeLengthStats(t *testing.T) {
	nodes := []graph.Node{
		node("a", entity.KindElement, 0, 0),
		node("b", entity.KindElement, 300, 0),
		node("c", entity.KindElement, 400, 0),
	}
	edges := []graph.Edge{
		{ID: "1", Source: "a", Target: "b"}, // length 300
		{ID: "2", Source: "b", Target: "c"}, // length 100
	}
	m := Evaluate(nodes, edges)
	if m.EdgeLengthSum != 400 {
		t.Errorf("EdgeLengthSum = %v, want 400", m.EdgeLengthSum)
	}
	if m.EdgeLengthMean != 200 {
		t.Errorf("EdgeLengthMean = %v, want 200", m.EdgeLengthMean)
	}
	if m.EdgeLengthVariance != 10000 {
		t.Errorf("EdgeLengthVariance = %v, want 10000", m.EdgeLengthVariance)
	}
}

func TestElementClusteringScore(t *testing.T) {
	nodes := []graph.Node{
		node("pz", entity.KindPuzzle, 0, 0),
		node("el-near", entity.KindElement, 250, 0),
		node("el-far", entity.KindElement, 900, 0),
	}
	edges := []graph.Edge{
		{ID: "1", Source: "el-near", Target: "pz", Kind: graph.EdgeRequirement},
		{ID: "2", Source: "el-far", Target: "pz", Kind: graph.EdgeRequirement},
	}
	// el-near: 1 - 250/500 = 0.5; el-far clamps to 0. Average 0.25.
	got := ElementClusteringScore(nodes, edges)
	if math.Abs(got-0.25) > 1e-9 {
		t.Errorf("ElementClusteringScore() = %v, want 0.25", got)
	}
}

func TestPuzzleAlignmentScore(t *testing.T) {
	aligned := []graph.Node{
		node("p1", entity.KindPuzzle, 0, 100),
		node("p2", entity.KindPuzzle, 300, 100),
	}
	if got := PuzzleAlignmentScore(aligned); got != 1 {
		t.Errorf("aligned score = %v, want 1", got)
	}

	// Centers at 0 and 400: stddev 200, score exactly 0.
	spread := []graph.Node{
		node("p1", entity.KindPuzzle, 0, 0),
		node("p2", entity.KindPuzzle, 0, 400),
	}
	if got := PuzzleAlignmentScore(spread); got != 0 {
		t.Errorf("spread score = %v, want 0", got)
	}

	one := []graph.Node{node("p1", entity.KindPuzzle, 0, 0)}
	if got := PuzzleAlignmentScore(one); got != 1 {
		t.Errorf("single puzzle score = %v, want 1", got)
	}
}

func TestEvaluateIgnoresVirtualEdges(t *testing.T) {
	nodes := []graph.Node{
		node("a", entity.KindPuzzle, 0, 0),
		node("b", entity.KindPuzzle, 100, 100),
		node("c", entity.KindPuzzle, 0, 100),
		node("d", entity.KindPuzzle, 100, 0),
	}
	edges := []graph.Edge{
		{ID: "1", Source: "a", Target: "b"},
		{ID: "2", Source: "c", Target: "d", Virtual: true},
	}
	m := Evaluate(nodes, edges)
	if m.Crossings != 0 {
		t.Errorf("Crossings = %d, virtual edge counted", m.Crossings)
	}
	if m.EdgeLengthSum != math.Hypot(100, 100) {
		t.Errorf("EdgeLengthSum = %v, virtual edge counted", m.EdgeLengthSum)
	}
}
