// Package quality computes objective metrics over a finished layout.
//
// Everything here is a pure function over (nodes, edges): metrics are
// recomputed from scratch each call and never mutated. Scores are advisory;
// they feed comparisons, pattern detection, and improvement suggestions,
// never layout decisions mid-run.
package quality

import (
	"math"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/graph"
)

// Scoring constants. Distances are canvas pixels.
const (
	// overlapThreshold is the center distance, per axis, under which two
	// nodes count as overlapping.
	overlapThreshold = 50.0
	// clusteringRange is the distance at which an element's proximity
	// score to its nearest connected puzzle reaches zero.
	clusteringRange = 500.0
	// alignmentRange is the puzzle-Y standard deviation at which the
	// alignment score reaches zero.
	alignmentRange = 200.0
)

// Metrics is a snapshot of layout quality. A zero Metrics is the score of
// an empty layout.
type Metrics struct {
	Crossings int `json:"crossings"`
	Overlaps  int `json:"overlaps"`

	EdgeLengthSum      float64 `json:"edge_length_sum"`
	EdgeLengthMean     float64 `json:"edge_length_mean"`
	EdgeLengthVariance float64 `json:"edge_length_variance"`

	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Density     float64 `json:"density"`

	// ElementClustering averages, over elements, how close each sits to
	// its nearest connected puzzle. 1 is touching, 0 is past range.
	ElementClustering float64 `json:"element_clustering"`
	// PuzzleAlignment rewards puzzles sharing a horizontal band.
	PuzzleAlignment float64 `json:"puzzle_alignment"`
}

// Evaluate computes the full metrics snapshot for a layout. Virtual edges
// are excluded: they are invisible and their geometry is meaningless.
func Evaluate(nodes []graph.Node, edges []graph.Edge) Metrics {
	visible := graph.VisibleEdges(edges)
	var m Metrics
	m.Crossings = CountCrossings(nodes, visible)
	m.Overlaps = CountOverlaps(nodes)
	m.EdgeLengthSum, m.EdgeLengthMean, m.EdgeLengthVariance = edgeLengthStats(nodes, visible)
	m.Width, m.Height, m.AspectRatio, m.Density = boundingBox(nodes)
	m.ElementClustering = ElementClusteringScore(nodes, visible)
	m.PuzzleAlignment = PuzzleAlignmentScore(nodes)
	return m
}

type point struct{ x, y float64 }

func center(n graph.Node) point {
	return point{x: n.CenterX(), y: n.CenterY()}
}

// CountCrossings counts intersecting edge pairs with a pairwise segment
// test over node-center to node-center segments. O(E²); fine at editor
// scale. Edge pairs sharing an endpoint never count.
func CountCrossings(nodes []graph.Node, edges []graph.Edge) int {
	idx := graph.NodeIndex(nodes)
	type segment struct {
		a, b   point
		s, t   string
	}
	segments := make([]segment, 0, len(edges))
	for _, e := range edges {
		si, ok := idx[e.Source]
		if !ok {
			continue
		}
		ti, ok := idx[e.Target]
		if !ok {
			continue
		}
		segments = append(segments, segment{
			a: center(nodes[si]), b: center(nodes[ti]),
			s: e.Source, t: e.Target,
		})
	}

	crossings := 0
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			p, q := segments[i], segments[j]
			if p.s == q.s || p.s == q.t || p.t == q.s || p.t == q.t {
				continue
			}
			if segmentsIntersect(p.a, p.b, q.a, q.b) {
				crossings++
			}
		}
	}
	return crossings
}

// segmentsIntersect reports proper intersection of segments ab and cd
// using orientation tests.
func segmentsIntersect(a, b, c, d point) bool {
	o1 := orientation(a, b, c)
	o2 := orientation(a, b, d)
	o3 := orientation(c, d, a)
	o4 := orientation(c, d, b)
	return o1 != o2 && o3 != o4 && o1 != 0 && o2 != 0 && o3 != 0 && o4 != 0
}

func orientation(a, b, c point) int {
	v := (b.y-a.y)*(c.x-b.x) - (b.x-a.x)*(c.y-b.y)
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// CountOverlaps counts node pairs whose centers sit within the overlap
// threshold on both axes.
func CountOverlaps(nodes []graph.Node) int {
	overlaps := 0
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			dx := math.Abs(nodes[i].CenterX() - nodes[j].CenterX())
			dy := math.Abs(nodes[i].CenterY() - nodes[j].CenterY())
			if dx < overlapThreshold && dy < overlapThreshold {
				overlaps++
			}
		}
	}
	return overlaps
}

func edgeLengthStats(nodes []graph.Node, edges []graph.Edge) (sum, mean, variance float64) {
	idx := graph.NodeIndex(nodes)
	lengths := make([]float64, 0, len(edges))
	for _, e := range edges {
		si, ok := idx[e.Source]
		if !ok {
			continue
		}
		ti, ok := idx[e.Target]
		if !ok {
			continue
		}
		a, b := center(nodes[si]), center(nodes[ti])
		l := math.Hypot(b.x-a.x, b.y-a.y)
		lengths = append(lengths, l)
		sum += l
	}
	if len(lengths) == 0 {
		return 0, 0, 0
	}
	mean = sum / float64(len(lengths))
	for _, l := range lengths {
		d := l - mean
		variance += d * d
	}
	variance /= float64(len(lengths))
	return sum, mean, variance
}

// boundingBox returns the layout extent. Empty and single-node layouts
// report aspect ratio 1 so downstream comparisons never divide by zero.
func boundingBox(nodes []graph.Node) (width, height, aspect, density float64) {
	if len(nodes) < 2 {
		return 0, 0, 1, 0
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	area := 0.0
	for _, n := range nodes {
		minX = math.Min(minX, n.X)
		minY = math.Min(minY, n.Y)
		maxX = math.Max(maxX, n.X+n.Width)
		maxY = math.Max(maxY, n.Y+n.Height)
		area += n.Width * n.Height
	}
	width, height = maxX-minX, maxY-minY
	aspect = 1
	if height > 0 {
		aspect = width / height
	}
	if box := width * height; box > 0 {
		density = area / box
	}
	return width, height, aspect, density
}

// ElementClusteringScore averages max(0, 1 − d/range) over elements, where
// d is the center distance to the nearest connected puzzle. Elements with
// no puzzle connection are skipped; a layout with no scorable elements
// scores zero.
func ElementClusteringScore(nodes []graph.Node, edges []graph.Edge) float64 {
	idx := graph.NodeIndex(nodes)
	nearest := make(map[string]float64)
	consider := func(elID, pzID string) {
		ei, ok := idx[elID]
		if !ok || nodes[ei].Kind != entity.KindElement {
			return
		}
		pi, ok := idx[pzID]
		if !ok || nodes[pi].Kind != entity.KindPuzzle {
			return
		}
		a, b := center(nodes[ei]), center(nodes[pi])
		d := math.Hypot(b.x-a.x, b.y-a.y)
		if prev, seen := nearest[elID]; !seen || d < prev {
			nearest[elID] = d
		}
	}
	for _, e := range edges {
		switch e.Kind {
		case graph.EdgeRequirement:
			consider(e.Source, e.Target)
		case graph.EdgeReward:
			consider(e.Target, e.Source)
		}
	}
	if len(nearest) == 0 {
		return 0
	}
	total := 0.0
	for _, d := range nearest {
		total += math.Max(0, 1-d/clusteringRange)
	}
	return total / float64(len(nearest))
}

// PuzzleAlignmentScore is max(0, 1 − stddev(puzzle center Y)/range).
// Fewer than two puzzles align perfectly.
func PuzzleAlignmentScore(nodes []graph.Node) float64 {
	var ys []float64
	for _, n := range nodes {
		if n.Kind == entity.KindPuzzle {
			ys = append(ys, n.CenterY())
		}
	}
	if len(ys) < 2 {
		return 1
	}
	mean := 0.0
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))
	variance := 0.0
	for _, y := range ys {
		d := y - mean
		variance += d * d
	}
	variance /= float64(len(ys))
	return math.Max(0, 1-math.Sqrt(variance)/alignmentRange)
}
