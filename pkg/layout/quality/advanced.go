package quality

import (
	"fmt"
	"math"
	"sort"

	"github.com/storyloom/storyflow/pkg/graph"
)

// Pattern is a coarse classification of a layout's shape.
type Pattern string

// Detected layout patterns.
const (
	PatternHierarchical  Pattern = "hierarchical"
	PatternCircular      Pattern = "circular"
	PatternGrid          Pattern = "grid"
	PatternClustered     Pattern = "clustered"
	PatternForceDirected Pattern = "force-directed"
)

// Advanced extends Metrics with the scores that feed pattern detection and
// improvement suggestions.
type Advanced struct {
	Metrics

	// Stress is the mean squared relative deviation of edge lengths from
	// the ideal (mean) length. 0 is uniform.
	Stress float64 `json:"stress"`
	// AngularResolution averages, per node, how evenly incident edges
	// spread around it. 1 is even, 0 is degenerate.
	AngularResolution float64 `json:"angular_resolution"`
	// Symmetry scores mirror balance across the layout's vertical axis.
	Symmetry float64 `json:"symmetry"`
	// Orthogonality scores how close edges run to axis-aligned.
	Orthogonality float64 `json:"orthogonality"`
	// Pattern is the detected layout shape.
	Pattern Pattern `json:"pattern"`
}

// EvaluateAdvanced computes the advanced metrics snapshot.
func EvaluateAdvanced(nodes []graph.Node, edges []graph.Edge) Advanced {
	visible := graph.VisibleEdges(edges)
	a := Advanced{Metrics: Evaluate(nodes, edges)}
	a.Stress = stress(nodes, visible, a.EdgeLengthMean)
	a.AngularResolution = angularResolution(nodes, visible)
	a.Symmetry = symmetry(nodes)
	a.Orthogonality = orthogonality(nodes, visible)
	a.Pattern = detectPattern(nodes, visible, a)
	return a
}

func stress(nodes []graph.Node, edges []graph.Edge, ideal float64) float64 {
	if ideal <= 0 || len(edges) == 0 {
		return 0
	}
	idx := graph.NodeIndex(nodes)
	total, count := 0.0, 0
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
		d := (math.Hypot(b.x-a.x, b.y-a.y) - ideal) / ideal
		total += d * d
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func angularResolution(nodes []graph.Node, edges []graph.Edge) float64 {
	idx := graph.NodeIndex(nodes)
	incident := make(map[string][]float64)
	record := func(from, to string) {
		fi, ok := idx[from]
		if !ok {
			return
		}
		ti, ok := idx[to]
		if !ok {
			return
		}
		a, b := center(nodes[fi]), center(nodes[ti])
		incident[from] = append(incident[from], math.Atan2(b.y-a.y, b.x-a.x))
	}
	for _, e := range edges {
		record(e.Source, e.Target)
		record(e.Target, e.Source)
	}

	total, count := 0.0, 0
	for _, angles := range incident {
		if len(angles) < 2 {
			continue
		}
		sort.Float64s(angles)
		min := 2*math.Pi - (angles[len(angles)-1] - angles[0])
		for i := 1; i < len(angles); i++ {
			if gap := angles[i] - angles[i-1]; gap < min {
				min = gap
			}
		}
		even := 2 * math.Pi / float64(len(angles))
		total += min / even
		count++
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

// symmetry reflects every node across the vertical axis through the layout
// centroid and scores how close the reflection lands to a real node.
func symmetry(nodes []graph.Node) float64 {
	if len(nodes) < 2 {
		return 1
	}
	cx := 0.0
	for _, n := range nodes {
		cx += n.CenterX()
	}
	cx /= float64(len(nodes))

	total := 0.0
	for _, n := range nodes {
		mx, my := 2*cx-n.CenterX(), n.CenterY()
		best := math.Inf(1)
		for _, m := range nodes {
			d := math.Hypot(m.CenterX()-mx, m.CenterY()-my)
			if d < best {
				best = d
			}
		}
		total += math.Max(0, 1-best/100)
	}
	return total / float64(len(nodes))
}

func orthogonality(nodes []graph.Node, edges []graph.Edge) float64 {
	idx := graph.NodeIndex(nodes)
	total, count := 0.0, 0
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
		if a == b {
			continue
		}
		angle := math.Mod(math.Abs(math.Atan2(b.y-a.y, b.x-a.x)), math.Pi/2)
		deviation := math.Min(angle, math.Pi/2-angle)
		total += 1 - deviation/(math.Pi/4)
		count++
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

// detectPattern classifies the layout shape with cheap geometric
// heuristics, checked from most to least specific.
func detectPattern(nodes []graph.Node, edges []graph.Edge, a Advanced) Pattern {
	if len(nodes) < 3 {
		return PatternHierarchical
	}
	if isCircular(nodes) {
		return PatternCircular
	}
	cols, rows := quantizedAxes(nodes)
	if cols >= 3 && leftToRightShare(nodes, edges) >= 0.8 {
		return PatternHierarchical
	}
	if cols > 1 && rows > 1 && cols*rows >= len(nodes) && a.Orthogonality > 0.7 {
		return PatternGrid
	}
	if isClustered(nodes) {
		return PatternClustered
	}
	return PatternForceDirected
}

func isCircular(nodes []graph.Node) bool {
	cx, cy := 0.0, 0.0
	for _, n := range nodes {
		cx += n.CenterX()
		cy += n.CenterY()
	}
	cx /= float64(len(nodes))
	cy /= float64(len(nodes))

	radii := make([]float64, 0, len(nodes))
	mean := 0.0
	for _, n := range nodes {
		r := math.Hypot(n.CenterX()-cx, n.CenterY()-cy)
		radii = append(radii, r)
		mean += r
	}
	mean /= float64(len(radii))
	if mean == 0 {
		return false
	}
	variance := 0.0
	for _, r := range radii {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(radii))
	return math.Sqrt(variance)/mean < 0.15
}

// quantizedAxes counts distinct node positions per axis at a coarse grid
// resolution.
func quantizedAxes(nodes []graph.Node) (cols, rows int) {
	const grid = 100.0
	xs := make(map[int]bool)
	ys := make(map[int]bool)
	for _, n := range nodes {
		xs[int(math.Round(n.CenterX()/grid))] = true
		ys[int(math.Round(n.CenterY()/grid))] = true
	}
	return len(xs), len(ys)
}

func leftToRightShare(nodes []graph.Node, edges []graph.Edge) float64 {
	if len(edges) == 0 {
		return 0
	}
	idx := graph.NodeIndex(nodes)
	forward, count := 0, 0
	for _, e := range edges {
		si, ok := idx[e.Source]
		if !ok {
			continue
		}
		ti, ok := idx[e.Target]
		if !ok {
			continue
		}
		count++
		if nodes[ti].CenterX() > nodes[si].CenterX() {
			forward++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(forward) / float64(count)
}

// isClustered compares the average nearest-neighbor distance to the
// average pairwise distance; tight local packing with large global spread
// reads as clusters.
func isClustered(nodes []graph.Node) bool {
	if len(nodes) < 4 {
		return false
	}
	nearestSum, pairSum := 0.0, 0.0
	pairs := 0
	for i := range nodes {
		best := math.Inf(1)
		for j := range nodes {
			if i == j {
				continue
			}
			d := math.Hypot(
				nodes[j].CenterX()-nodes[i].CenterX(),
				nodes[j].CenterY()-nodes[i].CenterY(),
			)
			if d < best {
				best = d
			}
			if j > i {
				pairSum += d
				pairs++
			}
		}
		nearestSum += best
	}
	avgNearest := nearestSum / float64(len(nodes))
	avgPair := pairSum / float64(pairs)
	return avgPair > 0 && avgNearest/avgPair < 0.3
}

// Priority ranks a suggestion.
type Priority string

// Suggestion priorities, most urgent first.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Suggestion is one advisory improvement for a layout.
type Suggestion struct {
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// Suggest derives improvement suggestions from an advanced snapshot.
// algorithm is the identifier of the algorithm that produced the layout;
// a mismatch with the detected pattern yields a medium suggestion.
func Suggest(a Advanced, algorithm string, edgeCount int) []Suggestion {
	var out []Suggestion
	if a.Overlaps > 0 {
		out = append(out, Suggestion{
			Priority: PriorityCritical,
			Message:  fmt.Sprintf("%d overlapping node pairs; increase node separation or enable clustering", a.Overlaps),
		})
	}
	if edgeCount > 0 && a.Crossings > edgeCount {
		out = append(out, Suggestion{
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("%d edge crossings exceed edge count %d; try the hierarchical algorithm", a.Crossings, edgeCount),
		})
	}
	if a.AspectRatio > 3 || (a.AspectRatio > 0 && a.AspectRatio < 1.0/3) {
		out = append(out, Suggestion{
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("aspect ratio %.2f is extreme; adjust rank or node separation", a.AspectRatio),
		})
	}
	if algorithm != "" && string(a.Pattern) != algorithm && a.Pattern != PatternForceDirected {
		out = append(out, Suggestion{
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("layout reads as %s but was produced by %s; consider switching", a.Pattern, algorithm),
		})
	}
	if a.EdgeLengthMean > 0 && math.Sqrt(a.EdgeLengthVariance)/a.EdgeLengthMean > 0.5 {
		out = append(out, Suggestion{
			Priority: PriorityLow,
			Message:  "edge lengths are highly non-uniform; consider adaptive spacing",
		})
	}
	return out
}
