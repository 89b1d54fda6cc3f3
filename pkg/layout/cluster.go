package layout

import (
	"maps"
	"math"
	"slices"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/graph"
)

// Occupancy buckets are keyed by a coarse x coordinate; nodes in the same
// bucket can collide vertically, nodes in different buckets cannot.
const occupancyBucketWidth = 150.0

type yRange struct {
	top, bottom float64
}

func (r yRange) overlaps(other yRange) bool {
	return r.top < other.bottom && other.top < r.bottom
}

// occupancyIndex tracks the vertical ranges already claimed per bucketed
// x coordinate.
type occupancyIndex struct {
	buckets map[int][]yRange
	margin  float64
}

func newOccupancyIndex(margin float64) *occupancyIndex {
	return &occupancyIndex{buckets: make(map[int][]yRange), margin: margin}
}

func bucketFor(x float64) int {
	return int(math.Floor(x / occupancyBucketWidth))
}

func (o *occupancyIndex) claim(n graph.Node) {
	b := bucketFor(n.CenterX())
	o.buckets[b] = append(o.buckets[b], yRange{top: n.Y, bottom: n.Y + n.Height})
}

func (o *occupancyIndex) free(x, top, height float64) bool {
	want := yRange{top: top - o.margin, bottom: top + height + o.margin}
	for _, r := range o.buckets[bucketFor(x)] {
		if want.overlaps(r) {
			return false
		}
	}
	return true
}

// place finds the collision-free top coordinate closest to desiredTop for a
// node of the given height at x. Candidates are the desired position itself
// plus the slots just above and just below every occupied range.
func (o *occupancyIndex) place(x, desiredTop, height float64) float64 {
	if o.free(x, desiredTop, height) {
		return desiredTop
	}
	best := desiredTop
	bestDist := math.Inf(1)
	for _, r := range o.buckets[bucketFor(x)] {
		for _, candidate := range []float64{
			r.top - o.margin - height,
			r.bottom + o.margin,
		} {
			if !o.free(x, candidate, height) {
				continue
			}
			if d := math.Abs(candidate - desiredTop); d < bestDist {
				best, bestDist = candidate, d
			}
		}
	}
	if math.IsInf(bestDist, 1) {
		return desiredTop
	}
	return best
}

// Cluster compresses each puzzle's connected elements toward the puzzle's
// vertical center by the compression factor. Placement is collision-aware:
// an occupancy index rejects positions that would overlap already-placed
// nodes, and the nearest free slot wins instead.
//
// The pass is deterministic and order-dependent: puzzle groups are visited
// in ascending puzzle center order, elements within a group in ascending
// current vertical position. The input slice is not mutated.
func Cluster(nodes []graph.Node, edges []graph.Edge, compression, nodeSep float64) []graph.Node {
	out := slices.Clone(nodes)
	if compression <= 0 || compression > 1 {
		return out
	}
	idx := graph.NodeIndex(out)

	// Elements follow their nearest connected puzzle.
	connected := make(map[string][]string)
	for _, e := range edges {
		switch e.Kind {
		case graph.EdgeRequirement:
			connected[e.Source] = append(connected[e.Source], e.Target)
		case graph.EdgeReward:
			connected[e.Target] = append(connected[e.Target], e.Source)
		}
	}

	groups := make(map[string][]string)
	moving := make(map[string]bool)
	for elID, puzzleIDs := range connected {
		ei, ok := idx[elID]
		if !ok || !isElement(out[ei]) {
			continue
		}
		nearest, nearestDist := "", math.Inf(1)
		for _, pID := range puzzleIDs {
			pi, ok := idx[pID]
			if !ok || out[pi].Kind != entity.KindPuzzle {
				continue
			}
			d := math.Abs(out[pi].CenterY() - out[ei].CenterY())
			if d < nearestDist || (d == nearestDist && pID < nearest) {
				nearest, nearestDist = pID, d
			}
		}
		if nearest == "" {
			continue
		}
		groups[nearest] = append(groups[nearest], elID)
		moving[elID] = true
	}
	if len(groups) == 0 {
		return out
	}

	// Everything that is not being moved claims its space up front.
	occ := newOccupancyIndex(nodeSep)
	for _, n := range out {
		if !moving[n.ID] {
			occ.claim(n)
		}
	}

	puzzleIDs := slices.Sorted(maps.Keys(groups))
	slices.SortStableFunc(puzzleIDs, func(a, b string) int {
		ca, cb := out[idx[a]].CenterY(), out[idx[b]].CenterY()
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})

	for _, pID := range puzzleIDs {
		center := out[idx[pID]].CenterY()
		elements := groups[pID]
		slices.SortFunc(elements, func(a, b string) int {
			ya, yb := out[idx[a]].Y, out[idx[b]].Y
			switch {
			case ya < yb:
				return -1
			case ya > yb:
				return 1
			case a < b:
				return -1
			case a > b:
				return 1
			}
			return 0
		})
		for _, elID := range elements {
			n := &out[idx[elID]]
			desiredCenter := n.CenterY() + (center-n.CenterY())*compression
			desiredTop := desiredCenter - n.Height/2
			n.Y = occ.place(n.X, desiredTop, n.Height)
			occ.claim(*n)
		}
	}
	return out
}
