package engine

import (
	"context"
	"math"
	"slices"

	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout"
)

// sortedCopy clones the nodes and returns the clone plus the indices in
// sorted ID order, the deterministic placement order for the geometric
// algorithms.
func sortedCopy(nodes []graph.Node) ([]graph.Node, []int) {
	out := slices.Clone(nodes)
	order := make([]int, len(out))
	for i := range out {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case out[a].ID < out[b].ID:
			return -1
		case out[a].ID > out[b].ID:
			return 1
		}
		return 0
	})
	return out, order
}

// Circular places nodes evenly on one circle, sized so neighbors keep node
// separation.
type Circular struct {
	Opts layout.Options
}

// Name returns the algorithm identifier.
func (Circular) Name() string { return AlgoCircular }

// Layout places the nodes on a circle in sorted ID order.
func (c Circular) Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge) ([]graph.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, order := sortedCopy(nodes)
	if len(out) < 2 {
		return out, nil
	}

	maxExtent, sep := 0.0, c.Opts.NodeSep
	for _, n := range out {
		maxExtent = math.Max(maxExtent, math.Max(n.Width, n.Height))
	}
	// Circumference must fit every node plus separation.
	radius := float64(len(out)) * (maxExtent + sep) / (2 * math.Pi)
	for rank, i := range order {
		angle := 2 * math.Pi * float64(rank) / float64(len(out))
		out[i].X = radius + radius*math.Cos(angle)
		out[i].Y = radius + radius*math.Sin(angle)
	}
	return out, nil
}

// Grid places nodes on a square grid, sorted by ID, rows filled left to
// right. The cheapest layout there is; the selector reaches for it on very
// large graphs.
type Grid struct {
	Opts layout.Options
}

// Name returns the algorithm identifier.
func (Grid) Name() string { return AlgoGrid }

// Layout places the nodes on a grid.
func (g Grid) Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge) ([]graph.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, order := sortedCopy(nodes)
	if len(out) == 0 {
		return out, nil
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(out)))))
	cellW, cellH := 0.0, 0.0
	for _, n := range out {
		cellW = math.Max(cellW, n.Width)
		cellH = math.Max(cellH, n.Height)
	}
	cellW += g.Opts.RankSep
	cellH += g.Opts.NodeSep
	for rank, i := range order {
		out[i].X = float64(rank%cols) * cellW
		out[i].Y = float64(rank/cols) * cellH
	}
	return out, nil
}

// Radial places a root at the center and the rest on rings by graph
// distance from it. The root is the highest-degree node, ID as tiebreak.
type Radial struct {
	Opts layout.Options
}

// Name returns the algorithm identifier.
func (Radial) Name() string { return AlgoRadial }

// Layout places the nodes on concentric rings.
func (r Radial) Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge) ([]graph.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, order := sortedCopy(nodes)
	if len(out) < 2 {
		return out, nil
	}
	edges = graph.Graph{Nodes: out, Edges: edges}.DropDangling().Edges

	adjacent := make(map[string][]string)
	degree := make(map[string]int)
	for _, e := range edges {
		adjacent[e.Source] = append(adjacent[e.Source], e.Target)
		adjacent[e.Target] = append(adjacent[e.Target], e.Source)
		degree[e.Source]++
		degree[e.Target]++
	}

	root := out[order[0]].ID
	for _, i := range order {
		if degree[out[i].ID] > degree[root] {
			root = out[i].ID
		}
	}

	// BFS depth per node; unreachable nodes land on the outermost ring.
	depth := map[string]int{root: 0}
	queue := []string{root}
	maxDepth := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		next := slices.Clone(adjacent[curr])
		slices.Sort(next)
		for _, n := range next {
			if _, seen := depth[n]; seen {
				continue
			}
			depth[n] = depth[curr] + 1
			maxDepth = max(maxDepth, depth[n])
			queue = append(queue, n)
		}
	}

	rings := make([][]int, maxDepth+2)
	for _, i := range order {
		d, seen := depth[out[i].ID]
		if !seen {
			d = maxDepth + 1
		}
		rings[d] = append(rings[d], i)
	}

	ringGap := r.Opts.RankSep + 80
	centerOffset := ringGap * float64(len(rings))
	for d, ring := range rings {
		radius := ringGap * float64(d)
		for pos, i := range ring {
			angle := 2 * math.Pi * float64(pos) / float64(max(len(ring), 1))
			out[i].X = centerOffset + radius*math.Cos(angle)
			out[i].Y = centerOffset + radius*math.Sin(angle)
		}
	}
	return out, nil
}
