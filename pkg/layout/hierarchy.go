package layout

import (
	"slices"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/graph"
)

// Hierarchical is the left-to-right ranked layout, the default algorithm
// for story-flow views.
type Hierarchical struct {
	Opts Options
}

// NewHierarchical creates a hierarchical layout with the given options;
// zero-valued separations fall back to defaults.
func NewHierarchical(opts Options) Hierarchical {
	def := DefaultOptions()
	if opts.RankSep <= 0 {
		opts.RankSep = def.RankSep
	}
	if opts.NodeSep <= 0 {
		opts.NodeSep = def.NodeSep
	}
	if opts.Compression <= 0 || opts.Compression > 1 {
		opts.Compression = def.Compression
	}
	if opts.ElementsPerPuzzle <= 0 {
		opts.ElementsPerPuzzle = def.ElementsPerPuzzle
	}
	if opts.RankSepCap <= 0 {
		opts.RankSepCap = def.RankSepCap
	}
	if opts.DensityThreshold <= 0 {
		opts.DensityThreshold = def.DensityThreshold
	}
	if opts.NodeSepFloor <= 0 {
		opts.NodeSepFloor = def.NodeSepFloor
	}
	return Hierarchical{Opts: opts}
}

// Name returns the algorithm identifier.
func (Hierarchical) Name() string { return "hierarchical" }

// Result is a finished layout: repositioned node copies plus the rank each
// node landed on. Ranks are fractional when fractional-rank mode is on.
type Result struct {
	Nodes []graph.Node
	Ranks map[string]float64
}

// Layout computes positions for the given nodes.
//
// The input slices are never mutated; the result holds fresh node values.
// If the ranking computation panics on a malformed graph, Layout recovers,
// logs the cause, and returns the input nodes unmodified: a layout failure
// must never take the caller down, only leave positions stale.
func (h Hierarchical) Layout(nodes []graph.Node, edges []graph.Edge) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			h.Opts.logger().Error("hierarchical layout failed, keeping input positions", "cause", r)
			res = Result{Nodes: slices.Clone(nodes)}
		}
	}()

	out := slices.Clone(nodes)
	if len(out) == 0 {
		return Result{Nodes: out, Ranks: map[string]float64{}}
	}

	edges = dropDangling(out, edges)
	ranks := assignRanks(out, edges)
	applyGroupingPull(ranks, edges)
	if h.Opts.FractionalRanks {
		applyFractionalRanks(ranks, edges)
	}

	columns := buildColumns(out, ranks)
	orderColumns(columns, out, edges, h.Opts.sweeps())

	rankSep, nodeSep := h.Opts.RankSep, h.Opts.NodeSep
	if h.Opts.AdaptiveSpacing {
		rankSep, nodeSep = h.Opts.adapt(out, edges, columns)
	}
	assignCoordinates(out, columns, edges, h.Opts.Align, rankSep, nodeSep)

	if h.Opts.Clustering {
		out = Cluster(out, edges, h.Opts.Compression, nodeSep)
	}
	return Result{Nodes: out, Ranks: ranks}
}

// dropDangling filters out edges whose endpoints are missing from the node
// set. Required before ranking; dangling edges never fail a layout.
func dropDangling(nodes []graph.Node, edges []graph.Edge) []graph.Edge {
	return graph.Graph{Nodes: nodes, Edges: edges}.DropDangling().Edges
}

// orderingEdges returns the edges that constrain rank order: those with a
// minimum rank gap of at least one. Grouping and timeline edges pull but do
// not order.
func orderingEdges(edges []graph.Edge) []graph.Edge {
	out := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		if e.MinRankGap >= 1 && e.Source != e.Target {
			out = append(out, e)
		}
	}
	return out
}

// breakCycles returns the ordering edges with back edges removed, using a
// white/gray/black depth-first traversal. Removal order is deterministic:
// roots are visited in sorted ID order.
func breakCycles(nodes []graph.Node, edges []graph.Edge) []graph.Edge {
	children := make(map[string][]graph.Edge)
	indeg := make(map[string]int)
	for _, e := range edges {
		children[e.Source] = append(children[e.Source], e)
		indeg[e.Target]++
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(nodes))
	back := make(map[string]bool)

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, e := range children[id] {
			switch color[e.Target] {
			case white:
				dfs(e.Target)
			case gray:
				back[e.ID] = true
			}
		}
		color[id] = black
	}

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if indeg[id] == 0 && color[id] == white {
			dfs(id)
		}
	}
	for _, id := range ids {
		if color[id] == white {
			dfs(id)
		}
	}

	if len(back) == 0 {
		return edges
	}
	kept := make([]graph.Edge, 0, len(edges)-len(back))
	for _, e := range edges {
		if !back[e.ID] {
			kept = append(kept, e)
		}
	}
	return kept
}

// assignRanks computes a rank per node with a gap-respecting longest-path
// pass (Kahn's algorithm): each node lands at the maximum over its parents
// of parent rank plus the edge's minimum rank gap. Sources sit at rank 0.
func assignRanks(nodes []graph.Node, edges []graph.Edge) map[string]float64 {
	ordering := breakCycles(nodes, orderingEdges(edges))

	children := make(map[string][]graph.Edge)
	indeg := make(map[string]int, len(nodes))
	ranks := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		indeg[n.ID] = 0
		ranks[n.ID] = 0
	}
	for _, e := range ordering {
		children[e.Source] = append(children[e.Source], e)
		indeg[e.Target]++
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	slices.Sort(queue)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, e := range children[curr] {
			if r := ranks[curr] + float64(e.MinRankGap); r > ranks[e.Target] {
				ranks[e.Target] = r
			}
			indeg[e.Target]--
			if indeg[e.Target] == 0 {
				queue = append(queue, e.Target)
			}
		}
	}
	return ranks
}

// applyGroupingPull tries to move grouping-edge endpoints onto the same
// rank. A move is taken only when it keeps every ordering constraint on the
// moved node satisfied. Edges are processed heaviest first, ID as
// tiebreak, so the result is deterministic.
func applyGroupingPull(ranks map[string]float64, edges []graph.Edge) {
	var grouping []graph.Edge
	in := make(map[string][]graph.Edge)
	out := make(map[string][]graph.Edge)
	for _, e := range edges {
		if e.Kind == graph.EdgeGrouping {
			grouping = append(grouping, e)
			continue
		}
		if e.MinRankGap < 1 {
			continue
		}
		in[e.Target] = append(in[e.Target], e)
		out[e.Source] = append(out[e.Source], e)
	}

	slices.SortFunc(grouping, func(a, b graph.Edge) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	// Bounds are evaluated against current ranks so earlier moves are
	// always respected.
	feasible := func(id string, r float64) bool {
		for _, e := range in[id] {
			if ranks[e.Source]+float64(e.MinRankGap) > r {
				return false
			}
		}
		for _, e := range out[id] {
			if r+float64(e.MinRankGap) > ranks[e.Target] {
				return false
			}
		}
		return true
	}

	for _, e := range grouping {
		rs, rt := ranks[e.Source], ranks[e.Target]
		if rs == rt {
			continue
		}
		switch {
		case feasible(e.Target, rs):
			ranks[e.Target] = rs
		case feasible(e.Source, rt):
			ranks[e.Source] = rt
		}
	}
}

// applyFractionalRanks places every dual-role element at the midpoint
// between its providers and consumers. With integer ranks and gap-one
// reward plus requirement edges, consumers sit at least two ranks right of
// providers, so the midpoint always lands strictly between them.
func applyFractionalRanks(ranks map[string]float64, edges []graph.Edge) {
	maxProvider := make(map[string]float64)
	minConsumer := make(map[string]float64)
	hasProvider := make(map[string]bool)
	hasConsumer := make(map[string]bool)

	for _, e := range edges {
		switch e.Kind {
		case graph.EdgeReward:
			el := e.Target
			if r := ranks[e.Source]; !hasProvider[el] || r > maxProvider[el] {
				maxProvider[el], hasProvider[el] = r, true
			}
		case graph.EdgeRequirement:
			el := e.Source
			if r := ranks[e.Target]; !hasConsumer[el] || r < minConsumer[el] {
				minConsumer[el], hasConsumer[el] = r, true
			}
		}
	}

	for el := range hasProvider {
		if !hasConsumer[el] {
			continue
		}
		p, c := maxProvider[el], minConsumer[el]
		if c-p < 2 {
			continue
		}
		mid := (p + c) / 2
		if mid < p+1 {
			mid = p + 1
		}
		if mid > c-1 {
			mid = c - 1
		}
		ranks[el] = mid
	}
}

// isElement reports whether a node is an element for clustering purposes.
func isElement(n graph.Node) bool { return n.Kind == entity.KindElement }
