package engine

import (
	"context"
	"math"
	"slices"

	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout"
)

// Force simulation tuning.
const (
	forceIterations     = 300
	forceIterationsFast = 100
	forceChunk          = 25
	forceArea           = 1200.0 * 900.0
	forceCooling        = 0.95
	forceMinMovement    = 0.5
)

// ForceDirected is a Fruchterman-Reingold style simulation. Nodes repel
// each other, edges attract proportionally to their weight, and the
// temperature cools every iteration.
//
// The simulation is deterministic: initial positions come from a circle in
// sorted ID order, no randomness anywhere. Optimized mode runs fewer
// iterations and stops early once movement settles, trading quality for
// speed on large graphs.
type ForceDirected struct {
	Opts      layout.Options
	Optimized bool
}

// Name returns the algorithm identifier.
func (f *ForceDirected) Name() string {
	if f.Optimized {
		return AlgoForceOptimized
	}
	return AlgoForce
}

// Layout runs the full simulation synchronously.
func (f *ForceDirected) Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge) ([]graph.Node, error) {
	return f.LayoutProgressive(ctx, nodes, edges, nil)
}

// LayoutProgressive runs the simulation in chunks. Between chunks it
// checks ctx and reports progress; cancellation is cooperative, a chunk in
// progress always finishes.
func (f *ForceDirected) LayoutProgressive(ctx context.Context, nodes []graph.Node, edges []graph.Edge, progress ProgressFunc) ([]graph.Node, error) {
	out := slices.Clone(nodes)
	if len(out) < 2 {
		return out, nil
	}
	edges = graph.Graph{Nodes: out, Edges: edges}.DropDangling().Edges
	idx := graph.NodeIndex(out)

	// Deterministic seeding on a circle, sorted ID order.
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
	seedRadius := 100 * math.Sqrt(float64(len(out)))
	for rank, i := range order {
		angle := 2 * math.Pi * float64(rank) / float64(len(out))
		out[i].X = seedRadius * math.Cos(angle)
		out[i].Y = seedRadius * math.Sin(angle)
	}

	iterations := forceIterations
	if f.Optimized {
		iterations = forceIterationsFast
	}
	total := (iterations + forceChunk - 1) / forceChunk
	k := math.Sqrt(forceArea / float64(len(out)))
	temperature := seedRadius / 2

	dx := make([]float64, len(out))
	dy := make([]float64, len(out))

	done := 0
	for start := 0; start < iterations; start += forceChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+forceChunk, iterations)
		settled := false
		for it := start; it < end; it++ {
			maxMove := f.step(out, edges, idx, dx, dy, k, temperature)
			temperature *= forceCooling
			if f.Optimized && maxMove < forceMinMovement {
				settled = true
				break
			}
		}
		done++
		if progress != nil {
			progress(done, total)
		}
		if settled {
			break
		}
	}
	translateToOrigin(out, f.Opts.NodeSep)
	return out, nil
}

// translateToOrigin shifts all nodes into the positive quadrant with the
// given margin, so renderers never see negative coordinates.
func translateToOrigin(nodes []graph.Node, margin float64) {
	if len(nodes) == 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	for _, n := range nodes {
		minX = math.Min(minX, n.X)
		minY = math.Min(minY, n.Y)
	}
	for i := range nodes {
		nodes[i].X += margin - minX
		nodes[i].Y += margin - minY
	}
}

// step runs one simulation iteration and returns the largest displacement.
func (f *ForceDirected) step(nodes []graph.Node, edges []graph.Edge, idx map[string]int, dx, dy []float64, k, temperature float64) float64 {
	for i := range dx {
		dx[i], dy[i] = 0, 0
	}

	// Repulsion between every pair.
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			ddx := nodes[i].CenterX() - nodes[j].CenterX()
			ddy := nodes[i].CenterY() - nodes[j].CenterY()
			dist := math.Hypot(ddx, ddy)
			if dist < 1 {
				// Coincident nodes push apart along a fixed axis.
				ddx, ddy, dist = 1, 0, 1
			}
			rep := k * k / dist
			dx[i] += ddx / dist * rep
			dy[i] += ddy / dist * rep
			dx[j] -= ddx / dist * rep
			dy[j] -= ddy / dist * rep
		}
	}

	// Attraction along edges, scaled by weight.
	for _, e := range edges {
		si, ti := idx[e.Source], idx[e.Target]
		ddx := nodes[ti].CenterX() - nodes[si].CenterX()
		ddy := nodes[ti].CenterY() - nodes[si].CenterY()
		dist := math.Hypot(ddx, ddy)
		if dist < 1 {
			continue
		}
		att := dist * dist / k * math.Max(e.Weight, 0.1)
		dx[si] += ddx / dist * att
		dy[si] += ddy / dist * att
		dx[ti] -= ddx / dist * att
		dy[ti] -= ddy / dist * att
	}

	maxMove := 0.0
	for i := range nodes {
		move := math.Hypot(dx[i], dy[i])
		if move == 0 {
			continue
		}
		capped := math.Min(move, temperature)
		nodes[i].X += dx[i] / move * capped
		nodes[i].Y += dy[i] / move * capped
		if capped > maxMove {
			maxMove = capped
		}
	}
	return maxMove
}
