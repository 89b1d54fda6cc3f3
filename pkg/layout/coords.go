package layout

import (
	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/graph"
)

// adapt scales the separations by observed density. Designs with many
// elements per puzzle need wider columns so edge fans stay readable; dense
// ranks get tighter vertical packing so the canvas stays bounded. The
// thresholds are tunable defaults, not invariants.
func (o Options) adapt(nodes []graph.Node, edges []graph.Edge, columns []column) (rankSep, nodeSep float64) {
	rankSep, nodeSep = o.RankSep, o.NodeSep

	puzzles := 0
	for _, n := range nodes {
		if n.Kind == entity.KindPuzzle {
			puzzles++
		}
	}
	connections := 0
	for _, e := range edges {
		if e.Kind == graph.EdgeRequirement || e.Kind == graph.EdgeReward {
			connections++
		}
	}
	if puzzles > 0 {
		epp := float64(connections) / float64(puzzles)
		if epp > o.ElementsPerPuzzle {
			rankSep *= 1 + 0.1*(epp-o.ElementsPerPuzzle)
			if rankSep > o.RankSepCap {
				rankSep = o.RankSepCap
			}
		}
	}

	if len(columns) > 0 {
		density := float64(len(nodes)) / float64(len(columns))
		if density > o.DensityThreshold {
			nodeSep *= o.DensityThreshold / density
			if nodeSep < o.NodeSepFloor {
				nodeSep = o.NodeSepFloor
			}
		}
	}
	return rankSep, nodeSep
}

// assignCoordinates turns ranks and in-column orders into pixel positions.
//
// Columns are placed left to right, each as wide as its widest node.
// Within a column, nodes stack top to bottom in crossing-minimized order,
// then two damped alignment passes pull each node toward the weighted
// median of its neighbors, preserving in-column order and separation.
func assignCoordinates(nodes []graph.Node, columns []column, edges []graph.Edge, align string, rankSep, nodeSep float64) {
	idx := graph.NodeIndex(nodes)

	// Horizontal placement.
	x := 0.0
	colHeights := make([]float64, len(columns))
	maxHeight := 0.0
	for ci, col := range columns {
		width := 0.0
		height := -nodeSep
		for _, id := range col.ids {
			n := nodes[idx[id]]
			if n.Width > width {
				width = n.Width
			}
			height += n.Height + nodeSep
		}
		for _, id := range col.ids {
			n := &nodes[idx[id]]
			n.X = x
			if align == AlignCenter {
				n.X = x + (width-n.Width)/2
			}
		}
		colHeights[ci] = height
		if height > maxHeight {
			maxHeight = height
		}
		x += width + rankSep
	}

	// Initial vertical stacking.
	for ci, col := range columns {
		y := 0.0
		if align == AlignCenter {
			y = (maxHeight - colHeights[ci]) / 2
		}
		for _, id := range col.ids {
			n := &nodes[idx[id]]
			n.Y = y
			y += n.Height + nodeSep
		}
	}

	neighbors := make(map[string][]graph.Edge)
	for _, e := range edges {
		neighbors[e.Source] = append(neighbors[e.Source], e)
		neighbors[e.Target] = append(neighbors[e.Target], e)
	}

	// Damped alignment: forward pass against the left neighbor column,
	// backward pass against the right, weaker, like a relaxation step.
	alignPass(nodes, columns, idx, neighbors, nodeSep, true, 0.5)
	alignPass(nodes, columns, idx, neighbors, nodeSep, false, 0.3)
}

func alignPass(nodes []graph.Node, columns []column, idx map[string]int, neighbors map[string][]graph.Edge, nodeSep float64, forward bool, damping float64) {
	steps := make([]int, 0, len(columns))
	if forward {
		for i := 1; i < len(columns); i++ {
			steps = append(steps, i)
		}
	} else {
		for i := len(columns) - 2; i >= 0; i-- {
			steps = append(steps, i)
		}
	}

	for _, ci := range steps {
		fixed := ci - 1
		if !forward {
			fixed = ci + 1
		}
		inFixed := make(map[string]bool, len(columns[fixed].ids))
		for _, id := range columns[fixed].ids {
			inFixed[id] = true
		}

		for _, id := range columns[ci].ids {
			n := &nodes[idx[id]]
			sum, weight := 0.0, 0.0
			for _, e := range neighbors[id] {
				other := e.Source
				if other == id {
					other = e.Target
				}
				if !inFixed[other] {
					continue
				}
				sum += nodes[idx[other]].CenterY() * e.Weight
				weight += e.Weight
			}
			if weight == 0 {
				continue
			}
			desired := sum/weight - n.Height/2
			n.Y += (desired - n.Y) * damping
		}
		restackColumn(nodes, columns[ci], idx, nodeSep)
	}
}

// restackColumn re-establishes minimum separation after an alignment pass,
// keeping the crossing-minimized in-column order intact.
func restackColumn(nodes []graph.Node, col column, idx map[string]int, nodeSep float64) {
	prevBottom := 0.0
	for i, id := range col.ids {
		n := &nodes[idx[id]]
		if i > 0 && n.Y < prevBottom+nodeSep {
			n.Y = prevBottom + nodeSep
		}
		prevBottom = n.Y + n.Height
	}
}
