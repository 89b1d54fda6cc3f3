package layout

import (
	"slices"

	"github.com/storyloom/storyflow/pkg/graph"
)

// column is one rank's worth of node IDs, ordered top to bottom.
type column struct {
	rank float64
	ids  []string
}

// buildColumns groups node IDs by rank value, columns sorted by ascending
// rank, IDs initially sorted for a deterministic starting order.
func buildColumns(nodes []graph.Node, ranks map[string]float64) []column {
	byRank := make(map[float64][]string)
	for _, n := range nodes {
		r := ranks[n.ID]
		byRank[r] = append(byRank[r], n.ID)
	}
	values := make([]float64, 0, len(byRank))
	for r := range byRank {
		values = append(values, r)
	}
	slices.Sort(values)

	columns := make([]column, 0, len(values))
	for _, r := range values {
		ids := byRank[r]
		slices.Sort(ids)
		columns = append(columns, column{rank: r, ids: ids})
	}
	return columns
}

// orderColumns reduces edge crossings with weighted barycenter sweeps:
// alternate forward and backward passes reorder each column by the average
// position of its neighbors in the fixed adjacent column, weighted by edge
// weight. Virtual edges participate, pulling grouped puzzles together.
func orderColumns(columns []column, nodes []graph.Node, edges []graph.Edge, sweeps int) {
	if len(columns) < 2 {
		return
	}
	neighbors := make(map[string][]graph.Edge)
	for _, e := range edges {
		neighbors[e.Source] = append(neighbors[e.Source], e)
		neighbors[e.Target] = append(neighbors[e.Target], e)
	}

	for s := 0; s < sweeps; s++ {
		if s%2 == 0 {
			for i := 1; i < len(columns); i++ {
				sortByBarycenter(&columns[i], columns[i-1], neighbors)
			}
		} else {
			for i := len(columns) - 2; i >= 0; i-- {
				sortByBarycenter(&columns[i], columns[i+1], neighbors)
			}
		}
	}
}

// sortByBarycenter reorders col by each node's weighted average position
// among its neighbors in the fixed column. Nodes without neighbors keep
// their relative position. The sort is stable so ties preserve order.
func sortByBarycenter(col *column, fixed column, neighbors map[string][]graph.Edge) {
	pos := make(map[string]float64, len(fixed.ids))
	for i, id := range fixed.ids {
		pos[id] = float64(i)
	}

	bary := make(map[string]float64, len(col.ids))
	for i, id := range col.ids {
		sum, weight := 0.0, 0.0
		for _, e := range neighbors[id] {
			other := e.Source
			if other == id {
				other = e.Target
			}
			if p, ok := pos[other]; ok {
				sum += p * e.Weight
				weight += e.Weight
			}
		}
		if weight > 0 {
			bary[id] = sum / weight
		} else {
			bary[id] = float64(i)
		}
	}

	slices.SortStableFunc(col.ids, func(a, b string) int {
		switch {
		case bary[a] < bary[b]:
			return -1
		case bary[a] > bary[b]:
			return 1
		}
		return 0
	})
}
