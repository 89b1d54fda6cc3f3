package engine

import "github.com/storyloom/storyflow/pkg/graph"

// View type hints. Only ever used for algorithm selection and
// post-processing decisions, never inside the algorithms.
const (
	ViewStoryFlow    = "story-flow"
	ViewRelationship = "relationship-web"
	ViewTimeline     = "timeline"
	ViewCharacterMap = "character-map"
)

// Graph-size breakpoints for the selection heuristic. Small graphs get the
// highest-quality algorithm, very large ones the fastest.
const (
	smallGraph = 30
	largeGraph = 200
)

// Select picks an algorithm identifier for a graph and view type.
//
// View hints win. Without one: small graphs prefer layout quality, large
// graphs prefer speed, and graphs whose edges already express a hierarchy
// or clustering bias toward the matching algorithm.
func Select(nodes []graph.Node, edges []graph.Edge, viewType string) string {
	switch viewType {
	case ViewStoryFlow:
		return AlgoHierarchical
	case ViewRelationship:
		if len(nodes) > largeGraph {
			return AlgoForceOptimized
		}
		return AlgoForce
	case ViewTimeline:
		return AlgoGrid
	case ViewCharacterMap:
		return AlgoRadial
	}

	if len(nodes) <= smallGraph {
		return AlgoHierarchical
	}
	if hierarchyShare(edges) >= 0.6 {
		return AlgoHierarchical
	}
	if len(nodes) > largeGraph {
		return AlgoGrid
	}
	if groupingShare(edges) >= 0.3 {
		return AlgoForce
	}
	return AlgoForceOptimized
}

// hierarchyShare is the fraction of edges carrying an ordering constraint.
func hierarchyShare(edges []graph.Edge) float64 {
	if len(edges) == 0 {
		return 0
	}
	ordered := 0
	for _, e := range edges {
		if e.MinRankGap >= 1 {
			ordered++
		}
	}
	return float64(ordered) / float64(len(edges))
}

// groupingShare is the fraction of edges that only pull, not order.
func groupingShare(edges []graph.Edge) float64 {
	if len(edges) == 0 {
		return 0
	}
	grouping := 0
	for _, e := range edges {
		if e.Kind == graph.EdgeGrouping {
			grouping++
		}
	}
	return float64(grouping) / float64(len(edges))
}
