package engine

import (
	"context"

	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout"
)

// Hierarchical adapts the ranked layout to the Algorithm interface. It is
// the default and the fallback for every other algorithm.
type Hierarchical struct {
	Opts layout.Options
}

// Name returns the algorithm identifier.
func (Hierarchical) Name() string { return AlgoHierarchical }

// Layout runs the hierarchical ranking layout. It never returns an error:
// ranking failures degrade to the input positions by design.
func (h Hierarchical) Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge) ([]graph.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := layout.NewHierarchical(h.Opts).Layout(nodes, edges)
	return res.Nodes, nil
}
