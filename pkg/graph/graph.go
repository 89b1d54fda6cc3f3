// Package graph defines the node and edge model the layout engine works on,
// the weighted edge builder that turns relationship records into styled
// edges, and the virtual-edge injector that biases hierarchical ranking.
//
// Nodes and edges are owned exclusively by one layout invocation: every
// build produces fresh values from an entity snapshot, nothing is shared or
// mutated across concurrent layout runs.
package graph

import (
	"fmt"

	"github.com/storyloom/storyflow/pkg/entity"
)

// EdgeKind classifies an edge. Real edges derive their kind from the
// relationship that produced them; synthesized edges use VirtualDependency
// or Grouping and carry Virtual=true.
type EdgeKind string

// Edge kinds.
const (
	EdgeRequirement       EdgeKind = "requirement"
	EdgeReward            EdgeKind = "reward"
	EdgeOwnership         EdgeKind = "ownership"
	EdgeTimeline          EdgeKind = "timeline"
	EdgeChain             EdgeKind = "chain"
	EdgeContainer         EdgeKind = "container"
	EdgeGrouping          EdgeKind = "grouping"
	EdgeVirtualDependency EdgeKind = "virtual-dependency"
)

// Node is a positioned graph vertex backed by one entity.
// ID and Kind are immutable for the node's lifetime within a layout pass;
// X and Y are written only by layout.
type Node struct {
	ID     string      `json:"id" bson:"id"`
	Kind   entity.Kind `json:"kind" bson:"kind"`
	Label  string      `json:"label,omitempty" bson:"label,omitempty"`
	Width  float64     `json:"width" bson:"width"`
	Height float64     `json:"height" bson:"height"`
	X      float64     `json:"x" bson:"x"`
	Y      float64     `json:"y" bson:"y"`
}

// CenterX returns the horizontal center of the node.
func (n Node) CenterX() float64 { return n.X + n.Width/2 }

// CenterY returns the vertical center of the node.
func (n Node) CenterY() float64 { return n.Y + n.Height/2 }

// Edge is a directed, weighted connection between two nodes.
//
// Weight expresses how strongly ranking should pull the endpoints together.
// MinRankGap is the minimum number of ranks the target must sit to the
// right of the source; gap zero means same-rank pull without ordering.
type Edge struct {
	ID         string   `json:"id" bson:"id"`
	Source     string   `json:"source" bson:"source"`
	Target     string   `json:"target" bson:"target"`
	Kind       EdgeKind `json:"kind" bson:"kind"`
	Weight     float64  `json:"weight" bson:"weight"`
	MinRankGap int      `json:"min_rank_gap" bson:"min_rank_gap"`
	Virtual    bool     `json:"virtual,omitempty" bson:"virtual,omitempty"`
	Label      string   `json:"label,omitempty" bson:"label,omitempty"`
}

// Default node sizes per entity kind, in canvas pixels. Puzzles are the
// visual anchors of the flow and render larger than the elements and
// characters orbiting them.
var defaultSizes = map[entity.Kind][2]float64{
	entity.KindCharacter: {160, 60},
	entity.KindElement:   {140, 50},
	entity.KindPuzzle:    {180, 80},
	entity.KindTimeline:  {150, 44},
}

// SizeFor returns the default width and height for an entity kind.
func SizeFor(k entity.Kind) (w, h float64) {
	if s, ok := defaultSizes[k]; ok {
		return s[0], s[1]
	}
	return 140, 50
}

// NewNode creates an unpositioned node for an entity, sized by kind.
func NewNode(e entity.Entity) Node {
	w, h := SizeFor(e.Kind)
	return Node{
		ID:     e.ID,
		Kind:   e.Kind,
		Label:  e.DisplayName(),
		Width:  w,
		Height: h,
	}
}

// NodesFrom creates one node per entity in the collection, sorted by ID.
func NodesFrom(c *entity.Collection) []Node {
	nodes := make([]Node, 0, c.Len())
	for _, e := range c.All() {
		nodes = append(nodes, NewNode(e))
	}
	return nodes
}

// EdgeID builds the canonical edge identifier for a (kind, source, target)
// triple. The builder dedupes on this key.
func EdgeID(kind EdgeKind, source, target string) string {
	return fmt.Sprintf("%s:%s->%s", kind, source, target)
}

// VisibleEdges returns the non-virtual subset of edges: the set handed to
// the rendering collaborator. Virtual edges participate in ranking only.
func VisibleEdges(edges []Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if !e.Virtual {
			out = append(out, e)
		}
	}
	return out
}

// NodeIndex builds an ID → index lookup for a node slice.
func NodeIndex(nodes []Node) map[string]int {
	m := make(map[string]int, len(nodes))
	for i, n := range nodes {
		m[n.ID] = i
	}
	return m
}
