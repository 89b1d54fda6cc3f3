package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Graph bundles the node and edge sets for serialization and transport.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// DropDangling removes edges whose source or target is not in the node set.
// Dangling edges are dropped silently; they are an expected artifact of
// user-maintained data and must never abort a layout.
func (g Graph) DropDangling() Graph {
	idx := NodeIndex(g.Nodes)
	kept := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := idx[e.Source]; !ok {
			continue
		}
		if _, ok := idx[e.Target]; !ok {
			continue
		}
		kept = append(kept, e)
	}
	return Graph{Nodes: g.Nodes, Edges: kept}
}

// Marshal serializes the graph as indented JSON.
func (g Graph) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}
	return data, nil
}

// Read decodes a graph from JSON.
func Read(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("decode graph: %w", err)
	}
	return g, nil
}

// ReadFile reads a JSON graph file.
func ReadFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes the graph to path as indented JSON.
func (g Graph) WriteFile(path string) error {
	data, err := g.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
