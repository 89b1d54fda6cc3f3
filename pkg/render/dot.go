// Package render turns positioned layouts into DOT, SVG, and PNG output.
//
// The layout engine has already decided every position, so the DOT output
// pins nodes with pos="x,y!" and rendering runs the neato engine with
// layouting disabled. Virtual edges never reach this package.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/graph"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes the entity kind and edge labels in the output.
	Detailed bool
}

// Node fill colors per entity kind.
var fillColors = map[entity.Kind]string{
	entity.KindCharacter: "#dbeafe",
	entity.KindElement:   "#dcfce7",
	entity.KindPuzzle:    "#fef3c7",
	entity.KindTimeline:  "#fae8ff",
}

// pointsPerPixel converts canvas pixels to DOT points (1pt = 1/72in at
// 96dpi canvas scale).
const pointsPerPixel = 72.0 / 96.0

// ToDOT converts a positioned graph to Graphviz DOT format. Positions are
// pinned, so the output renders identically to the computed layout.
func ToDOT(g graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph storyflow {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  edge [color=\"#64748b\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := nodeAttrs(n, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range graph.VisibleEdges(g.Edges) {
		if opts.Detailed && e.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, e.Label)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, detailed bool) []string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if detailed {
		label = fmt.Sprintf("%s\n(%s)", label, n.Kind)
	}
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		// DOT pos is the node center in points; the ! pins it.
		fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.CenterX()*pointsPerPixel, -n.CenterY()*pointsPerPixel),
		fmt.Sprintf("width=%.2f", n.Width/96),
		fmt.Sprintf("height=%.2f", n.Height/96),
	}
	if fill, ok := fillColors[n.Kind]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	} else {
		attrs = append(attrs, "fillcolor=white")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz. Positions in the
// DOT are pinned, so neato only draws.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
