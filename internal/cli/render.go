package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple formats)
	formats  []string // output formats: "dot", "svg", "png"
	detailed bool     // include entity kinds and edge labels
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{"dot": true, "svg": true, "png": true}

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render a layout to DOT, SVG, or PNG",
		Long: `Render a layout to DOT, SVG, or PNG.

Reads a layout file (produced by 'layout') and renders the positioned graph.
Node positions are pinned, so the output matches the computed layout exactly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include entity kinds and edge labels")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'dot', 'svg', or 'png')", f)
		}
	}
	return nil
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	dot := render.ToDOT(g, render.Options{Detailed: opts.detailed})
	base := strings.TrimSuffix(input, filepath.Ext(input))

	for _, format := range opts.formats {
		outputPath := opts.output
		if outputPath == "" || len(opts.formats) > 1 {
			prefix := base
			if opts.output != "" {
				prefix = opts.output
			}
			outputPath = prefix + "." + format
		}

		var data []byte
		switch format {
		case "dot":
			data = []byte(dot)
		case "svg":
			data, err = render.RenderSVG(ctx, dot)
		case "png":
			data, err = render.RenderPNG(ctx, dot)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outputPath, err)
		}
		printFile(outputPath)
	}

	printSuccess("Rendered %d node(s)", len(g.Nodes))
	return nil
}
