package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout/quality"
)

// qualityCommand creates the quality command for scoring layouts.
func (c *CLI) qualityCommand() *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "quality [layout.json]",
		Short: "Score an existing layout",
		Long: `Score an existing layout.

Reads a layout file (produced by 'layout') and computes crossing counts,
overlap counts, edge length statistics, clustering and alignment scores,
and the detected layout pattern, along with improvement suggestions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuality(args[0], algorithm)
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "algorithm the layout was produced with (enables mismatch suggestions)")
	return cmd
}

func (c *CLI) runQuality(input, algorithm string) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	visible := graph.VisibleEdges(g.Edges)
	adv := quality.EvaluateAdvanced(g.Nodes, visible)
	suggestions := quality.Suggest(adv, algorithm, len(visible))

	printInfo("Quality for %s", input)
	printNewline()
	printKeyValue("crossings", fmt.Sprintf("%d", adv.Crossings))
	printKeyValue("overlaps", fmt.Sprintf("%d", adv.Overlaps))
	printKeyValue("edge length mean", fmt.Sprintf("%.1f", adv.EdgeLengthMean))
	printKeyValue("aspect ratio", fmt.Sprintf("%.2f", adv.AspectRatio))
	printKeyValue("element clustering", fmt.Sprintf("%.2f", adv.ElementClustering))
	printKeyValue("puzzle alignment", fmt.Sprintf("%.2f", adv.PuzzleAlignment))
	printKeyValue("stress", fmt.Sprintf("%.3f", adv.Stress))
	printKeyValue("symmetry", fmt.Sprintf("%.2f", adv.Symmetry))
	printKeyValue("orthogonality", fmt.Sprintf("%.2f", adv.Orthogonality))
	printKeyValue("pattern", string(adv.Pattern))

	if len(suggestions) > 0 {
		printNewline()
		for _, s := range suggestions {
			switch s.Priority {
			case quality.PriorityCritical, quality.PriorityHigh:
				printWarning("[%s] %s", s.Priority, s.Message)
			default:
				printDetail("[%s] %s", s.Priority, s.Message)
			}
		}
	} else {
		printNewline()
		printSuccess("No issues found")
	}
	return nil
}
