package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyflow/pkg/config"
	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/pipeline"
)

// layoutCommand creates the layout command for computing graph layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "layout [snapshot.json]",
		Short: "Compute a layout from an entity snapshot",
		Long: `Compute a layout from an entity snapshot.

The layout command takes a snapshot file (an array of characters, elements,
puzzles, and timeline events), synthesizes the relationship graph, and
computes node positions. The output is a layout.json file that can be
rendered with the 'render' command or scored with 'quality'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", opts.Algorithm, "layout algorithm: hierarchical (default), force, force-optimized, circular, grid, radial")
	cmd.Flags().StringVarP(&opts.ViewType, "view", "t", opts.ViewType, "view type: story-flow (default), relationship-web, timeline, character-map")
	cmd.Flags().Float64Var(&opts.RankSep, "rank-sep", opts.RankSep, "horizontal separation between ranks")
	cmd.Flags().Float64Var(&opts.NodeSep, "node-sep", opts.NodeSep, "vertical separation between nodes")
	cmd.Flags().BoolVar(&opts.FractionalRanks, "fractional-ranks", opts.FractionalRanks, "place dual-role elements between their puzzles")
	cmd.Flags().BoolVar(&opts.AdaptiveSpacing, "adaptive-spacing", opts.AdaptiveSpacing, "widen spacing on dense graphs")
	cmd.Flags().BoolVar(&opts.Clustering, "clustering", opts.Clustering, "pull elements toward their puzzles after layout")
	cmd.Flags().Float64Var(&opts.Compression, "compression", opts.Compression, "clustering compression factor (0-1)")
	cmd.Flags().BoolVar(&opts.InjectVirtual, "virtual-edges", opts.InjectVirtual, "inject virtual ordering edges")
	cmd.Flags().BoolVar(&opts.Evaluate, "evaluate", opts.Evaluate, "compute quality metrics")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the cache for this run")

	return cmd
}

// runLayout loads the snapshot, runs the pipeline, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	entities, err := entity.ReadSnapshotFile(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}

	// Config supplies tuning only where flags kept their defaults.
	applyConfigDefaults(&opts, c.Config)
	opts.Logger = c.Logger

	runner, backend, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer backend.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Algorithm))
	spinner.Start()

	result, err := runner.Execute(ctx, entities, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := writeResultFile(result, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete (%s)", result.Algorithm)
	printFile(outputPath)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)

	if !result.Diagnostics.Empty() {
		printNewline()
		for _, id := range result.Diagnostics.DeadEnds {
			printWarning("dead end: %s is rewarded but never required", id)
		}
		for _, id := range result.Diagnostics.Orphans {
			printWarning("orphan: %s is required but never rewarded", id)
		}
	}

	printNewline()
	printNextStep("Render", appName+" render "+outputPath)
	printNextStep("Score", appName+" quality "+outputPath)

	return nil
}

// applyConfigDefaults overrides option fields that still carry the built-in
// defaults with values from the config file. Explicit flags win over config.
func applyConfigDefaults(opts *pipeline.Options, cfg config.Config) {
	def := pipeline.DefaultOptions()
	if opts.RankSep == def.RankSep && cfg.Layout.RankSep > 0 {
		opts.RankSep = cfg.Layout.RankSep
	}
	if opts.NodeSep == def.NodeSep && cfg.Layout.NodeSep > 0 {
		opts.NodeSep = cfg.Layout.NodeSep
	}
	if opts.Compression == def.Compression && cfg.Layout.Compression > 0 && cfg.Layout.Compression <= 1 {
		opts.Compression = cfg.Layout.Compression
	}
}

// writeResultFile writes a pipeline result as indented JSON.
func writeResultFile(result *pipeline.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
