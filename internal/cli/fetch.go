package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/store"
)

// fetchCommand creates the fetch command for downloading snapshots from the
// snapshot store.
func (c *CLI) fetchCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch [name]",
		Short: "Download a snapshot from the snapshot store",
		Long: `Download a snapshot from the snapshot store.

Fetches the named entity snapshot from the configured MongoDB store and
writes it as a local JSON file. With no name, lists the stored snapshots
and lets you pick one interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return c.runFetch(cmd.Context(), name, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")
	return cmd
}

func (c *CLI) runFetch(ctx context.Context, name, output string) error {
	if c.Config.Store.URI == "" {
		return fmt.Errorf("no snapshot store configured (set store.uri in %s)", c.configPath)
	}

	st, err := store.NewMongoStore(ctx, c.Config.Store.URI, c.Config.Store.Database, c.Config.Store.Collection)
	if err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}
	defer st.Close(ctx)

	if name == "" {
		name, err = c.selectSnapshot(ctx, st)
		if err != nil {
			return err
		}
		if name == "" {
			printInfo("No snapshot selected")
			return nil
		}
	}

	p := newProgress(c.Logger)
	entities, err := st.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("fetch snapshot %s: %w", name, err)
	}
	p.done(fmt.Sprintf("Fetched %d entities", entities.Len()))

	outputPath := output
	if outputPath == "" {
		outputPath = name + ".json"
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	defer f.Close()
	if err := entity.WriteSnapshot(entities, f); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	printSuccess("Snapshot saved")
	printFile(outputPath)
	printNewline()
	printNextStep("Layout", appName+" layout "+outputPath)
	return nil
}

// selectSnapshot lists the stored snapshots and runs the interactive picker.
func (c *CLI) selectSnapshot(ctx context.Context, st store.Store) (string, error) {
	names, err := st.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list snapshots: %w", err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("the store has no snapshots")
	}

	model, err := tea.NewProgram(NewSnapshotListModel(names), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", fmt.Errorf("run selector: %w", err)
	}
	final, ok := model.(SnapshotListModel)
	if !ok {
		return "", nil
	}
	return final.Selected, nil
}
