package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyflow/internal/server"
	"github.com/storyloom/storyflow/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout HTTP API",
		Long: `Run the layout HTTP API.

Serves layout, quality, render, and snapshot endpoints under /v1. The
snapshot endpoints are enabled when a MongoDB store is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = c.Config.Server.Addr
	}

	runner, backend, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer backend.Close()

	var st store.Store
	if c.Config.Store.URI != "" {
		mongoStore, err := store.NewMongoStore(ctx, c.Config.Store.URI, c.Config.Store.Database, c.Config.Store.Collection)
		if err != nil {
			return fmt.Errorf("connect to store: %w", err)
		}
		defer mongoStore.Close(context.Background())
		st = mongoStore
	}

	srv := server.New(runner, st, c.Logger, addr)
	return srv.ListenAndServe(ctx)
}
