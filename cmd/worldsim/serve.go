package main

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"worldsim/internal/mcp"
	"worldsim/internal/store"
)

func serveCmd() *cobra.Command {
	var resume string
	var withStore bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), resume, withStore)
		},
	}
	cmd.Flags().StringVar(&resume, "resume", "", "Resume from a save file")
	cmd.Flags().BoolVar(&withStore, "store", false, "Open the configured store for save slots and history")
	return cmd
}

func runServe(ctx context.Context, resume string, withStore bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := loadEngine(cfg, engineOptions{Resume: resume})
	if err != nil {
		return err
	}

	opts := mcp.Options{SavePath: cfg.Resolve(cfg.Paths.Save), Logger: e.logger}
	if withStore {
		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
		opts.Store = db
		e.scheduler.AddListener(store.NewRecorder(ctx, db, newRunID(), e.logger))
	}
	server := mcp.NewServer(e.runner, opts, version)

	e.runner.Claim()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(e.runner.Run(ctx))
	})
	g.Go(func() error {
		defer e.runner.Stop()
		return ignoreCanceled(server.Run(ctx, &sdk.StdioTransport{}))
	})
	return g.Wait()
}
