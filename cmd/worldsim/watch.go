package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"worldsim/internal/store"
	"worldsim/internal/transport/ws"
)

type watchOptions struct {
	addr     string
	resume   string
	autosave bool
	record   bool
}

func watchCmd() *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the simulation in real time and serve events over WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "Resume from a save file")
	cmd.Flags().BoolVar(&opts.autosave, "autosave", false, "Save to paths.save on shutdown")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Record resolved events in the configured store")
	return cmd
}

func runWatch(ctx context.Context, opts watchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := loadEngine(cfg, engineOptions{Resume: opts.resume, Realtime: true})
	if err != nil {
		return err
	}

	if opts.record {
		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
		e.scheduler.AddListener(store.NewRecorder(ctx, db, newRunID(), e.logger))
	}

	hub := ws.NewHub(e.runner, e.logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handle)
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: opts.addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	e.runner.Claim()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(e.runner.Run(ctx))
	})
	g.Go(func() error {
		e.logger.Info("watch listening", "addr", opts.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving %s: %w", opts.addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		e.runner.Stop()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.autosave {
		path, err := e.save("")
		if err != nil {
			return err
		}
		e.logger.Info("world saved", "path", path, "tick", e.world.CurrentTick())
	}
	return nil
}

func newRunID() string {
	return uuid.NewString()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
