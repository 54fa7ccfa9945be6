package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"worldsim/internal/events"
	"worldsim/internal/persistence"
	"worldsim/internal/store"
)

const (
	policyFirst  = "first"
	policyRandom = "random"
)

type runOptions struct {
	ticks  int
	policy string
	resume string
	save   string
	slot   string
	record bool
}

func runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless, resolving events with a choice policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.policy != policyFirst && opts.policy != policyRandom {
				return fmt.Errorf("--policy must be %s or %s", policyFirst, policyRandom)
			}
			if opts.ticks < 0 {
				return fmt.Errorf("--ticks must not be negative")
			}
			return runRun(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.ticks, "ticks", 100, "Number of ticks to simulate")
	cmd.Flags().StringVar(&opts.policy, "policy", policyFirst, "Choice policy: first or random")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "Resume from a save file")
	cmd.Flags().StringVar(&opts.save, "save", "", "Write the final world to this save file")
	cmd.Flags().StringVar(&opts.slot, "slot", "", "Also save the final world into this store slot")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Record resolved events in the configured store")
	return cmd
}

func runRun(ctx context.Context, out io.Writer, opts runOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := loadEngine(cfg, engineOptions{Resume: opts.resume})
	if err != nil {
		return err
	}

	runID := newRunID()
	var db store.Store
	if opts.record || opts.slot != "" {
		db, err = openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(ctx)
	}
	if opts.record {
		e.scheduler.AddListener(store.NewRecorder(ctx, db, runID, e.logger))
	}

	var triggered, resolved int
	e.scheduler.AddListener(events.ListenerFuncs{
		OnTriggered: func(ev *events.ActiveEvent) {
			triggered++
			fmt.Fprintf(out, "tick %d  triggered %s (%s): %s\n", ev.Tick, ev.Definition.ID, ev.ID, ev.Title)
		},
		OnResolved: func(r events.Resolution) {
			resolved++
			fmt.Fprintf(out, "tick %d  resolved %s -> %q (%d effects)%s\n",
				r.Tick, r.Event.ID, r.Choice.ChoiceText, r.Applied, cascadeSuffix(r))
		},
	})

	for i := 0; i < opts.ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.runner.Step()
		if err := resolvePending(e, opts.policy); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "run %s: %d ticks, %d triggered, %d resolved\n", runID, opts.ticks, triggered, resolved)

	if opts.save != "" {
		path, err := e.save(opts.save)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s\n", path)
	}
	if opts.slot != "" {
		payload, err := persistence.Encode(persistence.Save(e.world, e.scheduler), false)
		if err != nil {
			return err
		}
		if err := db.SaveSnapshot(ctx, opts.slot, e.world.CurrentTick(), payload); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved slot %s\n", opts.slot)
	}
	return nil
}

// resolvePending resolves every active event, including those cascaded
// while resolving, until none remain.
func resolvePending(e *engine, policy string) error {
	for {
		active := e.scheduler.Active()
		if len(active) == 0 {
			return nil
		}
		for _, ev := range active {
			if _, err := e.resolver.Resolve(ev, pickChoice(e, ev, policy), e.world); err != nil {
				return err
			}
		}
	}
}

func pickChoice(e *engine, ev *events.ActiveEvent, policy string) int {
	n := len(ev.Definition.Choices)
	if policy != policyRandom || n < 2 {
		return 0
	}
	return e.world.Rand().IntN(n)
}

func cascadeSuffix(r events.Resolution) string {
	var parts []string
	if len(r.Cascaded) > 0 {
		ids := make([]string, len(r.Cascaded))
		for i, ev := range r.Cascaded {
			ids[i] = ev.Definition.ID
		}
		parts = append(parts, "cascaded "+strings.Join(ids, ", "))
	}
	if len(r.Truncated) > 0 {
		parts = append(parts, "truncated "+strings.Join(r.Truncated, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, "; ") + "]"
}
