package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"worldsim/internal/events"
)

type triggerOptions struct {
	event  string
	force  bool
	choice int
	resume string
	save   string
}

func triggerCmd() *cobra.Command {
	var opts triggerOptions
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Force one event to trigger and optionally resolve it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.event, "event", "", "Trigger this event id instead of a random eligible one")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Trigger --event even when its conditions do not hold")
	cmd.Flags().IntVar(&opts.choice, "choice", -1, "Resolve the event with this choice index")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "Resume from a save file")
	cmd.Flags().StringVar(&opts.save, "save", "", "Write the world to this save file afterwards")
	return cmd
}

func runTrigger(ctx context.Context, out io.Writer, opts triggerOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := loadEngine(cfg, engineOptions{Resume: opts.resume})
	if err != nil {
		return err
	}

	var ev *events.ActiveEvent
	if opts.event != "" {
		def, ok := e.catalog.FindByID(opts.event)
		if !ok {
			return fmt.Errorf("unknown event: %s", opts.event)
		}
		if !opts.force && !e.scheduler.Evaluator().IsMet(def.Conditions, e.world) {
			return fmt.Errorf("conditions for %s do not hold (use --force)", opts.event)
		}
		ev = e.scheduler.Trigger(def, nil, e.world)
	} else {
		ev = e.scheduler.ForceTick(e.world)
	}
	if ev == nil {
		fmt.Fprintln(out, "No eligible events.")
		return nil
	}

	printEvent(out, ev)

	if opts.choice >= 0 {
		res, err := e.resolver.Resolve(ev, opts.choice, e.world)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nResolved with %q: %d effects applied%s\n", res.Choice.ChoiceText, res.Applied, cascadeSuffix(res))
		for _, next := range res.Cascaded {
			fmt.Fprintln(out)
			printEvent(out, next)
		}
	}

	if opts.save != "" {
		path, err := e.save(opts.save)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s\n", path)
	}
	return nil
}

func printEvent(out io.Writer, ev *events.ActiveEvent) {
	fmt.Fprintf(out, "%s (%s, %s)\n", ev.Title, ev.Definition.ID, ev.ID)
	if ev.Description != "" {
		fmt.Fprintf(out, "  %s\n", ev.Description)
	}
	for i, choice := range ev.Definition.Choices {
		fmt.Fprintf(out, "  [%d] %s\n", i, choice.ChoiceText)
	}
}
