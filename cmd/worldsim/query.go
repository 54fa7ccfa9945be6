package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query run history and save slots in the configured store",
	}
	cmd.AddCommand(queryHistoryCmd())
	cmd.AddCommand(querySnapshotsCmd())
	cmd.AddCommand(querySQLCmd())
	return cmd
}

func queryHistoryCmd() *cobra.Command {
	var runID string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List resolved events, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryHistory(cmd.Context(), cmd.OutOrStdout(), runID, limit)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id to filter")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records, 0 for all")
	return cmd
}

func runQueryHistory(ctx context.Context, out io.Writer, runID string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	records, err := db.ListHistory(ctx, runID, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No history found.")
		return nil
	}
	for _, rec := range records {
		line := fmt.Sprintf("%s tick %d  %s (%s) -> [%d] %s", shortID(rec.RunID), rec.Tick, rec.EventID, rec.InstanceID, rec.ChoiceIndex, rec.ChoiceText)
		if len(rec.Cascaded) > 0 {
			line += "  cascaded: " + strings.Join(rec.Cascaded, ", ")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func querySnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List save slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySnapshots(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runQuerySnapshots(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	slots, err := db.ListSnapshots(ctx)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		fmt.Fprintln(out, "No snapshots found.")
		return nil
	}
	for _, slot := range slots {
		fmt.Fprintf(out, "%s  tick %d  %d bytes  %s\n", slot.Slot, slot.Tick, slot.Size, slot.SavedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
