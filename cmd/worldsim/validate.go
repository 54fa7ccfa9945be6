package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"worldsim/internal/catalog"
	"worldsim/internal/effect"
	"worldsim/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the event catalog against the configured stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout())
		},
	}
	return cmd
}

func runValidate(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := catalog.Load(cfg.Resolve(cfg.Paths.Catalog), nil)
	if err != nil {
		return err
	}
	aggregates := make([]string, 0, len(cfg.Aggregates))
	for _, agg := range cfg.Aggregates {
		aggregates = append(aggregates, agg.Name)
	}

	report, err := validate.Run(c, effect.NewApplier(cfg.CustomStats, aggregates, nil))
	if err != nil {
		return err
	}

	errorIssues := report.Errors()
	warnIssues := report.Warnings()
	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintf(out, "No issues found in %d events.\n", c.Len())
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Event
		if issue.FilePath != "" {
			location = fmt.Sprintf("%s (%s)", location, issue.FilePath)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
