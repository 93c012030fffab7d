package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"flowmind/internal/config"
	"flowmind/internal/pipeline"
	"flowmind/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <transcript>",
		Short: "Run the pipeline on a transcript file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				runner := buildRunner(cfg, st, logger)
				summary, err := runner.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSummary(cmd, summary)
				return nil
			})
		},
	}
}

func printSummary(cmd *cobra.Command, summary pipeline.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:      %s\n", summary.SessionID)
	fmt.Fprintf(out, "Outcome:      %s\n", summary.Outcome)
	fmt.Fprintf(out, "Lines:        kept %d/%d (dropped %d small-talk)\n",
		summary.Filtering.Kept, summary.Filtering.Total, summary.Filtering.Dropped)
	fmt.Fprintf(out, "Requirements: %d", summary.Requirements)
	if summary.Duplicates > 0 {
		fmt.Fprintf(out, " (%d duplicates dropped)", summary.Duplicates)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Test cases:   %d", summary.TestCases)
	if summary.Shortfall > 0 || summary.FailedTestGens > 0 {
		fmt.Fprintf(out, " (shortfall %d, failed generations %d)", summary.Shortfall, summary.FailedTestGens)
	}
	fmt.Fprintln(out)
	if summary.FailedChunks > 0 {
		fmt.Fprintf(out, "Chunks:       %d failed extraction\n", summary.FailedChunks)
	}
	if summary.Sync != nil {
		fmt.Fprintf(out, "Sync:         %d stories, %d tasks, %d skipped, %d failed\n",
			summary.Sync.Stories, summary.Sync.Tasks, summary.Sync.Skipped, summary.Sync.Failed)
	}
	fmt.Fprintf(out, "Duration:     %s\n", summary.Duration.Round(summaryDurationPrecision))
}
