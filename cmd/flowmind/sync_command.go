package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"flowmind/internal/config"
	"flowmind/internal/store"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push approved requirements and test cases to the tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				s := buildSyncer(cfg, st, logger)
				if s == nil {
					return errors.New("tracker sync is disabled; enable [tracker] in the configuration")
				}
				report, err := s.Run(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("Synced %d stories and %d tasks (%d skipped unchanged, %d links)\n",
					report.Stories, report.Tasks, report.Skipped, report.Links)
				if report.Failed > 0 {
					cmd.Printf("%d items failed; see the log for details\n", report.Failed)
				}
				return nil
			})
		},
	}
}
