package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"flowmind/internal/config"
	"flowmind/internal/export"
	"flowmind/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export requirements and test cases as Jira-import CSVs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				dir := outputDir
				if dir == "" {
					dir = cfg.Paths.OutputDir
				}
				result, err := export.Write(cmd.Context(), st, dir, time.Now())
				if err != nil {
					return err
				}
				cmd.Printf("Exported %d requirements to %s\n", result.Requirements, result.RequirementsPath)
				cmd.Printf("Exported %d test cases to %s\n", result.TestCases, result.TestCasesPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to the configured output dir)")
	return cmd
}
