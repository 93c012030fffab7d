package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"flowmind/internal/config"
	"flowmind/internal/store"
)

func newApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <requirement-id>...",
		Short: "Approve one or more draft requirements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				for _, id := range args {
					if err := st.Approve(cmd.Context(), id); err != nil {
						return err
					}
					cmd.Printf("Approved %s\n", id)
				}
				return nil
			})
		},
	}
}
