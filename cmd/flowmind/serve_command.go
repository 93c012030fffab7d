package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"flowmind/internal/config"
	"flowmind/internal/store"
	"flowmind/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the approval web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				bind := bindFlag
				if bind == "" {
					bind = cfg.Paths.WebBind
				}
				var sync web.SyncRunner
				if s := buildSyncer(cfg, st, logger); s != nil {
					sync = s
				}
				server := web.NewServer(st, sync, bind, logger)

				// The root command context already carries signal handling.
				return server.Start(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Bind address (defaults to the configured web bind)")
	return cmd
}
