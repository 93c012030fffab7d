package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"flowmind/internal/config"
	"flowmind/internal/store"
)

func newMemoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Read and write pipeline memory (tone, prefixes, defaults)",
	}
	cmd.AddCommand(newMemoryGetCommand(ctx))
	cmd.AddCommand(newMemorySetCommand(ctx))
	return cmd
}

func memoryScopeFlags(cmd *cobra.Command, scopeFlag, ownerFlag *string) {
	cmd.Flags().StringVar(scopeFlag, "scope", string(store.ScopeGlobal), "Memory scope: global, project, or session")
	cmd.Flags().StringVar(ownerFlag, "owner", "", "Project or session identifier (required for non-global scopes)")
}

func resolveScope(scopeFlag, ownerFlag string, cfg *config.Config) (store.Scope, string, error) {
	scope := store.Scope(scopeFlag)
	switch scope {
	case store.ScopeGlobal:
		return scope, "", nil
	case store.ScopeProject:
		owner := ownerFlag
		if owner == "" {
			owner = cfg.Pipeline.ProjectID
		}
		if owner == "" {
			return "", "", fmt.Errorf("project scope requires --owner or a configured project id")
		}
		return scope, owner, nil
	case store.ScopeSession:
		if ownerFlag == "" {
			return "", "", fmt.Errorf("session scope requires --owner")
		}
		return scope, ownerFlag, nil
	default:
		return "", "", fmt.Errorf("invalid --scope %q (want global, project, or session)", scopeFlag)
	}
}

func newMemoryGetCommand(ctx *commandContext) *cobra.Command {
	var scopeFlag, ownerFlag string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read one memory value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				scope, owner, err := resolveScope(scopeFlag, ownerFlag, cfg)
				if err != nil {
					return err
				}
				value, ok, err := st.GetMemory(cmd.Context(), scope, owner, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no %s memory for key %q", scope, args[0])
				}
				cmd.Println(value)
				return nil
			})
		},
	}

	memoryScopeFlags(cmd, &scopeFlag, &ownerFlag)
	return cmd
}

func newMemorySetCommand(ctx *commandContext) *cobra.Command {
	var scopeFlag, ownerFlag string

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write one memory value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				scope, owner, err := resolveScope(scopeFlag, ownerFlag, cfg)
				if err != nil {
					return err
				}
				if err := st.SetMemory(cmd.Context(), scope, owner, args[0], args[1]); err != nil {
					return err
				}
				cmd.Printf("Set %s memory %s\n", scope, args[0])
				return nil
			})
		},
	}

	memoryScopeFlags(cmd, &scopeFlag, &ownerFlag)
	return cmd
}
