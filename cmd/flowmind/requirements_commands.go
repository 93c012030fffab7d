package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"flowmind/internal/config"
	"flowmind/internal/store"
)

func newRequirementsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requirements",
		Short: "Inspect extracted requirements",
	}
	cmd.AddCommand(newRequirementsListCommand(ctx))
	cmd.AddCommand(newRequirementsShowCommand(ctx))
	return cmd
}

func newRequirementsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requirements and their approval state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				var (
					requirements []store.Requirement
					err          error
				)
				switch statusFlag {
				case "draft":
					requirements, err = st.LoadPending(cmd.Context())
				case "approved":
					requirements, err = st.LoadApproved(cmd.Context())
				case "all":
					requirements, err = st.LoadAll(cmd.Context())
				default:
					return fmt.Errorf("invalid --status %q (want draft, approved, or all)", statusFlag)
				}
				if err != nil {
					return err
				}
				if len(requirements) == 0 {
					cmd.Println("No requirements in this view.")
					return nil
				}

				rows := make([][]string, 0, len(requirements))
				for _, req := range requirements {
					cases, err := st.TestCasesFor(cmd.Context(), req.ID)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						req.ID,
						truncate(req.Title, 48),
						req.Priority,
						string(req.Status),
						req.RemoteKey,
						fmt.Sprintf("%d", len(cases)),
					})
				}
				cmd.Println(renderTable(
					[]string{"ID", "Title", "Priority", "Status", "Tracker", "Tests"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "all", "Filter by status: draft, approved, or all")
	return cmd
}

func newRequirementsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <requirement-id>",
		Short: "Show one requirement with its test cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				req, err := st.GetRequirement(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if req == nil {
					return fmt.Errorf("requirement %s not found", args[0])
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s  %s\n", req.ID, req.Title)
				fmt.Fprintf(out, "Status:   %s\n", req.Status)
				if req.Priority != "" {
					fmt.Fprintf(out, "Priority: %s\n", req.Priority)
				}
				if req.Epic != "" {
					fmt.Fprintf(out, "Epic:     %s\n", req.Epic)
				}
				if req.RemoteKey != "" {
					fmt.Fprintf(out, "Tracker:  %s\n", req.RemoteKey)
				}
				fmt.Fprintf(out, "\n%s\n\nAcceptance criteria:\n", req.Description)
				for _, criterion := range req.AcceptanceCriteria {
					fmt.Fprintf(out, "  - %s\n", criterion)
				}

				cases, err := st.TestCasesFor(cmd.Context(), req.ID)
				if err != nil {
					return err
				}
				if len(cases) > 0 {
					fmt.Fprintln(out, "\nTest cases:")
					for _, tc := range cases {
						fmt.Fprintf(out, "  [%s] %s\n    %s\n", tc.ScenarioType, tc.Title, tc.Gherkin)
						if len(tc.Tags) > 0 {
							fmt.Fprintf(out, "    tags: %s\n", strings.Join(tc.Tags, ", "))
						}
					}
				}
				return nil
			})
		},
	}
}
