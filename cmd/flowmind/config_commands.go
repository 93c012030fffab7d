package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flowmind/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(newConfigNewCommand())
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigCheckCommand(ctx))
	return cmd
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func newConfigNewCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := os.WriteFile(target, []byte(config.SampleConfig()), 0o644); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}
			cmd.Printf("Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination path (defaults to the user config dir)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return err
			}
			if exists {
				cmd.Printf("# loaded from %s\n", resolved)
			} else {
				cmd.Println("# no config file found; showing defaults")
			}
			cmd.Printf("data dir:          %s\n", cfg.Paths.DataDir)
			cmd.Printf("output dir:        %s\n", cfg.Paths.OutputDir)
			cmd.Printf("web bind:          %s\n", cfg.Paths.WebBind)
			cmd.Printf("llm model:         %s\n", cfg.LLM.Model)
			cmd.Printf("pipeline mode:     %s\n", cfg.Pipeline.Mode)
			cmd.Printf("small-talk filter: %t (classifier %t)\n", cfg.SmallTalk.Filter, cfg.SmallTalk.LLMClassifier)
			cmd.Printf("tracker enabled:   %t\n", cfg.Tracker.Enabled)
			if cfg.Tracker.Enabled {
				cmd.Printf("tracker project:   %s\n", cfg.Tracker.ProjectKey)
			}
			return nil
		},
	}
	return cmd
}

func newConfigCheckCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return err
			}
			if !exists {
				cmd.Println("No config file found; defaults are valid.")
				return nil
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.Printf("Configuration at %s is valid.\n", resolved)
			return nil
		},
	}
	return cmd
}
