package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryankumar/paratest/internal/output"
)

// newConfigCmd creates the config command
func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the paratest configuration",
		Long: `Show the effective configuration or write a configuration file.

Configuration is read from $HOME/.paratest.yaml (or --config), then from
PARATEST_* environment variables, then from command-line flags.`,
	}

	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigInitCmd(opts))
	return cmd
}

func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			settings, err := manager.Load()
			if err != nil {
				return err
			}

			format, err := output.ParseFormat(settings.Output.Format)
			if err != nil {
				return err
			}
			formatter := output.NewFormatter(format, output.WithNoColor(settings.Output.NoColor))

			var data interface{} = manager.Flatten()
			if format != output.FormatTable {
				data = settings
			}
			if err := formatter.Format(cmd.OutOrStdout(), data); err != nil {
				return err
			}

			if format == output.FormatTable {
				path := manager.Path()
				if path == "" {
					path = "(none)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nConfig file: %s\n", path)
			}
			return nil
		},
	}
}

func newConfigInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			if _, err := manager.Load(); err != nil {
				return err
			}

			path := manager.Path()
			if path != "" && !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
				}
			}

			if err := manager.Save(); err != nil {
				return err
			}
			opts.logger.Info("config file written", "path", manager.Path())
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", manager.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
