package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/paratest/internal/output"
	"github.com/aryankumar/paratest/pkg/version"
)

// newVersionCmd creates the version command
func newVersionCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for paratest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, opts)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command, opts *globalOptions) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	if opts.output == "" {
		// Default to human-readable format
		fmt.Fprintln(w, info.String())
		return nil
	}

	format, err := output.ParseFormat(opts.output)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format, output.WithNoColor(opts.noColor))

	if format == output.FormatTable {
		return formatter.Format(w, info.Map())
	}
	if err := formatter.Format(w, info); err != nil {
		return fmt.Errorf("failed to format version info: %w", err)
	}
	return nil
}
