package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aryankumar/paratest/internal/config"
)

// ErrTestsFailed is returned by the run command when at least one test failed
var ErrTestsFailed = errors.New("tests failed")

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	cfgFile string
	verbose bool
	noColor bool
	output  string

	logger *slog.Logger
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "paratest",
		Short: "paratest - run test trees in parallel",
		Long: `paratest runs trees of test suites and cases concurrently.

Suites, cases or both can run in parallel, on pools owned by the scheduler
or on pools supplied by the caller. When suites and cases share one pool,
a number of workers is always kept free for cases so suites waiting on
their cases cannot starve the pool.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = setupLogging(cmd.ErrOrStderr(), opts.verbose, opts.noColor)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.paratest.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output with debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// manager creates a configuration manager with the persistent flags bound.
// Only flags that were set on the command line override the file.
func (o *globalOptions) manager(cmd *cobra.Command) (*config.Manager, error) {
	m := config.NewManager(o.cfgFile)
	if err := m.BindFlags(cmd, map[string]string{
		"output.format":  "output",
		"output.noColor": "no-color",
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// setupLogging configures structured logging with slog
func setupLogging(w io.Writer, verbose, noColor bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if noColor {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	logger.Debug("verbose logging enabled")
	return logger
}
