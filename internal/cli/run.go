package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryankumar/paratest/internal/config"
	"github.com/aryankumar/paratest/internal/notification"
	"github.com/aryankumar/paratest/internal/output"
	"github.com/aryankumar/paratest/internal/scheduler"
	"github.com/aryankumar/paratest/internal/telemetry"
	"github.com/aryankumar/paratest/internal/tree"
	"github.com/aryankumar/paratest/internal/util"
	"github.com/aryankumar/paratest/internal/workload"
	"github.com/aryankumar/paratest/pkg/version"
)

const tracingShutdownTimeout = 5 * time.Second

// runFlags maps configuration keys to the run command flags that override them
var runFlags = map[string]string{
	"mode":                 "mode",
	"poolSize":             "pool-size",
	"suitePoolSize":        "suite-pool-size",
	"casePoolSize":         "case-pool-size",
	"minCaseWorkers":       "min-case-workers",
	"workload.suites":      "suites",
	"workload.cases":       "cases",
	"workload.caseDelay":   "case-delay",
	"workload.failEvery":   "fail-every",
	"workload.skipEvery":   "skip-every",
	"workload.ignoreEvery": "ignore-every",
	"output.wide":          "wide",
	"output.progress":      "progress",
	"tracing.endpoint":     "otlp-endpoint",
	"tracing.sampleRatio":  "sample-ratio",
}

// newRunCmd creates the run command
func newRunCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a generated test tree in parallel",
		Long: `Run a tree of generated suites and cases with the selected scheduler.

Modes:
  suites        suites run in parallel, cases of a suite run in order
  cases         suites run in order, cases of a suite run in parallel
  shared        suites and cases share a caller supplied pool
  owned-shared  suites and cases share a pool owned by the scheduler
  two-pools     suites and cases run on separate caller supplied pools

In the shared modes --min-case-workers workers are kept free for cases.
A pool size of 0 means unbounded.`,
		Example: `  # Run 8 suites of 16 cases on a shared pool of 6 workers
  paratest run --mode shared --pool-size 6 --suites 8 --cases 16

  # Make every 5th test fail and print the results as JSON
  paratest run --fail-every 5 -o json

  # Export a trace of the run to a local collector
  paratest run --otlp-endpoint 127.0.0.1:4318`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts)
		},
	}

	cmd.Flags().String("mode", scheduler.ModeOwnedSharedPool.String(), "scheduler mode (suites, cases, shared, owned-shared, two-pools)")
	cmd.Flags().Int("pool-size", 8, "shared pool size")
	cmd.Flags().Int("suite-pool-size", 4, "suite pool size in two-pools mode")
	cmd.Flags().Int("case-pool-size", 8, "case pool size in two-pools mode")
	cmd.Flags().Int("min-case-workers", 2, "shared pool workers kept free for cases")
	cmd.Flags().Int("suites", 4, "number of generated suites")
	cmd.Flags().Int("cases", 8, "number of cases per suite")
	cmd.Flags().Duration("case-delay", 10*time.Millisecond, "time each case sleeps")
	cmd.Flags().Int("fail-every", 0, "fail every nth test (0 disables)")
	cmd.Flags().Int("skip-every", 0, "violate an assumption in every nth test (0 disables)")
	cmd.Flags().Int("ignore-every", 0, "ignore every nth test (0 disables)")
	cmd.Flags().Bool("wide", false, "show error messages in table output")
	cmd.Flags().Bool("progress", true, "print progress to stderr while tests run")
	cmd.Flags().String("otlp-endpoint", "", "OTLP/HTTP collector host:port (empty disables tracing)")
	cmd.Flags().Float64("sample-ratio", 1.0, "fraction of runs traced")

	return cmd
}

func runTests(cmd *cobra.Command, opts *globalOptions) error {
	logger := opts.logger

	manager, err := opts.manager(cmd)
	if err != nil {
		return err
	}
	if err := manager.BindFlags(cmd, runFlags); err != nil {
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

	sched, release, err := config.BuildScheduler(settings, logger)
	if err != nil {
		return err
	}
	defer release()

	suites, err := workload.Build(settings.Workload)
	if err != nil {
		return err
	}
	root, err := sched.Suite("paratest", suites...)
	if err != nil {
		return err
	}

	sigCtx, stopSignals := util.SetupSignalHandler(func(now bool) {
		pending := sched.Shutdown(now)
		logger.Info("scheduler stopped", "now", now, "in_flight", len(pending))
	})
	defer stopSignals()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	stopAfter := context.AfterFunc(sigCtx, cancel)
	defer stopAfter()

	var listeners []notification.Listener
	if settings.Tracing.Endpoint != "" {
		tcfg := telemetry.DefaultConfig(version.Get().Short())
		tcfg.Endpoint = settings.Tracing.Endpoint
		tcfg.SampleRatio = settings.Tracing.SampleRatio

		shutdown, err := telemetry.Setup(ctx, tcfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			_ = telemetry.Shutdown(shutdown, tracingShutdownTimeout, logger)
		}()
		listeners = append(listeners, telemetry.NewTracingListener(ctx, nil))
	}
	if settings.Output.Progress {
		listeners = append(listeners, output.NewTextListener(cmd.ErrOrStderr(), settings.Output.NoColor))
	}

	logger.Info("starting test run",
		"mode", sched.Mode().String(),
		"suites", settings.Workload.Suites,
		"tests", settings.Workload.Total())

	result, err := tree.Run(ctx, root, logger, listeners...)
	if result == nil {
		return err
	}
	if err != nil {
		logger.Warn("test run reported an error", "error", err)
	}

	stats := sched.Stats()
	logger.Debug("scheduler stats",
		"permits", stats.Permits,
		"peak_suites", stats.PeakSuites,
		"in_flight", stats.InFlight,
		"owned_pools", stats.OwnedPools)

	formatter := output.NewFormatter(format,
		output.WithNoColor(settings.Output.NoColor),
		output.WithWide(settings.Output.Wide))
	if err := formatter.FormatResult(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if sched.IsShutdown() {
		return fmt.Errorf("%d of %d tests ran: %w", result.RunCount(), settings.Workload.Total(), util.ErrShutdown)
	}
	if !result.WasSuccessful() {
		return fmt.Errorf("%d of %d tests: %w", result.FailureCount(), result.RunCount(), ErrTestsFailed)
	}
	return nil
}
