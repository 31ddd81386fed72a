package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownFunc is called when a termination signal arrives. now is false for the
// first signal (stop scheduling, let running tests finish) and true for the
// second (interrupt running tests).
type ShutdownFunc func(now bool)

// SetupSignalHandler installs a SIGINT/SIGTERM handler for a test run.
// The first signal calls onShutdown(false). The second calls onShutdown(true)
// and cancels the returned context. A third signal forces immediate exit.
// The returned stop function uninstalls the handler.
func SetupSignalHandler(onShutdown ShutdownFunc) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	// Create channel to receive OS signals
	sigCh := make(chan os.Signal, 3)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go handleSignals(sigCh, done, cancel, onShutdown, os.Exit)

	stop := func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
	return ctx, stop
}

func handleSignals(sigCh <-chan os.Signal, done <-chan struct{}, cancel context.CancelFunc, onShutdown ShutdownFunc, exit func(int)) {
	for count := 0; ; count++ {
		var sig os.Signal
		select {
		case sig = <-sigCh:
		case <-done:
			return
		}

		switch count {
		case 0:
			slog.Info("received shutdown signal, waiting for running tests", "signal", sig.String())
			if onShutdown != nil {
				onShutdown(false)
			}
		case 1:
			slog.Warn("received second shutdown signal, interrupting running tests", "signal", sig.String())
			if onShutdown != nil {
				onShutdown(true)
			}
			cancel()
		default:
			slog.Error("received third shutdown signal, forcing exit", "signal", sig.String())
			exit(1)
			return
		}
	}
}
