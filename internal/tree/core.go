package tree

import (
	"context"
	"log/slog"

	"github.com/aryankumar/paratest/internal/notification"
	"github.com/aryankumar/paratest/internal/runner"
)

// Core runs node trees. Each Core owns one notification bus; listeners added
// to it observe every run started through it.
type Core struct {
	bus    *notification.Bus
	logger *slog.Logger
}

// NewCore creates a Core. A nil logger uses slog.Default().
func NewCore(logger *slog.Logger) *Core {
	if logger == nil {
		logger = slog.Default()
	}
	return &Core{
		bus:    notification.NewBus(logger),
		logger: logger,
	}
}

// AddListener registers a listener for all subsequent runs
func (c *Core) AddListener(l notification.Listener) {
	c.bus.AddListener(l)
}

// RemoveListener unregisters a listener
func (c *Core) RemoveListener(l notification.Listener) bool {
	return c.bus.RemoveListener(l)
}

// PleaseStop asks the current run to stop before its next test starts
func (c *Core) PleaseStop() {
	c.bus.PleaseStop()
}

// Run executes root and returns the collected result. The result listener is
// registered ahead of all other listeners for the duration of the run. The
// returned error is notification.ErrStoppedByUser if the run was stopped;
// the result is populated either way.
func (c *Core) Run(ctx context.Context, root Node) (*runner.Result, error) {
	result := runner.NewResult()
	listener := result.Listener()
	c.bus.AddFirstListener(listener)
	defer c.bus.RemoveListener(listener)

	desc := root.Description()
	c.logger.Debug("test run starting", "root", desc.DisplayName(), "tests", desc.TestCount())

	c.bus.FireTestRunStarted(desc)
	err := root.Run(ctx, c.bus)
	c.bus.FireTestRunFinished(result)

	c.logger.Debug("test run finished",
		"root", desc.DisplayName(),
		"run", result.RunCount(),
		"failures", result.FailureCount(),
		"duration", result.RunTime())

	return result, err
}

// Run executes root on a fresh Core with the given listeners
func Run(ctx context.Context, root Node, logger *slog.Logger, listeners ...notification.Listener) (*runner.Result, error) {
	core := NewCore(logger)
	for _, l := range listeners {
		core.AddListener(l)
	}
	return core.Run(ctx, root)
}
