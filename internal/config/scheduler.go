package config

import (
	"log/slog"

	"github.com/aryankumar/paratest/internal/executor"
	"github.com/aryankumar/paratest/internal/scheduler"
)

// BuildScheduler maps settings onto the scheduler factories. Pools that the
// external-pool modes need are created here and shut down by the returned
// release function once the run is over. Validation errors from the
// factories are returned unchanged.
func BuildScheduler(s *Settings, logger *slog.Logger) (*scheduler.Scheduler, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	mode, err := scheduler.ParseMode(s.Mode)
	if err != nil {
		return nil, nil, err
	}

	var pools []*executor.Pool
	newPool := func(name string, size int) *executor.Pool {
		var p *executor.Pool
		if size > 0 {
			p = executor.NewPool(size, logger, executor.WithName(name))
		} else {
			p = executor.NewUnboundedPool(logger, executor.WithName(name))
		}
		pools = append(pools, p)
		return p
	}
	release := func() {
		for _, p := range pools {
			p.Shutdown()
		}
	}

	opts := []scheduler.Option{scheduler.WithLogger(logger)}

	var sched *scheduler.Scheduler
	switch mode {
	case scheduler.ModeParallelSuites:
		sched = scheduler.NewParallelSuites(opts...)
	case scheduler.ModeParallelCases:
		sched = scheduler.NewParallelCases(opts...)
	case scheduler.ModeSharedPool:
		sched, err = scheduler.NewSharedPool(newPool("shared", s.PoolSize), s.MinCaseWorkers, opts...)
	case scheduler.ModeOwnedSharedPool:
		sched, err = scheduler.NewOwnedSharedPool(s.PoolSize, s.MinCaseWorkers, opts...)
	case scheduler.ModeTwoPools:
		sched, err = scheduler.NewTwoPools(newPool("suites", s.SuitePoolSize), newPool("cases", s.CasePoolSize), opts...)
	}
	if err != nil {
		release()
		return nil, nil, err
	}

	logger.Debug("scheduler built",
		"mode", mode.String(),
		"pool_size", s.PoolSize,
		"min_case_workers", s.MinCaseWorkers)
	return sched, release, nil
}
