package scheduler

import (
	"fmt"

	"github.com/aryankumar/paratest/internal/executor"
	"github.com/aryankumar/paratest/internal/util"
)

// NewParallelSuites creates a scheduler that runs suites concurrently on an
// unbounded pool owned by each run. Cases within a suite run sequentially.
func NewParallelSuites(opts ...Option) *Scheduler {
	return newScheduler(ModeParallelSuites, opts...)
}

// NewParallelCases creates a scheduler that runs suites sequentially and the
// cases of each suite concurrently on an unbounded pool owned by that suite.
func NewParallelCases(opts ...Option) *Scheduler {
	return newScheduler(ModeParallelCases, opts...)
}

// NewSharedPool creates a scheduler that runs suites and cases on one
// externally supplied pool, keeping at least minCaseWorkers of its capacity
// free for cases. The scheduler never assumes it is the only user of pool.
func NewSharedPool(pool *executor.Pool, minCaseWorkers int, opts ...Option) (*Scheduler, error) {
	if err := validatePool("pool", pool); err != nil {
		return nil, err
	}
	if err := validateSharedCapacity(pool.Capacity(), minCaseWorkers); err != nil {
		return nil, err
	}

	s := newScheduler(ModeSharedPool, opts...)
	s.sharedPool = pool
	s.capacity = pool.Capacity()
	s.minCaseWorkers = minCaseWorkers
	return s, nil
}

// NewOwnedSharedPool creates a scheduler that, for every run, creates one pool
// of the given capacity shared by suites and cases, and drains it when the run
// finishes. A capacity of 0 creates an unbounded pool.
func NewOwnedSharedPool(capacity, minCaseWorkers int, opts ...Option) (*Scheduler, error) {
	if capacity < 0 {
		return nil, util.NewValidationError("poolSize", capacity, "must not be negative")
	}
	if err := validateSharedCapacity(capacity, minCaseWorkers); err != nil {
		return nil, err
	}

	s := newScheduler(ModeOwnedSharedPool, opts...)
	s.capacity = capacity
	s.minCaseWorkers = minCaseWorkers
	return s, nil
}

// NewTwoPools creates a scheduler that runs suites on suitePool and cases on
// casePool. No balancing is needed since the levels do not compete.
func NewTwoPools(suitePool, casePool *executor.Pool, opts ...Option) (*Scheduler, error) {
	if err := validatePool("suitePool", suitePool); err != nil {
		return nil, err
	}
	if err := validatePool("casePool", casePool); err != nil {
		return nil, err
	}
	if suitePool == casePool {
		return nil, util.NewValidationError("casePool", casePool.Name(),
			"must differ from suitePool; use a shared pool scheduler to share one pool")
	}

	s := newScheduler(ModeTwoPools, opts...)
	s.suitePool = suitePool
	s.casePool = casePool
	return s, nil
}

func validatePool(field string, pool *executor.Pool) error {
	if pool == nil {
		return util.NewValidationError(field, nil, "must not be nil")
	}
	if pool.IsShutdown() {
		return util.NewValidationError(field, pool.Name(), "must not be shut down")
	}
	return nil
}

// validateSharedCapacity checks a shared pool's sizing. capacity 0 is unbounded.
func validateSharedCapacity(capacity, minCaseWorkers int) error {
	if capacity == 1 {
		return util.NewValidationError("poolSize", capacity,
			"must be greater than 1 for a pool shared by suites and cases")
	}
	if minCaseWorkers < 1 {
		return util.NewValidationError("minCaseWorkers", minCaseWorkers, "must be at least 1")
	}
	if capacity > 0 && minCaseWorkers >= capacity {
		return util.NewValidationError("minCaseWorkers", minCaseWorkers,
			fmt.Sprintf("must be less than the pool size %d", capacity))
	}
	return nil
}
