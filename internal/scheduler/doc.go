// Package scheduler runs a tree of test suites and cases in parallel.
//
// A Scheduler is built by one of the factories, each selecting a mode:
//
//	NewParallelSuites()                 suites in parallel, cases sequential
//	NewParallelCases()                  suites sequential, cases in parallel
//	NewSharedPool(pool, minCaseWorkers) both levels on one external pool
//	NewOwnedSharedPool(n, minCaseWorkers) both levels on a pool created per run
//	NewTwoPools(suitePool, casePool)    each level on its own external pool
//
// Suite attaches the dispatch policies to a tree before it runs:
//
//	s, err := scheduler.NewSharedPool(pool, 2, scheduler.WithLogger(logger))
//	if err != nil {
//	    return err // *util.ValidationError
//	}
//	root, err := s.Suite("all", suiteA, suiteB, suiteC)
//	result, err := tree.Run(ctx, root, logger, listeners...)
//
// # Shared Pools
//
// When suites and cases share one pool, a suite occupies a worker while it
// waits for its cases. A Balancer therefore admits at most
// capacity-minCaseWorkers suites at a time, leaving minCaseWorkers workers
// for cases. A CompletionLatch counts suites down as each finishes awaiting
// its cases; the run's root waits on it before draining a pool it owns.
//
// # Shutdown
//
// Shutdown(now) stops further scheduling and returns the descriptions of
// submitted work that had not returned. With scheduler-owned pools only the
// flag is set. With external pools the balancer and latch are released so no
// goroutine stays blocked, and the pools are shut down; now interrupts running
// work through its context.
//
// Nothing in this package returns errors from Schedule or Finished. Pool
// rejection puts the scheduler into quiet shutdown; interrupted waits are
// logged and treated as satisfied.
package scheduler
