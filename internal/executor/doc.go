// Package executor provides the worker pools that run scheduled test work.
//
// A Pool is long-lived: tasks are submitted one at a time, each returning a
// Future, and the pool keeps running until it is shut down.
//
// # Key Features
//
//   - Bounded pools with lazily started workers, or unbounded pools
//   - Per-task futures that can be awaited with a context
//   - Graceful shutdown (queued tasks still run) and immediate shutdown
//     (queued tasks are dropped, running tasks see a cancelled context)
//   - Panics in tasks are recovered and reported through the future
//
// # Basic Usage
//
//	pool := executor.NewPool(4, logger, executor.WithName("cases"))
//
//	future, err := pool.Submit(func(ctx context.Context) {
//	    runTest(ctx)
//	})
//	if executor.IsRejected(err) {
//	    // pool was shut down by its owner
//	}
//
//	_ = future.Wait(ctx)
//
// # Shutdown
//
// Shutdown stops new submissions and lets queued work drain. ShutdownNow also
// drops the queue and cancels the context passed to running tasks; tasks are
// expected to return promptly once it is cancelled.
//
//	pool.Shutdown()
//	if err := pool.AwaitTermination(ctx); err != nil {
//	    log.Printf("pool did not drain: %v", err)
//	}
//
// # Thread Safety
//
// All Pool and Future methods are safe for concurrent use. A pool may be
// shared by several schedulers; it tolerates being shut down by any of them.
package executor
