package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// BenchmarkPool_Submit benchmarks task submission performance
func BenchmarkPool_Submit(b *testing.B) {
	pool := NewPool(10, quietLogger())
	defer pool.ShutdownNow()

	task := func(ctx context.Context) {}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pool.Submit(task)
	}
}

// BenchmarkPool_Drain benchmarks running a batch of tasks with different worker counts
func BenchmarkPool_Drain(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8, 16}

	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				pool := NewPool(workers, quietLogger())

				for j := 0; j < 100; j++ {
					_, _ = pool.Submit(func(ctx context.Context) {
						// Simulate minimal work
						time.Sleep(100 * time.Microsecond)
					})
				}

				pool.Shutdown()
				_ = pool.AwaitTermination(context.Background())
			}
		})
	}
}

// BenchmarkPool_Unbounded compares an unbounded pool with a bounded one
func BenchmarkPool_Unbounded(b *testing.B) {
	b.Run("unbounded", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			pool := NewUnboundedPool(quietLogger())
			for j := 0; j < 100; j++ {
				_, _ = pool.Submit(func(ctx context.Context) {})
			}
			pool.Shutdown()
			_ = pool.AwaitTermination(context.Background())
		}
	})
	b.Run("bounded_8", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			pool := NewPool(8, quietLogger())
			for j := 0; j < 100; j++ {
				_, _ = pool.Submit(func(ctx context.Context) {})
			}
			pool.Shutdown()
			_ = pool.AwaitTermination(context.Background())
		}
	})
}

// BenchmarkPool_SubmitParallel benchmarks concurrent submission to one pool
func BenchmarkPool_SubmitParallel(b *testing.B) {
	pool := NewPool(4, quietLogger())
	defer pool.ShutdownNow()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			f, err := pool.Submit(func(ctx context.Context) {})
			if err == nil {
				_ = f.Wait(context.Background())
			}
		}
	})
}

// BenchmarkFuture_Wait benchmarks awaiting many futures
func BenchmarkFuture_Wait(b *testing.B) {
	pool := NewPool(8, quietLogger())
	defer pool.ShutdownNow()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		futures := make([]*Future, 0, 50)
		for j := 0; j < 50; j++ {
			f, _ := pool.Submit(func(ctx context.Context) {})
			futures = append(futures, f)
		}
		for _, f := range futures {
			_ = f.Wait(context.Background())
		}
	}
}

// BenchmarkPool_ShutdownNow benchmarks interrupting a pool with a full queue
func BenchmarkPool_ShutdownNow(b *testing.B) {
	for i := 0; i < b.N; i++ {
		pool := NewPool(2, quietLogger())
		var wg sync.WaitGroup
		wg.Add(2)
		for j := 0; j < 2; j++ {
			_, _ = pool.Submit(func(ctx context.Context) {
				wg.Done()
				<-ctx.Done()
			})
		}
		for j := 0; j < 100; j++ {
			_, _ = pool.Submit(func(ctx context.Context) {})
		}
		wg.Wait()
		pool.ShutdownNow()
		_ = pool.AwaitTermination(context.Background())
	}
}
