package scheduler

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Balancer limits how many suites may be active at once on a pool shared by
// suite-level and case-level work, so that case-level work always has room.
type Balancer struct {
	sem     *semaphore.Weighted
	permits int64

	// ctx is cancelled by ReleaseAll so blocked acquirers return
	ctx    context.Context
	cancel context.CancelFunc

	held   atomic.Int64
	active atomic.Int64
	peak   atomic.Int64
}

// balancerPermits returns max(1, min(capacity-minCaseWorkers, suites)).
// A capacity of 0 means unbounded.
func balancerPermits(capacity, minCaseWorkers, suites int) int64 {
	limit := int64(math.MaxInt64)
	if capacity > 0 {
		limit = int64(capacity - minCaseWorkers)
	}
	if int64(suites) < limit {
		limit = int64(suites)
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// NewBalancer creates a balancer with the given number of permits (at least 1)
func NewBalancer(permits int64) *Balancer {
	if permits < 1 {
		permits = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Balancer{
		sem:     semaphore.NewWeighted(permits),
		permits: permits,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Acquire blocks until a permit is available. It returns false without a
// permit if ctx is done or ReleaseAll was called.
func (b *Balancer) Acquire(ctx context.Context) bool {
	if b.ctx.Err() != nil {
		return false
	}
	actx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(b.ctx, cancel)
	defer stop()

	if err := b.sem.Acquire(actx, 1); err != nil {
		return false
	}
	if b.ctx.Err() != nil {
		// Released while we were acquiring; hand the permit straight back.
		b.sem.Release(1)
		return false
	}

	b.held.Add(1)
	n := b.active.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return true
}

// Release returns one permit. Releasing more permits than were acquired, or
// releasing after ReleaseAll, is a no-op.
func (b *Balancer) Release() {
	for {
		h := b.held.Load()
		if h <= 0 {
			return
		}
		if b.held.CompareAndSwap(h, h-1) {
			b.active.Add(-1)
			b.sem.Release(1)
			return
		}
	}
}

// ReleaseAll returns every outstanding permit and makes all current and
// future Acquire calls fail, so no goroutine stays blocked on the balancer.
func (b *Balancer) ReleaseAll() {
	b.cancel()
	for {
		h := b.held.Load()
		if h <= 0 {
			return
		}
		if b.held.CompareAndSwap(h, 0) {
			b.active.Add(-h)
			b.sem.Release(h)
			return
		}
	}
}

// Permits returns the number of permits the balancer was created with
func (b *Balancer) Permits() int64 {
	return b.permits
}

// Active returns the number of permits currently held
func (b *Balancer) Active() int64 {
	return b.active.Load()
}

// Peak returns the highest number of permits held at once
func (b *Balancer) Peak() int64 {
	return b.peak.Load()
}
