package scheduler

import (
	"context"
	"sync"

	"github.com/aryankumar/paratest/internal/executor"
	"github.com/aryankumar/paratest/internal/runner"
)

// futures collects the futures a policy has submitted
type futures struct {
	mu   sync.Mutex
	list []*executor.Future
}

func (f *futures) add(fut *executor.Future) {
	f.mu.Lock()
	f.list = append(f.list, fut)
	f.mu.Unlock()
}

// await waits for every future. A dropped future counts as complete. If ctx
// is done the wait is abandoned and false is returned.
func (f *futures) await(ctx context.Context) bool {
	f.mu.Lock()
	list := make([]*executor.Future, len(f.list))
	copy(list, f.list)
	f.mu.Unlock()

	for _, fut := range list {
		if err := fut.Wait(ctx); err != nil {
			return false
		}
	}
	return true
}

// suitePolicy dispatches the suites of a run
type suitePolicy struct {
	s *Scheduler
	r *run

	// pool is nil when suites run inline
	pool  *executor.Pool
	owned bool

	mu        sync.Mutex
	scheduled int
	futures   futures
}

func (s *Scheduler) newSuitePolicy(r *run) *suitePolicy {
	p := &suitePolicy{s: s, r: r}
	switch s.mode {
	case ModeParallelSuites:
		p.pool = s.newOwnedPool("suites-" + r.id.String()[:8])
		p.owned = true
	case ModeSharedPool, ModeOwnedSharedPool:
		p.pool = r.pool
		p.owned = r.ownsPool
	case ModeTwoPools:
		p.pool = s.suitePool
	}
	return p
}

// Schedule dispatches one suite. In the shared-pool modes it first blocks
// for a balancer permit.
func (p *suitePolicy) Schedule(ctx context.Context, child *runner.Description, work func(context.Context)) {
	p.mu.Lock()
	p.scheduled++
	p.mu.Unlock()

	if p.pool == nil {
		p.s.runInline(ctx, child, work)
		return
	}

	if p.r.balancer == nil {
		if f, ok := p.s.dispatch(ctx, p.pool, child, work); ok {
			p.futures.add(f)
		}
		return
	}

	slot := &suiteSlot{r: p.r}
	if p.s.IsShutdown() {
		slot.finish()
		return
	}
	if !p.r.balancer.Acquire(ctx) {
		p.s.logger.Debug("balancer permit not acquired", "suite", child.DisplayName())
		slot.finish()
		return
	}
	slot.acquired = true
	p.r.slots.Store(child.ID(), slot)

	f, ok := p.s.dispatch(ctx, p.pool, child, work)
	if !ok {
		p.r.slots.Delete(child.ID())
		slot.finish()
		return
	}
	p.futures.add(f)

	// Covers suites that never reach their own Finished: dropped from the
	// queue, panicked, or not managed by a case policy.
	go func() {
		<-f.Done()
		p.r.slots.Delete(child.ID())
		slot.finish()
	}()
}

// Finished waits for every scheduled suite. In the shared-pool modes it then
// waits for the completion latch, and a run that owns its pool shuts it down
// and waits for it to drain.
func (p *suitePolicy) Finished(ctx context.Context) {
	if !p.futures.await(ctx) {
		p.s.logger.Warn("interrupted while awaiting suites", "error", ctx.Err())
	}

	if p.r.latch != nil {
		p.mu.Lock()
		missing := p.r.suites - p.scheduled
		p.mu.Unlock()
		for i := 0; i < missing; i++ {
			p.r.latch.CountDown()
		}
		if err := p.r.latch.Await(ctx); err != nil {
			p.s.logger.Warn("interrupted while awaiting completion latch", "error", err)
		}
	}

	if p.owned && p.pool != nil {
		p.pool.Shutdown()
		if err := p.pool.AwaitTermination(ctx); err != nil {
			p.s.logger.Warn("interrupted while draining pool", "pool", p.pool.Name(), "error", err)
		}
		p.s.untrackOwned(p.pool)
	}
	p.s.finishRun(p.r)
}

// casePolicy dispatches the cases of one suite
type casePolicy struct {
	s    *Scheduler
	r    *run
	desc *runner.Description

	mu        sync.Mutex
	pool      *executor.Pool
	ownPool   bool
	poolOwned bool

	futures futures
}

func (s *Scheduler) newCasePolicy(r *run, desc *runner.Description) *casePolicy {
	p := &casePolicy{s: s, r: r, desc: desc}
	switch s.mode {
	case ModeParallelCases:
		p.ownPool = true
	case ModeSharedPool, ModeOwnedSharedPool:
		p.pool = r.pool
	case ModeTwoPools:
		p.pool = s.casePool
	}
	return p
}

func (p *casePolicy) targetPool() *executor.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool == nil && p.ownPool && !p.s.IsShutdown() {
		p.pool = p.s.newOwnedPool("cases-" + p.desc.DisplayName())
		p.poolOwned = true
	}
	return p.pool
}

// Schedule dispatches one case
func (p *casePolicy) Schedule(ctx context.Context, child *runner.Description, work func(context.Context)) {
	if p.s.IsShutdown() {
		return
	}
	pool := p.targetPool()
	if pool == nil {
		p.s.runInline(ctx, child, work)
		return
	}
	if f, ok := p.s.dispatch(ctx, pool, child, work); ok {
		p.futures.add(f)
	}
}

// Finished waits for every case of the suite. An owned pool is then shut
// down and drained. In the shared-pool modes the suite's latch count and
// balancer permit are returned.
func (p *casePolicy) Finished(ctx context.Context) {
	if !p.futures.await(ctx) {
		p.s.logger.Warn("interrupted while awaiting cases", "suite", p.desc.DisplayName(), "error", ctx.Err())
	}

	p.mu.Lock()
	pool, owned := p.pool, p.poolOwned
	p.mu.Unlock()
	if owned {
		pool.Shutdown()
		if err := pool.AwaitTermination(ctx); err != nil {
			p.s.logger.Warn("interrupted while draining pool", "pool", pool.Name(), "error", err)
		}
		p.s.untrackOwned(pool)
	}

	if v, ok := p.r.slots.LoadAndDelete(p.desc.ID()); ok {
		v.(*suiteSlot).finish()
	}

	if p.r.standalone && p.r.ownsPool {
		p.r.pool.Shutdown()
		if err := p.r.pool.AwaitTermination(ctx); err != nil {
			p.s.logger.Warn("interrupted while draining pool", "pool", p.r.pool.Name(), "error", err)
		}
		p.s.untrackOwned(p.r.pool)
	}
}
