package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"

	"github.com/aryankumar/paratest/internal/util"
)

// ErrRejected is returned by Submit once the pool has been shut down
var ErrRejected = fmt.Errorf("task rejected: %w", util.ErrShutdown)

// Task is a unit of work executed by the pool. ctx is cancelled when the
// pool is shut down with ShutdownNow.
type Task func(ctx context.Context)

// Option configures a Pool
type Option func(*Pool)

// WithName sets the name used in log output
func WithName(name string) Option {
	return func(p *Pool) {
		p.name = name
	}
}

// Pool is a long-lived worker pool. A bounded pool runs at most Capacity
// tasks at once, starting workers lazily; an unbounded pool runs every task
// on its own goroutine.
type Pool struct {
	name string

	// capacity is the maximum number of concurrent tasks, 0 means unbounded
	capacity int

	logger *slog.Logger

	// ctx is handed to every task and cancelled by ShutdownNow
	ctx    context.Context
	cancel context.CancelFunc

	// mu protects queue, workers and idle
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*job
	workers int
	idle    int

	shutdown  atomic.Bool
	active    atomic.Int32
	completed atomic.Int64

	// pending counts submitted tasks that have not finished or been dropped
	pending    sync.WaitGroup
	terminated chan struct{}
	termOnce   sync.Once
}

type job struct {
	task   Task
	future *Future
}

// NewPool creates a bounded worker pool with the specified number of workers
// workers must be > 0, otherwise it defaults to 1
func NewPool(workers int, logger *slog.Logger, opts ...Option) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return newPool(workers, logger, opts...)
}

// NewUnboundedPool creates a pool that starts a goroutine for every task
func NewUnboundedPool(logger *slog.Logger, opts ...Option) *Pool {
	return newPool(0, logger, opts...)
}

func newPool(capacity int, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:       "pool",
		capacity:   capacity,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		queue:      make([]*job, 0),
		terminated: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit queues a task for execution and returns its Future.
// Returns ErrRejected if the pool is shutting down.
func (p *Pool) Submit(task Task) (*Future, error) {
	if task == nil {
		return nil, fmt.Errorf("task must not be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown.Load() {
		return nil, ErrRejected
	}

	j := &job{task: task, future: newFuture()}
	p.pending.Add(1)

	if p.capacity == 0 {
		go p.run(j)
		p.logger.Debug("task submitted", "pool", p.name, "active", p.active.Load())
		return j.future, nil
	}

	p.queue = append(p.queue, j)
	// Idle workers will each take one queued job; start another worker only
	// when the queue outgrows them.
	if len(p.queue) > p.idle && p.workers < p.capacity {
		p.workers++
		go p.worker(p.workers)
	} else {
		p.cond.Signal()
	}

	p.logger.Debug("task submitted",
		"pool", p.name,
		"queued", len(p.queue),
		"workers", p.workers)

	return j.future, nil
}

// worker takes jobs from the queue until the pool shuts down and the queue is empty
func (p *Pool) worker(workerID int) {
	p.logger.Debug("worker started", "pool", p.name, "worker_id", workerID)

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.shutdown.Load() {
			p.idle++
			p.cond.Wait()
			p.idle--
		}
		if len(p.queue) == 0 {
			p.workers--
			p.mu.Unlock()
			p.logger.Debug("worker finished (no more tasks)", "pool", p.name, "worker_id", workerID)
			return
		}
		j := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(j)
	}
}

// run executes a single job, converting a panic into the future's error
func (p *Pool) run(j *job) {
	defer p.pending.Done()

	p.active.Add(1)
	recovered := panics.Try(func() { j.task(p.ctx) })
	p.active.Add(-1)
	p.completed.Add(1)

	var err error
	if recovered != nil {
		err = recovered.AsError()
		p.logger.Error("task panicked", "pool", p.name, "error", err)
	}
	j.future.complete(err)
}

// Shutdown stops accepting new tasks. Queued and running tasks still run to
// completion. It does not wait; use AwaitTermination for that.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.shutdown.CompareAndSwap(false, true) {
		p.mu.Unlock()
		return
	}
	p.cond.Broadcast()
	p.mu.Unlock()

	p.logger.Info("shutting down worker pool", "pool", p.name)
	p.startTerminator()
}

// ShutdownNow stops accepting new tasks, drops every queued task and cancels
// the context of running tasks. Dropped tasks' futures report Cancelled.
// Returns the number of dropped tasks.
func (p *Pool) ShutdownNow() int {
	p.mu.Lock()
	p.shutdown.Store(true)
	dropped := p.queue
	p.queue = make([]*job, 0)
	p.cond.Broadcast()
	p.mu.Unlock()

	p.cancel()
	for _, j := range dropped {
		j.future.markCancelled()
		p.pending.Done()
	}

	p.logger.Info("interrupting worker pool", "pool", p.name, "dropped", len(dropped))
	p.startTerminator()
	return len(dropped)
}

func (p *Pool) startTerminator() {
	p.termOnce.Do(func() {
		go func() {
			p.pending.Wait()
			p.cancel()
			close(p.terminated)
			p.logger.Info("worker pool shut down successfully", "pool", p.name, "completed", p.completed.Load())
		}()
	})
}

// AwaitTermination blocks until the pool has been shut down and every task
// has finished or been dropped, or until ctx is done.
func (p *Pool) AwaitTermination(ctx context.Context) error {
	select {
	case <-p.terminated:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("awaiting termination of %s: %w", p.name, ctx.Err())
	}
}

// IsShutdown returns true if the pool has been shut down
func (p *Pool) IsShutdown() bool {
	return p.shutdown.Load()
}

// IsTerminated returns true once the pool is shut down and fully drained
func (p *Pool) IsTerminated() bool {
	select {
	case <-p.terminated:
		return true
	default:
		return false
	}
}

// Name returns the pool name
func (p *Pool) Name() string {
	return p.name
}

// Capacity returns the maximum number of concurrent tasks, 0 for an unbounded pool
func (p *Pool) Capacity() int {
	return p.capacity
}

// Unbounded reports whether the pool has no concurrency limit
func (p *Pool) Unbounded() bool {
	return p.capacity == 0
}

// WorkerCount returns the number of live workers of a bounded pool
func (p *Pool) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// QueueLen returns the number of tasks waiting for a worker
func (p *Pool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Active returns the number of tasks currently running
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Completed returns the number of tasks that have run to completion
func (p *Pool) Completed() int64 {
	return p.completed.Load()
}

// Future tracks a submitted task
type Future struct {
	done      chan struct{}
	once      sync.Once
	err       error
	cancelled atomic.Bool
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

func (f *Future) markCancelled() {
	f.once.Do(func() {
		f.cancelled.Store(true)
		f.err = util.ErrCancelled
		close(f.done)
	})
}

// Done returns a channel that is closed when the task has finished or was dropped
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or is dropped, or until ctx is done.
// It returns ctx's error in the latter case and nil otherwise; the task's
// own outcome is available from Err.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the task's panic as an error, util.ErrCancelled if the task was
// dropped, or nil. It is only meaningful once Done is closed.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Cancelled reports whether the task was dropped before it ran
func (f *Future) Cancelled() bool {
	return f.cancelled.Load()
}

// IsRejected checks if an error is a submission rejection
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
