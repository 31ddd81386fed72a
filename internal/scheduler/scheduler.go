package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/aryankumar/paratest/internal/executor"
	"github.com/aryankumar/paratest/internal/runner"
	"github.com/aryankumar/paratest/internal/tree"
	"github.com/aryankumar/paratest/internal/util"
)

// Mode is the parallelism configuration chosen at construction
type Mode int

const (
	// ModeParallelSuites runs suites concurrently on one owned unbounded pool per run
	ModeParallelSuites Mode = iota
	// ModeParallelCases runs the cases of each suite on an owned unbounded pool per suite
	ModeParallelCases
	// ModeSharedPool runs suites and cases on one externally supplied pool
	ModeSharedPool
	// ModeOwnedSharedPool runs suites and cases on one pool created per run
	ModeOwnedSharedPool
	// ModeTwoPools runs suites and cases on two externally supplied pools
	ModeTwoPools
)

// String returns the mode name as used in configuration
func (m Mode) String() string {
	switch m {
	case ModeParallelSuites:
		return "suites"
	case ModeParallelCases:
		return "cases"
	case ModeSharedPool:
		return "shared"
	case ModeOwnedSharedPool:
		return "owned-shared"
	case ModeTwoPools:
		return "two-pools"
	default:
		return "unknown"
	}
}

// ParseMode returns the mode named by s, as produced by Mode.String
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeParallelSuites, ModeParallelCases, ModeSharedPool, ModeOwnedSharedPool, ModeTwoPools} {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return 0, util.NewValidationError("mode", s, "must be one of suites, cases, shared, owned-shared, two-pools")
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scheduler attaches dispatch policies to a test tree and controls the pools
// they run on. Build the tree with Suite, run it, and call Shutdown to cancel.
type Scheduler struct {
	mode   Mode
	logger *slog.Logger

	// external pools, modes ModeSharedPool and ModeTwoPools
	sharedPool *executor.Pool
	suitePool  *executor.Pool
	casePool   *executor.Pool

	// shared-pool sizing; capacity 0 is unbounded
	capacity       int
	minCaseWorkers int

	// mu orders Shutdown against the check-and-submit in dispatch
	mu       sync.RWMutex
	shutdown atomic.Bool
	// runs holds the runs built by Suite that have not finished
	runs     []*run
	last     *run
	prepared int

	// inFlight holds descriptions whose work was submitted and has not returned
	inFlight sync.Map

	ownedMu sync.Mutex
	owned   map[*executor.Pool]struct{}
}

func newScheduler(mode Mode, opts ...Option) *Scheduler {
	s := &Scheduler{
		mode:   mode,
		logger: slog.Default(),
		owned:  make(map[*executor.Pool]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run is the state of one top-level run, created by Suite
type run struct {
	id     uuid.UUID
	suites int
	// standalone runs back a single RunnerFor node and have no suite policy
	standalone bool

	// shared-pool modes only
	balancer *Balancer
	latch    *CompletionLatch
	pool     *executor.Pool
	ownsPool bool

	// slots of scheduled suites keyed by description ID
	slots sync.Map
}

// suiteSlot is the balancer permit and latch count held by one scheduled suite
type suiteSlot struct {
	r        *run
	acquired bool
	once     sync.Once
}

// finish counts the latch down and returns the permit, once
func (sl *suiteSlot) finish() {
	sl.once.Do(func() {
		sl.r.latch.CountDown()
		if sl.acquired {
			sl.r.balancer.Release()
		}
	})
}

// Mode returns the configured mode
func (s *Scheduler) Mode() Mode {
	return s.mode
}

func (s *Scheduler) shared() bool {
	return s.mode == ModeSharedPool || s.mode == ModeOwnedSharedPool
}

func (s *Scheduler) external() bool {
	return s.mode == ModeSharedPool || s.mode == ModeTwoPools
}

// Suite builds the root of a run from suites and attaches the dispatch
// policies: the suite-level policy on the root and the case-level policy on
// each suite. The balancer and completion latch of the run are sized from
// len(suites).
func (s *Scheduler) Suite(name string, suites ...tree.Composite) (*tree.Suite, error) {
	composites := make([]tree.Composite, 0, len(suites))
	children := make([]tree.Node, 0, len(suites))
	for _, c := range suites {
		if c == nil {
			continue
		}
		composites = append(composites, c)
		children = append(children, c)
	}

	r, err := s.newRun(len(composites))
	if err != nil {
		return nil, err
	}

	root := tree.NewSuite(name, children...)
	root.SetPolicy(s.newSuitePolicy(r))
	for _, c := range composites {
		c.SetPolicy(s.newCasePolicy(r, c.Description()))
	}

	s.logger.Debug("run prepared",
		"root", name,
		"mode", s.mode.String(),
		"suites", len(composites),
		"tests", root.Description().TestCount())
	return root, nil
}

// RunnerFor attaches the case-level policy to node and returns it. It binds
// node to the most recent run created by Suite that has not finished, or to
// a standalone run of its own if there is none.
func (s *Scheduler) RunnerFor(node tree.Composite) (tree.Composite, error) {
	if node == nil {
		return nil, util.NewValidationError("node", nil, "must not be nil")
	}

	s.mu.RLock()
	var r *run
	if n := len(s.runs); n > 0 {
		r = s.runs[n-1]
	}
	s.mu.RUnlock()

	if r == nil {
		var err error
		if r, err = s.newStandaloneRun(); err != nil {
			return nil, err
		}
	}
	node.SetPolicy(s.newCasePolicy(r, node.Description()))
	return node, nil
}

func (s *Scheduler) newRun(suites int) (*run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.prepareRun(suites)
	if err != nil {
		return nil, err
	}
	s.runs = append(s.runs, r)
	s.last = r
	s.prepared++
	return r, nil
}

// newStandaloneRun prepares a run that is not tracked in s.runs. Its case
// policy releases the run's owned pool when the node finishes.
func (s *Scheduler) newStandaloneRun() (*run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.prepareRun(0)
	if err != nil {
		return nil, err
	}
	r.standalone = true
	return r, nil
}

// finishRun drops r from the unfinished runs
func (s *Scheduler) finishRun(r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.runs {
		if cur == r {
			s.runs = append(s.runs[:i], s.runs[i+1:]...)
			return
		}
	}
}

// prepareRun must be called with s.mu held
func (s *Scheduler) prepareRun(suites int) (*run, error) {
	if s.shutdown.Load() {
		return nil, util.WrapErrorf(util.ErrShutdown, "preparing run")
	}

	r := &run{id: uuid.New(), suites: suites}
	if s.shared() {
		r.latch = NewCompletionLatch(suites)
		switch s.mode {
		case ModeSharedPool:
			r.pool = s.sharedPool
		case ModeOwnedSharedPool:
			if s.capacity > 0 {
				r.pool = executor.NewPool(s.capacity, s.logger, executor.WithName("shared-"+r.id.String()[:8]))
			} else {
				r.pool = executor.NewUnboundedPool(s.logger, executor.WithName("shared-"+r.id.String()[:8]))
			}
			r.ownsPool = true
			s.trackOwned(r.pool)
		}
		r.balancer = NewBalancer(balancerPermits(r.pool.Capacity(), s.minCaseWorkers, suites))
	}
	return r, nil
}

func (s *Scheduler) trackOwned(p *executor.Pool) {
	s.ownedMu.Lock()
	s.owned[p] = struct{}{}
	s.ownedMu.Unlock()
}

func (s *Scheduler) untrackOwned(p *executor.Pool) {
	s.ownedMu.Lock()
	delete(s.owned, p)
	s.ownedMu.Unlock()
}

func (s *Scheduler) newOwnedPool(name string) *executor.Pool {
	p := executor.NewUnboundedPool(s.logger, executor.WithName(name))
	s.trackOwned(p)
	return p
}

// dispatch submits work for desc to pool unless the scheduler is shut down.
// The flag check and the submission happen under the read lock, so once
// Shutdown holds the write lock no further work reaches any pool. A rejected
// submission moves the scheduler into quiet shutdown.
func (s *Scheduler) dispatch(ctx context.Context, pool *executor.Pool, desc *runner.Description, work func(context.Context)) (*executor.Future, bool) {
	id := desc.ID()

	s.mu.RLock()
	if s.shutdown.Load() {
		s.mu.RUnlock()
		s.logger.Debug("dropping work after shutdown", "test", desc.DisplayName())
		return nil, false
	}
	s.inFlight.Store(id, desc)
	f, err := pool.Submit(func(interrupt context.Context) {
		defer s.inFlight.Delete(id)
		wctx, cancel := mergeContext(ctx, interrupt)
		defer cancel()
		work(wctx)
	})
	s.mu.RUnlock()

	if err != nil {
		s.inFlight.Delete(id)
		s.logger.Warn("scheduling rejected, shutting down quietly",
			"test", desc.DisplayName(),
			"pool", pool.Name(),
			"error", err)
		s.Shutdown(false)
		return nil, false
	}

	s.logger.Debug("work scheduled", "test", desc.DisplayName(), "pool", pool.Name())
	return f, true
}

// runInline executes work on the calling goroutine, tracking it in the ledger
func (s *Scheduler) runInline(ctx context.Context, desc *runner.Description, work func(context.Context)) {
	if s.shutdown.Load() {
		return
	}
	id := desc.ID()
	s.inFlight.Store(id, desc)
	defer s.inFlight.Delete(id)
	work(ctx)
}

// mergeContext returns a context cancelled when either parent or interrupt is done
func mergeContext(parent, interrupt context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(interrupt, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Shutdown stops all further scheduling and returns the descriptions of work
// that was submitted and had not returned.
//
// When every pool is owned by the scheduler, only the flag is set and running
// work is left to finish. With externally supplied pools, all balancer permits
// are released, completion latches are forced open and the pools are shut
// down; now interrupts running work and drops queued work.
func (s *Scheduler) Shutdown(now bool) []*runner.Description {
	s.mu.Lock()
	first := s.shutdown.CompareAndSwap(false, true)
	runs := make([]*run, len(s.runs))
	copy(runs, s.runs)
	s.mu.Unlock()

	snapshot := s.InFlight()

	if first {
		s.logger.Info("scheduler shutting down",
			"mode", s.mode.String(),
			"now", now,
			"in_flight", len(snapshot))
	}

	if !s.external() {
		return snapshot
	}

	for _, r := range runs {
		if r.balancer != nil {
			r.balancer.ReleaseAll()
		}
		if r.latch != nil {
			r.latch.Drain()
		}
	}
	for _, p := range []*executor.Pool{s.sharedPool, s.suitePool, s.casePool} {
		if p == nil {
			continue
		}
		if now {
			p.ShutdownNow()
		} else {
			p.Shutdown()
		}
	}
	return snapshot
}

// IsShutdown reports whether Shutdown has been called or a submission was rejected
func (s *Scheduler) IsShutdown() bool {
	return s.shutdown.Load()
}

// InFlight returns the descriptions of work submitted and not yet returned
func (s *Scheduler) InFlight() []*runner.Description {
	out := make([]*runner.Description, 0)
	s.inFlight.Range(func(_, v any) bool {
		out = append(out, v.(*runner.Description))
		return true
	})
	return out
}

// Stats describes the most recent run
type Stats struct {
	Mode Mode
	// Runs counts the runs built by Suite; ActiveRuns those not yet finished
	Runs       int
	ActiveRuns int
	Permits    int64
	PeakSuites int64
	InFlight   int
	OwnedPools int
}

// Stats returns counters for the most recent run. Permits and PeakSuites are
// zero outside the shared-pool modes.
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	st := Stats{Mode: s.mode, Runs: s.prepared, ActiveRuns: len(s.runs)}
	if s.last != nil && s.last.balancer != nil {
		st.Permits = s.last.balancer.Permits()
		st.PeakSuites = s.last.balancer.Peak()
	}
	s.mu.RUnlock()

	st.InFlight = len(s.InFlight())
	s.ownedMu.Lock()
	st.OwnedPools = len(s.owned)
	s.ownedMu.Unlock()
	return st
}
