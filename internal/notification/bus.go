package notification

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"

	"github.com/aryankumar/paratest/internal/runner"
)

// ErrStoppedByUser is returned by FireTestStarted after PleaseStop was called
var ErrStoppedByUser = errors.New("test run stopped by user")

type entry struct {
	// listener is what the bus calls; it may be a synchronizedListener
	listener Listener
	// inner is the listener as registered, used for removal
	inner Listener
}

// Bus delivers lifecycle events to registered listeners.
//
// The listener list is copy-on-write: every Fire* call iterates the snapshot
// taken when it began, so listeners added or removed concurrently only see
// later events. A listener that returns an error or panics is skipped for the
// rest of that event and its failure is delivered, as a TestFailure against
// runner.TestMechanism, to the listeners that handled the event successfully.
type Bus struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]entry]

	stopRequested atomic.Bool
	logger        *slog.Logger
}

// NewBus creates an empty bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{logger: logger}
	empty := make([]entry, 0)
	b.listeners.Store(&empty)
	return b
}

func newEntry(l Listener) entry {
	if isThreadSafe(l) {
		return entry{listener: l, inner: l}
	}
	return entry{listener: &synchronizedListener{inner: l}, inner: l}
}

// AddListener appends a listener
func (b *Bus) AddListener(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := *b.listeners.Load()
	next := make([]entry, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, newEntry(l))
	b.listeners.Store(&next)
}

// AddFirstListener inserts a listener ahead of all others so that it
// observes every event first
func (b *Bus) AddFirstListener(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := *b.listeners.Load()
	next := make([]entry, 0, len(cur)+1)
	next = append(next, newEntry(l))
	next = append(next, cur...)
	b.listeners.Store(&next)
}

// RemoveListener removes the first registration of l and reports whether it
// was found. l is the listener as it was passed to AddListener.
func (b *Bus) RemoveListener(l Listener) bool {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := *b.listeners.Load()
	for i, e := range cur {
		if e.inner != l {
			continue
		}
		next := make([]entry, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		b.listeners.Store(&next)
		return true
	}
	return false
}

// Len returns the number of registered listeners
func (b *Bus) Len() int {
	return len(*b.listeners.Load())
}

// PleaseStop asks the run to stop. The next FireTestStarted returns
// ErrStoppedByUser.
func (b *Bus) PleaseStop() {
	b.stopRequested.Store(true)
}

// StopRequested reports whether PleaseStop was called
func (b *Bus) StopRequested() bool {
	return b.stopRequested.Load()
}

// FireTestRunStarted notifies listeners that the run is about to start
func (b *Bus) FireTestRunStarted(d *runner.Description) {
	b.fire("TestRunStarted", func(l Listener) error { return l.TestRunStarted(d) })
}

// FireTestRunFinished notifies listeners that the run has finished
func (b *Bus) FireTestRunFinished(r *runner.Result) {
	b.fire("TestRunFinished", func(l Listener) error { return l.TestRunFinished(r) })
}

// FireTestSuiteStarted notifies listeners that a suite is about to run
func (b *Bus) FireTestSuiteStarted(d *runner.Description) {
	b.fire("TestSuiteStarted", func(l Listener) error { return l.TestSuiteStarted(d) })
}

// FireTestSuiteFinished notifies listeners that a suite has finished
func (b *Bus) FireTestSuiteFinished(d *runner.Description) {
	b.fire("TestSuiteFinished", func(l Listener) error { return l.TestSuiteFinished(d) })
}

// FireTestStarted notifies listeners that a test is about to run. If a stop
// was requested it returns ErrStoppedByUser without notifying anyone, and the
// caller must not run the test.
func (b *Bus) FireTestStarted(d *runner.Description) error {
	if b.stopRequested.Load() {
		return ErrStoppedByUser
	}
	b.fire("TestStarted", func(l Listener) error { return l.TestStarted(d) })
	return nil
}

// FireTestFinished notifies listeners that a test has finished
func (b *Bus) FireTestFinished(d *runner.Description) {
	b.fire("TestFinished", func(l Listener) error { return l.TestFinished(d) })
}

// FireTestFailure notifies listeners that a test failed
func (b *Bus) FireTestFailure(f runner.Failure) {
	b.fire("TestFailure", func(l Listener) error { return l.TestFailure(f) })
}

// FireTestAssumptionFailure notifies listeners that a test's assumption did not hold
func (b *Bus) FireTestAssumptionFailure(f runner.Failure) {
	b.fire("TestAssumptionFailure", func(l Listener) error { return l.TestAssumptionFailure(f) })
}

// FireTestIgnored notifies listeners that a test was skipped without running
func (b *Bus) FireTestIgnored(d *runner.Description) {
	b.fire("TestIgnored", func(l Listener) error { return l.TestIgnored(d) })
}

func (b *Bus) fire(event string, notify func(Listener) error) {
	snapshot := *b.listeners.Load()
	if len(snapshot) == 0 {
		return
	}

	safe := make([]entry, 0, len(snapshot))
	var failures []runner.Failure
	for _, e := range snapshot {
		if err := invoke(e.listener, notify); err != nil {
			b.logger.Warn("listener failed",
				"event", event,
				"listener", fmt.Sprintf("%T", e.inner),
				"error", err)
			failures = append(failures, runner.NewFailure(runner.TestMechanism,
				fmt.Errorf("listener %T failed on %s: %w", e.inner, event, err)))
			continue
		}
		safe = append(safe, e)
	}

	// Failures of the failure notification are logged only, bounding recursion
	// to one extra level.
	for _, f := range failures {
		for _, e := range safe {
			if err := invoke(e.listener, func(l Listener) error { return l.TestFailure(f) }); err != nil {
				b.logger.Error("listener failed while reporting a listener failure",
					"listener", fmt.Sprintf("%T", e.inner),
					"error", err)
			}
		}
	}
}

func invoke(l Listener, notify func(Listener) error) error {
	var err error
	if r := panics.Try(func() { err = notify(l) }); r != nil {
		return r.AsError()
	}
	return err
}
