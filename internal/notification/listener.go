package notification

import (
	"sync"

	"github.com/aryankumar/paratest/internal/runner"
)

// Listener receives lifecycle events for a run. A callback that returns an
// error or panics is reported back to the other listeners as a failure.
type Listener interface {
	TestRunStarted(d *runner.Description) error
	TestRunFinished(r *runner.Result) error
	TestSuiteStarted(d *runner.Description) error
	TestSuiteFinished(d *runner.Description) error
	TestStarted(d *runner.Description) error
	TestFinished(d *runner.Description) error
	TestFailure(f runner.Failure) error
	TestAssumptionFailure(f runner.Failure) error
	TestIgnored(d *runner.Description) error
}

// ThreadSafe is implemented by listeners that declare they may be called
// concurrently. The declaration is read once, when the listener is added.
type ThreadSafe interface {
	ThreadSafe() bool
}

// BaseListener implements every callback as a no-op. Embed it to override
// only the events you care about. Listeners embedding BaseListener are
// serialised by the bus.
type BaseListener struct{}

func (BaseListener) TestRunStarted(*runner.Description) error    { return nil }
func (BaseListener) TestRunFinished(*runner.Result) error        { return nil }
func (BaseListener) TestSuiteStarted(*runner.Description) error  { return nil }
func (BaseListener) TestSuiteFinished(*runner.Description) error { return nil }
func (BaseListener) TestStarted(*runner.Description) error       { return nil }
func (BaseListener) TestFinished(*runner.Description) error      { return nil }
func (BaseListener) TestFailure(runner.Failure) error            { return nil }
func (BaseListener) TestAssumptionFailure(runner.Failure) error  { return nil }
func (BaseListener) TestIgnored(*runner.Description) error       { return nil }

// ThreadSafeListener is a BaseListener that declares thread safety.
// Embedders are responsible for guarding their own state.
type ThreadSafeListener struct {
	BaseListener
}

// ThreadSafe returns true
func (ThreadSafeListener) ThreadSafe() bool { return true }

func isThreadSafe(l Listener) bool {
	ts, ok := l.(ThreadSafe)
	return ok && ts.ThreadSafe()
}

// synchronizedListener serialises every callback of a listener that did not
// declare thread safety.
type synchronizedListener struct {
	mu    sync.Mutex
	inner Listener
}

func (s *synchronizedListener) TestRunStarted(d *runner.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestRunStarted(d)
}

func (s *synchronizedListener) TestRunFinished(r *runner.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestRunFinished(r)
}

func (s *synchronizedListener) TestSuiteStarted(d *runner.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestSuiteStarted(d)
}

func (s *synchronizedListener) TestSuiteFinished(d *runner.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestSuiteFinished(d)
}

func (s *synchronizedListener) TestStarted(d *runner.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestStarted(d)
}

func (s *synchronizedListener) TestFinished(d *runner.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestFinished(d)
}

func (s *synchronizedListener) TestFailure(f runner.Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestFailure(f)
}

func (s *synchronizedListener) TestAssumptionFailure(f runner.Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestAssumptionFailure(f)
}

func (s *synchronizedListener) TestIgnored(d *runner.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TestIgnored(d)
}
