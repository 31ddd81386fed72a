package runner

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the outcome of a single test
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusIgnored Status = "ignored"
	StatusSkipped Status = "skipped"
)

// TestRecord is the outcome of one finished or ignored test
type TestRecord struct {
	Suite    string
	Name     string
	Status   Status
	Duration time.Duration
	Err      error
}

// Result collects the outcome of a run. It is safe for concurrent use and is
// fed by the listener returned from Listener.
type Result struct {
	runCount        atomic.Int64
	ignoreCount     atomic.Int64
	assumptionCount atomic.Int64
	startTime       atomic.Int64
	runTime         atomic.Int64

	mu       sync.Mutex
	failures []Failure
	records  []TestRecord

	listener *ResultListener
}

// NewResult creates an empty result
func NewResult() *Result {
	r := &Result{}
	r.listener = &ResultListener{result: r}
	return r
}

// RunCount returns the number of tests that finished
func (r *Result) RunCount() int {
	return int(r.runCount.Load())
}

// FailureCount returns the number of failures, including failures that are
// not attached to a single test
func (r *Result) FailureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

// IgnoreCount returns the number of ignored tests
func (r *Result) IgnoreCount() int {
	return int(r.ignoreCount.Load())
}

// AssumptionFailureCount returns the number of tests skipped by a violated assumption
func (r *Result) AssumptionFailureCount() int {
	return int(r.assumptionCount.Load())
}

// RunTime returns the wall-clock time of the run
func (r *Result) RunTime() time.Duration {
	return time.Duration(r.runTime.Load())
}

// Failures returns a copy of all recorded failures
func (r *Result) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Records returns a copy of the per-test records in completion order
func (r *Result) Records() []TestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TestRecord, len(r.records))
	copy(out, r.records)
	return out
}

// WasSuccessful reports whether the run had no failures
func (r *Result) WasSuccessful() bool {
	return r.FailureCount() == 0
}

// Listener returns the listener that populates r
func (r *Result) Listener() *ResultListener {
	return r.listener
}

// ResultListener records notifications into a Result. It guards its own
// state and declares itself thread-safe, so the bus does not serialise it.
type ResultListener struct {
	result *Result
	// in-flight tests keyed by description ID
	running sync.Map
}

type runningTest struct {
	started time.Time

	mu         sync.Mutex
	err        error
	assumption bool
}

// ThreadSafe reports that the listener may be called concurrently
func (l *ResultListener) ThreadSafe() bool { return true }

// TestRunStarted records the start time of the run
func (l *ResultListener) TestRunStarted(*Description) error {
	l.result.startTime.Store(time.Now().UnixNano())
	return nil
}

// TestRunFinished records the total run time
func (l *ResultListener) TestRunFinished(*Result) error {
	start := l.result.startTime.Load()
	if start != 0 {
		l.result.runTime.Store(time.Now().UnixNano() - start)
	}
	return nil
}

// TestSuiteStarted is a no-op
func (l *ResultListener) TestSuiteStarted(*Description) error { return nil }

// TestSuiteFinished is a no-op
func (l *ResultListener) TestSuiteFinished(*Description) error { return nil }

// TestStarted marks a test as running
func (l *ResultListener) TestStarted(d *Description) error {
	l.running.Store(d.ID(), &runningTest{started: time.Now()})
	return nil
}

// TestFinished counts the test and stores its record
func (l *ResultListener) TestFinished(d *Description) error {
	l.result.runCount.Add(1)

	rec := TestRecord{Suite: d.SuiteName(), Name: d.DisplayName(), Status: StatusPassed}
	if v, ok := l.running.LoadAndDelete(d.ID()); ok {
		rt := v.(*runningTest)
		rt.mu.Lock()
		rec.Duration = time.Since(rt.started)
		switch {
		case rt.err != nil:
			rec.Status = StatusFailed
			rec.Err = rt.err
		case rt.assumption:
			rec.Status = StatusSkipped
		}
		rt.mu.Unlock()
	}

	l.result.mu.Lock()
	l.result.records = append(l.result.records, rec)
	l.result.mu.Unlock()
	return nil
}

// TestFailure stores the failure and marks the running test failed
func (l *ResultListener) TestFailure(f Failure) error {
	l.result.mu.Lock()
	l.result.failures = append(l.result.failures, f)
	l.result.mu.Unlock()

	if f.Description == nil {
		return nil
	}
	if v, ok := l.running.Load(f.Description.ID()); ok {
		rt := v.(*runningTest)
		rt.mu.Lock()
		if rt.err == nil {
			rt.err = f.Err
		} else {
			rt.err = errors.Join(rt.err, f.Err)
		}
		rt.mu.Unlock()
	}
	return nil
}

// TestAssumptionFailure marks the running test skipped
func (l *ResultListener) TestAssumptionFailure(f Failure) error {
	l.result.assumptionCount.Add(1)
	if f.Description == nil {
		return nil
	}
	if v, ok := l.running.Load(f.Description.ID()); ok {
		rt := v.(*runningTest)
		rt.mu.Lock()
		rt.assumption = true
		rt.mu.Unlock()
	}
	return nil
}

// TestIgnored counts the test and stores an ignored record
func (l *ResultListener) TestIgnored(d *Description) error {
	l.result.ignoreCount.Add(1)
	l.result.mu.Lock()
	l.result.records = append(l.result.records, TestRecord{
		Suite:  d.SuiteName(),
		Name:   d.DisplayName(),
		Status: StatusIgnored,
	})
	l.result.mu.Unlock()
	return nil
}
