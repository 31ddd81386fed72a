package telemetry

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aryankumar/paratest/internal/notification"
	"github.com/aryankumar/paratest/internal/runner"
)

const tracerName = "paratest/runner"

// openSpan is a started span and whether a failure was recorded on it
type openSpan struct {
	ctx    context.Context
	span   trace.Span
	failed atomic.Bool
}

// TracingListener turns notifications into spans: one per run, one per suite
// under the run and one per test under its suite. It is safe for concurrent
// use.
type TracingListener struct {
	notification.ThreadSafeListener

	tracer trace.Tracer
	parent context.Context

	mu  sync.RWMutex
	run *openSpan
	// suite spans by suite name, used to parent test spans
	suites map[string]*openSpan

	// open suite and test spans by description ID
	spans sync.Map
}

// NewTracingListener creates a listener whose run span is a child of any span
// in ctx. A nil provider uses the global one.
func NewTracingListener(ctx context.Context, tp trace.TracerProvider) *TracingListener {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingListener{
		tracer: tp.Tracer(tracerName),
		parent: ctx,
		suites: make(map[string]*openSpan),
	}
}

func (l *TracingListener) runContext() context.Context {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.run != nil {
		return l.run.ctx
	}
	return l.parent
}

func (l *TracingListener) start(parent context.Context, name string, attrs ...attribute.KeyValue) *openSpan {
	ctx, span := l.tracer.Start(parent, name, trace.WithAttributes(attrs...))
	return &openSpan{ctx: ctx, span: span}
}

func (l *TracingListener) end(d *runner.Description) {
	v, ok := l.spans.LoadAndDelete(d.ID())
	if !ok {
		return
	}
	s := v.(*openSpan)
	if !s.failed.Load() {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// TestRunStarted opens the run span
func (l *TracingListener) TestRunStarted(d *runner.Description) error {
	s := l.start(l.parent, "test.run",
		attribute.String("test.root", d.DisplayName()),
		attribute.Int("test.count", d.TestCount()))

	l.mu.Lock()
	l.run = s
	l.mu.Unlock()
	return nil
}

// TestRunFinished records the totals and closes the run span
func (l *TracingListener) TestRunFinished(r *runner.Result) error {
	l.mu.Lock()
	s := l.run
	l.run = nil
	l.suites = make(map[string]*openSpan)
	l.mu.Unlock()

	if s == nil {
		return nil
	}
	s.span.SetAttributes(
		attribute.Int("test.run_count", r.RunCount()),
		attribute.Int("test.failure_count", r.FailureCount()),
		attribute.Int("test.ignore_count", r.IgnoreCount()),
		attribute.Int64("test.duration_ms", r.RunTime().Milliseconds()))
	switch {
	case !r.WasSuccessful():
		s.span.SetStatus(codes.Error, "run had failures")
	case !s.failed.Load():
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
	return nil
}

// TestSuiteStarted opens a suite span
func (l *TracingListener) TestSuiteStarted(d *runner.Description) error {
	s := l.start(l.runContext(), d.DisplayName(),
		attribute.String("test.kind", d.Kind().String()),
		attribute.String("test.suite", d.SuiteName()),
		attribute.Int("test.count", d.TestCount()))

	l.spans.Store(d.ID(), s)
	l.mu.Lock()
	l.suites[d.SuiteName()] = s
	l.mu.Unlock()
	return nil
}

// TestSuiteFinished closes a suite span
func (l *TracingListener) TestSuiteFinished(d *runner.Description) error {
	l.mu.Lock()
	if s, ok := l.suites[d.SuiteName()]; ok {
		if v, ok := l.spans.Load(d.ID()); ok && v.(*openSpan) == s {
			delete(l.suites, d.SuiteName())
		}
	}
	l.mu.Unlock()
	l.end(d)
	return nil
}

func (l *TracingListener) suiteContext(suite string) context.Context {
	l.mu.RLock()
	s, ok := l.suites[suite]
	l.mu.RUnlock()
	if ok {
		return s.ctx
	}
	return l.runContext()
}

// TestStarted opens a test span under its suite
func (l *TracingListener) TestStarted(d *runner.Description) error {
	s := l.start(l.suiteContext(d.SuiteName()), d.DisplayName(),
		attribute.String("test.kind", d.Kind().String()),
		attribute.String("test.suite", d.SuiteName()))
	l.spans.Store(d.ID(), s)
	return nil
}

// TestFinished closes a test span
func (l *TracingListener) TestFinished(d *runner.Description) error {
	l.end(d)
	return nil
}

// TestFailure records the error on the test span, or on the run span when
// the failure does not belong to an open test
func (l *TracingListener) TestFailure(f runner.Failure) error {
	var s *openSpan
	if f.Description != nil {
		if v, ok := l.spans.Load(f.Description.ID()); ok {
			s = v.(*openSpan)
		}
	}
	if s == nil {
		l.mu.RLock()
		s = l.run
		l.mu.RUnlock()
	}
	if s == nil {
		return nil
	}

	if f.Err != nil {
		s.span.RecordError(f.Err)
	}
	s.span.SetStatus(codes.Error, f.Message())
	s.failed.Store(true)
	return nil
}

// TestAssumptionFailure marks the test span as skipped
func (l *TracingListener) TestAssumptionFailure(f runner.Failure) error {
	if f.Description == nil {
		return nil
	}
	if v, ok := l.spans.Load(f.Description.ID()); ok {
		s := v.(*openSpan)
		s.span.SetAttributes(attribute.String("test.status", string(runner.StatusSkipped)))
		s.span.AddEvent("assumption violated", trace.WithAttributes(attribute.String("message", f.Message())))
	}
	return nil
}

// TestIgnored records a zero-length span for a test that did not run
func (l *TracingListener) TestIgnored(d *runner.Description) error {
	s := l.start(l.suiteContext(d.SuiteName()), d.DisplayName(),
		attribute.String("test.kind", d.Kind().String()),
		attribute.String("test.suite", d.SuiteName()),
		attribute.String("test.status", string(runner.StatusIgnored)))
	s.span.End()
	return nil
}
