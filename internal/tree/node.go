package tree

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"

	"github.com/aryankumar/paratest/internal/notification"
	"github.com/aryankumar/paratest/internal/runner"
)

// Policy decides how the children of a composite node are dispatched.
// Schedule is called once per child, in order; Finished is called after the
// last child has been scheduled and must not return until every scheduled
// unit of work has been observed.
type Policy interface {
	Schedule(ctx context.Context, child *runner.Description, work func(context.Context))
	Finished(ctx context.Context)
}

// Node is an element of the execution tree
type Node interface {
	Description() *runner.Description
	Run(ctx context.Context, bus *notification.Bus) error
}

// Composite is a node with children whose dispatch is controlled by a Policy
type Composite interface {
	Node
	Children() []Node
	SetPolicy(p Policy)
}

// InlinePolicy runs every child on the calling goroutine
type InlinePolicy struct{}

// Schedule runs work immediately
func (InlinePolicy) Schedule(ctx context.Context, _ *runner.Description, work func(context.Context)) {
	work(ctx)
}

// Finished is a no-op, all work has already run
func (InlinePolicy) Finished(context.Context) {}

// Suite is a composite node. Its children run through the attached Policy,
// which defaults to InlinePolicy.
type Suite struct {
	desc     *runner.Description
	children []Node

	mu     sync.RWMutex
	policy Policy
}

// NewSuite creates a suite from its children. Nil children are dropped.
func NewSuite(name string, children ...Node) *Suite {
	kids := make([]Node, 0, len(children))
	descs := make([]*runner.Description, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		kids = append(kids, c)
		descs = append(descs, c.Description())
	}
	return &Suite{
		desc:     runner.NewSuiteDescription(name, descs...),
		children: kids,
		policy:   InlinePolicy{},
	}
}

// Description returns the suite's description
func (s *Suite) Description() *runner.Description {
	return s.desc
}

// Children returns a copy of the suite's children
func (s *Suite) Children() []Node {
	out := make([]Node, len(s.children))
	copy(out, s.children)
	return out
}

// SetPolicy attaches the dispatch policy. It must be called before Run.
func (s *Suite) SetPolicy(p Policy) {
	if p == nil {
		p = InlinePolicy{}
	}
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
}

// Policy returns the attached dispatch policy
func (s *Suite) Policy() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Run fires suite started, dispatches every child through the policy, waits
// for the policy to finish and fires suite finished. Scheduling stops early
// when ctx is done or a stop was requested on the bus; children already
// scheduled are still awaited. Returns notification.ErrStoppedByUser if any
// child was stopped.
func (s *Suite) Run(ctx context.Context, bus *notification.Bus) error {
	bus.FireTestSuiteStarted(s.desc)

	policy := s.Policy()
	var stopped atomic.Bool
	for _, child := range s.children {
		if bus.StopRequested() {
			stopped.Store(true)
			break
		}
		if ctx.Err() != nil {
			break
		}
		policy.Schedule(ctx, child.Description(), func(ctx context.Context) {
			if err := child.Run(ctx, bus); errors.Is(err, notification.ErrStoppedByUser) {
				stopped.Store(true)
			}
		})
	}
	policy.Finished(ctx)

	bus.FireTestSuiteFinished(s.desc)

	if stopped.Load() {
		return notification.ErrStoppedByUser
	}
	return nil
}

// TestFunc is the body of a test case
type TestFunc func(ctx context.Context) error

// Case is a leaf node wrapping a single test body
type Case struct {
	desc    *runner.Description
	fn      TestFunc
	ignored bool
}

// NewCase creates a test case named name in suite
func NewCase(suite, name string, fn TestFunc) *Case {
	return &Case{
		desc: runner.NewCaseDescription(suite, name),
		fn:   fn,
	}
}

// NewIgnoredCase creates a test case that is reported as ignored and never run
func NewIgnoredCase(suite, name string) *Case {
	return &Case{
		desc:    runner.NewCaseDescription(suite, name),
		ignored: true,
	}
}

// Description returns the case's description
func (c *Case) Description() *runner.Description {
	return c.desc
}

// Run executes the test body and reports its outcome on bus. A panic or a
// returned error is a failure; an error wrapping runner.ErrAssumptionViolated
// is an assumption failure. Returns notification.ErrStoppedByUser, without
// running the body, if a stop was requested.
func (c *Case) Run(ctx context.Context, bus *notification.Bus) error {
	if c.ignored || c.fn == nil {
		bus.FireTestIgnored(c.desc)
		return nil
	}

	if err := bus.FireTestStarted(c.desc); err != nil {
		return err
	}
	defer bus.FireTestFinished(c.desc)

	var err error
	if recovered := panics.Try(func() { err = c.fn(ctx) }); recovered != nil {
		err = recovered.AsError()
	}

	switch {
	case err == nil:
	case errors.Is(err, runner.ErrAssumptionViolated):
		bus.FireTestAssumptionFailure(runner.NewFailure(c.desc, err))
	default:
		bus.FireTestFailure(runner.NewFailure(c.desc, err))
	}
	return nil
}
