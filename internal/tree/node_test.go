package tree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/aryankumar/paratest/internal/notification"
	"github.com/aryankumar/paratest/internal/runner"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventLog records events in order as "event:name"
type eventLog struct {
	notification.ThreadSafeListener
	mu     sync.Mutex
	events []string
}

func (e *eventLog) add(event string, d *runner.Description) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event+":"+d.DisplayName())
	return nil
}

func (e *eventLog) TestSuiteStarted(d *runner.Description) error  { return e.add("suiteStarted", d) }
func (e *eventLog) TestSuiteFinished(d *runner.Description) error { return e.add("suiteFinished", d) }
func (e *eventLog) TestStarted(d *runner.Description) error       { return e.add("started", d) }
func (e *eventLog) TestFinished(d *runner.Description) error      { return e.add("finished", d) }
func (e *eventLog) TestIgnored(d *runner.Description) error       { return e.add("ignored", d) }
func (e *eventLog) TestFailure(f runner.Failure) error            { return e.add("failure", f.Description) }
func (e *eventLog) TestAssumptionFailure(f runner.Failure) error {
	return e.add("assumption", f.Description)
}

func (e *eventLog) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	copy(out, e.events)
	return out
}

func TestSuiteInlineOrder(t *testing.T) {
	suite := NewSuite("S",
		NewCase("S", "a", func(ctx context.Context) error { return nil }),
		NewCase("S", "b", func(ctx context.Context) error { return errors.New("bad") }),
		NewIgnoredCase("S", "c"),
	)
	log := &eventLog{}

	result, err := Run(context.Background(), suite, quietLogger(), log)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		"suiteStarted:S",
		"started:a(S)", "finished:a(S)",
		"started:b(S)", "failure:b(S)", "finished:b(S)",
		"ignored:c(S)",
		"suiteFinished:S",
	}
	got := log.snapshot()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("events =\n%v\nwant\n%v", got, want)
	}

	if result.RunCount() != 2 || result.FailureCount() != 1 || result.IgnoreCount() != 1 {
		t.Errorf("unexpected result: run=%d failures=%d ignored=%d",
			result.RunCount(), result.FailureCount(), result.IgnoreCount())
	}
}

func TestCaseOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		fn    TestFunc
		event string
	}{
		{"pass", func(ctx context.Context) error { return nil }, ""},
		{"error", func(ctx context.Context) error { return errors.New("x") }, "failure"},
		{"panic", func(ctx context.Context) error { panic("kaboom") }, "failure"},
		{"assumption", func(ctx context.Context) error {
			return fmt.Errorf("needs network: %w", runner.ErrAssumptionViolated)
		}, "assumption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := notification.NewBus(quietLogger())
			log := &eventLog{}
			bus.AddListener(log)

			c := NewCase("S", tt.name, tt.fn)
			if err := c.Run(context.Background(), bus); err != nil {
				t.Fatalf("Run() = %v", err)
			}

			events := log.snapshot()
			if len(events) < 2 || events[0] != "started:"+c.Description().DisplayName() {
				t.Fatalf("unexpected events %v", events)
			}
			if events[len(events)-1] != "finished:"+c.Description().DisplayName() {
				t.Errorf("last event should be finished, got %v", events)
			}
			if tt.event == "" {
				if len(events) != 2 {
					t.Errorf("passing test should only start and finish, got %v", events)
				}
				return
			}
			if events[1] != tt.event+":"+c.Description().DisplayName() {
				t.Errorf("events[1] = %q, want %s event", events[1], tt.event)
			}
		})
	}
}

func TestCaseStopRequested(t *testing.T) {
	bus := notification.NewBus(quietLogger())
	bus.PleaseStop()

	ran := false
	c := NewCase("S", "t", func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err := c.Run(context.Background(), bus); !errors.Is(err, notification.ErrStoppedByUser) {
		t.Errorf("Run() = %v, want ErrStoppedByUser", err)
	}
	if ran {
		t.Error("body must not run after stop")
	}
}

func TestCorePleaseStop(t *testing.T) {
	core := NewCore(quietLogger())
	var ran int
	cases := make([]Node, 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		cases = append(cases, NewCase("S", fmt.Sprintf("t%d", i), func(ctx context.Context) error {
			ran++
			if i == 1 {
				core.PleaseStop()
			}
			return nil
		}))
	}

	result, err := core.Run(context.Background(), NewSuite("S", cases...))
	if !errors.Is(err, notification.ErrStoppedByUser) {
		t.Errorf("Run() = %v, want ErrStoppedByUser", err)
	}
	if ran != 2 {
		t.Errorf("expected 2 tests to run, got %d", ran)
	}
	if result.RunCount() != 2 {
		t.Errorf("RunCount() = %d, want 2", result.RunCount())
	}
}

func TestSuiteContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := &eventLog{}
	suite := NewSuite("S", NewCase("S", "a", func(ctx context.Context) error { return nil }))
	if _, err := Run(ctx, suite, quietLogger(), log); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	got := log.snapshot()
	want := []string{"suiteStarted:S", "suiteFinished:S"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

// goPolicy runs each child on its own goroutine and waits in Finished
type goPolicy struct {
	g errgroup.Group
}

func (p *goPolicy) Schedule(ctx context.Context, _ *runner.Description, work func(context.Context)) {
	p.g.Go(func() error {
		work(ctx)
		return nil
	})
}

func (p *goPolicy) Finished(context.Context) {
	_ = p.g.Wait()
}

func TestSuiteCustomPolicy(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	cases := make([]Node, 0, 10)
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("t%d", i)
		cases = append(cases, NewCase("S", name, func(ctx context.Context) error {
			mu.Lock()
			seen[name] = true
			mu.Unlock()
			return nil
		}))
	}

	suite := NewSuite("S", cases...)
	suite.SetPolicy(&goPolicy{})

	result, err := Run(context.Background(), suite, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 10 || result.RunCount() != 10 {
		t.Errorf("expected 10 tests, saw %d, result %d", len(seen), result.RunCount())
	}
}

func TestSuiteChildren(t *testing.T) {
	a := NewCase("S", "a", nil)
	suite := NewSuite("S", a, nil)
	if len(suite.Children()) != 1 {
		t.Fatalf("expected nil children to be dropped, got %d", len(suite.Children()))
	}
	if suite.Description().TestCount() != 1 {
		t.Errorf("TestCount() = %d", suite.Description().TestCount())
	}
	suite.SetPolicy(nil)
	if _, ok := suite.Policy().(InlinePolicy); !ok {
		t.Error("nil policy should fall back to InlinePolicy")
	}
}
