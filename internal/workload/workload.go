// Package workload builds synthetic test trees for exercising the scheduler.
package workload

import (
	"context"
	"fmt"
	"time"

	"github.com/aryankumar/paratest/internal/runner"
	"github.com/aryankumar/paratest/internal/tree"
	"github.com/aryankumar/paratest/internal/util"
)

// Shape describes a synthetic tree of Suites suites with Cases cases each.
// Cases are numbered across the whole tree starting at 1; every FailEvery-th
// case fails, every SkipEvery-th violates an assumption and every
// IgnoreEvery-th is ignored. Zero disables each cadence.
type Shape struct {
	Suites      int           `yaml:"suites" json:"suites"`
	Cases       int           `yaml:"cases" json:"cases"`
	CaseDelay   time.Duration `yaml:"caseDelay" json:"caseDelay"`
	FailEvery   int           `yaml:"failEvery" json:"failEvery"`
	SkipEvery   int           `yaml:"skipEvery" json:"skipEvery"`
	IgnoreEvery int           `yaml:"ignoreEvery" json:"ignoreEvery"`
}

// Validate checks that no field is negative
func (s Shape) Validate() error {
	errs := util.NewMultiError(nil)
	for _, f := range []struct {
		name  string
		value int64
	}{
		{"workload.suites", int64(s.Suites)},
		{"workload.cases", int64(s.Cases)},
		{"workload.caseDelay", int64(s.CaseDelay)},
		{"workload.failEvery", int64(s.FailEvery)},
		{"workload.skipEvery", int64(s.SkipEvery)},
		{"workload.ignoreEvery", int64(s.IgnoreEvery)},
	} {
		if f.value < 0 {
			errs.Add(util.NewValidationError(f.name, f.value, "must not be negative"))
		}
	}
	return errs.ErrorOrNil()
}

// Total returns the number of cases in the tree
func (s Shape) Total() int {
	return s.Suites * s.Cases
}

// Build creates the suites described by s
func Build(s Shape) ([]tree.Composite, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	suites := make([]tree.Composite, 0, s.Suites)
	n := 0
	for i := 1; i <= s.Suites; i++ {
		name := fmt.Sprintf("Suite%02d", i)
		cases := make([]tree.Node, 0, s.Cases)
		for j := 1; j <= s.Cases; j++ {
			n++
			caseName := fmt.Sprintf("test%02d", j)
			if every(s.IgnoreEvery, n) {
				cases = append(cases, tree.NewIgnoredCase(name, caseName))
				continue
			}
			cases = append(cases, tree.NewCase(name, caseName, s.body(n)))
		}
		suites = append(suites, tree.NewSuite(name, cases...))
	}
	return suites, nil
}

func every(cadence, n int) bool {
	return cadence > 0 && n%cadence == 0
}

// body returns the test function of the n-th case
func (s Shape) body(n int) tree.TestFunc {
	fail := every(s.FailEvery, n)
	skip := every(s.SkipEvery, n)
	delay := s.CaseDelay

	return func(ctx context.Context) error {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		switch {
		case fail:
			return fmt.Errorf("synthetic failure in case %d", n)
		case skip:
			return fmt.Errorf("case %d: %w", n, runner.ErrAssumptionViolated)
		}
		return nil
	}
}
