package output

import (
	"fmt"
	"io"
	"time"

	"github.com/aryankumar/paratest/internal/notification"
	"github.com/aryankumar/paratest/internal/runner"
)

// TextListener prints one progress character per event and a report when
// the run finishes: "." for a started test, "E" for a failure and "I" for an
// ignored test. It keeps no locks of its own, so the bus serialises it.
type TextListener struct {
	notification.BaseListener

	w      io.Writer
	colors *ColorScheme
}

// NewTextListener creates a text listener writing to w
func NewTextListener(w io.Writer, noColor bool) *TextListener {
	return &TextListener{w: w, colors: NewColorScheme(w, noColor)}
}

// TestStarted prints a progress dot
func (l *TextListener) TestStarted(*runner.Description) error {
	_, err := fmt.Fprint(l.w, ".")
	return err
}

// TestFailure prints an E
func (l *TextListener) TestFailure(runner.Failure) error {
	_, err := fmt.Fprint(l.w, l.colors.Error("E"))
	return err
}

// TestIgnored prints an I
func (l *TextListener) TestIgnored(*runner.Description) error {
	_, err := fmt.Fprint(l.w, l.colors.Warning("I"))
	return err
}

// TestRunFinished prints the run time, every failure and the totals
func (l *TextListener) TestRunFinished(r *runner.Result) error {
	fmt.Fprintln(l.w)
	fmt.Fprintf(l.w, "Time: %s\n", l.colors.Duration("%s", r.RunTime().Round(time.Millisecond)))

	failures := r.Failures()
	switch n := len(failures); {
	case n == 1:
		fmt.Fprintln(l.w, "There was 1 failure:")
	case n > 1:
		fmt.Fprintf(l.w, "There were %d failures:\n", n)
	}
	for i, f := range failures {
		name := "<unknown>"
		if f.Description != nil {
			name = f.Description.DisplayName()
		}
		fmt.Fprintf(l.w, "%d) %s\n", i+1, l.colors.Name("%s", name))
		fmt.Fprintf(l.w, "    %s\n", f.Message())
	}

	fmt.Fprintln(l.w)
	if r.WasSuccessful() {
		noun := "tests"
		if r.RunCount() == 1 {
			noun = "test"
		}
		_, err := fmt.Fprintln(l.w, l.colors.Success("OK (%d %s)", r.RunCount(), noun))
		return err
	}
	fmt.Fprintln(l.w, l.colors.Error("FAILURES!!!"))
	_, err := fmt.Fprintf(l.w, "Tests run: %d,  Failures: %d\n", r.RunCount(), r.FailureCount())
	return err
}
