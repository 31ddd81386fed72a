package output

import (
	"errors"
	"testing"

	"github.com/aryankumar/paratest/internal/runner"
	"github.com/aryankumar/paratest/internal/util"
)

// newTestResult returns a finished result with one test of every status
func newTestResult() *runner.Result {
	r := runner.NewResult()
	l := r.Listener()

	_ = l.TestRunStarted(runner.NewSuiteDescription("root"))

	pass := runner.NewCaseDescription("Alpha", "passes")
	_ = l.TestStarted(pass)
	_ = l.TestFinished(pass)

	fail := runner.NewCaseDescription("Alpha", "fails")
	_ = l.TestStarted(fail)
	_ = l.TestFailure(runner.NewFailure(fail, errors.New("expected 1, got 2")))
	_ = l.TestFinished(fail)

	skip := runner.NewCaseDescription("Beta", "skips")
	_ = l.TestStarted(skip)
	_ = l.TestAssumptionFailure(runner.NewFailure(skip, runner.ErrAssumptionViolated))
	_ = l.TestFinished(skip)

	_ = l.TestIgnored(runner.NewCaseDescription("Beta", "ignored"))

	_ = l.TestRunFinished(r)
	return r
}

// newPassingResult returns a finished result where every test passed
func newPassingResult(n int) *runner.Result {
	r := runner.NewResult()
	l := r.Listener()
	_ = l.TestRunStarted(runner.NewSuiteDescription("root"))
	for i := 0; i < n; i++ {
		d := runner.NewCaseDescription("Suite", "test")
		_ = l.TestStarted(d)
		_ = l.TestFinished(d)
	}
	_ = l.TestRunFinished(r)
	return r
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"  json ", FormatJSON, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !util.IsInvalidConfig(err) {
					t.Errorf("expected configuration error, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		check  func(Formatter) bool
	}{
		{"table", FormatTable, func(f Formatter) bool { _, ok := f.(*TableFormatter); return ok }},
		{"json", FormatJSON, func(f Formatter) bool { _, ok := f.(*JSONFormatter); return ok }},
		{"yaml", FormatYAML, func(f Formatter) bool { _, ok := f.(*YAMLFormatter); return ok }},
		{"unknown falls back to table", Format("xml"), func(f Formatter) bool { _, ok := f.(*TableFormatter); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if f := NewFormatter(tt.format); !tt.check(f) {
				t.Errorf("NewFormatter(%q) returned %T", tt.format, f)
			}
		})
	}
}

func TestFormatterOptions(t *testing.T) {
	f := NewFormatter(FormatTable, WithNoColor(true), WithNoHeaders(true), WithWide(true)).(*TableFormatter)
	if !f.options.NoColor || !f.options.NoHeaders || !f.options.Wide {
		t.Errorf("options not applied: %+v", *f.options)
	}
}

func TestNewReport(t *testing.T) {
	rep := newReport(newTestResult())

	if rep.Summary.Total != 4 || rep.Summary.Passed != 1 || rep.Summary.Failed != 1 ||
		rep.Summary.Skipped != 1 || rep.Summary.Ignored != 1 {
		t.Errorf("unexpected summary: %+v", rep.Summary)
	}
	if rep.Summary.Successful {
		t.Error("a run with a failure is not successful")
	}

	wantOrder := []string{"fails(Alpha)", "passes(Alpha)", "ignored(Beta)", "skips(Beta)"}
	if len(rep.Tests) != len(wantOrder) {
		t.Fatalf("tests = %d, want %d", len(rep.Tests), len(wantOrder))
	}
	for i, name := range wantOrder {
		if rep.Tests[i].Name != name {
			t.Errorf("tests[%d] = %q, want %q", i, rep.Tests[i].Name, name)
		}
	}
	if rep.Tests[0].Error != "expected 1, got 2" {
		t.Errorf("failed test error = %q", rep.Tests[0].Error)
	}
	if len(rep.Failures) != 1 {
		t.Errorf("failures = %v", rep.Failures)
	}
}
