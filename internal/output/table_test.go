package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aryankumar/paratest/internal/runner"
)

func TestNewTableFormatter(t *testing.T) {
	for _, opts := range []*Options{nil, {NoColor: true}} {
		formatter := NewTableFormatter(opts)
		if formatter == nil || formatter.options == nil {
			t.Fatal("NewTableFormatter returned a formatter without options")
		}
	}
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		data     interface{}
		contains []string
	}{
		{
			name:     "map data",
			data:     map[string]interface{}{"mode": "shared", "poolSize": 8},
			contains: []string{"KEY", "VALUE", "mode", "shared", "poolSize", "8"},
		},
		{
			name: "slice of maps",
			data: []map[string]interface{}{
				{"name": "Alpha", "tests": 10},
				{"name": "Beta", "tests": 20},
			},
			contains: []string{"NAME", "TESTS", "Alpha", "Beta", "10", "20"},
		},
		{
			name: "empty slice",
			data: []map[string]interface{}{},
		},
		{
			name:     "string data",
			data:     "simple string",
			contains: []string{"simple string"},
		},
		{
			name: "nil data",
			data: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewTableFormatter(&Options{NoColor: true}).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			out := buf.String()
			for _, substr := range tt.contains {
				if !strings.Contains(out, substr) {
					t.Errorf("Format() output missing %q\nGot: %s", substr, out)
				}
			}
		})
	}
}

func TestTableFormatter_MapKeysSorted(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]interface{}{"zeta": 1, "alpha": 2, "mid": 3}
	if err := NewTableFormatter(&Options{NoHeaders: true}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !(strings.Index(out, "alpha") < strings.Index(out, "mid") && strings.Index(out, "mid") < strings.Index(out, "zeta")) {
		t.Errorf("keys not sorted:\n%s", out)
	}
}

func TestTableFormatter_FormatResult(t *testing.T) {
	tests := []struct {
		name        string
		result      *runner.Result
		opts        *Options
		contains    []string
		notContains []string
	}{
		{
			name:        "mixed statuses",
			result:      newTestResult(),
			opts:        &Options{NoColor: true},
			contains:    []string{"SUITE", "TEST", "STATUS", "DURATION", "passes(Alpha)", "failed", "skipped", "ignored", "Summary:", "1 passed", "1 failed", "1 skipped, 1 ignored"},
			notContains: []string{"ERROR", "expected 1, got 2"},
		},
		{
			name:     "wide shows errors",
			result:   newTestResult(),
			opts:     &Options{NoColor: true, Wide: true},
			contains: []string{"ERROR", "expected 1, got 2"},
		},
		{
			name:        "no headers",
			result:      newTestResult(),
			opts:        &Options{NoColor: true, NoHeaders: true},
			contains:    []string{"passes(Alpha)"},
			notContains: []string{"SUITE", "DURATION"},
		},
		{
			name:     "empty result",
			result:   runner.NewResult(),
			opts:     &Options{NoColor: true},
			contains: []string{"No tests"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewTableFormatter(tt.opts).FormatResult(&buf, tt.result); err != nil {
				t.Fatalf("FormatResult() error = %v", err)
			}
			out := buf.String()
			for _, substr := range tt.contains {
				if !strings.Contains(out, substr) {
					t.Errorf("output missing %q\nGot: %s", substr, out)
				}
			}
			for _, substr := range tt.notContains {
				if strings.Contains(out, substr) {
					t.Errorf("output should not contain %q\nGot: %s", substr, out)
				}
			}
		})
	}
}

func TestTableFormatter_LongErrorTruncated(t *testing.T) {
	r := runner.NewResult()
	l := r.Listener()
	d := runner.NewCaseDescription("Suite", "verbose")
	_ = l.TestStarted(d)
	_ = l.TestFailure(runner.NewFailure(d, errorString(strings.Repeat("x", 100))))
	_ = l.TestFinished(d)

	var buf bytes.Buffer
	if err := NewTableFormatter(&Options{NoColor: true, Wide: true}).FormatResult(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), strings.Repeat("x", 57)+"...") {
		t.Errorf("long error not truncated:\n%s", buf.String())
	}
}

type errorString string

func (e errorString) Error() string { return string(e) }
