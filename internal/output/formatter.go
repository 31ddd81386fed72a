package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/aryankumar/paratest/internal/runner"
	"github.com/aryankumar/paratest/internal/util"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data in a borderless table
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", util.NewValidationError("format", s,
			fmt.Sprintf("must be one of %s, %s, %s", FormatTable, FormatJSON, FormatYAML))
	}
}

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data interface{}) error

	// FormatResult outputs the per-test records and totals of a run
	FormatResult(w io.Writer, result *runner.Result) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide adds the error column to tables
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// report is the serialised form of a run shared by the JSON and YAML formatters
type report struct {
	Summary  reportSummary `json:"summary" yaml:"summary"`
	Tests    []reportTest  `json:"tests" yaml:"tests"`
	Failures []string      `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type reportSummary struct {
	Total      int     `json:"total" yaml:"total"`
	Passed     int     `json:"passed" yaml:"passed"`
	Failed     int     `json:"failed" yaml:"failed"`
	Skipped    int     `json:"skipped" yaml:"skipped"`
	Ignored    int     `json:"ignored" yaml:"ignored"`
	PassRate   float64 `json:"passRate" yaml:"passRate"`
	RunTime    string  `json:"runTime" yaml:"runTime"`
	Successful bool    `json:"successful" yaml:"successful"`
}

type reportTest struct {
	Suite    string `json:"suite" yaml:"suite"`
	Name     string `json:"name" yaml:"name"`
	Status   string `json:"status" yaml:"status"`
	Duration string `json:"duration" yaml:"duration"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// newReport builds the serialised form of result with records sorted by suite
func newReport(result *runner.Result) report {
	records := sortedRecords(result.Records())
	summary := runner.Summarize(records)

	r := report{
		Summary: reportSummary{
			Total:      summary.Total,
			Passed:     summary.Passed,
			Failed:     summary.Failed,
			Skipped:    summary.Skipped,
			Ignored:    summary.Ignored,
			PassRate:   runner.PassRate(records),
			RunTime:    result.RunTime().String(),
			Successful: result.WasSuccessful(),
		},
		Tests: make([]reportTest, 0, len(records)),
	}
	for _, rec := range records {
		t := reportTest{
			Suite:    rec.Suite,
			Name:     rec.Name,
			Status:   string(rec.Status),
			Duration: rec.Duration.String(),
		}
		if rec.Err != nil {
			t.Error = rec.Err.Error()
		}
		r.Tests = append(r.Tests, t)
	}
	for _, f := range result.Failures() {
		r.Failures = append(r.Failures, f.String())
	}
	return r
}
