package output

import (
	"encoding/json"
	"io"

	"github.com/aryankumar/paratest/internal/runner"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{
		options: opts,
	}
}

// Format outputs a single data item as JSON
func (f *JSONFormatter) Format(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FormatResult outputs the summary, tests and failures of a run as JSON
func (f *JSONFormatter) FormatResult(w io.Writer, result *runner.Result) error {
	return f.Format(w, newReport(result))
}
