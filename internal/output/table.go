package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/aryankumar/paratest/internal/runner"
)

// TableFormatter formats output as a borderless, tab-separated table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case []map[string]interface{}:
		return f.formatMapSlice(table, v)
	case nil:
		return nil
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatResult outputs one row per test followed by a summary line
func (f *TableFormatter) FormatResult(w io.Writer, result *runner.Result) error {
	records := sortedRecords(result.Records())
	if len(records) == 0 {
		fmt.Fprintln(w, "No tests")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"SUITE", "TEST", "STATUS", "DURATION"}
	if f.options.Wide {
		headers = append(headers, "ERROR")
	}
	if !f.options.NoHeaders {
		if colors.Disabled {
			table.SetHeader(headers)
		} else {
			colored := make([]string, len(headers))
			for i, h := range headers {
				colored[i] = colors.Header(h)
			}
			table.SetHeader(colored)
		}
	}

	for _, rec := range records {
		table.Append(f.formatRecordRow(rec, colors))
	}
	table.Render()

	f.printSummary(w, result, records, colors)
	return nil
}

// formatRecordRow formats a single test record as a table row
func (f *TableFormatter) formatRecordRow(rec runner.TestRecord, colors *ColorScheme) []string {
	suite := rec.Suite
	if !colors.Disabled {
		suite = colors.Name(suite)
	}

	status := string(rec.Status)
	if !colors.Disabled {
		status = colors.StatusColor(rec.Status)(status)
	}

	duration := rec.Duration.Round(time.Microsecond).String()
	if !colors.Disabled {
		duration = colors.Duration(duration)
	}

	row := []string{suite, rec.Name, status, duration}

	if f.options.Wide {
		msg := ""
		if rec.Err != nil {
			msg = rec.Err.Error()
			if len(msg) > 60 {
				msg = msg[:57] + "..."
			}
		}
		row = append(row, msg)
	}
	return row
}

// formatMap formats a map as a two-column table with sorted keys
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table, one column per key of the first map
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	keys := make([]string, 0, len(data[0]))
	for k := range data[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if !f.options.NoHeaders {
		headers := make([]string, len(keys))
		for i, k := range keys {
			headers[i] = strings.ToUpper(k)
		}
		table.SetHeader(headers)
	}

	for _, item := range data {
		row := make([]string, 0, len(keys))
		for _, k := range keys {
			row = append(row, fmt.Sprintf("%v", item[k]))
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

// createTable creates a borderless table with tab padding
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints the totals of the run
func (f *TableFormatter) printSummary(w io.Writer, result *runner.Result, records []runner.TestRecord, colors *ColorScheme) {
	summary := runner.Summarize(records)

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: ")

	passedText := fmt.Sprintf("%d passed", summary.Passed)
	if !colors.Disabled {
		passedText = colors.Success(passedText)
	}

	failedText := fmt.Sprintf("%d failed", summary.Failed)
	if !colors.Disabled && summary.Failed > 0 {
		failedText = colors.Error(failedText)
	}

	otherText := fmt.Sprintf("%d skipped, %d ignored", summary.Skipped, summary.Ignored)
	if !colors.Disabled && summary.Skipped+summary.Ignored > 0 {
		otherText = colors.Warning(otherText)
	}

	durationText := fmt.Sprintf("time=%s", result.RunTime().Round(time.Millisecond))
	if !colors.Disabled {
		durationText = colors.Duration(durationText)
	}

	fmt.Fprintf(w, "%s, %s, %s, %s\n", passedText, failedText, otherText, durationText)
}

// sortedRecords orders records by suite and then test name
func sortedRecords(records []runner.TestRecord) []runner.TestRecord {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Suite != records[j].Suite {
			return records[i].Suite < records[j].Suite
		}
		return records[i].Name < records[j].Name
	})
	return records
}
