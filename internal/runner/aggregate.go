package runner

import (
	"fmt"
	"strings"
	"time"
)

// CountByStatus returns the number of records with the given status
func CountByStatus(records []TestRecord, status Status) int {
	count := 0
	for _, r := range records {
		if r.Status == status {
			count++
		}
	}
	return count
}

// FilterFailed returns only the failed records
func FilterFailed(records []TestRecord) []TestRecord {
	return FilterByStatus(records, StatusFailed)
}

// FilterByStatus returns records with the given status
func FilterByStatus(records []TestRecord, status Status) []TestRecord {
	filtered := make([]TestRecord, 0, len(records))
	for _, r := range records {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterBySuite returns records for a specific suite
func FilterBySuite(records []TestRecord, suite string) []TestRecord {
	filtered := make([]TestRecord, 0)
	for _, r := range records {
		if r.Suite == suite {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// GroupBySuite groups records by suite name
func GroupBySuite(records []TestRecord) map[string][]TestRecord {
	grouped := make(map[string][]TestRecord)
	for _, r := range records {
		grouped[r.Suite] = append(grouped[r.Suite], r)
	}
	return grouped
}

// SuiteNames extracts unique suite names in first-seen order
func SuiteNames(records []TestRecord) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for _, r := range records {
		if !seen[r.Suite] {
			seen[r.Suite] = true
			names = append(names, r.Suite)
		}
	}

	return names
}

// ranRecords drops ignored tests, which have no meaningful duration
func ranRecords(records []TestRecord) []TestRecord {
	out := make([]TestRecord, 0, len(records))
	for _, r := range records {
		if r.Status != StatusIgnored {
			out = append(out, r)
		}
	}
	return out
}

// AverageDuration calculates the average duration of tests that ran
func AverageDuration(records []TestRecord) time.Duration {
	ran := ranRecords(records)
	if len(ran) == 0 {
		return 0
	}

	var total time.Duration
	for _, r := range ran {
		total += r.Duration
	}

	return total / time.Duration(len(ran))
}

// MaxDuration returns the maximum duration among tests that ran
func MaxDuration(records []TestRecord) time.Duration {
	ran := ranRecords(records)
	if len(ran) == 0 {
		return 0
	}

	max := ran[0].Duration
	for _, r := range ran {
		if r.Duration > max {
			max = r.Duration
		}
	}
	return max
}

// MinDuration returns the minimum duration among tests that ran
func MinDuration(records []TestRecord) time.Duration {
	ran := ranRecords(records)
	if len(ran) == 0 {
		return 0
	}

	min := ran[0].Duration
	for _, r := range ran {
		if r.Duration < min {
			min = r.Duration
		}
	}
	return min
}

// GetErrors extracts all errors from failed records
func GetErrors(records []TestRecord) []error {
	errs := make([]error, 0)
	for _, r := range records {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Summary provides a summary of a run
type Summary struct {
	Total       int
	Passed      int
	Failed      int
	Skipped     int
	Ignored     int
	AvgDuration time.Duration
	MaxDuration time.Duration
	MinDuration time.Duration
}

// Summarize creates a summary of the records
func Summarize(records []TestRecord) Summary {
	return Summary{
		Total:       len(records),
		Passed:      CountByStatus(records, StatusPassed),
		Failed:      CountByStatus(records, StatusFailed),
		Skipped:     CountByStatus(records, StatusSkipped),
		Ignored:     CountByStatus(records, StatusIgnored),
		AvgDuration: AverageDuration(records),
		MaxDuration: MaxDuration(records),
		MinDuration: MinDuration(records),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Passed: %d, ", s.Passed))
	sb.WriteString(fmt.Sprintf("Failed: %d", s.Failed))
	if s.Skipped > 0 {
		sb.WriteString(fmt.Sprintf(", Skipped: %d", s.Skipped))
	}
	if s.Ignored > 0 {
		sb.WriteString(fmt.Sprintf(", Ignored: %d", s.Ignored))
	}

	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Min: %s", s.MinDuration.Round(time.Millisecond)))
	}

	return sb.String()
}

// PassRate returns the share of passed tests among those that ran, as a percentage
func PassRate(records []TestRecord) float64 {
	ran := ranRecords(records)
	if len(ran) == 0 {
		return 0.0
	}
	return float64(CountByStatus(ran, StatusPassed)) / float64(len(ran)) * 100.0
}
