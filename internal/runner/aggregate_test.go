package runner

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleRecords() []TestRecord {
	return []TestRecord{
		{Suite: "s1", Name: "a(s1)", Status: StatusPassed, Duration: 10 * time.Millisecond},
		{Suite: "s1", Name: "b(s1)", Status: StatusFailed, Duration: 30 * time.Millisecond, Err: errors.New("boom")},
		{Suite: "s2", Name: "c(s2)", Status: StatusSkipped, Duration: 20 * time.Millisecond},
		{Suite: "s2", Name: "d(s2)", Status: StatusIgnored},
	}
}

func TestCountByStatus(t *testing.T) {
	tests := []struct {
		name     string
		records  []TestRecord
		status   Status
		expected int
	}{
		{"empty records", []TestRecord{}, StatusPassed, 0},
		{"passed", sampleRecords(), StatusPassed, 1},
		{"failed", sampleRecords(), StatusFailed, 1},
		{"ignored", sampleRecords(), StatusIgnored, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountByStatus(tt.records, tt.status)
			if got != tt.expected {
				t.Errorf("CountByStatus() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestFilterFailed(t *testing.T) {
	failed := FilterFailed(sampleRecords())
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed record, got %d", len(failed))
	}
	if failed[0].Name != "b(s1)" {
		t.Errorf("unexpected record %q", failed[0].Name)
	}
}

func TestFilterBySuite(t *testing.T) {
	tests := []struct {
		suite    string
		expected int
	}{
		{"s1", 2},
		{"s2", 2},
		{"missing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.suite, func(t *testing.T) {
			if got := len(FilterBySuite(sampleRecords(), tt.suite)); got != tt.expected {
				t.Errorf("FilterBySuite(%q) = %d records, want %d", tt.suite, got, tt.expected)
			}
		})
	}
}

func TestGroupBySuite(t *testing.T) {
	grouped := GroupBySuite(sampleRecords())
	if len(grouped) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(grouped))
	}
	if len(grouped["s1"]) != 2 || len(grouped["s2"]) != 2 {
		t.Errorf("unexpected grouping: %v", grouped)
	}
}

func TestSuiteNames(t *testing.T) {
	names := SuiteNames(sampleRecords())
	if len(names) != 2 || names[0] != "s1" || names[1] != "s2" {
		t.Errorf("SuiteNames() = %v, want [s1 s2]", names)
	}
}

func TestDurations(t *testing.T) {
	tests := []struct {
		name    string
		records []TestRecord
		avg     time.Duration
		max     time.Duration
		min     time.Duration
	}{
		{"empty", nil, 0, 0, 0},
		{"ignored excluded", sampleRecords(), 20 * time.Millisecond, 30 * time.Millisecond, 10 * time.Millisecond},
		{
			name: "only ignored",
			records: []TestRecord{
				{Suite: "s", Status: StatusIgnored},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageDuration(tt.records); got != tt.avg {
				t.Errorf("AverageDuration() = %v, want %v", got, tt.avg)
			}
			if got := MaxDuration(tt.records); got != tt.max {
				t.Errorf("MaxDuration() = %v, want %v", got, tt.max)
			}
			if got := MinDuration(tt.records); got != tt.min {
				t.Errorf("MinDuration() = %v, want %v", got, tt.min)
			}
		})
	}
}

func TestGetErrors(t *testing.T) {
	errs := GetErrors(sampleRecords())
	if len(errs) != 1 || errs[0].Error() != "boom" {
		t.Errorf("GetErrors() = %v", errs)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())
	if s.Total != 4 || s.Passed != 1 || s.Failed != 1 || s.Skipped != 1 || s.Ignored != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.MaxDuration != 30*time.Millisecond {
		t.Errorf("MaxDuration = %v", s.MaxDuration)
	}
}

func TestSummary_String(t *testing.T) {
	str := Summarize(sampleRecords()).String()
	for _, want := range []string{"Total: 4", "Passed: 1", "Failed: 1", "Skipped: 1", "Ignored: 1", "Avg: 20ms"} {
		if !strings.Contains(str, want) {
			t.Errorf("summary %q missing %q", str, want)
		}
	}
}

func TestSummary_String_Empty(t *testing.T) {
	str := Summarize(nil).String()
	if str != "Total: 0, Passed: 0, Failed: 0" {
		t.Errorf("unexpected empty summary %q", str)
	}
}

func TestPassRate(t *testing.T) {
	tests := []struct {
		name     string
		records  []TestRecord
		expected float64
	}{
		{"empty", nil, 0},
		{"all passed", []TestRecord{{Status: StatusPassed}, {Status: StatusPassed}}, 100},
		{"half", []TestRecord{{Status: StatusPassed}, {Status: StatusFailed}, {Status: StatusIgnored}}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PassRate(tt.records); got != tt.expected {
				t.Errorf("PassRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}
