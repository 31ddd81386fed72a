package scheduler

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aryankumar/paratest/internal/executor"
	"github.com/aryankumar/paratest/internal/util"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSharedPoolValidation(t *testing.T) {
	stopped := executor.NewPool(4, quietLogger())
	stopped.Shutdown()

	tests := []struct {
		name           string
		pool           *executor.Pool
		minCaseWorkers int
		wantField      string
	}{
		{"nil pool", nil, 1, "pool"},
		{"shut down pool", stopped, 1, "pool"},
		{"capacity one", executor.NewPool(1, quietLogger()), 1, "poolSize"},
		{"zero case workers", executor.NewPool(4, quietLogger()), 0, "minCaseWorkers"},
		{"negative case workers", executor.NewPool(4, quietLogger()), -3, "minCaseWorkers"},
		{"case workers equal capacity", executor.NewPool(4, quietLogger()), 4, "minCaseWorkers"},
		{"case workers above capacity", executor.NewPool(4, quietLogger()), 9, "minCaseWorkers"},
		{"valid bounded", executor.NewPool(4, quietLogger()), 2, ""},
		{"valid unbounded", executor.NewUnboundedPool(quietLogger()), 50, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSharedPool(tt.pool, tt.minCaseWorkers, WithLogger(quietLogger()))
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if s.Mode() != ModeSharedPool {
					t.Errorf("Mode() = %v", s.Mode())
				}
				return
			}

			if !util.IsInvalidConfig(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var verr *util.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *util.ValidationError, got %T", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestNewOwnedSharedPoolValidation(t *testing.T) {
	tests := []struct {
		name           string
		capacity       int
		minCaseWorkers int
		wantErr        bool
	}{
		{"negative capacity", -1, 1, true},
		{"capacity one", 1, 1, true},
		{"min equals capacity", 2, 2, true},
		{"min zero", 4, 0, true},
		{"smallest valid", 2, 1, false},
		{"unbounded", 0, 3, false},
		{"unbounded invalid min", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOwnedSharedPool(tt.capacity, tt.minCaseWorkers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !util.IsInvalidConfig(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestNewTwoPoolsValidation(t *testing.T) {
	a := executor.NewPool(2, quietLogger())
	b := executor.NewPool(2, quietLogger())
	stopped := executor.NewUnboundedPool(quietLogger())
	stopped.Shutdown()

	tests := []struct {
		name      string
		suitePool *executor.Pool
		casePool  *executor.Pool
		wantField string
	}{
		{"nil suite pool", nil, b, "suitePool"},
		{"nil case pool", a, nil, "casePool"},
		{"shut down case pool", a, stopped, "casePool"},
		{"same pool", a, a, "casePool"},
		{"valid", a, b, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTwoPools(tt.suitePool, tt.casePool)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *util.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.wantField {
				t.Errorf("error = %v, want validation error on %q", err, tt.wantField)
			}
		})
	}
}

func TestOwnedFactories(t *testing.T) {
	if m := NewParallelSuites().Mode(); m != ModeParallelSuites {
		t.Errorf("NewParallelSuites mode = %v", m)
	}
	if m := NewParallelCases().Mode(); m != ModeParallelCases {
		t.Errorf("NewParallelCases mode = %v", m)
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeParallelSuites, "suites"},
		{ModeParallelCases, "cases"},
		{ModeSharedPool, "shared"},
		{ModeOwnedSharedPool, "owned-shared"},
		{ModeTwoPools, "two-pools"},
		{Mode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"suites", ModeParallelSuites, false},
		{"cases", ModeParallelCases, false},
		{"shared", ModeSharedPool, false},
		{"Owned-Shared", ModeOwnedSharedPool, false},
		{" two-pools ", ModeTwoPools, false},
		{"unknown", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !util.IsInvalidConfig(err) {
				t.Errorf("ParseMode(%q) error should be a configuration error", tt.input)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if got.String() != strings.ToLower(strings.TrimSpace(tt.input)) {
			t.Errorf("round trip of %q gave %q", tt.input, got.String())
		}
	}
}
