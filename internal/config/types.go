package config

import (
	"github.com/aryankumar/paratest/internal/workload"
)

// Settings represents the paratest configuration file structure
type Settings struct {
	// Mode selects the scheduler: suites, cases, shared, owned-shared or two-pools
	Mode string `yaml:"mode" json:"mode"`

	// PoolSize is the shared pool capacity in the shared and owned-shared
	// modes. Zero means unbounded.
	PoolSize int `yaml:"poolSize" json:"poolSize"`

	// SuitePoolSize and CasePoolSize size the pools of the two-pools mode.
	// Zero means unbounded.
	SuitePoolSize int `yaml:"suitePoolSize" json:"suitePoolSize"`
	CasePoolSize  int `yaml:"casePoolSize" json:"casePoolSize"`

	// MinCaseWorkers is the number of shared pool workers kept free for cases
	MinCaseWorkers int `yaml:"minCaseWorkers" json:"minCaseWorkers"`

	// Workload is the shape of the synthetic tree run by `paratest run`
	Workload workload.Shape `yaml:"workload" json:"workload"`

	// Output controls how results are printed
	Output OutputConfig `yaml:"output" json:"output"`

	// Tracing configures the OTLP exporter; an empty endpoint disables it
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	// Format is the result format (table, json, yaml)
	Format string `yaml:"format" json:"format"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor" json:"noColor"`

	// Wide adds error messages to table output
	Wide bool `yaml:"wide" json:"wide"`

	// Progress prints a progress line while tests run
	Progress bool `yaml:"progress" json:"progress"`
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	// Endpoint is host:port of an OTLP/HTTP collector
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// SampleRatio is the fraction of runs traced
	SampleRatio float64 `yaml:"sampleRatio" json:"sampleRatio"`
}
