package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/paratest/internal/output"
	"github.com/aryankumar/paratest/internal/scheduler"
	"github.com/aryankumar/paratest/internal/util"
)

const (
	defaultConfigName = ".paratest"
	defaultConfigFile = ".paratest.yaml"
	envPrefix         = "PARATEST"
)

// defaults are registered with viper so that every key is known to it;
// environment variables only override keys viper knows about.
var defaults = map[string]interface{}{
	"mode":                 scheduler.ModeOwnedSharedPool.String(),
	"poolSize":             8,
	"suitePoolSize":        4,
	"casePoolSize":         8,
	"minCaseWorkers":       2,
	"workload.suites":      4,
	"workload.cases":       8,
	"workload.caseDelay":   "10ms",
	"workload.failEvery":   0,
	"workload.skipEvery":   0,
	"workload.ignoreEvery": 0,
	"output.format":        string(output.FormatTable),
	"output.noColor":       false,
	"output.wide":          false,
	"output.progress":      true,
	"tracing.endpoint":     "",
	"tracing.sampleRatio":  1.0,
}

// Manager handles paratest configuration
type Manager struct {
	configPath string
	settings   *Settings
	viper      *viper.Viper
}

// NewManager creates a new configuration manager. An empty path searches
// the home directory for .paratest.yaml.
func NewManager(configPath string) *Manager {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Manager{
		configPath: configPath,
		viper:      v,
		settings:   &Settings{},
	}
}

// BindFlags binds command flags to configuration keys, keyed by config key
// with the flag name as value. Unknown flags are an error.
func (m *Manager) BindFlags(cmd *cobra.Command, flags map[string]string) error {
	for key, name := range flags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q for key %q", name, key)
		}
		if err := m.viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads the configuration file, environment and bound flags, in
// increasing order of precedence, and validates the result
func (m *Manager) Load() (*Settings, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := m.viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(settings); err != nil {
		return nil, err
	}

	m.settings = settings
	return settings, nil
}

// Save writes the effective configuration to the config file, creating
// ~/.paratest.yaml when no path was given
func (m *Manager) Save() error {
	if m.configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		m.configPath = filepath.Join(home, defaultConfigFile)
	}

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := m.viper.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Set overrides a configuration key
func (m *Manager) Set(key string, value interface{}) {
	m.viper.Set(key, value)
}

// Settings returns the most recently loaded settings
func (m *Manager) Settings() *Settings {
	return m.settings
}

// Path returns the config file in use, or the path Save will write to
func (m *Manager) Path() string {
	if used := m.viper.ConfigFileUsed(); used != "" {
		return used
	}
	return m.configPath
}

// Flatten returns every effective key and value, for display
func (m *Manager) Flatten() map[string]interface{} {
	out := make(map[string]interface{})
	for _, key := range m.viper.AllKeys() {
		out[key] = m.viper.Get(key)
	}
	return out
}

// Validate checks the settings that can be checked without building a
// scheduler. Pool sizing is validated by the scheduler factories.
func Validate(s *Settings) error {
	errs := util.NewMultiError(nil)

	if _, err := scheduler.ParseMode(s.Mode); err != nil {
		errs.Add(err)
	}
	if _, err := output.ParseFormat(s.Output.Format); err != nil {
		errs.Add(err)
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"poolSize", s.PoolSize},
		{"suitePoolSize", s.SuitePoolSize},
		{"casePoolSize", s.CasePoolSize},
	} {
		if f.value < 0 {
			errs.Add(util.NewValidationError(f.name, f.value, "must not be negative"))
		}
	}
	if s.Tracing.SampleRatio < 0 || s.Tracing.SampleRatio > 1 {
		errs.Add(util.NewValidationError("tracing.sampleRatio", s.Tracing.SampleRatio, "must be between 0 and 1"))
	}
	errs.Add(s.Workload.Validate())

	return errs.ErrorOrNil()
}
