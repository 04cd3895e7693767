// Package config provides unified configuration loading for carprun.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/carprun/internal/constants"
	"gopkg.in/yaml.v3"
)

// CarpConfig contains all carprun configuration settings.
type CarpConfig struct {
	// Solver contains settings for the simulator invocation.
	Solver SolverConfig `json:"solver" yaml:"solver"`

	// Visualizer contains settings for the meshalyzer launch.
	Visualizer VisualizerConfig `json:"visualizer" yaml:"visualizer"`

	// Platform describes the execution environment.
	Platform PlatformConfig `json:"platform" yaml:"platform"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// History contains settings for the run ledger.
	History HistoryConfig `json:"history" yaml:"history"`
}

// SolverConfig configures the simulator executable and its launcher.
type SolverConfig struct {
	// Binary is the simulator executable, resolved through PATH if not absolute.
	Binary string `json:"binary" yaml:"binary"`

	// Launcher is the MPI launcher used when more than one process is requested.
	// Empty runs the simulator directly regardless of process count.
	Launcher string `json:"launcher" yaml:"launcher"`

	// Flavor is the default solver backend.
	Flavor string `json:"flavor" yaml:"flavor"`

	// NP is the default number of processes.
	NP int `json:"np" yaml:"np"`

	// Mesh is the default mesh base name (without .pts/.elem).
	Mesh string `json:"mesh,omitempty" yaml:"mesh,omitempty"`

	// SimDirs are searched in order for parameter and view files.
	// Supports ${VAR} syntax.
	SimDirs []string `json:"sim_dirs,omitempty" yaml:"sim_dirs,omitempty"`
}

// VisualizerConfig configures the meshalyzer launch.
type VisualizerConfig struct {
	Binary string `json:"binary" yaml:"binary"`
}

// PlatformConfig describes the execution environment.
type PlatformConfig struct {
	// Batch marks a non-interactive platform (cluster queue). No visualizer
	// is launched in batch mode.
	Batch bool `json:"batch" yaml:"batch"`
}

// LoggingConfig configures carprun's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables event logging to <job>/carprun-events.jsonl.
	// "trace" additionally logs the full argv of every process.
	Level string `json:"level" yaml:"level"`
}

// HistoryConfig configures the run ledger.
type HistoryConfig struct {
	// Enabled records every run in ~/.carprun/history.db.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path overrides the database location.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a CarpConfig with sensible defaults.
func Default() *CarpConfig {
	return &CarpConfig{
		Solver: SolverConfig{
			Binary:   "openCARP",
			Launcher: "mpiexec",
			Flavor:   constants.DefaultFlavor,
			NP:       constants.DefaultNP,
			Mesh:     "tetrahedralized",
			SimDirs:  []string{"."},
		},
		Visualizer: VisualizerConfig{
			Binary: "meshalyzer",
		},
		Platform: PlatformConfig{
			Batch: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Dir returns the carprun configuration directory (~/.carprun).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".carprun"), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.carprun/config.yaml -> environment variables
func Load() (*CarpConfig, error) {
	config := Default()

	// Try to load from default config file
	if configPath, err := Path(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*CarpConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	for i, dir := range config.Solver.SimDirs {
		config.Solver.SimDirs[i] = expandEnvVars(dir)
	}
	config.Solver.Mesh = expandEnvVars(config.Solver.Mesh)

	return config, nil
}

// Save writes the configuration to path as YAML, creating parent directories.
func (c *CarpConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *CarpConfig) Validate() error {
	if c.Solver.Binary == "" {
		return fmt.Errorf("solver.binary must not be empty")
	}

	if c.Solver.NP < 1 {
		return fmt.Errorf("solver.np must be at least 1, got %d", c.Solver.NP)
	}

	if !constants.ValidFlavor(c.Solver.Flavor) {
		return fmt.Errorf("invalid flavor: %s (valid: %s)", c.Solver.Flavor, strings.Join(constants.Flavors, ", "))
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *CarpConfig) {
	if v := os.Getenv("CARPRUN_CARP_BINARY"); v != "" {
		config.Solver.Binary = v
	}

	// An explicitly empty launcher disables MPI launching, so presence matters.
	if v, ok := os.LookupEnv("CARPRUN_LAUNCHER"); ok {
		config.Solver.Launcher = v
	}

	if v := os.Getenv("CARPRUN_FLAVOR"); v != "" {
		config.Solver.Flavor = v
	}

	if v := os.Getenv("CARPRUN_NP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Solver.NP = n
		}
	}

	if v := os.Getenv("CARPRUN_MESH"); v != "" {
		config.Solver.Mesh = v
	}

	if v := os.Getenv("CARPRUN_SIM_DIRS"); v != "" {
		config.Solver.SimDirs = filepath.SplitList(v)
	}

	if v := os.Getenv("CARPRUN_MESHALYZER_BINARY"); v != "" {
		config.Visualizer.Binary = v
	}

	if v := os.Getenv("CARPRUN_BATCH"); v != "" {
		config.Platform.Batch = v == "true" || v == "1"
	}

	if v := os.Getenv("CARPRUN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("CARPRUN_HISTORY"); v != "" {
		config.History.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("CARPRUN_HISTORY_PATH"); v != "" {
		config.History.Path = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
