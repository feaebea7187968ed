// Package config loads chronograph.yaml, the project-level configuration
// file governing scanner excludes, content-size limits, and automaton
// tuning.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the conventional config file name at the workspace root.
const FileName = "chronograph.yaml"

// Config holds all tunables a workspace can override.
type Config struct {
	// Scanner settings.
	ExcludeNames     []string `yaml:"exclude_names"`
	ExcludeGlobs     []string `yaml:"exclude_globs"`
	MaxContentSizeKB int64    `yaml:"max_content_size_kb"`

	// Automaton settings.
	MaxTicks                int     `yaml:"max_ticks"`
	HistoryWindow           int     `yaml:"history_window"`
	Parallel                bool    `yaml:"parallel"`
	StabilityThreshold      float64 `yaml:"stability_threshold"`
	MinTicksBeforeStability int     `yaml:"min_ticks_before_stability"`

	// Description generator defaults.
	EntryPointStability float64 `yaml:"entry_point_stability"`
	DirectoryStability  float64 `yaml:"directory_stability"`
	LeafStability       float64 `yaml:"leaf_stability"`
	IsolatedStability   float64 `yaml:"isolated_stability"`

	// SnapshotKeep bounds how many timestamped snapshots Sync retains.
	SnapshotKeep int `yaml:"snapshot_keep"`

	// Optional LLM rule credentials (type: llm in AutomatonDescription).
	LLM LLMConfig `yaml:"llm"`

	// Optional managed process kept running alongside watch mode.
	Process ProcessConfig `yaml:"process"`
}

// ProcessConfig configures the managed process the watch loop keeps
// running alongside the automaton. An empty Cmd disables it.
type ProcessConfig struct {
	// Cmd is the shell command to run (passed to "sh -c").
	Cmd string `yaml:"cmd"`

	// Env is extra environment variables for the process.
	Env map[string]string `yaml:"env,omitempty"`

	// GracePeriodSecs is how long to wait between SIGTERM and SIGKILL
	// when stopping the process.
	GracePeriodSecs int `yaml:"grace_period_secs"`

	// Restart names the restart policy: "never", "on_change", "on_crash",
	// or "always".
	Restart string `yaml:"restart"`
}

// LLMConfig configures the one concrete "type: llm" Rule implementation.
type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// DefaultExcludeNames is the hard directory-name exclusion set.
var DefaultExcludeNames = []string{
	"node_modules", "target", "dist", "build",
	"__pycache__", "venv", ".venv", "vendor",
}

// Default returns a Config with the stock defaults.
func Default() Config {
	return Config{
		ExcludeNames:            append([]string(nil), DefaultExcludeNames...),
		ExcludeGlobs:            nil,
		MaxContentSizeKB:        1024,
		MaxTicks:                50,
		HistoryWindow:           16,
		Parallel:                false,
		StabilityThreshold:      0.01,
		MinTicksBeforeStability: 5,
		EntryPointStability:     1.0,
		DirectoryStability:      0.8,
		LeafStability:           0.3,
		IsolatedStability:       0.1,
		SnapshotKeep:            10,
		Process: ProcessConfig{
			GracePeriodSecs: 5,
			Restart:         "never",
		},
	}
}

// Load reads and parses a chronograph.yaml at path, merging onto defaults.
// A missing file is not an error: it yields Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
