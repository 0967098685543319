// Package config loads the optional .codegraph.yaml settings file.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/DeusData/codegraph/internal/discover"
)

// FileName is the settings file looked up in the project root.
const FileName = ".codegraph.yaml"

// DefaultOutput is the JSON document written when no database is configured.
const DefaultOutput = "codegraph.json"

// Config holds user-overridable indexing settings. Unset keys fall back to
// defaults through the Effective accessors.
type Config struct {
	// Extension selects source files, e.g. ".py".
	Extension *string `yaml:"extension"`

	// IgnorePatterns replaces the built-in ignore substrings when set.
	IgnorePatterns []string `yaml:"ignore_patterns"`

	// ExtraIgnore is appended to the ignore substrings.
	ExtraIgnore []string `yaml:"extra_ignore"`

	Workers *int `yaml:"workers"`

	// Output is the JSON document path, relative to the root unless absolute.
	Output *string `yaml:"output"`

	// Database switches persistence to SQLite at this path.
	Database *string `yaml:"database"`
}

// Default returns an empty configuration.
func Default() *Config {
	return &Config{}
}

// Load reads .codegraph.yaml from dir. A missing file yields defaults; an
// invalid one is logged and also yields defaults.
func Load(dir string) *Config {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("config.invalid", "path", path, "err", err)
		return Default()
	}
	return cfg
}

// EffectiveExtension returns the configured extension or ".py".
func (c *Config) EffectiveExtension() string {
	if c.Extension != nil && *c.Extension != "" {
		return *c.Extension
	}
	return discover.DefaultExtension
}

// EffectiveIgnorePatterns returns the base patterns (configured or built-in)
// followed by ExtraIgnore.
func (c *Config) EffectiveIgnorePatterns() []string {
	base := discover.DefaultIgnorePatterns
	if c.IgnorePatterns != nil {
		base = c.IgnorePatterns
	}
	combined := make([]string, 0, len(base)+len(c.ExtraIgnore))
	combined = append(combined, base...)
	combined = append(combined, c.ExtraIgnore...)
	return combined
}

// EffectiveWorkers returns the configured worker count, or the CPU count.
func (c *Config) EffectiveWorkers() int {
	if c.Workers != nil && *c.Workers > 0 {
		return *c.Workers
	}
	return runtime.NumCPU()
}

// EffectiveOutput resolves the JSON document path against root.
func (c *Config) EffectiveOutput(root string) string {
	out := DefaultOutput
	if c.Output != nil && *c.Output != "" {
		out = *c.Output
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(root, out)
}

// DatabasePath resolves the configured SQLite path against root. ok is false
// when no database is configured.
func (c *Config) DatabasePath(root string) (path string, ok bool) {
	if c.Database == nil || *c.Database == "" {
		return "", false
	}
	if filepath.IsAbs(*c.Database) {
		return *c.Database, true
	}
	return filepath.Join(root, *c.Database), true
}
