package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/codegraph/internal/discover"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))
	return dir
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	cfg := Load(dir)

	assert.Equal(t, ".py", cfg.EffectiveExtension())
	assert.Equal(t, discover.DefaultIgnorePatterns, cfg.EffectiveIgnorePatterns())
	assert.Equal(t, runtime.NumCPU(), cfg.EffectiveWorkers())
	assert.Equal(t, filepath.Join(dir, "codegraph.json"), cfg.EffectiveOutput(dir))
	_, ok := cfg.DatabasePath(dir)
	assert.False(t, ok)
}

func TestLoadValues(t *testing.T) {
	dir := writeConfig(t, `
extension: .pyi
extra_ignore:
  - /generated/
workers: 3
output: out/graph.json
database: /var/lib/graph.db
`)
	cfg := Load(dir)

	assert.Equal(t, ".pyi", cfg.EffectiveExtension())
	assert.Equal(t, 3, cfg.EffectiveWorkers())
	assert.Equal(t, filepath.Join(dir, "out", "graph.json"), cfg.EffectiveOutput(dir))

	patterns := cfg.EffectiveIgnorePatterns()
	assert.Len(t, patterns, len(discover.DefaultIgnorePatterns)+1)
	assert.Equal(t, "/generated/", patterns[len(patterns)-1])

	db, ok := cfg.DatabasePath(dir)
	assert.True(t, ok)
	assert.Equal(t, "/var/lib/graph.db", db)
}

func TestIgnorePatternsReplaceDefaults(t *testing.T) {
	dir := writeConfig(t, "ignore_patterns: [\"/vendor/\"]\nextra_ignore: [\"/gen/\"]\n")
	cfg := Load(dir)
	assert.Equal(t, []string{"/vendor/", "/gen/"}, cfg.EffectiveIgnorePatterns())
}

func TestEmptyIgnorePatternsDisablesDefaults(t *testing.T) {
	dir := writeConfig(t, "ignore_patterns: []\n")
	cfg := Load(dir)
	assert.Empty(t, cfg.EffectiveIgnorePatterns())
}

func TestLoadInvalid(t *testing.T) {
	dir := writeConfig(t, "workers: [not, a, number\n")
	cfg := Load(dir)
	assert.Nil(t, cfg.Workers)
	assert.Equal(t, runtime.NumCPU(), cfg.EffectiveWorkers())
}

func TestZeroWorkersFallsBack(t *testing.T) {
	dir := writeConfig(t, "workers: 0\n")
	assert.Equal(t, runtime.NumCPU(), Load(dir).EffectiveWorkers())
}
