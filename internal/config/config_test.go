package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - LoadConfig() uses defaults when no config file exists
// - LoadConfig() loads from .fms/config.yml when present
// - LoadConfig() loads from .fms/config.yaml when present
// - LoadConfig() merges config file with defaults
// - NewFileLoader() reads an explicit file
// - Environment variables override config file values
// - Environment variables override defaults when no config file exists
// - LoadConfig() returns error for malformed YAML
// - LoadConfig() returns error for invalid configuration values
// - Validate() rejects out-of-range anchor windows
// - Validate() rejects non-positive capacity and workers
// - Validate() rejects empty include lists and broken globs
// - Validate() returns multiple errors for multiple invalid fields
// - SourceExtensions() extracts unique extensions from include patterns

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	fmsDir := filepath.Join(tempDir, ".fms")
	require.NoError(t, os.MkdirAll(fmsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(fmsDir, name), []byte(content), 0644))
	return tempDir
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Scan.AnchorWindow)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.Equal(t, []string{"**/*.rb"}, cfg.Paths.Include)
	assert.Contains(t, cfg.Paths.Ignore, "vendor/**")
	assert.Contains(t, cfg.Paths.Ignore, "**/tk*.rb")
	assert.Equal(t, 8, cfg.Sweep.Workers)
	assert.True(t, cfg.MCP.Watch)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, "config.yml", `
scan:
  anchor_window: 2
cache:
  capacity: 64
paths:
  include:
    - "lib/**/*.rb"
    - "**/*.rake"
  ignore:
    - "spec/**"
sweep:
  workers: 3
mcp:
  watch: false
`)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scan.AnchorWindow)
	assert.Equal(t, 64, cfg.Cache.Capacity)
	assert.Equal(t, []string{"lib/**/*.rb", "**/*.rake"}, cfg.Paths.Include)
	assert.Equal(t, []string{"spec/**"}, cfg.Paths.Ignore)
	assert.Equal(t, 3, cfg.Sweep.Workers)
	assert.False(t, cfg.MCP.Watch)
}

func TestLoadConfig_LoadsFromConfigYaml(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, "config.yaml", "cache:\n  capacity: 16\n")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Cache.Capacity)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, "config.yml", "sweep:\n  workers: 2\n")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Sweep.Workers)
	assert.Equal(t, 1, cfg.Scan.AnchorWindow)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.Equal(t, Default().Paths.Ignore, cfg.Paths.Ignore)
	assert.True(t, cfg.MCP.Watch)
}

func TestNewFileLoader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  anchor_window: 0\n"), 0644))

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Scan.AnchorWindow)

	_, err = NewFileLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	assert.Error(t, err)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	dir := writeConfig(t, "config.yml", "cache:\n  capacity: 16\nsweep:\n  workers: 2\n")

	t.Setenv("FMS_CACHE_CAPACITY", "256")
	t.Setenv("FMS_MCP_WATCH", "false")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Cache.Capacity)
	assert.False(t, cfg.MCP.Watch)

	// Not overridden, should come from config file
	assert.Equal(t, 2, cfg.Sweep.Workers)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("FMS_SCAN_ANCHOR_WINDOW", "3")
	t.Setenv("FMS_SWEEP_WORKERS", "12")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Scan.AnchorWindow)
	assert.Equal(t, 12, cfg.Sweep.Workers)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, "config.yml", "scan:\n  anchor_window: [unclosed\n")

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, "config.yml", "scan:\n  anchor_window: 9\n")

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"negative window", func(c *Config) { c.Scan.AnchorWindow = -1 }, ErrInvalidWindow},
		{"window too large", func(c *Config) { c.Scan.AnchorWindow = MaxAnchorWindow + 1 }, ErrInvalidWindow},
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }, ErrInvalidCapacity},
		{"negative workers", func(c *Config) { c.Sweep.Workers = -2 }, ErrInvalidWorkers},
		{"empty include", func(c *Config) { c.Paths.Include = nil }, ErrEmptyInclude},
		{"broken include glob", func(c *Config) { c.Paths.Include = []string{"[a-"} }, ErrInvalidPattern},
		{"broken ignore glob", func(c *Config) { c.Paths.Ignore = []string{"vendor/[z-"} }, ErrInvalidPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_MaxWindowAccepted(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Scan.AnchorWindow = MaxAnchorWindow
	assert.NoError(t, Validate(cfg))
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Scan.AnchorWindow = -1
	cfg.Cache.Capacity = 0
	cfg.Sweep.Workers = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "anchor_window")
	assert.Contains(t, err.Error(), "capacity")
	assert.Contains(t, err.Error(), "workers")
}

func TestSourceExtensions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Include = []string{"**/*.rb", "lib/*.rb", "**/*.rake", "Rakefile"}
	assert.Equal(t, []string{".rb", ".rake"}, cfg.SourceExtensions())
}
