package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTypeFromFileExtension(t *testing.T) {
	for _, name := range []string{"config.yml", "config.yaml", "/etc/throttle/demo.yaml"} {
		f, err := GetTypeFromFileExtension(name)
		require.NoError(t, err, name)
		assert.Equal(t, FormatYAML, f)
	}

	_, err := GetTypeFromFileExtension("config.json")
	assert.EqualError(t, err, "unsupported config type '.json', expected .y(a)ml")
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Parse(FormatYAML, []byte(`
throttle:
  policy: max-count
  max: 3
  wait_milliseconds: 100
driver:
  calls: 50
`))
	require.NoError(t, err)

	assert.Equal(t, "max-count", cfg.Throttle.Policy)
	assert.Equal(t, 3, cfg.Throttle.Max)
	assert.Equal(t, 100, cfg.Throttle.WaitMilliseconds)
	assert.Equal(t, 50, cfg.Driver.Calls)
	assert.Equal(t, 50, cfg.Driver.IntervalMilliseconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Server.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(FormatYAML, nil)
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse(FormatYAML, []byte("throttle: [unterminated"))
	assert.ErrorContains(t, err, "decoding yaml")
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse(Format(7), []byte("{}"))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n  format: json\n"), 0o600))

	cfg, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	_, err = ParseFile(filepath.Join(dir, "missing.yml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = ParseFile(filepath.Join(dir, "demo.toml"))
	assert.Error(t, err)
}
