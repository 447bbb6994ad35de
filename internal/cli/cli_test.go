package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/helvethink/throttle/pkg/config"
)

func newTestApp(t *testing.T) (*cli.App, *bytes.Buffer) {
	app := NewApp("0.0.0", time.Now())

	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	return app, &out
}

func exitCode(t *testing.T, err error) int {
	require.Error(t, err)
	ec, ok := err.(cli.ExitCoder)
	require.True(t, ok, "expected an ExitCoder, got %T", err)
	return ec.ExitCode()
}

func TestNewApp(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	app := NewApp("1.2.3", start)

	assert.Equal(t, "throttle-demo", app.Name)
	assert.Equal(t, "1.2.3", app.Version)
	assert.Equal(t, start, app.Metadata["startTime"])
	require.Len(t, app.Commands, 2)
	assert.Equal(t, "run", app.Commands[0].Name)
	assert.Equal(t, "validate", app.Commands[1].Name)
}

func TestValidateDefaults(t *testing.T) {
	app, out := newTestApp(t)

	err := app.Run([]string{"throttle-demo", "validate"})
	assert.Equal(t, 0, exitCode(t, err))

	var printed map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &printed))
	assert.Contains(t, out.String(), "policy: leading-trailing")
	assert.Contains(t, out.String(), "wait_milliseconds: 500")
}

func TestValidateOverrides(t *testing.T) {
	app, out := newTestApp(t)

	err := app.Run([]string{
		"throttle-demo", "validate",
		"--policy", "max-count", "--max", "3", "--wait", "100ms",
		"--interval", "20ms", "--calls", "50",
	})
	assert.Equal(t, 0, exitCode(t, err))
	assert.Contains(t, out.String(), "policy: max-count")
	assert.Contains(t, out.String(), "max: 3")
	assert.Contains(t, out.String(), "wait_milliseconds: 100")
	assert.Contains(t, out.String(), "interval_milliseconds: 20")
	assert.Contains(t, out.String(), "calls: 50")
}

func TestValidateOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
throttle:
  policy: cooldown
  wait_milliseconds: 250
driver:
  calls: 10
`), 0o600))

	app, out := newTestApp(t)
	err := app.Run([]string{"throttle-demo", "--config", path, "validate", "--wait", "1s"})
	assert.Equal(t, 0, exitCode(t, err))
	assert.Contains(t, out.String(), "policy: cooldown")
	assert.Contains(t, out.String(), "wait_milliseconds: 1000")
	assert.Contains(t, out.String(), "calls: 10")
}

func TestValidateZeroOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
throttle:
  wait_milliseconds: 250
server:
  enabled: true
`), 0o600))

	app, out := newTestApp(t)
	err := app.Run([]string{
		"throttle-demo", "--config", path, "validate",
		"--wait", "0s", "--server-enabled=false",
	})
	assert.Equal(t, 0, exitCode(t, err))
	assert.Contains(t, out.String(), "wait_milliseconds: 0")

	cfg, err := config.Parse(config.FormatYAML, out.Bytes())
	require.NoError(t, err)
	assert.Zero(t, cfg.Throttle.WaitMilliseconds)
	assert.False(t, cfg.Server.Enabled)
}

func TestValidateKeepsFileValuesWithoutFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
throttle:
  wait_milliseconds: 250
server:
  enabled: true
`), 0o600))

	app, out := newTestApp(t)
	err := app.Run([]string{"throttle-demo", "--config", path, "validate"})
	assert.Equal(t, 0, exitCode(t, err))

	cfg, err := config.Parse(config.FormatYAML, out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Throttle.WaitMilliseconds)
	assert.True(t, cfg.Server.Enabled)
}

func TestValidateRejectsMaxWithoutMaxCount(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Run([]string{"throttle-demo", "validate", "--max", "3"})
	assert.Equal(t, 1, exitCode(t, err))
}

func TestValidateMissingConfigFile(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Run([]string{"throttle-demo", "--config", filepath.Join(t.TempDir(), "nope.yml"), "validate"})
	assert.Equal(t, 1, exitCode(t, err))
}

func TestRunCompletes(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Run([]string{
		"throttle-demo", "--log-level", "error", "run",
		"--wait", "20ms", "--interval", "2ms", "--calls", "10",
	})
	assert.Equal(t, 0, exitCode(t, err))
}
