package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetStandardLogger(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
		log.SetReportCaller(false)
		log.SetOutput(os.Stderr)
	})
}

func TestConfigureJSON(t *testing.T) {
	resetStandardLogger(t)
	var buf bytes.Buffer

	require.NoError(t, Configure(Config{Level: "debug", Format: "json", Output: &buf}))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	log.WithField("n", 3).Debug("progress")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "progress", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.EqualValues(t, 3, entry["n"])
}

func TestConfigureText(t *testing.T) {
	resetStandardLogger(t)
	var buf bytes.Buffer

	require.NoError(t, Configure(Config{Level: "warning", Format: "text", Output: &buf}))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestConfigureErrors(t *testing.T) {
	resetStandardLogger(t)

	assert.Error(t, Configure(Config{Level: "loud", Format: "text"}))
	assert.EqualError(t, Configure(Config{Level: "info", Format: "xml"}), "invalid log format 'xml'")
}
