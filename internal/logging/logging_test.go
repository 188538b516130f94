package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLogrus_LevelsAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)

	log := FromLogrus(base).WithField("strategy", "csv")
	log.Debug("attempt %d", 1)
	log.Warn("attempt %d failed: %s", 2, "html")

	require.Len(t, hook.AllEntries(), 2)
	last := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, "attempt 2 failed: html", last.Message)
	assert.Equal(t, "csv", last.Data["strategy"])
}

func TestFromLogrus_RespectsLevel(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.InfoLevel)

	log := FromLogrus(base)
	log.Debug("hidden")
	log.Error("shown")

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Options{Level: "debug", Output: &buf, JSON: true})
	require.NoError(t, err)
	defer closeFn()

	log.WithField("rows", 3).Info("fetched")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fetched", entry["msg"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.log")
	log, closeFn, err := New(Options{File: path})
	require.NoError(t, err)

	log.Info("hello %s", "file")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := OrNop(nil)
	log.WithField("a", 1).Error("ignored %d", 1)
	assert.Equal(t, NewNop(), log)
}
