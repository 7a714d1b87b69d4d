package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer

	log := NewLoggerWithWriter(&buf, "debug", "json")
	log.With("provider", "defillama").Debug("request", "status", 200)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "defillama", entry["provider"])
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := NewLoggerWithWriter(&buf, "warn", "text")
	child := log.With("k", "v")

	child.Info("hidden")
	assert.Empty(t, buf.String())

	child.Warn("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log.SetLevel("debug")
	child.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
