// ABOUTME: Tests for the console and JSON log handlers
// ABOUTME: Checks level filtering, attrs, groups and JSON output

package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.With("component", "session").Info("state changed", "from", "ready", "to", "disconnected")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF state changed")
	assert.Contains(t, out, " component=session")
	assert.Contains(t, out, " from=ready to=disconnected")
}

func TestColorHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug"}, &buf)

	logger.WithGroup("http").Warn("slow request", "path", "/send", slog.Group("timing", "ms", 1200))

	out := buf.String()
	assert.Contains(t, out, "WRN slow request")
	assert.Contains(t, out, " http.path=/send")
	assert.Contains(t, out, " http.timing.ms=1200")
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("skipped")
	logger.Error("send failed", "number", "15551234567")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "send failed", rec["msg"])
	assert.Equal(t, "15551234567", rec["number"])
}
