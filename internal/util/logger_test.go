package util

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(zapcore.AddSync(&buf), "debug", "JSON")

	log.Debugw("refresh token rotated", "userID", "u1")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "refresh token rotated", entry["msg"])
	assert.Equal(t, "u1", entry["userID"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(zapcore.AddSync(&buf), "warn", "console")

	log.Infow("login succeeded")
	assert.Zero(t, buf.Len())

	log.Warnw("refresh token reuse detected")
	assert.Contains(t, buf.String(), "refresh token reuse detected")
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(zapcore.AddSync(&buf), "loud", "")

	log.Debugw("hidden")
	assert.Zero(t, buf.Len())

	log.Infow("shown")
	assert.Contains(t, buf.String(), "shown")
}
