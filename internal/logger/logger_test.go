package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWritesJSONWithMessageKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New("info", false, WithOutputPaths(path))
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("listening", NewField("addr", "127.0.0.1:8050"))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "listening", entry["message"])
	assert.Equal(t, "127.0.0.1:8050", entry["addr"])
	assert.Equal(t, "info", entry["level"])
}

func TestLevels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zapcore.DebugLevel, Level("DEBUG").zapLevel())
	assert.Equal(t, zapcore.WarnLevel, WarnLevel.zapLevel())
	assert.Equal(t, zapcore.ErrorLevel, ErrorLevel.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, Level("chatty").zapLevel())
}

func TestDebugLogger(t *testing.T) {
	t.Parallel()

	l, err := New("error", true, WithOutputPaths(filepath.Join(t.TempDir(), "dev.log")))
	require.NoError(t, err)
	assert.True(t, l.Zap().Core().Enabled(zapcore.DebugLevel))
}

func TestContextAndFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).WithFields(NewField("component", "dashboard"))

	ctx := ContextWithRequestID(context.Background(), "01HZX")
	l.InfoContext(ctx, "update", NewField("output", "line-chart"))
	l.ErrorContext(context.Background(), errors.New("boom"))
	l.Error(nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "dashboard", first["component"])
	assert.Equal(t, "01HZX", first["request_id"])
	assert.Equal(t, "line-chart", first["output"])

	assert.Equal(t, "boom", entries[1].Message)
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
	assert.Contains(t, entries[1].Stack, "TestContextAndFields")
}

func TestNop(t *testing.T) {
	t.Parallel()

	l := NewNop()
	l.Info("nothing")
	assert.Equal(t, "", RequestID(context.Background()))
}
