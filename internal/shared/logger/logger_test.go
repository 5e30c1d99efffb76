package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("creates with default config", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("writes json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l, err := New(&Config{Level: "debug", Format: "json", Writer: buf})
		require.NoError(t, err)

		l.Info("member added", zap.String("team_id", "t-1"))
		require.NoError(t, l.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "member added", entry["msg"])
		assert.Equal(t, "t-1", entry["team_id"])
		assert.Equal(t, "info", entry["level"])
	})

	t.Run("writes console format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l, err := New(&Config{Level: "info", Format: "console", Writer: buf})
		require.NoError(t, err)

		l.Info("test message")
		output := buf.String()
		assert.Contains(t, output, "test message")
		assert.False(t, strings.HasPrefix(output, "{"))
	})

	t.Run("file output requires path", func(t *testing.T) {
		_, err := New(&Config{Output: "file"})
		assert.Error(t, err)
	})
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := New(&Config{Level: "warn", Writer: buf})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "error", parseLevel(" error ").String())
	assert.Equal(t, "info", parseLevel("nonsense").String())
}

func TestContextLogger(t *testing.T) {
	t.Run("returns stored logger", func(t *testing.T) {
		l := zap.NewExample()
		ctx := ContextWithLogger(context.Background(), l)
		assert.Same(t, l, FromContext(ctx, nil))
	})

	t.Run("falls back", func(t *testing.T) {
		fallback := zap.NewNop()
		assert.Same(t, fallback, FromContext(context.Background(), fallback))
		assert.NotNil(t, FromContext(context.Background(), nil))
	})
}
