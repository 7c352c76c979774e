package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo}).With(Component("leaderboard"))

	log.Debug("hidden")
	log.Info("served", UserID("u1"), Metric("xp"), Latency(1500*time.Millisecond))
	log.Error("failed", Err(errors.New("boom")))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "served", lines[0]["message"])
	fields := lines[0]["fields"].(map[string]any)
	assert.Equal(t, "leaderboard", fields["component"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "1.5s", fields["latency"])

	assert.Equal(t, "boom", lines[1]["fields"].(map[string]any)["error"])
}

func TestLogger_WithDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Options{Output: &buf, Level: LevelDebug})
	_ = parent.With(String("child", "yes"))

	parent.Info("plain")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0]["fields"])
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf, Level: LevelInfo, AddCaller: true}).Info("x")
	assert.Contains(t, decodeLines(t, &buf)[0]["caller"], "logger_test.go:")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("chatty"))
	assert.Equal(t, "WARN", LevelWarn.String())
}

func TestFatalExits(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo})
	code := -1
	log.exit = func(c int) { code = c }

	log.Fatal("bye")
	assert.Equal(t, 1, code)
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo}).WithRequestID("req-1")
	ctx := WithContext(context.Background(), log)

	FromContext(ctx).Info("hello")
	assert.Equal(t, "req-1", decodeLines(t, &buf)[0]["fields"].(map[string]any)[RequestIDKey])
	assert.NotNil(t, FromContext(context.Background()))
	assert.False(t, Nop().Enabled(LevelFatal))
}
