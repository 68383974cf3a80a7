package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" Warn ":  LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestStdLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerWithWriter(&buf, LevelWarn, 0)
	ctx := context.Background()

	l.Debug(ctx, "debug message")
	l.Info(ctx, "info message")
	assert.Empty(t, buf.String())

	l.Warn(ctx, "warn message")
	l.Error(ctx, errors.New("boom"), "error message")
	assert.Equal(t, "[WARN] warn message\n[ERROR] error message | error: boom\n", buf.String())
}

func TestStdLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerWithWriter(&buf, LevelDebug, 0)

	l.Info(context.Background(), "fetched", map[string]interface{}{"source": "sqlite", "count": 3, "address": "0xabc"})
	assert.Equal(t, "[INFO] fetched | address=0xabc count=3 source=sqlite\n", buf.String())
}
