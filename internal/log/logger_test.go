package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLoggerWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Debug("debug msg", "key", "value")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	out := buf.String()
	assert.Contains(t, out, "debug msg")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "info msg")
	assert.Contains(t, out, "warn msg")
	assert.Contains(t, out, "error msg")
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.NewTextHandler(&buf, nil))

	logger.With("package", "zlib").Warn("corrupted")
	assert.Contains(t, buf.String(), "package=zlib")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("hidden")
	logger.Warn("visible")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoop()
	logger.Debug("x")
	logger.With("a", "b").Error("y")
}

func TestDefaultRoundTrip(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	logger := New(slog.NewTextHandler(&buf, nil))
	SetDefault(logger)
	Default().Warn("through default")
	assert.Contains(t, buf.String(), "through default")
}
