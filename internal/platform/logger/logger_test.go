package logger_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Setup replaces the slog default, so these tests do not run in parallel.
func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	testCases := []struct {
		name        string
		level       string
		debugLogged bool
		infoLogged  bool
	}{
		{name: "debug level", level: "debug", debugLogged: true, infoLogged: true},
		{name: "info level", level: "INFO", debugLogged: false, infoLogged: true},
		{name: "error level", level: "error", debugLogged: false, infoLogged: false},
		{name: "invalid level falls back to info", level: "verbose", debugLogged: false, infoLogged: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &logger.TestLogBuffer{}
			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tc.level}, buf)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Same(t, l, slog.Default())

			l.Debug("debug message")
			l.Info("info message", slog.String("component", "test"))

			assert.Equal(t, tc.debugLogged, strings.Contains(buf.String(), "debug message"))
			assert.Equal(t, tc.infoLogged, strings.Contains(buf.String(), "info message"))

			if tc.infoLogged {
				entries, err := buf.GetLogEntries()
				require.NoError(t, err)
				last := entries[len(entries)-1]
				assert.Equal(t, "INFO", last["level"])
				assert.Equal(t, "test", last["component"])
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, ok := logger.ParseLevel(" Warn ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	level, ok = logger.ParseLevel("")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	buf, l := logger.NewTestLogger(t)
	fallback := slog.New(slog.DiscardHandler)

	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.NotNil(t, logger.FromContext(context.Background()))

	ctx := logger.WithLogger(context.Background(), l.With(slog.String("trace_id", "abc")))
	logger.FromContextOrDefault(ctx, fallback).Info("hello")

	logger.AssertLogContains(t, buf, `"trace_id":"abc"`)
	logger.AssertLogContains(t, buf, `"msg":"hello"`)
}
