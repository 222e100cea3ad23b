package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLevelAndTimestampKey(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(&buf)
	l.SetLogLevel("error")

	l.Info("hidden")
	require.Empty(t, buf.String())

	l.SetLogLevel("DEBUG")
	require.Equal(t, slog.LevelDebug, l.Level())
	l.Component("remote").Debug("shown", "host", "10.0.0.1")

	out := buf.String()
	require.Contains(t, out, "timestamp=")
	require.Contains(t, out, "component=remote")
	require.Contains(t, out, "host=10.0.0.1")
}

func TestSetLogLevelIgnoresUnknown(t *testing.T) {
	l := NewLog(&bytes.Buffer{})
	l.SetLogLevel("warn")
	l.SetLogLevel("verbose")
	require.Equal(t, slog.LevelWarn, l.Level())
}
