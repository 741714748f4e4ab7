package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warning ", slog.LevelWarn, true},
		{"Error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestDefaultConfig_EnvLevel(t *testing.T) {
	t.Setenv("TUNECORE_LOG_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, DefaultConfig().Level)

	t.Setenv("TUNECORE_LOG_LEVEL", "nonsense")
	assert.Equal(t, slog.LevelInfo, DefaultConfig().Level)
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, closer := NewLogger(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})
	defer closer.Close()

	log.Debug("hidden")
	log.Info("track credited", slog.String("path", "/music/a.mp3"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"track credited"`)
	assert.Contains(t, out, `"path":"/music/a.mp3"`)
}

func TestNewLogger_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunecore.log")

	cfg := DefaultConfig()
	cfg.Level = slog.LevelInfo
	cfg.File = path

	log, closer := NewLogger(cfg)
	log.Info("hello file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}
