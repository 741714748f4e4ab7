package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger returns a quiet logger for tests: WARN and above, text, on stdout.
// TUNECORE_TEST_LOG overrides the level, for example TUNECORE_TEST_LOG=debug.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn
	if parsed, ok := ParseLevel(os.Getenv("TUNECORE_TEST_LOG")); ok {
		level = parsed
	}

	log, _ := NewLogger(Config{
		Level:  level,
		Format: "text",
		Output: os.Stdout,
	})
	return log
}
