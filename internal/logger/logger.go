// Package logger provides structured logging configuration using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"

	// File, when set, sends output to a size-rotated file instead of stderr
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output overrides the destination (tests)
	Output io.Writer
}

// NewLogger creates a configured slog.Logger.
// The returned closer releases the log file, if any; it is never nil.
func NewLogger(cfg Config) (*slog.Logger, io.Closer) {
	var handler slog.Handler
	var closer io.Closer = nopCloser{}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
		if cfg.File != "" {
			rotating := NewRotatingWriter(cfg)
			out = rotating
			closer = rotating
		}
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		// Add a source location for debug and error levels
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closer
}

// NewRotatingWriter returns a lumberjack writer for cfg.File.
func NewRotatingWriter(cfg Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   false,
	}
}

// ParseLevel converts a level name to a slog.Level.
// Valid values: DEBUG, INFO, WARN, WARNING, ERROR. Anything else yields ok=false.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// DefaultConfig returns the default logger configuration.
// Parses the TUNECORE_LOG_LEVEL environment variable to set the log level.
// Default: INFO
func DefaultConfig() Config {
	level := slog.LevelInfo

	if envLevel := os.Getenv("TUNECORE_LOG_LEVEL"); envLevel != "" {
		if parsed, ok := ParseLevel(envLevel); ok {
			level = parsed
		}
	}

	return Config{
		Level:      level,
		Format:     "text",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
