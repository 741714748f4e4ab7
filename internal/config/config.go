// Package config loads the tunecore configuration from TOML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tejashwikalptaru/tunecore/internal/adapter/fswatch"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/history"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/logger"
	"github.com/tejashwikalptaru/tunecore/internal/service"
)

const (
	appName        = "tunecore"
	configFileName = "config.toml"

	// localConfigFile in the working directory overrides the user config.
	localConfigFile = "tunecore.toml"
)

// Config is the complete tunecore configuration.
type Config struct {
	Playback PlaybackConfig `koanf:"playback"`
	Credit   CreditConfig   `koanf:"credit"`
	Storage  StorageConfig  `koanf:"storage"`
	Watch    WatchConfig    `koanf:"watch"`
	Log      LogConfig      `koanf:"log"`
}

// PlaybackConfig tunes the transport.
type PlaybackConfig struct {
	PollInterval     time.Duration `koanf:"poll_interval"`     // default: 500ms
	RestartThreshold time.Duration `koanf:"restart_threshold"` // default: 5s
}

// CreditConfig is the natural-progress window for play crediting.
type CreditConfig struct {
	ThresholdPercent float64       `koanf:"threshold_percent"` // default: 90
	MinDelta         time.Duration `koanf:"min_delta"`         // default: 100ms
	MaxDelta         time.Duration `koanf:"max_delta"`         // default: 4 x poll_interval
}

// StorageConfig locates the durable state.
type StorageConfig struct {
	Database    string `koanf:"database"`     // default: $XDG_DATA_HOME/tunecore/tunecore.db
	HistoryFile string `koanf:"history_file"` // default: $XDG_DATA_HOME/tunecore/history.jsonl
}

// WatchConfig controls the file watcher that triggers queue cleanup.
type WatchConfig struct {
	Enabled  *bool         `koanf:"enabled"`  // default: true
	Debounce time.Duration `koanf:"debounce"` // default: 250ms
}

// LogConfig controls logging.
type LogConfig struct {
	Level      string `koanf:"level"`  // DEBUG, INFO, WARN, ERROR (default: INFO or $TUNECORE_LOG_LEVEL)
	Format     string `koanf:"format"` // "text" or "json" (default: text)
	File       string `koanf:"file"`   // empty logs to stderr
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// Load reads the user config and then ./tunecore.toml, later files winning.
// Missing files are skipped.
func Load() (*Config, error) {
	var paths []string
	if p, err := xdg.SearchConfigFile(filepath.Join(appName, configFileName)); err == nil {
		paths = append(paths, p)
	}
	paths = append(paths, localConfigFile)

	return load(paths, false)
}

// LoadFrom reads a single config file, which must exist.
func LoadFrom(path string) (*Config, error) {
	return load([]string{path}, true)
}

func load(paths []string, required bool) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if required || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file %s: %w", path, err)
			}
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	playback := service.DefaultPlaybackConfig()
	if c.Playback.PollInterval == 0 {
		c.Playback.PollInterval = playback.PollInterval
	}
	if c.Playback.RestartThreshold == 0 {
		c.Playback.RestartThreshold = playback.RestartThreshold
	}

	if c.Credit.ThresholdPercent == 0 {
		c.Credit.ThresholdPercent = playback.Credit.ThresholdPercent
	}
	if c.Credit.MinDelta == 0 {
		c.Credit.MinDelta = playback.Credit.MinDelta
	}
	if c.Credit.MaxDelta == 0 {
		c.Credit.MaxDelta = service.DefaultMaxDelta(c.Playback.PollInterval)
	}

	if c.Storage.Database == "" {
		p, err := sqlite.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		c.Storage.Database = p
	} else {
		c.Storage.Database = expandPath(c.Storage.Database)
	}
	if c.Storage.HistoryFile == "" {
		p, err := history.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve history path: %w", err)
		}
		c.Storage.HistoryFile = p
	} else {
		c.Storage.HistoryFile = expandPath(c.Storage.HistoryFile)
	}

	if c.Watch.Enabled == nil {
		enabled := true
		c.Watch.Enabled = &enabled
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = fswatch.DefaultDebounce
	}

	logDefaults := logger.DefaultConfig()
	if c.Log.Level == "" {
		c.Log.Level = logDefaults.Level.String()
	}
	if c.Log.Format == "" {
		c.Log.Format = logDefaults.Format
	}
	if c.Log.File != "" {
		c.Log.File = expandPath(c.Log.File)
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = logDefaults.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = logDefaults.MaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = logDefaults.MaxAgeDays
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Playback.PollInterval < 10*time.Millisecond {
		return domain.NewValidationError("playback.poll_interval", c.Playback.PollInterval, "must be at least 10ms")
	}
	if err := c.PlaybackConfig().Validate(); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return domain.NewValidationError("watch.debounce", c.Watch.Debounce, "must not be negative")
	}
	if _, ok := logger.ParseLevel(c.Log.Level); !ok {
		return domain.NewValidationError("log.level", c.Log.Level, "expected DEBUG, INFO, WARN or ERROR")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return domain.NewValidationError("log.format", c.Log.Format, "expected text or json")
	}
	return nil
}

// CreditConfig returns the crediting window.
func (c *Config) CreditConfig() service.CreditConfig {
	return service.CreditConfig{
		ThresholdPercent: c.Credit.ThresholdPercent,
		MinDelta:         c.Credit.MinDelta,
		MaxDelta:         c.Credit.MaxDelta,
	}
}

// PlaybackConfig returns the transport settings.
func (c *Config) PlaybackConfig() service.PlaybackConfig {
	return service.PlaybackConfig{
		PollInterval:     c.Playback.PollInterval,
		RestartThreshold: c.Playback.RestartThreshold,
		Credit:           c.CreditConfig(),
	}
}

// LoggerConfig returns the logger settings. An unparsable level falls back to INFO.
func (c *Config) LoggerConfig() logger.Config {
	level, ok := logger.ParseLevel(c.Log.Level)
	if !ok {
		level = slog.LevelInfo
	}
	return logger.Config{
		Level:      level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// WatchEnabled reports whether the cleanup watcher should run.
func (c *Config) WatchEnabled() bool {
	return c.Watch.Enabled == nil || *c.Watch.Enabled
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
