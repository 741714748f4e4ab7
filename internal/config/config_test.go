package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

// writeConfig writes body to a temp config file. Storage paths point into the
// temp dir unless body sets them, so tests never touch the user's data dir.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()

	if !strings.Contains(body, "[storage]") {
		body += "\n[storage]\ndatabase = \"" + filepath.ToSlash(filepath.Join(dir, "tunecore.db")) +
			"\"\nhistory_file = \"" + filepath.ToSlash(filepath.Join(dir, "history.jsonl")) + "\"\n"
	}

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("TUNECORE_LOG_LEVEL", "")

	cfg, err := LoadFrom(writeConfig(t, ""))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500*time.Millisecond, cfg.Playback.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Playback.RestartThreshold)
	assert.Equal(t, 90.0, cfg.Credit.ThresholdPercent)
	assert.Equal(t, 100*time.Millisecond, cfg.Credit.MinDelta)
	assert.Equal(t, 2*time.Second, cfg.Credit.MaxDelta)
	assert.True(t, cfg.WatchEnabled())
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoadFrom_Overrides(t *testing.T) {
	path := writeConfig(t, `
[playback]
poll_interval = "250ms"
restart_threshold = "3s"

[credit]
threshold_percent = 80
min_delta = "50ms"
max_delta = "1s"

[watch]
enabled = false

[log]
level = "debug"
format = "json"
file = "/tmp/tunecore-test.log"
max_backups = 7
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 250*time.Millisecond, cfg.Playback.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Playback.RestartThreshold)
	assert.False(t, cfg.WatchEnabled())

	credit := cfg.CreditConfig()
	assert.Equal(t, 80.0, credit.ThresholdPercent)
	assert.Equal(t, 50*time.Millisecond, credit.MinDelta)
	assert.Equal(t, time.Second, credit.MaxDelta)

	playback := cfg.PlaybackConfig()
	assert.Equal(t, credit, playback.Credit)
	assert.Equal(t, 250*time.Millisecond, playback.PollInterval)

	logCfg := cfg.LoggerConfig()
	assert.Equal(t, "json", logCfg.Format)
	assert.Equal(t, "/tmp/tunecore-test.log", logCfg.File)
	assert.Equal(t, 7, logCfg.MaxBackups)
	assert.Equal(t, 28, logCfg.MaxAgeDays)
}

func TestLoadFrom_WindowFollowsPollInterval(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "[playback]\npoll_interval = \"3s\"\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12*time.Second, cfg.Credit.MaxDelta)
	assert.Equal(t, 12*time.Second, cfg.PlaybackConfig().Credit.MaxDelta)
}

func TestLoadFrom_StoragePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	cfg, err := LoadFrom(writeConfig(t, `
[storage]
database = "~/music/tunecore.db"
history_file = "/var/lib/tunecore/history.jsonl"
`))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "music", "tunecore.db"), cfg.Storage.Database)
	assert.Equal(t, "/var/lib/tunecore/history.jsonl", cfg.Storage.HistoryFile)
}

func TestLoadFrom_Errors(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFrom(writeConfig(t, "[playback\npoll_interval = 1"))
	assert.Error(t, err)

	_, err = LoadFrom(writeConfig(t, "[playback]\npoll_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "poll too fast", body: "[playback]\npoll_interval = \"1ms\"\n", field: "playback.poll_interval"},
		{name: "threshold above 100", body: "[credit]\nthreshold_percent = 120\n", field: "credit.threshold_percent"},
		{name: "window inverted", body: "[credit]\nmin_delta = \"3s\"\n", field: "credit.max_delta"},
		{name: "window below poll", body: "[playback]\npoll_interval = \"3s\"\n[credit]\nmax_delta = \"2s\"\n", field: "credit.max_delta"},
		{name: "bad level", body: "[log]\nlevel = \"loud\"\n", field: "log.level"},
		{name: "bad format", body: "[log]\nformat = \"xml\"\n", field: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(writeConfig(t, tt.body))
			require.NoError(t, err)

			err = cfg.Validate()
			var validationErr *domain.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	assert.Equal(t, filepath.Join(home, "music"), expandPath("~/music"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "", expandPath(""))
}
