package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://story.snapchat.com", cfg.Provider.BaseURL)
	assert.Contains(t, cfg.Provider.UserAgent, "Mozilla/5.0")
	assert.Equal(t, 30*time.Second, cfg.Provider.FetchTimeout)

	assert.Equal(t, "snap_media", cfg.Output.BaseDirectory)
	assert.False(t, cfg.Output.Debug)

	assert.Equal(t, "autoposts.json", cfg.State.Path)
	assert.Equal(t, StateBackendJSON, cfg.State.Backend)

	assert.Equal(t, 3, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 32*1024, cfg.Download.ChunkSize)

	assert.False(t, cfg.Monitor.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Monitor.Interval)

	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SNAPIFY_OUTPUT_DIR", "/tmp/stories")
	t.Setenv("SNAPIFY_STATE_FILE", "/tmp/seen.json")
	t.Setenv("SNAPIFY_STATE_BACKEND", "BOLT")
	t.Setenv("SNAPIFY_CONCURRENT_DOWNLOADS", "5")
	t.Setenv("SNAPIFY_INTERVAL", "10")
	t.Setenv("SNAPIFY_NOTIFICATIONS_ENABLED", "true")
	t.Setenv("SNAPIFY_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/tmp/stories", cfg.Output.BaseDirectory)
	assert.Equal(t, "/tmp/seen.json", cfg.State.Path)
	assert.Equal(t, StateBackendBolt, cfg.State.Backend)
	assert.Equal(t, 5, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 10*time.Minute, cfg.Monitor.Interval)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("SNAPIFY_INTERVAL", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNAPIFY_INTERVAL")
	assert.Equal(t, 2*time.Minute, cfg.Monitor.Interval)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output:
  base_directory: /data/snaps
state:
  path: /data/autoposts.json
download:
  concurrent_downloads: 4
  download_timeout: 90s
monitor:
  interval: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "/data/snaps", cfg.Output.BaseDirectory)
	assert.Equal(t, "/data/autoposts.json", cfg.State.Path)
	assert.Equal(t, 4, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 90*time.Second, cfg.Download.DownloadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.Interval)
	// untouched sections keep their defaults
	assert.Equal(t, "https://story.snapchat.com", cfg.Provider.BaseURL)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("output: [unterminated"), 0644))
	err = cfg.LoadFromFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty user agent", func(c *Config) { c.Provider.UserAgent = "  " }, "user agent"},
		{"no output dir", func(c *Config) { c.Output.BaseDirectory = "" }, "output directory"},
		{"no state path", func(c *Config) { c.State.Path = "" }, "state file path"},
		{"bad backend", func(c *Config) { c.State.Backend = "redis" }, "invalid state backend"},
		{"zero downloads", func(c *Config) { c.Download.ConcurrentDownloads = 0 }, "concurrent downloads must be positive"},
		{"too many downloads", func(c *Config) { c.Download.ConcurrentDownloads = 11 }, "should not exceed 10"},
		{"zero interval", func(c *Config) { c.Monitor.Interval = 0 }, "monitor interval"},
		{"zero chunk", func(c *Config) { c.Download.ChunkSize = 0 }, "chunk size"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"base-directory":       "out",
		"state-file":           "seen.json",
		"monitor":              true,
		"interval":             7,
		"concurrent-downloads": 2,
		"log-level":            "warn",
		"debug":                true,
	})

	assert.Equal(t, "out", cfg.Output.BaseDirectory)
	assert.Equal(t, "seen.json", cfg.State.Path)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, 7*time.Minute, cfg.Monitor.Interval)
	assert.Equal(t, 2, cfg.Download.ConcurrentDownloads)
	assert.True(t, cfg.Output.Debug)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  base_directory: from-file\nlogging:\n  level: warn\n"), 0644))

	t.Setenv("SNAPIFY_OUTPUT_DIR", "from-env")

	cfg, err := Load(path, map[string]interface{}{"log-level": "error"})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Output.BaseDirectory)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load("", map[string]interface{}{"state-backend": "sqlite"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Output.BaseDirectory = "saved"
	cfg.Monitor.Interval = 15 * time.Minute
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "saved", loaded.Output.BaseDirectory)
	assert.Equal(t, 15*time.Minute, loaded.Monitor.Interval)
}
