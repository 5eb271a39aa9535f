package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for snapify
type Config struct {
	// Story provider settings
	Provider ProviderConfig `yaml:"provider" json:"provider"`

	// Where media is written
	Output OutputConfig `yaml:"output" json:"output"`

	// Seen-set persistence
	State StateConfig `yaml:"state" json:"state"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Monitor (polling) mode
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`

	// Retry policy for feed fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ProviderConfig describes the remote story endpoint
type ProviderConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	// Debug prints the path of every written file
	Debug   bool `yaml:"debug" json:"debug"`
	NoColor bool `yaml:"no_color" json:"no_color"`
}

// StateConfig selects where the seen set lives
type StateConfig struct {
	Path    string `yaml:"path" json:"path"`
	Backend string `yaml:"backend" json:"backend"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	ConcurrentFetches   int           `yaml:"concurrent_fetches" json:"concurrent_fetches"`
	// DownloadTimeout bounds the wait for headers and any gap between body
	// reads. It does not cap the total transfer time.
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	ChunkSize           int           `yaml:"chunk_size" json:"chunk_size"`
}

// MonitorConfig controls the polling loop
type MonitorConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// RetryConfig holds retry configuration for transient feed fetch failures
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Supported state backends
const (
	StateBackendJSON = "json"
	StateBackendBolt = "bolt"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:      "https://story.snapchat.com",
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			FetchTimeout: 30 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "snap_media",
		},
		State: StateConfig{
			Path:    "autoposts.json",
			Backend: StateBackendJSON,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			ConcurrentFetches:   3,
			DownloadTimeout:     60 * time.Second,
			ChunkSize:           32 * 1024,
		},
		Monitor: MonitorConfig{
			Enabled:  false,
			Interval: 2 * time.Minute,
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from SNAPIFY_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("SNAPIFY_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("SNAPIFY_USER_AGENT"); v != "" {
		c.Provider.UserAgent = v
	}
	if v := os.Getenv("SNAPIFY_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("SNAPIFY_STATE_FILE"); v != "" {
		c.State.Path = v
	}
	if v := os.Getenv("SNAPIFY_STATE_BACKEND"); v != "" {
		c.State.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SNAPIFY_CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SNAPIFY_CONCURRENT_DOWNLOADS: %w", err))
		} else if n > 0 {
			c.Download.ConcurrentDownloads = n
		}
	}
	if v := os.Getenv("SNAPIFY_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SNAPIFY_INTERVAL: %w", err))
		} else if n > 0 {
			c.Monitor.Interval = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("SNAPIFY_NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("SNAPIFY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SNAPIFY_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".snapify.yaml",
		".snapify.yml",
		filepath.Join(home, ".config", "snapify", "config.yaml"),
		filepath.Join(home, ".snapify.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Provider.BaseURL == "" {
		errs = append(errs, errors.New("provider base URL is required"))
	}
	if strings.TrimSpace(c.Provider.UserAgent) == "" {
		errs = append(errs, errors.New("user agent must not be empty"))
	}
	if c.Provider.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.State.Path == "" {
		errs = append(errs, errors.New("state file path is required"))
	}
	switch c.State.Backend {
	case StateBackendJSON, StateBackendBolt:
	default:
		errs = append(errs, fmt.Errorf("invalid state backend %q", c.State.Backend))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.ConcurrentFetches <= 0 {
		errs = append(errs, errors.New("concurrent fetches must be positive"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}

	if c.Monitor.Interval <= 0 {
		errs = append(errs, errors.New("monitor interval must be positive"))
	}

	if c.Retry.Enabled && c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges explicitly set command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["base-directory"].(string); ok && dir != "" {
		c.Output.BaseDirectory = dir
	}
	if path, ok := flags["state-file"].(string); ok && path != "" {
		c.State.Path = path
	}
	if backend, ok := flags["state-backend"].(string); ok && backend != "" {
		c.State.Backend = strings.ToLower(backend)
	}
	if monitor, ok := flags["monitor"].(bool); ok {
		c.Monitor.Enabled = monitor
	}
	if minutes, ok := flags["interval"].(int); ok && minutes > 0 {
		c.Monitor.Interval = time.Duration(minutes) * time.Minute
	}
	if concurrent, ok := flags["concurrent-downloads"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if noColor, ok := flags["no-color"].(bool); ok {
		c.Output.NoColor = noColor
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	// --debug wins over --log-level
	if debug, ok := flags["debug"].(bool); ok && debug {
		c.Output.Debug = true
		c.Logging.Level = "debug"
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".snapify.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
