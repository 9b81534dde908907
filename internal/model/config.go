package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the remote tracker API.
type APIConfig struct {
	// BaseURL is the root URL every request path is appended to.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP round trip.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// RetryIdempotent allows one retry of a GET after a transport failure.
	RetryIdempotent bool `mapstructure:"retry_idempotent" yaml:"retry_idempotent"`
}

// SessionConfig controls where the bearer token is persisted.
type SessionConfig struct {
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	TokenKey    string `mapstructure:"token_key" yaml:"token_key"`

	// Backend is empty for the platform default or "file" to force the
	// encrypted file backend.
	Backend string `mapstructure:"backend" yaml:"backend"`
	FileDir string `mapstructure:"file_dir" yaml:"file_dir"`
}

// NotificationsConfig holds poller settings.
type NotificationsConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// ToastsConfig holds message queue settings.
type ToastsConfig struct {
	DurationMS int `mapstructure:"duration_ms" yaml:"duration_ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level client configuration.
type AppConfig struct {
	API           APIConfig           `mapstructure:"api" yaml:"api"`
	Session       SessionConfig       `mapstructure:"session" yaml:"session"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Toasts        ToastsConfig        `mapstructure:"toasts" yaml:"toasts"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

// RequestTimeout returns the API timeout as a duration.
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// PollInterval returns the notification poll interval as a duration.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Notifications.PollIntervalSec) * time.Second
}

// ToastDuration returns how long a toast stays visible.
func (c *AppConfig) ToastDuration() time.Duration {
	return time.Duration(c.Toasts.DurationMS) * time.Millisecond
}

// ConfigDir returns ~/.config/tracker, or the working directory if the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "tracker")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/tracker/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:         "http://localhost:8080/api",
			TimeoutSec:      30,
			RetryIdempotent: true,
		},
		Session: SessionConfig{
			ServiceName: "tracker",
			TokenKey:    "token",
			FileDir:     filepath.Join(ConfigDir(), "credentials"),
		},
		Notifications: NotificationsConfig{
			PollIntervalSec: 60,
		},
		Toasts: ToastsConfig{
			DurationMS: 3000,
		},
		Log: LogConfig{
			Path:  filepath.Join(ConfigDir(), "tracker.log"),
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("api.retry_idempotent", d.API.RetryIdempotent)
	v.SetDefault("session.service_name", d.Session.ServiceName)
	v.SetDefault("session.token_key", d.Session.TokenKey)
	v.SetDefault("session.backend", d.Session.Backend)
	v.SetDefault("session.file_dir", d.Session.FileDir)
	v.SetDefault("notifications.poll_interval_sec", d.Notifications.PollIntervalSec)
	v.SetDefault("toasts.duration_ms", d.Toasts.DurationMS)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with TRACKER_ (e.g. TRACKER_API_BASE_URL)
// override file values. A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Notifications.PollIntervalSec <= 0 {
		cfg.Notifications.PollIntervalSec = 60
	}
	if cfg.Toasts.DurationMS <= 0 {
		cfg.Toasts.DurationMS = 3000
	}
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 30
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("session", cfg.Session)
	v.Set("notifications", cfg.Notifications)
	v.Set("toasts", cfg.Toasts)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
