package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	d := DefaultAppConfig()
	assert.Equal(t, d.API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, 60, cfg.Notifications.PollIntervalSec)
	assert.Equal(t, 3000, cfg.Toasts.DurationMS)
	assert.Equal(t, "token", cfg.Session.TokenKey)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `api:
  base_url: https://tracker.example.com/api/
  timeout_sec: 5
notifications:
  poll_interval_sec: 15
toasts:
  duration_ms: -1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("TRACKER_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://tracker.example.com/api", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 5, cfg.API.TimeoutSec)
	assert.Equal(t, 15, cfg.Notifications.PollIntervalSec)
	assert.Equal(t, 3000, cfg.Toasts.DurationMS, "non-positive duration falls back")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://file/api\n"), 0o600))
	t.Setenv("TRACKER_API_BASE_URL", "http://env/api")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env/api", cfg.API.BaseURL)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.API.BaseURL = "https://saved.example.com/api"
	cfg.Notifications.PollIntervalSec = 30
	cfg.Session.Backend = "file"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com/api", loaded.API.BaseURL)
	assert.Equal(t, 30, loaded.Notifications.PollIntervalSec)
	assert.Equal(t, "file", loaded.Session.Backend)
}

func TestAppConfig_Durations(t *testing.T) {
	cfg := DefaultAppConfig()
	assert.Equal(t, "30s", cfg.RequestTimeout().String())
	assert.Equal(t, "1m0s", cfg.PollInterval().String())
	assert.Equal(t, "3s", cfg.ToastDuration().String())
}
