package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Notifications.ExpirySec)
	assert.Equal(t, 1000, cfg.Notifications.MountDelayMs)
	assert.Equal(t, "tasks", cfg.Backend.Table)
	assert.Equal(t, "heuristic", cfg.AI.Provider)
	assert.Equal(t, 5*time.Second, cfg.Notifications.Expiry())
	assert.Equal(t, time.Second, cfg.Notifications.MountDelay())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
backend:
  url: https://example.supabase.co
  user_id: user-1
notifications:
  expiry_sec: 9
  timezone: UTC
  desktop: true
logging:
  development: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.supabase.co", cfg.Backend.URL)
	assert.Equal(t, "user-1", cfg.Backend.UserID)
	assert.Equal(t, "tasks", cfg.Backend.Table)
	assert.Equal(t, 9, cfg.Notifications.ExpirySec)
	assert.True(t, cfg.Notifications.Desktop)
	assert.Equal(t, time.UTC, cfg.Notifications.Location())
	assert.True(t, cfg.Logging.Development)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TASKFLOW_BACKEND_URL", "https://env.example.co")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.co", cfg.Backend.URL)
}

func TestLoadConfigRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLocationFallsBackToLocal(t *testing.T) {
	assert.Equal(t, time.Local, NotificationConfig{Timezone: "Mars/Olympus"}.Location())
	assert.Equal(t, time.Local, NotificationConfig{}.Location())
}
