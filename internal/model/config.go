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

// BackendConfig holds the connection settings for the hosted task backend.
type BackendConfig struct {
	// URL is the root URL of the backend project (e.g., https://xyz.supabase.co).
	URL string `mapstructure:"url" yaml:"url"`

	// Table is the REST resource holding tasks.
	Table string `mapstructure:"table" yaml:"table"`

	// UserID scopes task queries to one account.
	UserID string `mapstructure:"user_id" yaml:"user_id"`

	// PollIntervalSec is how often (in seconds) tasks are re-fetched.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// SlowRequestMs marks requests slower than this as slow in the network monitor.
	SlowRequestMs int `mapstructure:"slow_request_ms" yaml:"slow_request_ms"`
}

// NotificationConfig holds the due-date notification engine settings.
type NotificationConfig struct {
	// ExpirySec is how long non-persistent notifications stay visible.
	ExpirySec int `mapstructure:"expiry_sec" yaml:"expiry_sec"`

	// MountDelayMs defers the first due-date check after startup.
	MountDelayMs int `mapstructure:"mount_delay_ms" yaml:"mount_delay_ms"`

	// Timezone names the IANA location used for day boundaries;
	// "Local" uses the system zone.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	// Desktop enables mirroring to native desktop notifications.
	Desktop bool `mapstructure:"desktop" yaml:"desktop"`

	// Icon is passed to the desktop notifier.
	Icon string `mapstructure:"icon" yaml:"icon"`
}

// StorageConfig locates the local database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig selects the logger flavor.
type LoggingConfig struct {
	Development bool   `mapstructure:"development" yaml:"development"`
	Level       string `mapstructure:"level" yaml:"level"`
}

// AIConfig holds settings for the suggestion engine.
type AIConfig struct {
	// Provider is "heuristic" or "claude".
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend       BackendConfig      `mapstructure:"backend" yaml:"backend"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Logging       LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	AI            AIConfig           `mapstructure:"ai" yaml:"ai"`
}

// Location resolves the configured timezone, falling back to time.Local.
func (c NotificationConfig) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Expiry returns the lifetime of non-persistent notifications.
func (c NotificationConfig) Expiry() time.Duration {
	return time.Duration(c.ExpirySec) * time.Second
}

// MountDelay returns the delay before the first due-date check.
func (c NotificationConfig) MountDelay() time.Duration {
	return time.Duration(c.MountDelayMs) * time.Millisecond
}

// ConfigDir returns ~/.config/taskflow, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskflow")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskflow/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			Table:           "tasks",
			PollIntervalSec: 120,
			SlowRequestMs:   1000,
		},
		Notifications: NotificationConfig{
			ExpirySec:    5,
			MountDelayMs: 1000,
			Timezone:     "Local",
			Icon:         "dialog-information",
		},
		Storage: StorageConfig{
			Path: filepath.Join(ConfigDir(), "taskflow.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		AI: AIConfig{
			Provider:  "heuristic",
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 1024,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with TASKFLOW_ override file values
// (e.g., TASKFLOW_BACKEND_URL). If the file does not exist, defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("backend.table", def.Backend.Table)
	v.SetDefault("backend.poll_interval_sec", def.Backend.PollIntervalSec)
	v.SetDefault("backend.slow_request_ms", def.Backend.SlowRequestMs)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.user_id", "")
	v.SetDefault("notifications.expiry_sec", def.Notifications.ExpirySec)
	v.SetDefault("notifications.mount_delay_ms", def.Notifications.MountDelayMs)
	v.SetDefault("notifications.timezone", def.Notifications.Timezone)
	v.SetDefault("notifications.desktop", def.Notifications.Desktop)
	v.SetDefault("notifications.icon", def.Notifications.Icon)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("logging.development", def.Logging.Development)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("ai.provider", def.AI.Provider)
	v.SetDefault("ai.model", def.AI.Model)
	v.SetDefault("ai.max_tokens", def.AI.MaxTokens)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Notifications.ExpirySec <= 0 {
		cfg.Notifications.ExpirySec = def.Notifications.ExpirySec
	}
	if cfg.Notifications.MountDelayMs < 0 {
		cfg.Notifications.MountDelayMs = def.Notifications.MountDelayMs
	}
	if cfg.Backend.PollIntervalSec <= 0 {
		cfg.Backend.PollIntervalSec = def.Backend.PollIntervalSec
	}

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

	v.Set("backend", cfg.Backend)
	v.Set("notifications", cfg.Notifications)
	v.Set("storage", cfg.Storage)
	v.Set("logging", cfg.Logging)
	v.Set("ai", cfg.AI)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
