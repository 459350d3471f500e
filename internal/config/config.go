// Package config handles application configuration management.
//
// Configuration is read from config.yaml in the base directory,
// overridable through FIELDSYNC_* environment variables (for example
// FIELDSYNC_REMOTE_BASE_URL).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// Base directory for all fieldsync data
	BaseDir string `mapstructure:"base_dir"`

	Remote RemoteConfig `mapstructure:"remote"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Patrol PatrolConfig `mapstructure:"patrol"`
	Server ServerConfig `mapstructure:"server"`

	// TelemetryEnabled toggles anonymous usage tracking.
	TelemetryEnabled bool `mapstructure:"telemetry_enabled"`
}

// RemoteConfig holds backend API client settings.
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SyncConfig holds sync engine settings.
type SyncConfig struct {
	// Interval between periodic drain cycles.
	Interval time.Duration `mapstructure:"interval"`
	// MaxRetries caps transient-failure retries per queue item; once
	// exceeded the item is terminally failed.
	MaxRetries int `mapstructure:"max_retries"`
	// BackoffBase is the delay after the first failure; it doubles per
	// retry up to BackoffCap.
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffCap  time.Duration `mapstructure:"backoff_cap"`
	// BatchSize caps queue items examined per entity type per drain.
	BatchSize int `mapstructure:"batch_size"`
}

// PatrolConfig holds checkpoint verification policy.
type PatrolConfig struct {
	// RadiusMeters rejects verifications farther than this from the
	// checkpoint. 0 disables the proximity gate.
	RadiusMeters float64 `mapstructure:"radius_meters"`
}

// ServerConfig holds backend server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	// RateLimit is requests per second per client; 0 disables.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// Load reads configuration from config.yaml and the environment.
// Missing file is fine; defaults apply.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(DefaultBaseDir())

	v.SetEnvPrefix("FIELDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir()
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ensureDirectories creates required directories if they don't exist.
func ensureDirectories(cfg *Config) error {
	paths := GetPaths(cfg)
	dirs := []string{cfg.BaseDir, paths.Photos, paths.Logs}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
