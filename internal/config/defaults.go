package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers default values for every config key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", DefaultBaseDir())
	v.SetDefault("telemetry_enabled", true)

	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.timeout", 30*time.Second)

	v.SetDefault("sync.interval", 5*time.Minute)
	v.SetDefault("sync.max_retries", 5)
	v.SetDefault("sync.backoff_base", 30*time.Second)
	v.SetDefault("sync.backoff_cap", 30*time.Minute)
	v.SetDefault("sync.batch_size", 50)

	v.SetDefault("patrol.radius_meters", 0.0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.token_ttl", 15*time.Minute)
	v.SetDefault("server.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
}

// DefaultSyncConfig returns the sync engine defaults used when no
// config file is present.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Interval:    5 * time.Minute,
		MaxRetries:  5,
		BackoffBase: 30 * time.Second,
		BackoffCap:  30 * time.Minute,
		BatchSize:   50,
	}
}
