package config

import (
	"strings"
	"time"

	"github.com/daylytics/daylytics/internal/bytesize"
	"github.com/daylytics/daylytics/pkg/store"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyShutdownTimeoutDefaults(cfg)
	cfg.Database.ApplyDefaults()
	applyBlobDefaults(cfg)
	applyAPIDefaults(cfg)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyBlobDefaults sets blob store defaults.
// Bucket and PublicBaseURL have no defaults: when either is missing the
// server runs with blob storage unavailable.
func applyBlobDefaults(cfg *Config) {
	if cfg.Blob.KeyPrefix == "" {
		cfg.Blob.KeyPrefix = "blobs/"
	}
}

// applyAPIDefaults sets API server defaults.
// The API is always enabled.
func applyAPIDefaults(cfg *Config) {
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.API.ReadTimeout == 0 {
		cfg.API.ReadTimeout = 30 * time.Second
	}
	if cfg.API.WriteTimeout == 0 {
		cfg.API.WriteTimeout = 30 * time.Second
	}
	if cfg.API.IdleTimeout == 0 {
		cfg.API.IdleTimeout = 60 * time.Second
	}
	if cfg.API.DefaultUserStorageLimit == 0 {
		cfg.API.DefaultUserStorageLimit = 100 * bytesize.MiB
	}
	if cfg.API.JWT.AccessTokenDuration == 0 {
		cfg.API.JWT.AccessTokenDuration = 15 * time.Minute
	}
	if cfg.API.JWT.RefreshTokenDuration == 0 {
		cfg.API.JWT.RefreshTokenDuration = 7 * 24 * time.Hour
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Database: store.Config{
			Type: store.DatabaseTypeSQLite, // Default to SQLite for single-node
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
