package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfigTemplate is the commented configuration file written by
// `daylytics init`. %s is replaced with a freshly generated JWT secret.
const sampleConfigTemplate = `# Daylytics Configuration File
#
# This file configures the daylytics server. All values can be overridden
# with environment variables using the DAYLYTICS_ prefix, for example:
#   DAYLYTICS_LOGGING_LEVEL=DEBUG
#   DAYLYTICS_API_PORT=9090

logging:
  # Log level: DEBUG, INFO, WARN, ERROR
  level: "INFO"
  # Log format: text, json
  format: "text"
  # Log output: stdout, stderr, or a file path
  output: "stdout"

# Maximum time to wait for graceful shutdown
shutdown_timeout: "30s"

database:
  # Database type: sqlite (single node) or postgres
  type: "sqlite"
  sqlite:
    # Defaults to $XDG_CONFIG_HOME/daylytics/daylytics.db when empty
    path: ""
  # postgres:
  #   host: "localhost"
  #   port: 5432
  #   database: "daylytics"
  #   user: "daylytics"
  #   password: ""
  #   sslmode: "disable"

blob:
  # S3 (or S3-compatible) blob store for uploaded files.
  # Leave bucket empty to run without blob storage; upload endpoints
  # will return 503 until a provider is configured.
  bucket: ""
  region: ""
  # endpoint: "http://localhost:9000"   # for MinIO / Localstack
  # forcepathstyle: true
  keyprefix: "blobs/"
  # Public URL serving objects stored under keyprefix (CDN or bucket website)
  publicbaseurl: ""
  # accesskeyid: ""
  # secretaccesskey: ""

metrics:
  # Expose Prometheus metrics at /metrics
  enabled: true

api:
  port: 8080
  read_timeout: "30s"
  write_timeout: "30s"
  idle_timeout: "60s"
  # Storage quota for newly registered accounts
  default_user_storage_limit: "100Mi"
  jwt:
    # HMAC signing key for JWT tokens, at least 32 characters.
    # Prefer the DAYLYTICS_API_SECRET environment variable in production.
    secret: "%s"
    access_token_duration: "15m"
    refresh_token_duration: "168h"
`

// InitConfig creates a sample configuration file at the default location.
// Returns the path of the created file.
func InitConfig(force bool) (string, error) {
	return initConfigAt(GetDefaultConfigPath(), force)
}

// InitConfigToPath creates a sample configuration file at the given path.
func InitConfigToPath(path string, force bool) error {
	_, err := initConfigAt(path, force)
	return err
}

func initConfigAt(path string, force bool) (string, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	secret, err := generateJWTSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	content := fmt.Sprintf(sampleConfigTemplate, secret)

	// Contains the generated JWT secret, keep it owner-only.
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// generateJWTSecret returns a 64-character hex string (32 bytes of entropy).
func generateJWTSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
