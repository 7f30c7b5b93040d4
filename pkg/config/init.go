package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// InitConfig creates a new configuration file at the default location.
//
// The generated file contains a commented template with sensible defaults
// and a freshly generated JWT signing secret. Returns the path of the
// created file.
//
// If the file already exists and force is false, an error is returned.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath creates a new configuration file at the given path.
//
// If the file already exists and force is false, an error is returned.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	secret, err := generateJWTSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	content := buildConfigTemplate(secret)

	// Restricted permissions: the file contains the JWT signing secret.
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateJWTSecret returns a cryptographically random secret suitable for
// HMAC JWT signing. 48 random bytes encode to a 64-character string, well
// above the 32-character minimum the API server enforces.
func generateJWTSecret() (string, error) {
	raw := make([]byte, 48)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// buildConfigTemplate renders the commented YAML configuration template.
//
// The template is hand-written rather than marshaled from a Config struct so
// it can carry comments explaining each section.
func buildConfigTemplate(jwtSecret string) string {
	return fmt.Sprintf(`# DittoDrive Configuration File
#
# This file was generated by 'dittodrive config init'.
# Every value can be overridden with a DITTODRIVE_* environment variable,
# e.g. DITTODRIVE_LOGGING_LEVEL=DEBUG or DITTODRIVE_SERVER_PORT=9000.

# Logging configuration
logging:
  # Log level: DEBUG, INFO, WARN, ERROR
  level: INFO
  # Log format: text, json
  format: text
  # Log output: stdout, stderr, or a file path
  output: stdout

# Blob storage for uploaded file content.
# Metadata (names, folders, checksums) lives in the database; bytes live here.
storage:
  # Backend: fs (local filesystem) or s3 (S3-compatible object store)
  backend: fs
  # fs:
  #   # Defaults to $XDG_DATA_HOME/dittodrive/blobs
  #   root: /var/lib/dittodrive/blobs
  # s3:
  #   region: us-east-1
  #   bucket: dittodrive
  #   # endpoint: http://localhost:9000   # for MinIO / LocalStack
  #   # force_path_style: true            # required for MinIO
  #   # key_prefix: prod/
  # Maximum size of a single uploaded file
  max_upload_size: 1Gi

# Metadata database (users, folders, files)
database:
  # Database type: sqlite or postgres
  type: sqlite
  # sqlite:
  #   # Defaults to $XDG_CONFIG_HOME/dittodrive/drive.db
  #   path: /var/lib/dittodrive/drive.db
  # postgres:
  #   host: localhost
  #   port: 5432
  #   user: dittodrive
  #   password: secret
  #   database: dittodrive
  #   ssl_mode: disable

# REST API server
server:
  # host: 0.0.0.0
  port: 8080
  # cors_origins:
  #   - http://localhost:3000
  jwt:
    # HMAC signing secret for access tokens (minimum 32 characters).
    # Can also be supplied via DITTODRIVE_API_SECRET, which takes precedence.
    secret: %q
    # token_duration: 24h

# Prometheus metrics server (disabled by default)
# metrics:
#   enabled: true
#   port: 9090

# OpenTelemetry tracing (disabled by default)
# telemetry:
#   enabled: true
#   endpoint: localhost:4317
#   insecure: true

# Bootstrap admin account. Created on first start; the initial password is
# printed once (or taken from DITTODRIVE_ADMIN_PASSWORD when set).
admin:
  username: admin
  # email: admin@example.com
`, jwtSecret)
}
