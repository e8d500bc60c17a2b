package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no config path is supplied.
const DefaultConfigPath = "config.yaml"

// JWTConfig holds signing settings for admin tokens.
type JWTConfig struct {
	Secret      string `yaml:"secret"`       // HMAC signing secret.
	ExpiryHours int    `yaml:"expiry-hours"` // Token lifetime in hours.
}

// Expiry returns the token lifetime as a duration.
func (c JWTConfig) Expiry() time.Duration {
	hours := c.ExpiryHours
	if hours <= 0 {
		hours = 12
	}
	return time.Duration(hours) * time.Hour
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`       // Logrus level name.
	File       string `yaml:"file"`        // Log file path; empty logs to stderr only.
	MaxSizeMB  int    `yaml:"max-size"`    // Rotation threshold in megabytes.
	MaxBackups int    `yaml:"max-backups"` // Rotated files to retain.
	MaxAgeDays int    `yaml:"max-age"`     // Days to retain rotated files.
}

// Config is the full application configuration.
type Config struct {
	Listen      string    `yaml:"listen"`       // HTTP listen address, e.g. ":8080".
	DatabaseDSN string    `yaml:"database-dsn"` // SQLite path or Postgres URL.
	QRDir       string    `yaml:"qr-dir"`       // Directory for rendered QR images.
	JWT         JWTConfig `yaml:"jwt"`          // Admin token settings.
	Log         LogConfig `yaml:"log"`          // Logging settings.
}

// ResolveConfigPath returns the effective config path for an optional override.
func ResolveConfigPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return DefaultConfigPath
	}
	return trimmed
}

// Load reads configuration from a YAML file and applies environment overrides.
//
// A missing config file is not an error: everything has a usable default and
// deployments driven purely by environment variables (DATABASE_URL on a
// hosting platform) are supported.
func Load(path string) (Config, error) {
	// Best effort; a missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg := Config{
		Listen:      ":8080",
		DatabaseDSN: "guests.db",
		QRDir:       "qr_codes",
		JWT: JWTConfig{
			ExpiryHours: 12,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}

	resolved := ResolveConfigPath(path)
	data, errRead := os.ReadFile(resolved)
	if errRead == nil {
		if errYAML := yaml.Unmarshal(data, &cfg); errYAML != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", resolved, errYAML)
		}
	} else if !os.IsNotExist(errRead) {
		return Config{}, fmt.Errorf("config: read %s: %w", resolved, errRead)
	}

	applyEnvOverrides(&cfg)

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return Config{}, fmt.Errorf("config: jwt secret is required (set jwt.secret or GUESTGATE_JWT_SECRET)")
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variables over file values.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("GUESTGATE_LISTEN")); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("GUESTGATE_QR_DIR")); v != "" {
		cfg.QRDir = v
	}
	if v := strings.TrimSpace(os.Getenv("GUESTGATE_JWT_SECRET")); v != "" {
		cfg.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("GUESTGATE_JWT_EXPIRY_HOURS")); v != "" {
		if hours, errParse := strconv.Atoi(v); errParse == nil && hours > 0 {
			cfg.JWT.ExpiryHours = hours
		}
	}
	if v := strings.TrimSpace(os.Getenv("GUESTGATE_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("GUESTGATE_LOG_FILE")); v != "" {
		cfg.Log.File = v
	}
}
