package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GUESTGATE_JWT_SECRET", "test-secret")

	cfg, errLoad := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Listen != ":8080" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
	if cfg.DatabaseDSN != "guests.db" {
		t.Fatalf("dsn = %q", cfg.DatabaseDSN)
	}
	if cfg.QRDir != "qr_codes" {
		t.Fatalf("qr dir = %q", cfg.QRDir)
	}
	if cfg.JWT.Secret != "test-secret" {
		t.Fatalf("jwt secret = %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiry() != 12*time.Hour {
		t.Fatalf("jwt expiry = %s", cfg.JWT.Expiry())
	}
	if cfg.Log.Level != "info" || cfg.Log.MaxSizeMB != 20 {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `listen: ":9090"
database-dsn: "postgres://app:pw@localhost/guests"
qr-dir: "/var/lib/guestgate/qr"
jwt:
  secret: "file-secret"
  expiry-hours: 48
log:
  level: debug
  file: /var/log/guestgate.log
`
	if errWrite := os.WriteFile(path, []byte(body), 0644); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Listen != ":9090" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
	if cfg.DatabaseDSN != "postgres://app:pw@localhost/guests" {
		t.Fatalf("dsn = %q", cfg.DatabaseDSN)
	}
	if cfg.JWT.Secret != "file-secret" || cfg.JWT.Expiry() != 48*time.Hour {
		t.Fatalf("jwt = %+v", cfg.JWT)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/var/log/guestgate.log" {
		t.Fatalf("log = %+v", cfg.Log)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte("listen: \":9090\"\njwt:\n  secret: file-secret\n"), 0644); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	t.Setenv("GUESTGATE_LISTEN", ":7070")
	t.Setenv("DATABASE_URL", "postgres://env@localhost/guests")
	t.Setenv("GUESTGATE_JWT_SECRET", "env-secret")
	t.Setenv("GUESTGATE_JWT_EXPIRY_HOURS", "2")

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Listen != ":7070" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
	if cfg.DatabaseDSN != "postgres://env@localhost/guests" {
		t.Fatalf("dsn = %q", cfg.DatabaseDSN)
	}
	if cfg.JWT.Secret != "env-secret" || cfg.JWT.Expiry() != 2*time.Hour {
		t.Fatalf("jwt = %+v", cfg.JWT)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("GUESTGATE_JWT_SECRET", "")

	if _, errLoad := Load(filepath.Join(t.TempDir(), "missing.yaml")); errLoad == nil {
		t.Fatal("load without a jwt secret should fail")
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Parallel()

	if got := ResolveConfigPath(""); got != DefaultConfigPath {
		t.Fatalf("ResolveConfigPath(\"\") = %q", got)
	}
	if got := ResolveConfigPath("  custom.yaml  "); got != "custom.yaml" {
		t.Fatalf("ResolveConfigPath(custom) = %q", got)
	}
}
