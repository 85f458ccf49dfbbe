package configs

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ENVIRONMENT", "PORT", "TCP_PORT", "ALLOWED_ORIGINS", "ADMIN_USERS",
		"SWEEP_INTERVAL_SECONDS", "INACTIVITY_THRESHOLD_SECONDS", "TRANSFER_TTL_SECONDS",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Environment != "development" {
		t.Fatalf("unexpected environment %q", cfg.Environment)
	}
	if cfg.Port != 8080 || cfg.TCPPort != 9090 {
		t.Fatalf("unexpected ports %d/%d", cfg.Port, cfg.TCPPort)
	}
	if len(cfg.AdminUsers) != 1 || cfg.AdminUsers[0] != "admin" {
		t.Fatalf("unexpected admin table %v", cfg.AdminUsers)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("unexpected sweep interval %v", cfg.SweepInterval)
	}
	if cfg.InactivityThreshold != 120*time.Second {
		t.Fatalf("unexpected threshold %v", cfg.InactivityThreshold)
	}
	if cfg.TransferTTL != 300*time.Second {
		t.Fatalf("unexpected transfer TTL %v", cfg.TransferTTL)
	}
	if cfg.ArchiveEnabled {
		t.Fatal("archive must be disabled without S3 settings")
	}
}

func TestLoadConfigAdminTable(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_USERS", "root, operator ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.AdminUsers) != 2 || cfg.AdminUsers[0] != "root" || cfg.AdminUsers[1] != "operator" {
		t.Fatalf("unexpected admin table %v", cfg.AdminUsers)
	}
}

func TestLoadConfigRejectsBadPorts(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "80")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for privileged port")
	}

	t.Setenv("PORT", "8080")
	t.Setenv("TCP_PORT", "8080")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for colliding ports")
	}

	t.Setenv("TCP_PORT", "nope")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestLoadConfigArchiveRequiresAllS3Settings(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_BUCKET_NAME", "payloads")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing S3 settings")
	}

	t.Setenv("S3_ENDPOINT", "https://s3.local")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.ArchiveEnabled {
		t.Fatal("expected archive to be enabled")
	}
}
