/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters from operating system environment variables:
listen ports, CORS allowed origins, the admin role table, the inactivity sweep
timings, the chunk-transfer eviction window, and the optional payload archive.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	TCPPort     int

	// Security Settings
	AllowedOrigins []string

	// AdminUsers lists the usernames granted the admin role at LOGIN.
	// Authorization policy lives here rather than being derived from identity.
	AdminUsers []string

	// Presence Settings
	SweepInterval       time.Duration
	InactivityThreshold time.Duration

	// Transfer Settings
	TransferTTL time.Duration

	// S3 Payload Archive Settings (optional; archive disabled when unset)
	ArchiveEnabled    bool
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary
// type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (1024-65535) to avoid privileged ports", cfg.Port)
	}

	tcpPort, err := intEnv("TCP_PORT", 9090)
	if err != nil {
		return nil, err
	}
	cfg.TCPPort = tcpPort

	if cfg.TCPPort == cfg.Port {
		return nil, fmt.Errorf("TCP_PORT %d collides with PORT", cfg.TCPPort)
	}

	// --- Security Settings ---
	cfg.AllowedOrigins = listEnv("ALLOWED_ORIGINS")

	cfg.AdminUsers = listEnv("ADMIN_USERS")
	if len(cfg.AdminUsers) == 0 {
		cfg.AdminUsers = []string{"admin"}
	}

	// --- Presence Settings ---
	sweepSeconds, err := intEnv("SWEEP_INTERVAL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	if sweepSeconds < 1 {
		return nil, fmt.Errorf("SWEEP_INTERVAL_SECONDS must be at least 1, got %d", sweepSeconds)
	}
	cfg.SweepInterval = time.Duration(sweepSeconds) * time.Second

	thresholdSeconds, err := intEnv("INACTIVITY_THRESHOLD_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	if thresholdSeconds < 1 {
		return nil, fmt.Errorf("INACTIVITY_THRESHOLD_SECONDS must be at least 1, got %d", thresholdSeconds)
	}
	cfg.InactivityThreshold = time.Duration(thresholdSeconds) * time.Second

	// --- Transfer Settings ---
	ttlSeconds, err := intEnv("TRANSFER_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	if ttlSeconds < 1 {
		return nil, fmt.Errorf("TRANSFER_TTL_SECONDS must be at least 1, got %d", ttlSeconds)
	}
	cfg.TransferTTL = time.Duration(ttlSeconds) * time.Second

	// --- S3 Payload Archive Settings ---
	// The archive is optional: it is enabled only when a bucket is configured,
	// at which point the remaining S3 settings become mandatory.
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	if cfg.S3BucketName != "" {
		cfg.ArchiveEnabled = true

		cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
		if cfg.S3Endpoint == "" {
			return nil, fmt.Errorf("S3_ENDPOINT environment variable is required when S3_BUCKET_NAME is set")
		}

		cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
		if cfg.S3AccessKeyID == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY_ID environment variable is required when S3_BUCKET_NAME is set")
		}

		cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
		if cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("S3_SECRET_ACCESS_KEY environment variable is required when S3_BUCKET_NAME is set")
		}
	}

	return cfg, nil
}

// intEnv reads an integer environment variable, falling back to def when unset.
func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}

// listEnv reads a comma-separated environment variable into a trimmed slice.
func listEnv(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}

	var values []string
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
