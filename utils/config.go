// utils/config.go
package utils

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the explicit process configuration, built once in main from the
// environment and injected into everything that needs it. Nothing in the
// core reads ambient globals.
type Config struct {
	DatabaseURL    string
	ListenAddr     string
	AllowedOrigins string
	ServiceToken   string

	// Object storage for report snapshots (optional — reporting is
	// disabled when unset)
	CloudflareAccountID string
	R2AccessKeyID       string
	R2AccessKeySecret   string
	R2Bucket            string
	CDNBaseURL          string

	// Ledger audit worker cadence
	AuditInterval time.Duration
}

// LoadConfig reads the environment (call godotenv.Load first). DATABASE_URL
// and KPI_SERVICE_TOKEN are mandatory; everything else has a default or is
// optional.
func LoadConfig() (Config, error) {
	cfg := Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		ListenAddr:          os.Getenv("LISTEN_ADDR"),
		AllowedOrigins:      os.Getenv("ALLOWED_ORIGINS"),
		ServiceToken:        os.Getenv("KPI_SERVICE_TOKEN"),
		CloudflareAccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:       os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret:   os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:            os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:          os.Getenv("CDN_BASE_URL"),
		AuditInterval:       time.Minute,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.ServiceToken == "" {
		return Config{}, fmt.Errorf("KPI_SERVICE_TOKEN environment variable not set")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5300"
	}
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = "http://localhost:3000"
	}

	if raw := os.Getenv("AUDIT_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid AUDIT_INTERVAL %q", raw)
		}
		cfg.AuditInterval = d
	}

	// Trim spaces in the comma-separated origin list
	parts := strings.Split(cfg.AllowedOrigins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	cfg.AllowedOrigins = strings.Join(parts, ",")

	return cfg, nil
}
