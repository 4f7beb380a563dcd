package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Database: a sqlite file path, or a postgres:// DSN
	DatabaseURL string

	// Uploads
	MaxUploadSizeMB  int
	UploadsPerMinute int

	// Optional basic auth for the admin pages. Both must be set to enable it;
	// AdminPasswordHash is a bcrypt hash.
	AdminUser         string
	AdminPasswordHash string

	Cors struct {
		TrustedOrigins []string
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Define flags with env var fallbacks
	flag.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "Server port")
	flag.StringVar(&cfg.Env, "env", getEnv("ENV", "development"), "Environment (development, production)")
	flag.StringVar(&cfg.DatabaseURL, "database-url", getEnv("DATABASE_URL", "snapshots.db"), "sqlite path or postgres DSN")

	cfg.MaxUploadSizeMB = getEnvInt("MAX_UPLOAD_SIZE_MB", 50)
	cfg.UploadsPerMinute = getEnvInt("UPLOADS_PER_MINUTE", 10)
	cfg.AdminUser = getEnv("ADMIN_USER", "")
	cfg.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", "")

	flag.Parse()

	// Parse CORS trusted origins from comma-separated env var
	if origins := getEnv("CORS_TRUSTED_ORIGINS", ""); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.Cors.TrustedOrigins = append(cfg.Cors.TrustedOrigins, trimmed)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}

	if c.UploadsPerMinute <= 0 {
		return fmt.Errorf("UPLOADS_PER_MINUTE must be positive")
	}

	if c.AdminPasswordHash != "" {
		if c.AdminUser == "" {
			return fmt.Errorf("ADMIN_USER is required when ADMIN_PASSWORD_HASH is set")
		}
		if !strings.HasPrefix(c.AdminPasswordHash, "$2") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash")
		}
	}

	return nil
}

// AuthEnabled reports whether the admin pages require basic auth.
func (c *Config) AuthEnabled() bool {
	return c.AdminPasswordHash != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
