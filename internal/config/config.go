// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OTMS_DB_PATH" envDefault:"./data/otms.db"`
	SessionSecret string `env:"OTMS_SESSION_SECRET,required"`
	ServerHost    string `env:"OTMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OTMS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OTMS_ENV" envDefault:"development"`
	LogLevel      string `env:"OTMS_LOG_LEVEL" envDefault:"info"`
	BaseURL       string `env:"OTMS_BASE_URL" envDefault:"http://localhost:8080"` // Externally visible site root, used in feeds

	// Repository checkout configuration
	ReposDir   string `env:"OTMS_REPOS_DIR" envDefault:"./repos"`     // Root directory for component checkouts
	UploadsDir string `env:"OTMS_UPLOADS_DIR" envDefault:"./uploads"` // Spool directory for submitted files

	// Cache configuration
	RedisURL     string `env:"OTMS_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"OTMS_CACHE_PREFIX" envDefault:"otms:"`   // Redis key prefix
	CacheTTL     int    `env:"OTMS_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"OTMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Stats refresh configuration
	StatsRefreshSpec string `env:"OTMS_STATS_REFRESH_SPEC" envDefault:"@hourly"` // Cron spec for periodic stats refresh

	// Seeding configuration
	DoSeed        bool   `env:"OTMS_DO_SEED" envDefault:"false"` // Enable database seeding
	AdminEmail    string `env:"OTMS_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"OTMS_ADMIN_PASSWORD"` // Initial admin password, required when seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("OTMS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("OTMS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("OTMS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.DoSeed && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("OTMS_ADMIN_PASSWORD is required when OTMS_DO_SEED is enabled")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
