// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from BLOCKCMS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Database drivers accepted by DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver      string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"DB_PATH" envDefault:"./data/blockcms.db"`
	DatabaseURL   string `env:"DATABASE_URL"` // postgres DSN, required when DB_DRIVER=postgres
	SessionSecret string `env:"SESSION_SECRET,required"`
	ServerHost    string `env:"SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	Env           string `env:"ENV" envDefault:"development"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`

	// Site identity used in page titles, sitemap and API links
	SiteName string `env:"SITE_NAME" envDefault:"Block CMS"`
	SiteURL  string `env:"SITE_URL" envDefault:"http://localhost:8080"`

	// Cache configuration
	RedisURL     string `env:"REDIS_URL"`                                   // Optional Redis URL for shared caching
	CachePrefix  string `env:"CACHE_PREFIX" envDefault:"blockcms:"`         // Redis key prefix
	CacheTTL     int    `env:"CACHE_TTL" envDefault:"3600"`                 // Default cache TTL in seconds
	CacheMaxSize int    `env:"CACHE_MAX_SIZE" envDefault:"10000"`           // Max memory cache entries
	WarmSchedule string `env:"CACHE_WARM_SCHEDULE" envDefault:"@every 15m"` // cron spec, empty disables

	// JSON API
	CORSOriginList string `env:"CORS_ORIGINS" envDefault:"*"`

	// Page export to S3
	ExportBucket   string `env:"EXPORT_BUCKET"`
	ExportPrefix   string `env:"EXPORT_PREFIX" envDefault:"exports/"`
	ExportSchedule string `env:"EXPORT_SCHEDULE" envDefault:"@daily"`
	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"` // custom endpoint for S3-compatible storage

	// Seeding configuration
	DoSeed        bool   `env:"DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "BLOCKCMS_"

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

// UsePostgres returns true if the postgres driver is selected.
func (c Config) UsePostgres() bool {
	return c.DBDriver == DriverPostgres
}

// ExportEnabled returns true if page export to S3 is configured.
func (c Config) ExportEnabled() bool {
	return c.ExportBucket != ""
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// CORSOrigins returns the allowed API origins.
func (c Config) CORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOriginList, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("BLOCKCMS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New("BLOCKCMS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn("BLOCKCMS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("BLOCKCMS_DATABASE_URL is required when BLOCKCMS_DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("BLOCKCMS_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("BLOCKCMS_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("BLOCKCMS_CACHE_TTL must be positive, got %d", c.CacheTTL)
	}
	return nil
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
