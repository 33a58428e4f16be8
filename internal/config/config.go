// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the site configuration from SCHOOL_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"SCHOOL_DB_PATH" envDefault:"./data/school.db"`
	SessionSecret string `env:"SCHOOL_SESSION_SECRET,required"`
	ServerHost    string `env:"SCHOOL_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"SCHOOL_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"SCHOOL_ENV" envDefault:"development"`
	LogLevel      string `env:"SCHOOL_LOG_LEVEL" envDefault:"info"`
	SiteName      string `env:"SCHOOL_SITE_NAME" envDefault:"Saraswati School"`

	// Backend connection
	BackendURL       string `env:"SCHOOL_BACKEND_URL"`        // Project URL, e.g. https://xyz.supabase.co
	BackendAnonKey   string `env:"SCHOOL_BACKEND_ANON_KEY"`   // Public API key
	BackendJWTSecret string `env:"SCHOOL_BACKEND_JWT_SECRET"` // Optional, verifies restored access tokens

	// Demo mode serves an in-process backend with seeded content.
	Demo bool `env:"SCHOOL_DEMO" envDefault:"false"`

	// Optional Redis URL; sessions are kept in SQLite when empty.
	RedisURL string `env:"SCHOOL_REDIS_URL"`

	// Time allowed for identity resolution before the loading page is shown.
	ResolveTimeout time.Duration `env:"SCHOOL_RESOLVE_TIMEOUT" envDefault:"2s"`
	// Time allowed for section loaders before unfinished sections render as loading.
	SectionTimeout time.Duration `env:"SCHOOL_SECTION_TIMEOUT" envDefault:"3s"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisSessions returns true if sessions should be kept in Redis.
func (c Config) UseRedisSessions() bool {
	return c.RedisURL != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// It doubles as the 32-byte CSRF authentication key.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("SCHOOL_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	// Validate session secret length
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("SCHOOL_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New("SCHOOL_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !c.Demo {
		if c.BackendURL == "" || c.BackendAnonKey == "" {
			return errors.New("SCHOOL_BACKEND_URL and SCHOOL_BACKEND_ANON_KEY are required unless SCHOOL_DEMO=true")
		}
		u, err := url.Parse(c.BackendURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("SCHOOL_BACKEND_URL must be an http(s) URL, got %q", c.BackendURL)
		}
		if u.Scheme == "http" && !c.IsDevelopment() {
			slog.Warn("SCHOOL_BACKEND_URL uses plain http outside development")
		}
	}

	if c.ResolveTimeout <= 0 || c.SectionTimeout <= 0 {
		return errors.New("SCHOOL_RESOLVE_TIMEOUT and SCHOOL_SECTION_TIMEOUT must be positive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("SCHOOL_LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
