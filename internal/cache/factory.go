// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"net/url"
	"time"
)

// Config selects and configures the cache backend.
type Config struct {
	// RedisURL enables the Redis backend when set.
	RedisURL        string
	Prefix          string
	DefaultTTL      time.Duration
	MaxSize         int
	CleanupInterval time.Duration
}

// New returns a Redis cache when RedisURL is set and reachable, otherwise a
// memory cache. An unreachable Redis is logged and falls back to memory.
func New(cfg Config) Cacher {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}

	if cfg.RedisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		opts.DefaultTTL = cfg.DefaultTTL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}

		rc, err := NewRedisCache(opts)
		if err == nil {
			slog.Info("using redis cache", "url", SanitizeRedisURL(cfg.RedisURL), "prefix", opts.Prefix)
			return rc
		}
		slog.Warn("redis cache unavailable, falling back to memory cache",
			"category", "cache", "url", SanitizeRedisURL(cfg.RedisURL), "error", err)
	}

	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// SanitizeRedisURL removes the password from a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
