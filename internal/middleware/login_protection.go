// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, rate limiting and request context handling.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MsgLoginRateLimited is returned when an IP exceeds the login rate limit.
const MsgLoginRateLimited = "Too many login attempts. Please wait and try again."

const (
	maxLockout           = 24 * time.Hour
	maxTrackedIPs        = 10000
	limiterSweepInterval = 10 * time.Minute
	defaultLoginRPS      = 0.5
	defaultLoginBurst    = 5
	defaultMaxFailures   = 5
	defaultLockoutDelay  = 15 * time.Minute
)

// LoginProtectionConfig holds configuration for login protection.
// Zero fields fall back to DefaultLoginProtectionConfig values.
type LoginProtectionConfig struct {
	IPRateLimit       float64       // login POSTs per second per IP
	IPBurst           int           // burst allowance per IP
	MaxFailedAttempts int           // failures inside AttemptWindow before a lockout
	LockoutDuration   time.Duration // first lockout; doubles on each repeat, capped at 24h
	AttemptWindow     time.Duration // window for counting failures
}

// DefaultLoginProtectionConfig returns the production settings.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       defaultLoginRPS,
		IPBurst:           defaultLoginBurst,
		MaxFailedAttempts: defaultMaxFailures,
		LockoutDuration:   defaultLockoutDelay,
		AttemptWindow:     defaultLockoutDelay,
	}
}

func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	d := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = d.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = d.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = d.MaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = d.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = d.AttemptWindow
	}
	return c
}

// accountState tracks failures for one account.
type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtection combines per-IP rate limiting of login submissions with
// per-account lockout after repeated failures.
type LoginProtection struct {
	cfg      LoginProtectionConfig
	ips      *limiterCache[string]
	now      func() time.Time
	mu       sync.Mutex
	accounts map[string]*accountState

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLoginProtection creates a login protection instance and starts its
// background sweep. Call Stop to end it.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.withDefaults()
	lp := &LoginProtection{
		cfg:      cfg,
		ips:      newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		now:      time.Now,
		accounts: make(map[string]*accountState),
		stop:     make(chan struct{}),
	}
	go lp.sweepLoop()
	return lp
}

// accountKey normalizes an email so lockouts cannot be dodged by case or
// surrounding whitespace.
func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckIPRateLimit reports whether a login from ip is allowed now.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ips.get(ip).Allow()
}

// IsAccountLocked reports whether email is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[accountKey(email)]
	if !ok {
		return false, 0
	}
	if left := st.lockedUntil.Sub(lp.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// RecordFailedAttempt counts a failure for email. When the failure
// reaches MaxFailedAttempts the account is locked and the lock duration
// is returned.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	key := accountKey(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[key]
	if !ok {
		st = &accountState{windowStart: now}
		lp.accounts[key] = st
	}
	if now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
		st.failures = 0
		st.windowStart = now
	}
	st.failures++
	slog.Debug("login failure recorded", "email", key, "count", st.failures)

	if st.failures < lp.cfg.MaxFailedAttempts {
		return false, 0
	}

	d := lockoutFor(lp.cfg.LockoutDuration, st.lockouts)
	st.lockedUntil = now.Add(d)
	st.lockouts++
	st.failures = 0

	slog.Warn("account locked due to failed attempts",
		"email", key,
		"category", "auth",
		"lockouts", st.lockouts,
		"duration", d,
	)
	return true, d
}

// lockoutFor doubles base once per previous lockout, capped at maxLockout.
func lockoutFor(base time.Duration, previous int) time.Duration {
	d := base
	for range previous {
		d *= 2
		if d >= maxLockout {
			return maxLockout
		}
	}
	return d
}

// RecordSuccessfulLogin forgets all failures for email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, accountKey(email))
	lp.mu.Unlock()
}

// GetRemainingAttempts returns how many failures email may still make
// before it is locked.
func (lp *LoginProtection) GetRemainingAttempts(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[accountKey(email)]
	if !ok || lp.now().Sub(st.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-st.failures, 0)
}

// Stop ends the background sweep. It is safe to call more than once.
func (lp *LoginProtection) Stop() {
	lp.stopOnce.Do(func() { close(lp.stop) })
}

func (lp *LoginProtection) sweepLoop() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lp.sweep()
		case <-lp.stop:
			return
		}
	}
}

// sweep drops expired account state and resets the IP limiters once they
// grow past maxTrackedIPs.
func (lp *LoginProtection) sweep() {
	if lp.ips.clearIfExceeds(maxTrackedIPs) {
		slog.Info("cleared login IP limiters", "category", "auth")
	}

	now := lp.now()
	lp.mu.Lock()
	for key, st := range lp.accounts {
		if now.After(st.lockedUntil) && now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.accounts, key)
		}
	}
	lp.mu.Unlock()
}

// Middleware rate limits login submissions per client IP. Mount it on the
// POST /login route only.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetClientIP(r)
			if !lp.CheckIPRateLimit(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip, "category", "auth")
				http.Error(w, MsgLoginRateLimited, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
