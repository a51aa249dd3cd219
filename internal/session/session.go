// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager used by the admin panel.
package session

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/store"
)

// Session keys.
const (
	KeyUserID    = "user_id"
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
)

// Lifetime is the absolute session lifetime.
const Lifetime = 24 * time.Hour

// New creates a session manager. SQLite databases keep sessions in the
// sessions table; other drivers use an in-process store.
func New(db *sqlx.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	if store.IsSQLite(db.DriverName()) {
		sm.Store = sqlite3store.New(db.DB)
	} else {
		sm.Store = memstore.New()
	}

	sm.Lifetime = Lifetime
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}
