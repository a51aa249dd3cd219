// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/olegiv/blockcms/internal/testutil"
)

func TestNew_DevMode(t *testing.T) {
	sm := New(testutil.TestDB(t), true)

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name == "__Host-session" {
		t.Error("expected default cookie name in dev mode")
	}
	if _, ok := sm.Store.(*sqlite3store.SQLite3Store); !ok {
		t.Errorf("Store = %T, want sqlite3store", sm.Store)
	}
}

func TestNew_ProdMode(t *testing.T) {
	sm := New(testutil.TestDB(t), false)

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production")
	}
	if sm.Cookie.Name != "__Host-session" {
		t.Errorf("Cookie.Name = %q, want __Host-session", sm.Cookie.Name)
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
	if sm.Lifetime != Lifetime {
		t.Errorf("Lifetime = %v, want %v", sm.Lifetime, Lifetime)
	}
}

func TestNew_NonSQLiteUsesMemstore(t *testing.T) {
	// sqlx.Open does not connect, so no server is needed.
	db, err := sqlx.Open("pgx", "postgres://localhost:1/none")
	if err != nil {
		t.Fatalf("sqlx.Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	sm := New(db, true)
	if _, ok := sm.Store.(*memstore.MemStore); !ok {
		t.Errorf("Store = %T, want memstore", sm.Store)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	sm := New(testutil.TestDB(t), true)

	set := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), KeyUserID, int64(42))
	}))
	rec := httptest.NewRecorder()
	set.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	var got int64
	read := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = sm.GetInt64(r.Context(), KeyUserID)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	read.ServeHTTP(httptest.NewRecorder(), req)

	if got != 42 {
		t.Errorf("user id = %d, want 42", got)
	}
}
