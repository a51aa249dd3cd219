// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/session"
	"github.com/olegiv/blockcms/internal/testutil"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "0 seconds"},
		{30 * time.Second, "30 seconds"},
		{59 * time.Second, "59 seconds"},
		{1 * time.Minute, "1 minute"},
		{90 * time.Second, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{59 * time.Minute, "59 minutes"},
		{1 * time.Hour, "1 hour"},
		{90 * time.Minute, "1 hour"},
		{2 * time.Hour, "2 hours"},
		{24 * time.Hour, "24 hours"},
	}

	for _, tt := range tests {
		t.Run(tt.duration.String(), func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.want {
				t.Errorf("formatDuration(%v) = %q; want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func newTestAuthHandler(t *testing.T, env *testEnv) *AuthHandler {
	t.Helper()
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{MaxFailedAttempts: 3})
	t.Cleanup(lp.Stop)
	return NewAuthHandler(env.users, env.events, env.renderer, env.sm, lp)
}

func loginValues(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestLoginForm(t *testing.T) {
	env := newTestEnv(t)
	h := newTestAuthHandler(t, env)

	w, _ := env.serve(h.LoginForm, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	assertStatus(t, w.Code, http.StatusOK)

	doc := parseHTML(t, w)
	if doc.Find(`form[action="/login"] input[name="email"]`).Length() != 1 {
		t.Error("login form has no email field")
	}
}

func TestLoginFormRedirectsAuthenticated(t *testing.T) {
	env := newTestEnv(t)
	h := newTestAuthHandler(t, env)
	user := testutil.CreateUser(t, env.db, "admin@example.com", model.RoleAdmin)

	r := requestWithSession(env.sm, httptest.NewRequest(http.MethodGet, "/login", nil))
	env.sm.Put(r.Context(), session.KeyUserID, user.ID)

	w := httptest.NewRecorder()
	h.LoginForm(w, r)
	assertRedirect(t, w, "/admin")
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	h := newTestAuthHandler(t, env)
	user := testutil.CreateUser(t, env.db, "editor@example.com", model.RoleEditor)

	w, r := env.serve(h.Login, postForm("/login", loginValues(" Editor@Example.com ", testutil.TestPassword)), nil)

	assertRedirect(t, w, "/admin")
	if got := env.sm.GetInt64(r.Context(), session.KeyUserID); got != user.ID {
		t.Errorf("session user_id = %d; want %d", got, user.ID)
	}
	if flash := env.flash(r); !strings.HasPrefix(flash, "Welcome back") {
		t.Errorf("flash = %q", flash)
	}

	events, err := env.events.Recent(r.Context(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) == 0 || events[0].Message != "User logged in" {
		t.Errorf("events = %+v; want a login event", events)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	h := newTestAuthHandler(t, env)
	testutil.CreateUser(t, env.db, "editor@example.com", model.RoleEditor)

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"wrong password", "editor@example.com", "nope", MsgInvalidCredentials},
		{"unknown user", "ghost@example.com", "nope", MsgInvalidCredentials},
		{"missing password", "editor@example.com", "", MsgEmailPasswordRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, r := env.serve(h.Login, postForm("/login", loginValues(tt.email, tt.password)), nil)
			assertStatus(t, w.Code, http.StatusUnauthorized)

			doc := parseHTML(t, w)
			if got := doc.Find(".flash").Text(); !strings.Contains(got, tt.want) {
				t.Errorf("flash = %q; want it to contain %q", got, tt.want)
			}
			if v, _ := doc.Find(`input[name="email"]`).Attr("value"); v != tt.email {
				t.Errorf("email value = %q; want %q", v, tt.email)
			}
			if id := env.sm.GetInt64(r.Context(), session.KeyUserID); id != 0 {
				t.Errorf("session user_id = %d; want 0", id)
			}
		})
	}
}

func TestLoginLockout(t *testing.T) {
	env := newTestEnv(t)
	h := newTestAuthHandler(t, env)
	testutil.CreateUser(t, env.db, "editor@example.com", model.RoleEditor)

	for i := 0; i < 3; i++ {
		env.serve(h.Login, postForm("/login", loginValues("editor@example.com", "wrong")), nil)
	}

	// The correct password is refused while the account is locked.
	w, r := env.serve(h.Login, postForm("/login", loginValues("editor@example.com", testutil.TestPassword)), nil)
	assertStatus(t, w.Code, http.StatusUnauthorized)
	if !strings.Contains(w.Body.String(), "Account temporarily locked") {
		t.Error("expected lockout message")
	}
	if id := env.sm.GetInt64(r.Context(), session.KeyUserID); id != 0 {
		t.Errorf("session user_id = %d; want 0", id)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	h := newTestAuthHandler(t, env)
	user := testutil.CreateUser(t, env.db, "editor@example.com", model.RoleEditor)

	r := requestWithSession(env.sm, postForm("/logout", nil))
	env.sm.Put(r.Context(), session.KeyUserID, user.ID)

	w := httptest.NewRecorder()
	h.Logout(w, r)

	assertRedirect(t, w, "/login")
	if id := env.sm.GetInt64(r.Context(), session.KeyUserID); id != 0 {
		t.Errorf("session user_id = %d after logout; want 0", id)
	}
}
