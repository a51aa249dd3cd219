// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/olegiv/blockcms/internal/cache"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/session"
	"github.com/olegiv/blockcms/internal/testutil"
)

func TestHealthPublic(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, env.sm, nil)

	w, _ := env.serve(h.Health, httptest.NewRequest(http.MethodGet, "/health", nil), nil)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.Equal(t, StatusHealthy, gjson.Get(body, "status").String())
	assert.False(t, gjson.Get(body, "checks").Exists(), "details are hidden from anonymous callers")
}

func TestHealthAuthenticated(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, env.sm, nil)
	user := testutil.CreateUser(t, env.db, "admin@example.com", model.RoleAdmin)

	r := requestWithSession(env.sm, httptest.NewRequest(http.MethodGet, "/health?verbose=true", nil))
	env.sm.Put(r.Context(), session.KeyUserID, user.ID)
	w := httptest.NewRecorder()
	h.Health(w, r)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.Equal(t, StatusHealthy, gjson.Get(body, "checks.database.status").String())
	assert.True(t, gjson.Get(body, "version").Exists())
	assert.NotEmpty(t, gjson.Get(body, "system.go_version").String())
}

func TestHealthWithoutSessionContext(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, env.sm, nil)

	// No session loaded into the context: scs panics on access, which must
	// be treated as anonymous.
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assertStatus(t, w.Code, http.StatusOK)
	assert.False(t, gjson.Get(w.Body.String(), "checks").Exists())
}

func TestHealthCacheDegraded(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)

	rc, err := cache.NewRedisCache(cache.RedisCacheOptions{URL: "redis://" + mr.Addr(), DefaultTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	user := testutil.CreateUser(t, env.db, "admin@example.com", model.RoleAdmin)
	h := NewHealthHandler(env.db, env.sm, rc)

	check := func() string {
		r := requestWithSession(env.sm, httptest.NewRequest(http.MethodGet, "/health", nil))
		env.sm.Put(r.Context(), session.KeyUserID, user.ID)
		w := httptest.NewRecorder()
		h.Health(w, r)
		assertStatus(t, w.Code, http.StatusOK)
		return w.Body.String()
	}

	body := check()
	assert.Equal(t, StatusHealthy, gjson.Get(body, "status").String())
	assert.Equal(t, StatusHealthy, gjson.Get(body, "checks.cache.status").String())

	mr.SetError("LOADING Redis is loading the dataset in memory")
	body = check()
	assert.Equal(t, StatusDegraded, gjson.Get(body, "status").String())
	assert.Equal(t, StatusDegraded, gjson.Get(body, "checks.cache.status").String())
}

func TestHealthDatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, env.sm, nil)
	require.NoError(t, env.db.Close())

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	assert.Equal(t, "not_ready", gjson.Get(w.Body.String(), "status").String())
	assert.False(t, gjson.Get(w.Body.String(), "message").Exists())

	w, _ = env.serve(h.Health, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	assert.Equal(t, StatusUnhealthy, gjson.Get(w.Body.String(), "status").String())
}

func TestLivenessAndReadiness(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, nil, nil)

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assertStatus(t, w.Code, http.StatusOK)
	assert.Equal(t, "alive", gjson.Get(w.Body.String(), "status").String())

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assertStatus(t, w.Code, http.StatusOK)
	assert.Equal(t, "ready", gjson.Get(w.Body.String(), "status").String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
