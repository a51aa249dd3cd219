// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/service"
	"github.com/olegiv/blockcms/internal/session"
	"github.com/olegiv/blockcms/internal/store"
	"github.com/olegiv/blockcms/internal/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// loginCookie signs userID into a fresh session and returns its cookie.
func loginCookie(t *testing.T, sm *scs.SessionManager, userID int64) *http.Cookie {
	t.Helper()
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), session.KeyUserID, userID)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestAuthRedirectsWithoutSession(t *testing.T) {
	sm := scs.New()
	h := sm.LoadAndSave(Auth(sm)(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAuthAndLoadUser(t *testing.T) {
	db := testutil.TestDB(t)
	editor := testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor)
	users := service.NewUserService(db, service.NewEventService(db))

	sm := scs.New()
	var seen *model.User
	h := sm.LoadAndSave(Auth(sm)(LoadUser(sm, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(loginCookie(t, sm, editor.ID))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, editor.ID, seen.ID)
	assert.Equal(t, "editor@example.com", seen.Email)
}

func TestLoadUserDeletedUser(t *testing.T) {
	db := testutil.TestDB(t)
	users := service.NewUserService(db, service.NewEventService(db))

	sm := scs.New()
	h := sm.LoadAndSave(LoadUser(sm, users)(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(loginCookie(t, sm, 9999))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGetUserEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUser(req))
	assert.Zero(t, GetUserID(req))

	req = req.WithContext(WithUser(req.Context(), model.User{ID: 7, Role: model.RoleAdmin}))
	require.NotNil(t, GetUser(req))
	assert.Equal(t, int64(7), GetUserID(req))
}

func TestRequireRole(t *testing.T) {
	db := testutil.TestDB(t)
	events := service.NewEventService(db)
	admin := testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin)
	editor := testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor)
	viewer := editor
	viewer.Role = "viewer"

	tests := []struct {
		name     string
		user     *model.User
		handler  func(*service.EventService) func(http.Handler) http.Handler
		wantCode int
	}{
		{"admin passes admin", &admin, RequireAdmin, http.StatusOK},
		{"editor blocked from admin", &editor, RequireAdmin, http.StatusForbidden},
		{"editor passes editor", &editor, RequireEditor, http.StatusOK},
		{"admin passes editor", &admin, RequireEditor, http.StatusOK},
		{"unknown role blocked", &viewer, RequireEditor, http.StatusForbidden},
		{"no user redirects", nil, RequireEditor, http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/users/5/role", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tt.user))
			}
			rec := httptest.NewRecorder()
			tt.handler(events)(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	logged, err := store.New(db).ListRecentEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, logged, 2, "each denial is written to the event log")
	for _, e := range logged {
		assert.Equal(t, model.EventCategoryAuth, e.Category)
	}
}
