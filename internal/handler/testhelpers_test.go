// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/cache"
	"github.com/olegiv/blockcms/internal/metrics"
	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/seo"
	"github.com/olegiv/blockcms/internal/service"
	"github.com/olegiv/blockcms/internal/session"
	"github.com/olegiv/blockcms/internal/testutil"
	"github.com/olegiv/blockcms/web"
)

// testEnv wires the services used by the handlers against a fresh database.
type testEnv struct {
	db       *sqlx.DB
	sm       *scs.SessionManager
	renderer *render.Renderer
	events   *service.EventService
	pages    *service.PageService
	users    *service.UserService
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestDB(t)
	sm := testSessionManager(t)

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sm,
		Site:           seo.SiteConfig{SiteName: "Test Site", SiteURL: "https://example.com"},
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	mc := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mc.Close() })

	events := service.NewEventService(db)
	return &testEnv{
		db:       db,
		sm:       sm,
		renderer: renderer,
		events:   events,
		pages:    service.NewPageService(db, cache.NewPageCache(mc, time.Minute), events),
		users:    service.NewUserService(db, events),
		metrics:  metrics.New(),
	}
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// serve runs h with a loaded session and, when user is set, an authenticated
// user in the context. The returned request carries the session so tests can
// read what the handler stored.
func (e *testEnv) serve(h http.HandlerFunc, r *http.Request, user *model.User) (*httptest.ResponseRecorder, *http.Request) {
	r = requestWithSession(e.sm, r)
	if user != nil {
		r = r.WithContext(middleware.WithUser(r.Context(), *user))
	}
	w := httptest.NewRecorder()
	h(w, r)
	return w, r
}

// flash returns the flash message stored in the request's session.
func (e *testEnv) flash(r *http.Request) string {
	return e.sm.GetString(r.Context(), session.KeyFlash)
}

// postForm builds a form POST request.
func postForm(target string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set(HeaderContentType, "application/x-www-form-urlencoded")
	return r
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(sm *scs.SessionManager, r *http.Request) *http.Request {
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		return r
	}
	return r.WithContext(ctx)
}

// parseHTML parses a recorded HTML response.
func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	return doc
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a 303 to location.
func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatus(t, w.Code, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q; want %q", got, location)
	}
}
