// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/olegiv/blockcms/internal/cache"
	"github.com/olegiv/blockcms/internal/config"
	"github.com/olegiv/blockcms/internal/export"
	"github.com/olegiv/blockcms/internal/metrics"
	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/scheduler"
	"github.com/olegiv/blockcms/internal/seo"
	"github.com/olegiv/blockcms/internal/service"
	"github.com/olegiv/blockcms/internal/session"
	"github.com/olegiv/blockcms/internal/store"
	"github.com/olegiv/blockcms/internal/testutil"
	"github.com/olegiv/blockcms/web"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg, err := config.LoadFrom(map[string]string{
		"BLOCKCMS_SESSION_SECRET": "Test-Secret-0123456789-abcdefghijkl",
		"BLOCKCMS_SITE_URL":       "https://example.com",
		"BLOCKCMS_ENV":            "production",
	})
	require.NoError(t, err)

	db := testutil.TestDB(t)
	admin := testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin)
	testutil.CreatePage(t, db, admin.ID, "about-us", "About Us", model.PageStatusPublished, nil)
	testutil.CreatePage(t, db, admin.ID, "pricing", "Pricing", model.PageStatusDraft, nil)

	mc := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mc.Close() })

	m := metrics.New()
	events := service.NewEventService(db)
	pages := service.NewPageService(db, cache.NewPageCache(mc, time.Minute), events)
	sm := session.New(db, false)

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sm,
		Site:           seo.SiteConfig{SiteName: cfg.SiteName, SiteURL: cfg.SiteURL},
	})
	require.NoError(t, err)

	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	t.Cleanup(lp.Stop)
	apiLimiter := middleware.NewGlobalRateLimiter("api", apiRPS, apiBurst)
	t.Cleanup(apiLimiter.Stop)
	publicLimiter := middleware.NewGlobalRateLimiter("public", publicRPS, publicBurst)
	t.Cleanup(publicLimiter.Stop)

	return newRouter(routerDeps{
		cfg:             cfg,
		db:              db,
		sessionManager:  sm,
		renderer:        renderer,
		metrics:         m,
		cache:           mc,
		events:          events,
		pages:           pages,
		users:           service.NewUserService(db, events),
		scheduler:       scheduler.New(testutil.DiscardLogger(), m),
		exporter:        export.NewExporter(store.New(db), testutil.DiscardLogger(), export.Site{Name: cfg.SiteName}),
		loginProtection: lp,
		apiLimiter:      apiLimiter,
		publicLimiter:   publicLimiter,
	})
}

func TestRouterRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		method   string
		target   string
		want     int
		location string
	}{
		{"home", http.MethodGet, "/", http.StatusOK, ""},
		{"published page", http.MethodGet, "/about-us", http.StatusOK, ""},
		{"draft page", http.MethodGet, "/pricing", http.StatusNotFound, ""},
		{"home slug", http.MethodGet, "/home", http.StatusMovedPermanently, "/"},
		{"unknown nested path", http.MethodGet, "/a/b/c", http.StatusNotFound, ""},
		{"login form", http.MethodGet, "/login", http.StatusOK, ""},
		{"admin requires login", http.MethodGet, "/admin", http.StatusSeeOther, "/login"},
		{"admin pages require login", http.MethodGet, "/admin/pages", http.StatusSeeOther, "/login"},
		{"health", http.MethodGet, "/health", http.StatusOK, ""},
		{"sitemap", http.MethodGet, "/sitemap.xml", http.StatusOK, ""},
		{"robots", http.MethodGet, "/robots.txt", http.StatusOK, ""},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, ""},
		{"static", http.MethodGet, "/static/dist/site.css", http.StatusOK, ""},
		{"api list", http.MethodGet, "/api/v1/pages", http.StatusOK, ""},
		{"api draft", http.MethodGet, "/api/v1/pages/pricing", http.StatusNotFound, ""},
		{"trailing slash", http.MethodGet, "/about-us/", http.StatusMovedPermanently, "/about-us"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.want, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
		})
	}
}

func TestRouterAPIHasCORS(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/pages", nil)
	r.Header.Set("Origin", "https://app.example.org")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "about-us", gjson.Get(w.Body.String(), "data.0.slug").String())
}

func TestRouterRejectsCrossSitePost(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.Header.Set("Sec-Fetch-Site", "cross-site")
	r.Header.Set("Origin", "https://evil.example.net")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSiteHost(t *testing.T) {
	assert.Equal(t, "example.com:8443", siteHost("https://example.com:8443/"))
	assert.Equal(t, "", siteHost("::bad"))
}
