// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/metrics"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/seo"
	dbtest "github.com/olegiv/blockcms/internal/testutil"
)

func newTestFrontendHandler(env *testEnv) *FrontendHandler {
	return NewFrontendHandler(env.pages, env.renderer, env.metrics, seo.RobotsConfig{SiteURL: "https://example.com"})
}

func slugRequest(slug string) *http.Request {
	return requestWithURLParams(httptest.NewRequest(http.MethodGet, "/"+slug, nil), map[string]string{"slug": slug})
}

func TestFrontendPage(t *testing.T) {
	env := newTestEnv(t)
	h := newTestFrontendHandler(env)
	admin := dbtest.CreateUser(t, env.db, "admin@example.com", model.RoleAdmin)

	content := []block.Block{
		{ID: "h1", Type: block.TypeHeading, Order: 0, Data: block.Heading{Text: "Our Story", Level: 2}},
		faqBlock("f1"),
	}
	content[1].Order = 1
	dbtest.CreatePage(t, env.db, admin.ID, "about-us", "About Us", model.PageStatusPublished, content)
	dbtest.CreatePage(t, env.db, admin.ID, "pricing", "Pricing", model.PageStatusDraft, content)

	t.Run("published", func(t *testing.T) {
		w, _ := env.serve(h.Page, slugRequest("about-us"), nil)
		assertStatus(t, w.Code, http.StatusOK)

		doc := parseHTML(t, w)
		article := doc.Find(`article[data-slug="about-us"]`)
		assert.Equal(t, 1, article.Length())
		assert.Equal(t, "Our Story", strings.TrimSpace(article.Find("h2").First().Text()))
		assert.Contains(t, article.Text(), "Q1")
		href, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
		assert.Equal(t, "https://example.com/about-us", href)
	})

	t.Run("draft is hidden", func(t *testing.T) {
		w, _ := env.serve(h.Page, slugRequest("pricing"), nil)
		assertStatus(t, w.Code, http.StatusNotFound)
		assert.Equal(t, 1, parseHTML(t, w).Find("section.not-found").Length())
	})

	t.Run("unknown", func(t *testing.T) {
		w, _ := env.serve(h.Page, slugRequest("nope"), nil)
		assertStatus(t, w.Code, http.StatusNotFound)
	})

	t.Run("home slug redirects to root", func(t *testing.T) {
		dbtest.CreatePage(t, env.db, admin.ID, seo.HomeSlug, "Welcome", model.PageStatusPublished, nil)
		w, _ := env.serve(h.Page, slugRequest(seo.HomeSlug), nil)
		assertStatus(t, w.Code, http.StatusMovedPermanently)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	resolves := env.metrics.PageResolvesTotal
	assert.Equal(t, float64(1), testutil.ToFloat64(resolves.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, float64(2), testutil.ToFloat64(resolves.WithLabelValues(metrics.ResultNotFound)))
}

func TestFrontendHome(t *testing.T) {
	env := newTestEnv(t)
	h := newTestFrontendHandler(env)
	admin := dbtest.CreateUser(t, env.db, "admin@example.com", model.RoleAdmin)
	dbtest.CreatePage(t, env.db, admin.ID, "about-us", "About Us", model.PageStatusPublished, nil)
	dbtest.CreatePage(t, env.db, admin.ID, "pricing", "Pricing", model.PageStatusDraft, nil)

	w, _ := env.serve(h.Home, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assertStatus(t, w.Code, http.StatusOK)
	doc := parseHTML(t, w)
	links := doc.Find(".page-index a")
	assert.Equal(t, 1, links.Length(), "drafts are not listed")
	href, _ := links.Attr("href")
	assert.Equal(t, "/about-us", href)

	dbtest.CreatePage(t, env.db, admin.ID, seo.HomeSlug, "Welcome", model.PageStatusPublished, []block.Block{
		{ID: "h1", Type: block.TypeHeading, Order: 0, Data: block.Heading{Text: "Hello there", Level: 1}},
	})
	w, _ = env.serve(h.Home, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assertStatus(t, w.Code, http.StatusOK)
	doc = parseHTML(t, w)
	assert.Contains(t, doc.Find("article.page").Text(), "Hello there")
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "https://example.com", canonical)
}

func TestSitemap(t *testing.T) {
	env := newTestEnv(t)
	h := newTestFrontendHandler(env)
	admin := dbtest.CreateUser(t, env.db, "admin@example.com", model.RoleAdmin)
	dbtest.CreatePage(t, env.db, admin.ID, "about-us", "About Us", model.PageStatusPublished, nil)
	dbtest.CreatePage(t, env.db, admin.ID, "pricing", "Pricing", model.PageStatusDraft, nil)

	w := httptest.NewRecorder()
	h.Sitemap(w, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))

	assertStatus(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Header().Get(HeaderContentType), "application/xml")
	body := w.Body.String()
	assert.Contains(t, body, "<loc>https://example.com/about-us</loc>")
	assert.NotContains(t, body, "pricing")
}

func TestRobots(t *testing.T) {
	env := newTestEnv(t)
	h := newTestFrontendHandler(env)

	w := httptest.NewRecorder()
	h.Robots(w, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "User-agent: *\n"))
	assert.Contains(t, body, "Sitemap: https://example.com/sitemap.xml")
}
