// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blockcms/internal/blockrender"
	"github.com/olegiv/blockcms/internal/metrics"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/seo"
	"github.com/olegiv/blockcms/internal/service"
)

// FrontendHandler serves the public site.
type FrontendHandler struct {
	pages    *service.PageService
	renderer *render.Renderer
	metrics  *metrics.Metrics
	robots   seo.RobotsConfig
}

// NewFrontendHandler creates a new FrontendHandler. m may be nil.
func NewFrontendHandler(pages *service.PageService, renderer *render.Renderer, m *metrics.Metrics, robots seo.RobotsConfig) *FrontendHandler {
	return &FrontendHandler{
		pages:    pages,
		renderer: renderer,
		metrics:  m,
		robots:   robots,
	}
}

// PageData holds data for the public page template.
type PageData struct {
	Slug string
	Body template.HTML
}

// LandingData holds data for the built-in landing page.
type LandingData struct {
	Pages []model.Page
}

// Home handles GET /. The published page with the home slug is shown when
// there is one, else a listing of the published pages.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.ResolvePublished(r.Context(), seo.HomeSlug)
	switch {
	case err == nil:
		h.countResolve(metrics.ResultOK)
		h.renderPage(w, r, page, seo.PageMeta(page, h.renderer.Site()))
		return
	case !errors.Is(err, service.ErrPageNotFound):
		h.countResolve(metrics.ResultError)
		logAndInternalError(w, "failed to resolve home page", "error", err)
		return
	}

	pages, err := h.pages.ListPublished(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list published pages", "error", err)
		return
	}
	renderOrError(w, r, h.renderer, http.StatusOK, "public/landing", render.TemplateData{
		Title: h.renderer.Site().SiteName,
		Meta:  seo.HomeMeta(h.renderer.Site()),
		Data:  LandingData{Pages: pages},
	})
}

// Page handles GET /{slug}. The home slug redirects to the root.
func (h *FrontendHandler) Page(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == seo.HomeSlug {
		http.Redirect(w, r, "/", http.StatusMovedPermanently)
		return
	}

	page, err := h.pages.ResolvePublished(r.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			h.countResolve(metrics.ResultNotFound)
			h.NotFound(w, r)
			return
		}
		h.countResolve(metrics.ResultError)
		logAndInternalError(w, "failed to resolve page", "slug", slug, "error", err)
		return
	}

	h.countResolve(metrics.ResultOK)
	h.renderPage(w, r, page, seo.PageMeta(page, h.renderer.Site()))
}

func (h *FrontendHandler) renderPage(w http.ResponseWriter, r *http.Request, page model.Page, meta seo.Meta) {
	body, err := blockrender.Render(page.Content)
	if err != nil {
		logAndInternalError(w, "failed to render blocks", "slug", page.Slug, "error", err)
		return
	}
	renderOrError(w, r, h.renderer, http.StatusOK, "public/page", render.TemplateData{
		Title: page.Title,
		Meta:  meta,
		Data:  PageData{Slug: page.Slug, Body: body},
	})
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderOrError(w, r, h.renderer, http.StatusNotFound, "public/not_found", render.TemplateData{
		Title: "Page not found",
		Meta:  seo.NotFoundMeta(h.renderer.Site()),
	})
}

// Sitemap handles GET /sitemap.xml.
func (h *FrontendHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.ListPublished(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list published pages", "error", err)
		return
	}

	data, err := seo.GenerateSitemap(h.renderer.Site().SiteURL, pages)
	if err != nil {
		logAndInternalError(w, "failed to build sitemap", "error", err)
		return
	}

	w.Header().Set(HeaderContentType, "application/xml; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		slog.Debug("writing sitemap", "error", err)
	}
}

// Robots handles GET /robots.txt.
func (h *FrontendHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(HeaderContentType, "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(seo.Robots(h.robots)))
}

func (h *FrontendHandler) countResolve(result string) {
	if h.metrics == nil {
		return
	}
	h.metrics.PageResolvesTotal.WithLabelValues(result).Inc()
}
