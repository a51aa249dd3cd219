// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/service"
)

// PageSummary is a published page in list responses.
type PageSummary struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	MetaDescription string     `json:"meta_description,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
}

// PageResponse is a published page with its blocks.
type PageResponse struct {
	PageSummary
	OGImage string        `json:"og_image,omitempty"`
	Blocks  []block.Block `json:"blocks"`
}

func pageToSummary(p model.Page) PageSummary {
	s := PageSummary{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		MetaDescription: p.MetaDescription,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time
		s.PublishedAt = &t
	}
	return s
}

func pageToResponse(p model.Page) PageResponse {
	blocks := p.Content
	if blocks == nil {
		blocks = []block.Block{}
	}
	return PageResponse{
		PageSummary: pageToSummary(p),
		OGImage:     p.OGImage,
		Blocks:      blocks,
	}
}

// ListPages handles GET /api/v1/pages.
// Query parameters: page, per_page.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1, 1, 0)
	perPage := parseIntParam(r, "per_page", DefaultPerPage, 1, MaxPerPage)

	pages, err := h.pages.ListPublished(r.Context())
	if err != nil {
		slog.Error("api: listing published pages", "error", err)
		WriteInternalError(w, "Failed to list pages")
		return
	}

	total := len(pages)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	items := make([]PageSummary, 0, end-start)
	for _, p := range pages[start:end] {
		items = append(items, pageToSummary(p))
	}

	WriteSuccess(w, items, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   (total + perPage - 1) / perPage,
	})
}

// GetPageBySlug handles GET /api/v1/pages/{slug}.
func (h *Handler) GetPageBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	p, err := h.pages.ResolvePublished(r.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			WriteNotFound(w, "Page not found")
			return
		}
		slog.Error("api: resolving page", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to retrieve page")
		return
	}

	WriteSuccess(w, pageToResponse(p), nil)
}
