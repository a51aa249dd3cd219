// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/blockcms/internal/model"
)

const (
	pageKeyPrefix = "page:"
	publishedList = "pages:published"
)

// cachedPage carries the Page fields that model.Page hides from JSON.
type cachedPage struct {
	Page          model.Page `json:"page"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedByName string     `json:"created_by_name,omitempty"`
	UpdatedByName string     `json:"updated_by_name,omitempty"`
}

func wrapPage(p model.Page) cachedPage {
	c := cachedPage{Page: p, CreatedByName: p.CreatedByName, UpdatedByName: p.UpdatedByName}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time
		c.PublishedAt = &t
	}
	return c
}

func (c cachedPage) unwrap() model.Page {
	p := c.Page
	p.CreatedByName = c.CreatedByName
	p.UpdatedByName = c.UpdatedByName
	if c.PublishedAt != nil {
		p.PublishedAt = sql.NullTime{Time: *c.PublishedAt, Valid: true}
	}
	return p
}

// PageLoader fetches a published page by slug from the store.
type PageLoader func(ctx context.Context, slug string) (model.Page, error)

// PublishedLoader fetches every published page.
type PublishedLoader func(ctx context.Context) ([]model.Page, error)

// PageCache caches published pages by slug and the published page list.
type PageCache struct {
	pages *TypedCache[cachedPage]
	lists *TypedCache[[]cachedPage]
	raw   Cacher
}

// NewPageCache creates a page cache over c.
func NewPageCache(c Cacher, ttl time.Duration) *PageCache {
	return &PageCache{
		pages: NewTypedCache[cachedPage](c, ttl),
		lists: NewTypedCache[[]cachedPage](c, ttl),
		raw:   c,
	}
}

// GetBySlug returns the cached page or loads it. Loader errors, including
// not-found, are returned and not cached.
func (pc *PageCache) GetBySlug(ctx context.Context, slug string, load PageLoader) (model.Page, error) {
	c, err := pc.pages.GetOrLoad(ctx, pageKeyPrefix+slug, func(ctx context.Context) (cachedPage, error) {
		p, err := load(ctx, slug)
		if err != nil {
			return cachedPage{}, err
		}
		return wrapPage(p), nil
	})
	if err != nil {
		return model.Page{}, err
	}
	return c.unwrap(), nil
}

// Published returns the cached published page list or loads it.
func (pc *PageCache) Published(ctx context.Context, load PublishedLoader) ([]model.Page, error) {
	list, err := pc.lists.GetOrLoad(ctx, publishedList, func(ctx context.Context) ([]cachedPage, error) {
		pages, err := load(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]cachedPage, len(pages))
		for i, p := range pages {
			out[i] = wrapPage(p)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	pages := make([]model.Page, len(list))
	for i, c := range list {
		pages[i] = c.unwrap()
	}
	return pages, nil
}

// Invalidate drops the cached entry for each slug and the published list.
func (pc *PageCache) Invalidate(ctx context.Context, slugs ...string) error {
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		if err := pc.raw.Delete(ctx, pageKeyPrefix+slug); err != nil {
			return err
		}
	}
	return pc.raw.Delete(ctx, publishedList)
}

// Clear drops every cached page.
func (pc *PageCache) Clear(ctx context.Context) error {
	if err := pc.raw.DeleteByPrefix(ctx, pageKeyPrefix); err != nil {
		return err
	}
	return pc.raw.Delete(ctx, publishedList)
}

// Warm replaces the cache contents with the given published pages.
// It returns the number of pages stored.
func (pc *PageCache) Warm(ctx context.Context, pages []model.Page) (int, error) {
	if err := pc.Clear(ctx); err != nil {
		return 0, err
	}
	list := make([]cachedPage, 0, len(pages))
	for _, p := range pages {
		if !p.IsPublished() {
			continue
		}
		c := wrapPage(p)
		if err := pc.pages.Set(ctx, pageKeyPrefix+p.Slug, c); err != nil {
			return 0, err
		}
		list = append(list, c)
	}
	if err := pc.lists.Set(ctx, publishedList, list); err != nil {
		return 0, err
	}
	return len(list), nil
}
