// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/cache"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/richtext"
	"github.com/olegiv/blockcms/internal/store"
	"github.com/olegiv/blockcms/internal/util"
)

// RecentPagesLimit is the number of pages shown on the dashboard.
const RecentPagesLimit = 5

// Validation messages shown next to form fields.
const (
	MsgTitleRequired = "Title is required"
	MsgSlugRequired  = "Slug is required"
	MsgSlugInvalid   = "Slug must contain only lowercase letters, numbers, and hyphens"
	MsgSlugExists    = "A page with this slug already exists"
	MsgMetaTooLong   = "Meta description must be 160 characters or fewer"
	MsgStatusInvalid = "Invalid status"
	MsgHeadingLevel  = "Heading level must be between 1 and 4"
)

// PageInput is the editable state of a page as submitted by the editor.
type PageInput struct {
	ID              int64 // 0 creates a new page
	Title           string
	Slug            string
	MetaDescription string
	OGImage         string
	Status          string
	Content         []block.Block
}

// PageService implements page persistence rules on top of the store.
type PageService struct {
	queries *store.Queries
	cache   *cache.PageCache
	events  *EventService
	now     func() time.Time
}

// NewPageService creates a PageService. pageCache may be nil.
func NewPageService(db *sqlx.DB, pageCache *cache.PageCache, events *EventService) *PageService {
	return &PageService{
		queries: store.New(db),
		cache:   pageCache,
		events:  events,
		now:     time.Now,
	}
}

// Normalize trims the input, defaults the status to draft, derives the slug
// from the title for new pages when it was left empty, and renumbers blocks.
func (s *PageService) Normalize(in PageInput) PageInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.MetaDescription = strings.TrimSpace(in.MetaDescription)
	in.OGImage = strings.TrimSpace(in.OGImage)
	if in.Status == "" {
		in.Status = model.PageStatusDraft
	}
	if in.ID == 0 && in.Slug == "" {
		in.Slug = util.Slugify(in.Title)
	}

	e := block.NewEditor(richtext.SanitizeBlocks(in.Content))
	e.Renumber()
	in.Content = e.Blocks
	return in
}

// Validate checks a normalized input without touching the store.
func (s *PageService) Validate(in PageInput) error {
	ve := &ValidationError{}

	if in.Title == "" {
		ve.Add("title", MsgTitleRequired)
	}
	switch {
	case in.Slug == "":
		ve.Add("slug", MsgSlugRequired)
	case !util.IsValidSlug(in.Slug):
		ve.Add("slug", MsgSlugInvalid)
	}
	if utf8.RuneCountInString(in.MetaDescription) > model.MaxMetaDescriptionLength {
		ve.Add("meta_description", MsgMetaTooLong)
	}
	if !model.IsValidPageStatus(in.Status) {
		ve.Add("status", MsgStatusInvalid)
	}

	for i, b := range in.Content {
		if h, ok := b.Data.(block.Heading); ok && (h.Level < 1 || h.Level > 4) {
			ve.Add(block.DataField(i, "level"), MsgHeadingLevel)
		}
	}

	return ve.OrNil()
}

// Save creates or overwrites a page from the editor state. The last write wins.
//
// Errors: ErrNoSession without a user, *ValidationError for bad input (nothing
// is written), store.ErrDuplicateSlug on a slug collision, ErrPageNotFound
// when updating a page that no longer exists.
func (s *PageService) Save(ctx context.Context, user *model.User, in PageInput) (model.Page, error) {
	if user == nil {
		return model.Page{}, ErrNoSession
	}

	in = s.Normalize(in)
	if err := s.Validate(in); err != nil {
		return model.Page{}, err
	}

	now := s.now().UTC()
	if in.ID == 0 {
		return s.create(ctx, user, in, now)
	}
	return s.update(ctx, user, in, now)
}

// Publish saves the page with status published.
func (s *PageService) Publish(ctx context.Context, user *model.User, in PageInput) (model.Page, error) {
	in.Status = model.PageStatusPublished
	return s.Save(ctx, user, in)
}

func (s *PageService) create(ctx context.Context, user *model.User, in PageInput, now time.Time) (model.Page, error) {
	var publishedAt sql.NullTime
	if in.Status == model.PageStatusPublished {
		publishedAt = util.NullTimeFromValue(now)
	}

	page, err := s.queries.CreatePage(ctx, store.CreatePageParams{
		Slug:            in.Slug,
		Title:           in.Title,
		MetaDescription: in.MetaDescription,
		OGImage:         in.OGImage,
		Status:          in.Status,
		Content:         in.Content,
		CreatedBy:       user.ID,
		PublishedAt:     publishedAt,
		CreatedAt:       now,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			return model.Page{}, err
		}
		return model.Page{}, fmt.Errorf("creating page: %w", err)
	}

	s.invalidate(ctx, page.Slug)
	s.logEvent(ctx, "Page created", user, page)
	if page.IsPublished() {
		s.logEvent(ctx, "Page published", user, page)
	}
	return page, nil
}

func (s *PageService) update(ctx context.Context, user *model.User, in PageInput, now time.Time) (model.Page, error) {
	existing, err := s.queries.GetPageByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Page{}, ErrPageNotFound
		}
		return model.Page{}, fmt.Errorf("loading page: %w", err)
	}

	// published_at is stamped once, on the first transition into published.
	publishedAt := existing.PublishedAt
	firstPublish := in.Status == model.PageStatusPublished && !publishedAt.Valid
	if firstPublish {
		publishedAt = util.NullTimeFromValue(now)
	}

	page, err := s.queries.UpdatePage(ctx, store.UpdatePageParams{
		ID:              in.ID,
		Slug:            in.Slug,
		Title:           in.Title,
		MetaDescription: in.MetaDescription,
		OGImage:         in.OGImage,
		Status:          in.Status,
		Content:         in.Content,
		UpdatedBy:       user.ID,
		PublishedAt:     publishedAt,
		UpdatedAt:       now,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateSlug):
			return model.Page{}, err
		case errors.Is(err, sql.ErrNoRows):
			return model.Page{}, ErrPageNotFound
		}
		return model.Page{}, fmt.Errorf("updating page: %w", err)
	}

	s.invalidate(ctx, existing.Slug, page.Slug)
	if existing.Status != page.Status && page.IsPublished() {
		s.logEvent(ctx, "Page published", user, page)
	}
	return page, nil
}

// Delete removes a page. Only admins may delete.
func (s *PageService) Delete(ctx context.Context, user *model.User, id int64) error {
	if user == nil {
		return ErrNoSession
	}
	if !user.CanDeletePages() {
		return ErrForbidden
	}

	page, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.queries.DeletePage(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPageNotFound
		}
		return fmt.Errorf("deleting page: %w", err)
	}

	s.invalidate(ctx, page.Slug)
	s.logEvent(ctx, "Page deleted", user, page)
	return nil
}

// Get returns a page by ID regardless of status.
func (s *PageService) Get(ctx context.Context, id int64) (model.Page, error) {
	page, err := s.queries.GetPageByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Page{}, ErrPageNotFound
		}
		return model.Page{}, fmt.Errorf("loading page: %w", err)
	}
	return page, nil
}

// List returns pages filtered by status; an empty status lists all pages.
func (s *PageService) List(ctx context.Context, status string) ([]model.Page, error) {
	return s.Search(ctx, status, "")
}

// Search returns pages filtered by status whose title or slug contains
// query. Unknown statuses and an empty query match every page.
func (s *PageService) Search(ctx context.Context, status, query string) ([]model.Page, error) {
	if status != "" && !model.IsValidPageStatus(status) {
		status = ""
	}
	return s.queries.SearchPages(ctx, store.PageFilter{Status: status, Query: query})
}

// Recent returns the most recently updated pages for the dashboard.
func (s *PageService) Recent(ctx context.Context) ([]model.Page, error) {
	return s.queries.ListRecentPages(ctx, RecentPagesLimit)
}

// Stats returns the dashboard counters.
func (s *PageService) Stats(ctx context.Context) (model.PageStats, error) {
	return s.queries.GetPageStats(ctx)
}

// ResolvePublished returns the published page with slug, served through the
// page cache. Drafts, archived pages and missing slugs return ErrPageNotFound.
func (s *PageService) ResolvePublished(ctx context.Context, slug string) (model.Page, error) {
	if !util.IsValidSlug(slug) {
		return model.Page{}, ErrPageNotFound
	}

	load := func(ctx context.Context, slug string) (model.Page, error) {
		page, err := s.queries.GetPublishedPageBySlug(ctx, slug)
		if errors.Is(err, sql.ErrNoRows) {
			return model.Page{}, ErrPageNotFound
		}
		return page, err
	}

	if s.cache == nil {
		return load(ctx, slug)
	}
	return s.cache.GetBySlug(ctx, slug, load)
}

// ListPublished returns every published page ordered by title.
func (s *PageService) ListPublished(ctx context.Context) ([]model.Page, error) {
	if s.cache == nil {
		return s.queries.ListPublishedPages(ctx)
	}
	return s.cache.Published(ctx, s.queries.ListPublishedPages)
}

// WarmCache reloads every published page into the page cache. Pages
// unpublished while the cache was being filled are dropped again.
func (s *PageService) WarmCache(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	pages, err := s.queries.ListPublishedPages(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing published pages: %w", err)
	}
	n, err := s.cache.Warm(ctx, pages)
	if err != nil {
		return n, err
	}

	current, err := s.queries.ListPublishedPages(ctx)
	if err != nil {
		return n, fmt.Errorf("rechecking published pages: %w", err)
	}
	stale := staleSlugs(pages, current)
	if len(stale) == 0 {
		return n, nil
	}
	if err := s.cache.Invalidate(ctx, stale...); err != nil {
		return n, err
	}
	slog.Info("dropped pages changed during cache warm", "category", model.EventCategoryCache, "slugs", stale)
	return n - len(stale), nil
}

// staleSlugs returns the slugs of warmed pages that are missing from
// current or were updated since they were read.
func staleSlugs(warmed, current []model.Page) []string {
	now := make(map[string]model.Page, len(current))
	for _, p := range current {
		now[p.Slug] = p
	}
	var stale []string
	for _, p := range warmed {
		if c, ok := now[p.Slug]; !ok || c.ID != p.ID || !c.UpdatedAt.Equal(p.UpdatedAt) {
			stale = append(stale, p.Slug)
		}
	}
	return stale
}

func (s *PageService) invalidate(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, slugs...); err != nil {
		slog.Warn("failed to invalidate page cache", "category", model.EventCategoryCache, "error", err)
	}
}

func (s *PageService) logEvent(ctx context.Context, message string, user *model.User, page model.Page) {
	if s.events == nil {
		return
	}
	s.events.LogPageEvent(ctx, message, user.ID, page)
}
