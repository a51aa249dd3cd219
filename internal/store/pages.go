// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/util"
)

// pageRow is the scanned shape of a page joined with author names.
type pageRow struct {
	ID              int64          `db:"id"`
	Slug            string         `db:"slug"`
	Title           string         `db:"title"`
	MetaDescription sql.NullString `db:"meta_description"`
	OGImage         sql.NullString `db:"og_image"`
	Status          string         `db:"status"`
	Content         string         `db:"content"`
	CreatedBy       int64          `db:"created_by"`
	UpdatedBy       int64          `db:"updated_by"`
	CreatedByName   string         `db:"created_by_name"`
	UpdatedByName   string         `db:"updated_by_name"`
	PublishedAt     sql.NullTime   `db:"published_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r pageRow) toModel() (model.Page, error) {
	content, err := block.DecodeString(r.Content)
	if err != nil {
		return model.Page{}, fmt.Errorf("decoding content of page %d: %w", r.ID, err)
	}
	p := r.withoutContent()
	p.Content = content
	return p, nil
}

// withoutContent maps every column except content.
func (r pageRow) withoutContent() model.Page {
	return model.Page{
		ID:              r.ID,
		Slug:            r.Slug,
		Title:           r.Title,
		MetaDescription: r.MetaDescription.String,
		OGImage:         r.OGImage.String,
		Status:          r.Status,
		Content:         []block.Block{},
		CreatedBy:       r.CreatedBy,
		UpdatedBy:       r.UpdatedBy,
		CreatedByName:   r.CreatedByName,
		UpdatedByName:   r.UpdatedByName,
		PublishedAt:     r.PublishedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

const pageSelect = `
SELECT p.id, p.slug, p.title, p.meta_description, p.og_image, p.status,
       p.content, p.created_by, p.updated_by,
       COALESCE(NULLIF(cu.full_name, ''), cu.email, '') AS created_by_name,
       COALESCE(NULLIF(uu.full_name, ''), uu.email, '') AS updated_by_name,
       p.published_at, p.created_at, p.updated_at
FROM pages p
LEFT JOIN users cu ON cu.id = p.created_by
LEFT JOIN users uu ON uu.id = p.updated_by`

// CreatePageParams holds the columns of a new page.
type CreatePageParams struct {
	Slug            string
	Title           string
	MetaDescription string
	OGImage         string
	Status          string
	Content         []block.Block
	CreatedBy       int64
	PublishedAt     sql.NullTime
	CreatedAt       time.Time
}

// UpdatePageParams holds the columns written when a page is saved.
type UpdatePageParams struct {
	ID              int64
	Slug            string
	Title           string
	MetaDescription string
	OGImage         string
	Status          string
	Content         []block.Block
	UpdatedBy       int64
	PublishedAt     sql.NullTime
	UpdatedAt       time.Time
}

// CreatePage inserts a page and returns it with its new ID.
// A slug collision returns ErrDuplicateSlug.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (model.Page, error) {
	content, err := block.EncodeString(arg.Content)
	if err != nil {
		return model.Page{}, err
	}

	var id int64
	err = q.db.QueryRowxContext(ctx, q.rebind(`
		INSERT INTO pages (slug, title, meta_description, og_image, status, content,
		                   created_by, updated_by, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		arg.Slug, arg.Title,
		util.NullStringFromValue(arg.MetaDescription), util.NullStringFromValue(arg.OGImage),
		arg.Status, content, arg.CreatedBy, arg.CreatedBy, arg.PublishedAt,
		arg.CreatedAt, arg.CreatedAt,
	).Scan(&id)
	if err != nil {
		if IsUniqueViolation(err) {
			return model.Page{}, ErrDuplicateSlug
		}
		return model.Page{}, fmt.Errorf("inserting page: %w", err)
	}

	return q.GetPageByID(ctx, id)
}

// UpdatePage overwrites every editable column of a page (last write wins).
// A slug collision returns ErrDuplicateSlug; a missing page returns sql.ErrNoRows.
func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (model.Page, error) {
	content, err := block.EncodeString(arg.Content)
	if err != nil {
		return model.Page{}, err
	}

	res, err := q.db.ExecContext(ctx, q.rebind(`
		UPDATE pages
		SET slug = ?, title = ?, meta_description = ?, og_image = ?, status = ?,
		    content = ?, updated_by = ?, published_at = ?, updated_at = ?
		WHERE id = ?`),
		arg.Slug, arg.Title,
		util.NullStringFromValue(arg.MetaDescription), util.NullStringFromValue(arg.OGImage),
		arg.Status, content, arg.UpdatedBy, arg.PublishedAt, arg.UpdatedAt, arg.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return model.Page{}, ErrDuplicateSlug
		}
		return model.Page{}, fmt.Errorf("updating page: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Page{}, sql.ErrNoRows
	}

	return q.GetPageByID(ctx, arg.ID)
}

// GetPageByID returns a page regardless of status.
func (q *Queries) GetPageByID(ctx context.Context, id int64) (model.Page, error) {
	return q.getPage(ctx, pageSelect+` WHERE p.id = ?`, id)
}

// GetPageBySlug returns a page regardless of status.
func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (model.Page, error) {
	return q.getPage(ctx, pageSelect+` WHERE p.slug = ?`, slug)
}

// GetPublishedPageBySlug returns the page with slug only when it is published.
func (q *Queries) GetPublishedPageBySlug(ctx context.Context, slug string) (model.Page, error) {
	return q.getPage(ctx, pageSelect+` WHERE p.slug = ? AND p.status = ?`, slug, model.PageStatusPublished)
}

func (q *Queries) getPage(ctx context.Context, query string, args ...any) (model.Page, error) {
	var row pageRow
	if err := q.db.GetContext(ctx, &row, q.rebind(query), args...); err != nil {
		return model.Page{}, err
	}
	return row.toModel()
}

// PageFilter narrows an admin page listing.
type PageFilter struct {
	Status string // exact status; empty matches all
	Query  string // case-insensitive substring of title or slug
}

// ListPages returns pages ordered by most recently updated, optionally filtered by status.
func (q *Queries) ListPages(ctx context.Context, status string) ([]model.Page, error) {
	return q.SearchPages(ctx, PageFilter{Status: status})
}

// SearchPages returns pages matching f ordered by most recently updated.
func (q *Queries) SearchPages(ctx context.Context, f PageFilter) ([]model.Page, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, `p.status = ?`)
		args = append(args, f.Status)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		where = append(where, `(LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.slug) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	query := pageSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	return q.listPages(ctx, keepUndecodable, query+` ORDER BY p.updated_at DESC, p.id DESC`, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ListPublishedPages returns published pages ordered by title. Pages whose
// content cannot be decoded are left out.
func (q *Queries) ListPublishedPages(ctx context.Context) ([]model.Page, error) {
	return q.listPages(ctx, skipUndecodable, pageSelect+` WHERE p.status = ? ORDER BY p.title, p.id`, model.PageStatusPublished)
}

// ListRecentPages returns the limit most recently updated pages.
func (q *Queries) ListRecentPages(ctx context.Context, limit int) ([]model.Page, error) {
	return q.listPages(ctx, keepUndecodable, pageSelect+` ORDER BY p.updated_at DESC, p.id DESC LIMIT ?`, limit)
}

// undecodable selects what listPages does with a row whose content is not
// a decodable block array.
type undecodable int

const (
	keepUndecodable undecodable = iota // list it with empty content
	skipUndecodable                    // leave it out
)

func (q *Queries) listPages(ctx context.Context, mode undecodable, query string, args ...any) ([]model.Page, error) {
	var rows []pageRow
	if err := q.db.SelectContext(ctx, &rows, q.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	pages := make([]model.Page, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			slog.Warn("page content could not be decoded", "page_id", r.ID, "slug", r.Slug, "error", err)
			if mode == skipUndecodable {
				continue
			}
			p = r.withoutContent()
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// GetPageStats returns the dashboard counters.
func (q *Queries) GetPageStats(ctx context.Context) (model.PageStats, error) {
	var stats struct {
		Total     int64 `db:"total"`
		Published int64 `db:"published"`
		Draft     int64 `db:"draft"`
	}
	err := q.db.GetContext(ctx, &stats, q.rebind(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS published,
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS draft
		FROM pages`), model.PageStatusPublished, model.PageStatusDraft)
	if err != nil {
		return model.PageStats{}, fmt.Errorf("counting pages: %w", err)
	}
	return model.PageStats{Total: stats.Total, Published: stats.Published, Draft: stats.Draft}, nil
}

// SlugExists reports whether another page than excludeID already uses slug.
func (q *Queries) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := q.db.GetContext(ctx, &n, q.rebind(`SELECT COUNT(*) FROM pages WHERE slug = ? AND id <> ?`), slug, excludeID)
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return n > 0, nil
}

// DeletePage removes a page. A missing page returns sql.ErrNoRows.
func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, q.rebind(`DELETE FROM pages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
