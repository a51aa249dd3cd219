// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"

	"github.com/olegiv/blockcms/internal/block"
)

// Page statuses
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
	PageStatusArchived  = "archived"
)

// PageStatuses lists every page status in display order.
var PageStatuses = []string{PageStatusDraft, PageStatusPublished, PageStatusArchived}

// MaxMetaDescriptionLength is the longest meta description accepted by the editor.
const MaxMetaDescriptionLength = 160

// Page represents a CMS page composed of content blocks.
type Page struct {
	ID              int64         `json:"id"`
	Slug            string        `json:"slug"`
	Title           string        `json:"title"`
	MetaDescription string        `json:"meta_description,omitempty"`
	OGImage         string        `json:"og_image,omitempty"`
	Status          string        `json:"status"`
	Content         []block.Block `json:"content"`
	CreatedBy       int64         `json:"created_by"`
	UpdatedBy       int64         `json:"updated_by"`
	CreatedByName   string        `json:"-"`
	UpdatedByName   string        `json:"-"`
	PublishedAt     sql.NullTime  `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsPublished returns true if the page is published.
func (p *Page) IsPublished() bool {
	return p.Status == PageStatusPublished
}

// IsDraft returns true if the page is a draft.
func (p *Page) IsDraft() bool {
	return p.Status == PageStatusDraft
}

// IsNew reports whether the page has not been stored yet.
func (p *Page) IsNew() bool {
	return p.ID == 0
}

// IsValidPageStatus reports whether s is one of the known page statuses.
func IsValidPageStatus(s string) bool {
	for _, status := range PageStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// PageStats holds the dashboard page counters.
type PageStats struct {
	Total     int64
	Published int64
	Draft     int64
}
