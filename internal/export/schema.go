// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package export writes JSON snapshots of the site content and uploads them
// to S3-compatible object storage.
package export

import (
	"time"

	"github.com/olegiv/blockcms/internal/block"
)

// Version is the current version of the export format.
const Version = "1.0"

// Data represents the complete export structure.
type Data struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Site       Site      `json:"site"`
	Users      []User    `json:"users,omitempty"`
	Pages      []Page    `json:"pages"`
}

// Site contains basic site information.
type Site struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// User represents a user for export (no passwords).
type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Page represents a page with its blocks in the persisted shape.
type Page struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Status          string        `json:"status"`
	MetaDescription string        `json:"meta_description,omitempty"`
	OGImage         string        `json:"og_image,omitempty"`
	Content         []block.Block `json:"content"`
	AuthorEmail     string        `json:"author_email,omitempty"`
	UpdatedByEmail  string        `json:"updated_by_email,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	PublishedAt     *time.Time    `json:"published_at,omitempty"`
}

// Options controls what is included in an export.
type Options struct {
	PageStatus   string // "" for all pages, or a single status
	IncludeUsers bool
}
