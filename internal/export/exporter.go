// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/store"
)

// Exporter handles exporting CMS content to JSON format.
type Exporter struct {
	store  *store.Queries
	logger *slog.Logger
	site   Site
	now    func() time.Time
}

// NewExporter creates a new Exporter instance.
func NewExporter(queries *store.Queries, logger *slog.Logger, site Site) *Exporter {
	return &Exporter{
		store:  queries,
		logger: logger,
		site:   site,
		now:    time.Now,
	}
}

// Export generates a Data structure based on the provided options.
func (e *Exporter) Export(ctx context.Context, opts Options) (*Data, error) {
	data := &Data{
		Version:    Version,
		ExportedAt: e.now().UTC(),
		Site:       e.site,
	}

	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	emails := make(map[int64]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	if opts.IncludeUsers {
		data.Users = make([]User, 0, len(users))
		for _, u := range users {
			data.Users = append(data.Users, User{
				Email:     u.Email,
				Name:      u.FullName,
				Role:      u.Role,
				CreatedAt: u.CreatedAt,
			})
		}
	}

	pages, err := e.store.ListPages(ctx, opts.PageStatus)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	data.Pages = make([]Page, 0, len(pages))
	for _, p := range pages {
		data.Pages = append(data.Pages, exportPage(p, emails))
	}

	e.logger.Debug("export built", "pages", len(data.Pages), "users", len(data.Users))
	return data, nil
}

func exportPage(p model.Page, emails map[int64]string) Page {
	out := Page{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Status:          p.Status,
		MetaDescription: p.MetaDescription,
		OGImage:         p.OGImage,
		Content:         p.Content,
		AuthorEmail:     emails[p.CreatedBy],
		UpdatedByEmail:  emails[p.UpdatedBy],
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if out.Content == nil {
		out.Content = []block.Block{}
	}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time
		out.PublishedAt = &t
	}
	return out
}

// ExportToWriter exports data and writes it as indented JSON.
func (e *Exporter) ExportToWriter(ctx context.Context, opts Options, w io.Writer) error {
	data, err := e.Export(ctx, opts)
	if err != nil {
		return err
	}
	return writeJSON(w, data)
}

func writeJSON(w io.Writer, data *Data) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FileName returns the object name used for an export taken at t.
func FileName(t time.Time) string {
	return "blockcms-export-" + t.UTC().Format("20060102-150405") + ".json"
}
