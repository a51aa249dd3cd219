// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the page and user business rules shared by the admin
// screens, the public site and the JSON API.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/store"
)

// EventService writes audit entries to the event log.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sqlx.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent creates a new event log entry. Failures are logged and returned.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID int64, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID > 0 {
		nullUserID = sql.NullInt64{Int64: userID, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to log event", "error", err, "message", message)
		return err
	}
	return nil
}

// LogPageEvent logs an info event in the page category.
func (s *EventService) LogPageEvent(ctx context.Context, message string, userID int64, page model.Page) {
	_ = s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryPage, message, userID, map[string]any{
		"page_id": page.ID,
		"slug":    page.Slug,
	})
}

// LogUserEvent logs an info event in the user category.
func (s *EventService) LogUserEvent(ctx context.Context, message string, userID int64, metadata map[string]any) {
	_ = s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryUser, message, userID, metadata)
}

// LogAuthEvent logs an event in the auth category.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID int64, metadata map[string]any) {
	_ = s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, metadata)
}

// Recent returns the newest limit events.
func (s *EventService) Recent(ctx context.Context, limit int) ([]model.Event, error) {
	return s.queries.ListRecentEvents(ctx, limit)
}
