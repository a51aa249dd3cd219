// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/blockcms/internal/model"
)

// CreateEventParams holds the columns of an event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

type eventRow struct {
	ID        int64         `db:"id"`
	Level     string        `db:"level"`
	Category  string        `db:"category"`
	Message   string        `db:"message"`
	UserID    sql.NullInt64 `db:"user_id"`
	Metadata  string        `db:"metadata"`
	CreatedAt time.Time     `db:"created_at"`
}

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	_, err := q.db.ExecContext(ctx, q.rebind(`
		INSERT INTO events (level, category, message, user_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// ListRecentEvents returns the newest limit events.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	var rows []eventRow
	err := q.db.SelectContext(ctx, &rows, q.rebind(`
		SELECT id, level, category, message, user_id, metadata, created_at
		FROM events ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	events := make([]model.Event, len(rows))
	for i, r := range rows {
		events[i] = model.Event{
			ID:        r.ID,
			Level:     r.Level,
			Category:  r.Category,
			Message:   r.Message,
			UserID:    r.UserID,
			Metadata:  r.Metadata,
			CreatedAt: r.CreatedAt,
		}
	}
	return events, nil
}
