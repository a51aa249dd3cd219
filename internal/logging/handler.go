// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging configures slog and forwards warnings and errors to the
// database-backed event log shown on the dashboard.
package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/tidwall/sjson"

	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/store"
)

// EventWriter persists event log entries. *store.Queries implements it.
type EventWriter interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) error
}

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the event log.
type EventLogHandler struct {
	inner  slog.Handler
	events EventWriter
	level  slog.Level // minimum level forwarded to the event log
	attrs  []slog.Attr
	groups []string
}

// NewEventLogHandler creates a handler forwarding WARN and above to db's events table.
func NewEventLogHandler(inner slog.Handler, db *sqlx.DB) *EventLogHandler {
	return NewEventLogHandlerWithWriter(inner, store.New(db), slog.LevelWarn)
}

// NewEventLogHandlerWithWriter creates a handler with a custom writer and minimum level.
func NewEventLogHandlerWithWriter(inner slog.Handler, w EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:  inner,
		events: w,
		level:  level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	// Always forward to the inner handler first
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// qualify prefixes attribute keys with the open groups, joined by dots.
func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	prefix := strings.Join(h.groups, ".") + "."
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

// writeToEventLog writes a record to the event log. The request context is
// not used so that cancelled requests still leave a trace; write errors are dropped
// because logging them would recurse into this handler.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	attrs := append([]slog.Attr{}, h.attrs...)
	var recordAttrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		recordAttrs = append(recordAttrs, a)
		return true
	})
	attrs = append(attrs, h.qualify(recordAttrs)...)

	_ = h.events.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     slogLevelToEventLevel(r.Level),
		Category:  extractCategory(r.Message, attrs),
		Message:   r.Message,
		UserID:    extractUserID(attrs),
		Metadata:  extractMetadata(attrs),
		CreatedAt: r.Time,
	})
}

// slogLevelToEventLevel converts a slog.Level to an event log level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// extractCategory uses the "category" attribute or infers one from the message.
func extractCategory(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "logout"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "page") || strings.Contains(msg, "content"):
		return model.EventCategoryPage
	case strings.Contains(msg, "user"):
		return model.EventCategoryUser
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	case strings.Contains(msg, "export"):
		return model.EventCategoryExport
	default:
		return model.EventCategorySystem
	}
}

func extractUserID(attrs []slog.Attr) sql.NullInt64 {
	for _, a := range attrs {
		if a.Key != "user_id" {
			continue
		}
		switch a.Value.Kind() {
		case slog.KindInt64:
			return sql.NullInt64{Int64: a.Value.Int64(), Valid: a.Value.Int64() > 0}
		case slog.KindUint64:
			return sql.NullInt64{Int64: int64(a.Value.Uint64()), Valid: a.Value.Uint64() > 0}
		}
	}
	return sql.NullInt64{}
}

// extractMetadata collects the attributes into a flat JSON object of strings.
func extractMetadata(attrs []slog.Attr) string {
	metadata := "{}"
	for _, a := range attrs {
		if a.Key == "category" || a.Key == "" {
			continue
		}
		// Keys may contain dots from groups; sjson treats dots as paths, so escape them.
		key := strings.ReplaceAll(a.Key, ".", `\.`)
		if updated, err := sjson.Set(metadata, key, a.Value.Resolve().String()); err == nil {
			metadata = updated
		}
	}
	return metadata
}
