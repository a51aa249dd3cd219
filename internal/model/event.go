// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth   = "auth"
	EventCategoryPage   = "page"
	EventCategoryUser   = "user"
	EventCategorySystem = "system"
	EventCategoryCache  = "cache"
	EventCategoryExport = "export"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string // JSON string
	CreatedAt time.Time
}

// LevelColor maps the event level to a badge colour.
func (e *Event) LevelColor() string {
	switch e.Level {
	case EventLevelError:
		return "red"
	case EventLevelWarning:
		return "yellow"
	default:
		return "gray"
	}
}
