// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"time"
)

// Date layouts used across admin and public screens.
const (
	DateLayout     = "Jan 2, 2006"
	DateTimeLayout = "Jan 2, 2006 3:04 PM"
)

// FormatDate formats a time as a short date, e.g. "Mar 5, 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

// FormatDateTime formats a time as a date with a 12-hour clock time.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateTimeLayout)
}

// FormatNullDate formats an optional timestamp, returning "-" when unset.
func FormatNullDate(t sql.NullTime) string {
	if !t.Valid {
		return "-"
	}
	return FormatDate(t.Time)
}

// StatusColor maps a page status to the badge colour used in the admin UI.
func StatusColor(status string) string {
	switch status {
	case "published":
		return "green"
	case "draft":
		return "yellow"
	default:
		return "gray"
	}
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
