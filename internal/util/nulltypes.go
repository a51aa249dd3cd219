// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"strings"
	"time"
)

// NullStringFromValue creates a sql.NullString from a string value.
// Surrounding whitespace is trimmed; an empty result is stored as NULL.
func NullStringFromValue(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// NullTimeFromValue creates a valid sql.NullTime, or an invalid one for the zero time.
func NullTimeFromValue(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
