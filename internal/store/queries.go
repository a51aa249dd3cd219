// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"github.com/jmoiron/sqlx"
)

// Queries runs the application's SQL against one database.
// Statements are written with ? placeholders and rebound for the driver.
type Queries struct {
	db *sqlx.DB
}

// New returns Queries for db.
func New(db *sqlx.DB) *Queries {
	return &Queries{db: db}
}

// DB returns the underlying database handle.
func (q *Queries) DB() *sqlx.DB {
	return q.db
}

func (q *Queries) rebind(query string) string {
	return q.db.Rebind(query)
}
