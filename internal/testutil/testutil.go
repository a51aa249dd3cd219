// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for blockcms packages.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/auth"
	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/store"
)

// TestPassword is the password of users created by CreateUser.
const TestPassword = "correct horse battery"

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// DiscardLogger returns a logger that writes nothing.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a migrated SQLite database in the test's temporary directory.
// The database is closed when the test finishes.
func TestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "blockcms-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with TestPassword.
func CreateUser(t *testing.T, db *sqlx.DB, email, role string) model.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

// CreatePage inserts a page authored by userID with the given status and blocks.
func CreatePage(t *testing.T, db *sqlx.DB, userID int64, slug, title, status string, content []block.Block) model.Page {
	t.Helper()

	now := time.Now().UTC()
	params := store.CreatePageParams{
		Slug:      slug,
		Title:     title,
		Status:    status,
		Content:   content,
		CreatedBy: userID,
		CreatedAt: now,
	}
	if status == model.PageStatusPublished {
		params.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}
	page, err := store.New(db).CreatePage(context.Background(), params)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	return page
}
