// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/auth"
	"github.com/olegiv/blockcms/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme1234"
	DefaultAdminName     = "Administrator"
)

// SeedConfig overrides the default admin account.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

// Seed creates the initial admin user when it does not exist yet.
func Seed(ctx context.Context, db *sqlx.DB, cfg SeedConfig) error {
	queries := New(db)

	email := cfg.AdminEmail
	if email == "" {
		email = DefaultAdminEmail
	}
	password := cfg.AdminPassword
	if password == "" {
		password = DefaultAdminPassword
	}

	_, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		FullName:     DefaultAdminName,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	attrs := []any{"id", user.ID, "email", user.Email}
	if cfg.AdminPassword == "" {
		attrs = append(attrs, "password", DefaultAdminPassword)
	}
	slog.Info("created default admin user", attrs...)

	return nil
}
