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

type userRow struct {
	ID           int64        `db:"id"`
	Email        string       `db:"email"`
	PasswordHash string       `db:"password_hash"`
	Role         string       `db:"role"`
	FullName     string       `db:"full_name"`
	LastLoginAt  sql.NullTime `db:"last_login_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		FullName:     r.FullName,
		LastLoginAt:  r.LastLoginAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

const userSelect = `SELECT id, email, password_hash, role, full_name, last_login_at, created_at, updated_at FROM users`

// CreateUserParams holds the columns of a new user.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	FullName     string
	CreatedAt    time.Time
}

// CreateUser inserts a user. A taken email returns ErrDuplicateEmail.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	var id int64
	err := q.db.QueryRowxContext(ctx, q.rebind(`
		INSERT INTO users (email, password_hash, role, full_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		arg.Email, arg.PasswordHash, arg.Role, arg.FullName, arg.CreatedAt, arg.CreatedAt,
	).Scan(&id)
	if err != nil {
		if IsUniqueViolation(err) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID returns a user or sql.ErrNoRows.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return q.getUser(ctx, userSelect+` WHERE id = ?`, id)
}

// GetUserByEmail returns a user or sql.ErrNoRows.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return q.getUser(ctx, userSelect+` WHERE email = ?`, email)
}

func (q *Queries) getUser(ctx context.Context, query string, args ...any) (model.User, error) {
	var row userRow
	if err := q.db.GetContext(ctx, &row, q.rebind(query), args...); err != nil {
		return model.User{}, err
	}
	return row.toModel(), nil
}

// ListUsers returns all users ordered by email.
func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	if err := q.db.SelectContext(ctx, &rows, q.rebind(userSelect+` ORDER BY email`)); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]model.User, len(rows))
	for i, r := range rows {
		users[i] = r.toModel()
	}
	return users, nil
}

// CountUsers returns the number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUserRole changes a user's role.
func (q *Queries) UpdateUserRole(ctx context.Context, id int64, role string, now time.Time) error {
	return q.execOne(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, now, id)
}

// UpdateUserFullName changes a user's display name.
func (q *Queries) UpdateUserFullName(ctx context.Context, id int64, fullName string, now time.Time) error {
	return q.execOne(ctx, `UPDATE users SET full_name = ?, updated_at = ? WHERE id = ?`, fullName, now, id)
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, hash string, now time.Time) error {
	return q.execOne(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, now, id)
}

// UpdateLastLogin records a successful login.
func (q *Queries) UpdateLastLogin(ctx context.Context, id int64, now time.Time) error {
	return q.execOne(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, now, id)
}

// execOne runs a single-row update and reports sql.ErrNoRows when nothing matched.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.db.ExecContext(ctx, q.rebind(query), args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
