// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/auth"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/store"
)

// MaxFullNameLength limits the display name set on the settings screen.
const MaxFullNameLength = 100

// UserService implements account rules: login, role changes and profile edits.
type UserService struct {
	queries *store.Queries
	events  *EventService
	now     func() time.Time
}

// NewUserService creates a UserService. events may be nil.
func NewUserService(db *sqlx.DB, events *EventService) *UserService {
	return &UserService{
		queries: store.New(db),
		events:  events,
		now:     time.Now,
	}
}

// Authenticate checks credentials and records the login. Hashes created with
// older argon2 parameters are upgraded in place.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.User{}, ErrInvalidCredentials
	}

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		return model.User{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return model.User{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateUserPassword(ctx, user.ID, hash, now); err != nil {
				slog.Warn("failed to upgrade password hash", "category", model.EventCategoryAuth, "error", err, "user_id", user.ID)
			}
		}
	}
	if err := s.queries.UpdateLastLogin(ctx, user.ID, now); err != nil {
		slog.Error("failed to record login", "error", err, "user_id", user.ID)
	} else {
		user.LastLoginAt = sql.NullTime{Time: now, Valid: true}
	}
	return user, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// List returns all users ordered by email.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.queries.ListUsers(ctx)
}

// ChangeRole sets the role of user id. Only admins may change roles and an
// admin cannot change their own role.
func (s *UserService) ChangeRole(ctx context.Context, actor *model.User, id int64, role string) error {
	if actor == nil {
		return ErrNoSession
	}
	if !actor.CanManageUsers() {
		return ErrForbidden
	}
	if !model.IsValidRole(role) {
		return &ValidationError{Fields: map[string]string{"role": "Invalid role"}}
	}
	if actor.ID == id {
		return ErrSelfDemotion
	}

	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == role {
		return nil
	}

	if err := s.queries.UpdateUserRole(ctx, id, role, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("updating role: %w", err)
	}

	if s.events != nil {
		s.events.LogUserEvent(ctx, "User role changed", actor.ID, map[string]any{
			"target_id": id,
			"from":      target.Role,
			"to":        role,
		})
	}
	return nil
}

// UpdateFullName sets the acting user's display name.
func (s *UserService) UpdateFullName(ctx context.Context, actor *model.User, fullName string) error {
	if actor == nil {
		return ErrNoSession
	}

	fullName = strings.TrimSpace(fullName)
	if utf8.RuneCountInString(fullName) > MaxFullNameLength {
		return &ValidationError{Fields: map[string]string{
			"full_name": fmt.Sprintf("Full name must be %d characters or fewer", MaxFullNameLength),
		}}
	}

	if err := s.queries.UpdateUserFullName(ctx, actor.ID, fullName, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("updating full name: %w", err)
	}
	actor.FullName = fullName
	return nil
}
