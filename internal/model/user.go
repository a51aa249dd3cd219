// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Page and Event.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// Roles lists every assignable role.
var Roles = []string{RoleAdmin, RoleEditor}

// User represents a CMS operator.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Role         string       `json:"role"`
	FullName     string       `json:"full_name,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"-"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the full name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// CanDeletePages reports whether the user may delete pages.
func (u *User) CanDeletePages() bool {
	return u.IsAdmin()
}

// CanManageUsers reports whether the user may change other users' roles.
func (u *User) CanManageUsers() bool {
	return u.IsAdmin()
}

// IsValidRole reports whether role is assignable.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor
}
