// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
)

func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{
			name: "admin role",
			role: RoleAdmin,
			want: true,
		},
		{
			name: "editor role",
			role: RoleEditor,
			want: false,
		},
		{
			name: "empty role",
			role: "",
			want: false,
		},
		{
			name: "Admin uppercase",
			role: "Admin",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
			if got := u.CanDeletePages(); got != tt.want {
				t.Errorf("CanDeletePages() = %v, want %v", got, tt.want)
			}
			if got := u.CanManageUsers(); got != tt.want {
				t.Errorf("CanManageUsers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	u := &User{Email: "jane@example.com"}
	if got := u.DisplayName(); got != "jane@example.com" {
		t.Errorf("DisplayName() = %q, want email fallback", got)
	}

	u.FullName = "Jane Doe"
	if got := u.DisplayName(); got != "Jane Doe" {
		t.Errorf("DisplayName() = %q, want %q", got, "Jane Doe")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range Roles {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "owner", "public", "ADMIN"} {
		if IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = true, want false", role)
		}
	}
}
