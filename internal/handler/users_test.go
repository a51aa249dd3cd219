// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/testutil"
)

func TestUsersList(t *testing.T) {
	env := newTestEnv(t)
	h := NewUsersHandler(env.users, env.renderer)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", model.RoleAdmin)
	testutil.CreateUser(t, env.db, "editor@example.com", model.RoleEditor)

	w, _ := env.serve(h.List, httptest.NewRequest(http.MethodGet, "/admin/users", nil), &admin)
	assertStatus(t, w.Code, http.StatusOK)

	doc := parseHTML(t, w)
	assert.Equal(t, 2, doc.Find("tr[data-user-id]").Length())
	assert.Equal(t, 1, doc.Find(`form[action$="/role"]`).Length(), "no role form for yourself")
}

func TestUsersChangeRole(t *testing.T) {
	env := newTestEnv(t)
	h := NewUsersHandler(env.users, env.renderer)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", model.RoleAdmin)
	editor := testutil.CreateUser(t, env.db, "editor@example.com", model.RoleEditor)

	roleReq := func(id int64, role string) *http.Request {
		return requestWithURLParams(postForm("/admin/users/1/role", url.Values{"role": {role}}), map[string]string{"id": fmt.Sprint(id)})
	}

	tests := []struct {
		name  string
		actor model.User
		id    int64
		role  string
		flash string
	}{
		{"promote editor", admin, editor.ID, model.RoleAdmin, MsgRoleChanged},
		{"self demotion", admin, admin.ID, model.RoleEditor, MsgCannotSelfRole},
		{"editor forbidden", editor, admin.ID, model.RoleEditor, MsgRoleForbidden},
		{"invalid role", admin, editor.ID, "owner", MsgInvalidRole},
		{"missing user", admin, 999, model.RoleEditor, MsgUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := tt.actor
			w, r := env.serve(h.ChangeRole, roleReq(tt.id, tt.role), &actor)
			assertRedirect(t, w, "/admin/users")
			assert.Equal(t, tt.flash, env.flash(r))
		})
	}

	got, err := env.users.Get(context.Background(), editor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	self, err := env.users.Get(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, self.Role)
}

func TestUsersSettings(t *testing.T) {
	env := newTestEnv(t)
	h := NewUsersHandler(env.users, env.renderer)
	user := testutil.CreateUser(t, env.db, "editor@example.com", model.RoleEditor)

	w, r := env.serve(h.UpdateSettings, postForm("/admin/settings", url.Values{"full_name": {"  Ada Lovelace "}}), &user)
	assertRedirect(t, w, "/admin/settings")
	assert.Equal(t, MsgSettingsSaved, env.flash(r))

	got, err := env.users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.FullName)

	w, _ = env.serve(h.Settings, httptest.NewRequest(http.MethodGet, "/admin/settings", nil), &got)
	assertStatus(t, w.Code, http.StatusOK)
	v, _ := parseHTML(t, w).Find(`input[name="full_name"]`).Attr("value")
	assert.Equal(t, "Ada Lovelace", v)
}

func TestUsersSettingsTooLong(t *testing.T) {
	env := newTestEnv(t)
	h := NewUsersHandler(env.users, env.renderer)
	user := testutil.CreateUser(t, env.db, "editor@example.com", model.RoleEditor)

	long := strings.Repeat("a", 101)
	w, _ := env.serve(h.UpdateSettings, postForm("/admin/settings", url.Values{"full_name": {long}}), &user)
	assertStatus(t, w.Code, http.StatusUnprocessableEntity)

	doc := parseHTML(t, w)
	assert.Contains(t, doc.Find(".field-error").Text(), "100 characters")
	v, _ := doc.Find(`input[name="full_name"]`).Attr("value")
	assert.Equal(t, long, v)
}
