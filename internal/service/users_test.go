// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blockcms/internal/auth"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/store"
	"github.com/olegiv/blockcms/internal/testutil"
)

func TestAuthenticate(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewUserService(db, NewEventService(db))
	created := testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "  Admin@Example.com ", testutil.TestPassword)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, user.LastLoginAt.Valid)

	_, err = svc.Authenticate(ctx, "admin@example.com", "wrong password!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", testutil.TestPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUpgradesHash(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	q := store.New(db)

	weak := auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
	hash, err := weak.Hash(testutil.TestPassword)
	require.NoError(t, err)
	u := testutil.CreateUser(t, db, "legacy@example.com", model.RoleEditor)
	require.NoError(t, q.UpdateUserPassword(ctx, u.ID, hash, u.CreatedAt))

	_, err = NewUserService(db, nil).Authenticate(ctx, "legacy@example.com", testutil.TestPassword)
	require.NoError(t, err)

	stored, err := q.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash))
}

func TestChangeRole(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewUserService(db, NewEventService(db))
	admin := testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin)
	editor := testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ChangeRole(ctx, nil, editor.ID, model.RoleAdmin), ErrNoSession)
	assert.ErrorIs(t, svc.ChangeRole(ctx, &editor, admin.ID, model.RoleEditor), ErrForbidden)
	assert.ErrorIs(t, svc.ChangeRole(ctx, &admin, admin.ID, model.RoleEditor), ErrSelfDemotion)
	assert.ErrorIs(t, svc.ChangeRole(ctx, &admin, 999, model.RoleAdmin), ErrUserNotFound)
	assert.NotNil(t, FieldErrors(svc.ChangeRole(ctx, &admin, editor.ID, "owner")))

	require.NoError(t, svc.ChangeRole(ctx, &admin, editor.ID, model.RoleAdmin))
	got, err := svc.Get(ctx, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	events, err := NewEventService(db).Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventCategoryUser, events[0].Category)
	assert.Contains(t, events[0].Metadata, `"to":"admin"`)
}

func TestUpdateFullName(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewUserService(db, nil)
	user := testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor)
	ctx := context.Background()

	require.NoError(t, svc.UpdateFullName(ctx, &user, "  Ada Lovelace "))
	assert.Equal(t, "Ada Lovelace", user.FullName)

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.DisplayName())

	err = svc.UpdateFullName(ctx, &user, strings.Repeat("x", MaxFullNameLength+1))
	assert.Contains(t, FieldErrors(err), "full_name")
	assert.ErrorIs(t, svc.UpdateFullName(ctx, nil, "x"), ErrNoSession)
}

func TestValidationErrorMessage(t *testing.T) {
	ve := &ValidationError{}
	assert.NoError(t, ve.OrNil())

	ve.Add("slug", "bad")
	ve.Add("title", "missing")
	ve.Add("slug", "ignored")
	assert.Equal(t, "validation failed: slug: bad; title: missing", ve.Error())
	assert.Nil(t, FieldErrors(ErrForbidden))
}
