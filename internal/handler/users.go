// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/service"
)

// User management messages.
const (
	MsgRoleChanged     = "Role updated"
	MsgCannotSelfRole  = "You cannot change your own role"
	MsgRoleForbidden   = "Only administrators can change roles"
	MsgInvalidRole     = "Invalid role"
	MsgUserNotFound    = "User not found"
	MsgSettingsSaved   = "Settings saved"
	MsgSettingsFailed  = "Failed to save settings"
	MsgRoleChangeError = "Failed to change role"
)

// UsersHandler handles the users screen and the settings screen.
type UsersHandler struct {
	users    *service.UserService
	renderer *render.Renderer
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(users *service.UserService, renderer *render.Renderer) *UsersHandler {
	return &UsersHandler{
		users:    users,
		renderer: renderer,
	}
}

// UsersListData holds data for the users template.
type UsersListData struct {
	Users []model.User
}

// SettingsData holds data for the settings template.
type SettingsData struct {
	FullName string
	Errors   map[string]string
}

// List handles GET /admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}
	renderOrError(w, r, h.renderer, http.StatusOK, "admin/users", render.TemplateData{
		Title: "Users",
		Data:  UsersListData{Users: users},
	})
}

// ChangeRole handles POST /admin/users/{id}/role.
func (h *UsersHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminUsers, MsgUserNotFound)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsers) {
		return
	}

	err := h.users.ChangeRole(r.Context(), middleware.GetUser(r), id, r.PostFormValue("role"))
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, redirectAdminUsers, MsgRoleChanged)
	case errors.Is(err, service.ErrSelfDemotion):
		flashError(w, r, h.renderer, redirectAdminUsers, MsgCannotSelfRole)
	case errors.Is(err, service.ErrForbidden):
		flashError(w, r, h.renderer, redirectAdminUsers, MsgRoleForbidden)
	case errors.Is(err, service.ErrNoSession):
		flashError(w, r, h.renderer, redirectLogin, MsgSessionExpired)
	case errors.Is(err, service.ErrUserNotFound):
		flashError(w, r, h.renderer, redirectAdminUsers, MsgUserNotFound)
	case service.FieldErrors(err) != nil:
		flashError(w, r, h.renderer, redirectAdminUsers, MsgInvalidRole)
	default:
		slog.Error("failed to change role", "error", err, "user_id", id)
		flashError(w, r, h.renderer, redirectAdminUsers, MsgRoleChangeError)
	}
}

// Settings handles GET /admin/settings.
func (h *UsersHandler) Settings(w http.ResponseWriter, r *http.Request) {
	data := SettingsData{Errors: map[string]string{}}
	if user := middleware.GetUser(r); user != nil {
		data.FullName = user.FullName
	}
	renderOrError(w, r, h.renderer, http.StatusOK, "admin/settings", render.TemplateData{
		Title: "Settings",
		Data:  data,
	})
}

// UpdateSettings handles POST /admin/settings.
func (h *UsersHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminSettings) {
		return
	}

	fullName := r.PostFormValue("full_name")
	err := h.users.UpdateFullName(r.Context(), middleware.GetUser(r), fullName)
	if err == nil {
		flashSuccess(w, r, h.renderer, redirectAdminSettings, MsgSettingsSaved)
		return
	}

	if errors.Is(err, service.ErrNoSession) {
		flashError(w, r, h.renderer, redirectLogin, MsgSessionExpired)
		return
	}

	status := http.StatusUnprocessableEntity
	data := SettingsData{FullName: fullName, Errors: service.FieldErrors(err)}
	flash := ""
	if data.Errors == nil {
		slog.Error("failed to update settings", "error", err)
		status = http.StatusInternalServerError
		data.Errors = map[string]string{}
		flash = MsgSettingsFailed
	}
	renderOrError(w, r, h.renderer, status, "admin/settings", render.TemplateData{
		Title:     "Settings",
		Flash:     flash,
		FlashType: render.FlashError,
		Data:      data,
	})
}
