// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/service"
	"github.com/olegiv/blockcms/internal/session"
)

// Login messages.
const (
	MsgEmailPasswordRequired = "Email and password are required"
	MsgInvalidCredentials    = "Invalid email or password"
	MsgSessionExpired        = "Your session has expired"
	MsgLoggedOut             = "You have been logged out"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	users           *service.UserService
	events          *service.EventService
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(users *service.UserService, events *service.EventService, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		users:           users,
		events:          events,
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// LoginData holds data for the login template.
type LoginData struct {
	Email string
}

// LoginForm renders the login page. Authenticated users go to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), session.KeyUserID); userID > 0 {
		if _, err := h.users.Get(r.Context(), userID); err == nil {
			http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
			return
		}
	}

	renderOrError(w, r, h.renderer, http.StatusOK, "auth/login", render.TemplateData{
		Title: "Log in",
		Data:  LoginData{},
	})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	clientIP := middleware.GetClientIP(r)

	if email == "" || password == "" {
		h.loginFailed(w, r, email, MsgEmailPasswordRequired)
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login attempt on locked account", 0, map[string]any{"email": email, "ip": clientIP})
			h.loginFailed(w, r, email, fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	user, err := h.users.Authenticate(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			slog.Error("login failed", "error", err)
		}
		h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login failed", 0, map[string]any{"email": email, "ip": clientIP})

		msg := MsgInvalidCredentials
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
				h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Account locked due to failed attempts", 0, map[string]any{"email": email, "duration": lockDuration.String()})
				msg = fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(lockDuration))
			} else if remaining := h.loginProtection.GetRemainingAttempts(email); remaining <= 3 && remaining > 0 {
				msg = fmt.Sprintf("%s. %d attempts remaining.", MsgInvalidCredentials, remaining)
			}
		}
		h.loginFailed(w, r, email, msg)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, user.ID)

	slog.Info("user logged in", "category", model.EventCategoryAuth, "user_id", user.ID)
	h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged in", user.ID, map[string]any{"ip": clientIP})

	flashSuccess(w, r, h.renderer, redirectAdmin, "Welcome back, "+user.DisplayName())
}

// loginFailed re-renders the login form with the email kept.
func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email, message string) {
	renderOrError(w, r, h.renderer, http.StatusUnauthorized, "auth/login", render.TemplateData{
		Title:     "Log in",
		Flash:     message,
		FlashType: render.FlashError,
		Data:      LoginData{Email: email},
	})
}

// Logout handles user logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), session.KeyUserID)
	if userID > 0 {
		h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged out", userID, nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "category", model.EventCategoryAuth, "user_id", userID)
	flashAndRedirect(w, r, h.renderer, redirectLogin, MsgLoggedOut, render.FlashInfo)
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
