// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements HTTP handlers for the admin interface, the login
// flow and the public site.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blockcms/internal/export"
	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/scheduler"
	"github.com/olegiv/blockcms/internal/service"
)

// RecentEventsLimit is the number of audit events shown on the dashboard.
const RecentEventsLimit = 10

// JobRunner lists and runs the scheduled jobs.
type JobRunner interface {
	List() []scheduler.JobInfo
	TriggerNow(name string) error
}

// DashboardData holds all dashboard data including stats and recent items.
type DashboardData struct {
	Stats  model.PageStats
	Recent []model.Page
	Events []model.Event
	Jobs   []scheduler.JobInfo
}

// AdminHandler handles the dashboard and the admin tools around it.
type AdminHandler struct {
	pages    *service.PageService
	events   *service.EventService
	renderer *render.Renderer
	jobs     JobRunner
	exporter *export.Exporter
}

// NewAdminHandler creates a new AdminHandler. jobs and exporter may be nil.
func NewAdminHandler(pages *service.PageService, events *service.EventService, renderer *render.Renderer, jobs JobRunner, exporter *export.Exporter) *AdminHandler {
	return &AdminHandler{
		pages:    pages,
		events:   events,
		renderer: renderer,
		jobs:     jobs,
		exporter: exporter,
	}
}

// Dashboard renders the admin dashboard with stats and recent activity.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	ctx := r.Context()

	var data DashboardData

	stats, err := h.pages.Stats(ctx)
	if err != nil {
		logAndInternalError(w, "failed to load page stats", "error", err)
		return
	}
	data.Stats = stats

	if data.Recent, err = h.pages.Recent(ctx); err != nil {
		slog.Error("failed to load recent pages", "error", err)
	}

	if user != nil && user.IsAdmin() {
		if data.Events, err = h.events.Recent(ctx, RecentEventsLimit); err != nil {
			slog.Error("failed to load recent events", "error", err)
		}
		if h.jobs != nil {
			data.Jobs = h.jobs.List()
		}
	}

	renderOrError(w, r, h.renderer, http.StatusOK, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		Data:  data,
	})
}

// Jobs handles GET /admin/jobs and returns the scheduled jobs as JSON.
func (h *AdminHandler) Jobs(w http.ResponseWriter, _ *http.Request) {
	if h.jobs == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Scheduler is not running")
		return
	}
	writeJSONSuccess(w, map[string]any{"jobs": h.jobs.List()})
}

// RunJob handles POST /admin/jobs/{name}/run.
func (h *AdminHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		flashError(w, r, h.renderer, redirectAdmin, "Scheduler is not running")
		return
	}

	if err := h.jobs.TriggerNow(name); err != nil {
		slog.Warn("manual job run failed", "job", name, "error", err)
		flashError(w, r, h.renderer, redirectAdmin, fmt.Sprintf("Job %s failed: %v", name, err))
		return
	}

	user := middleware.GetUser(r)
	if user != nil {
		_ = h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategorySystem, "Job run manually", user.ID, map[string]any{"job": name})
	}
	flashSuccess(w, r, h.renderer, redirectAdmin, fmt.Sprintf("Job %s completed", name))
}

// Export handles GET /admin/export and streams a JSON snapshot of the pages.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		http.NotFound(w, r)
		return
	}

	status := r.URL.Query().Get("status")
	if !model.IsValidPageStatus(status) {
		status = ""
	}
	opts := export.Options{
		PageStatus:   status,
		IncludeUsers: r.URL.Query().Get("users") == "1",
	}

	w.Header().Set(HeaderContentType, contentTypeJSON)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(time.Now())))
	if err := h.exporter.ExportToWriter(r.Context(), opts, w); err != nil {
		logAndInternalError(w, "export failed", "category", model.EventCategoryExport, "error", err)
		return
	}

	if user := middleware.GetUser(r); user != nil {
		_ = h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryExport, "Content exported", user.ID, map[string]any{"status": status})
	}
}
