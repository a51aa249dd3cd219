// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/metrics"
	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/richtext"
	"github.com/olegiv/blockcms/internal/service"
	"github.com/olegiv/blockcms/internal/store"
)

// Page editor messages.
const (
	MsgPageSaved       = "Page saved"
	MsgPagePublished   = "Page published"
	MsgPageDeleted     = "Page deleted"
	MsgPageNotFound    = "Page not found"
	MsgSaveFailed      = "Failed to save page"
	MsgMarkdownFailed  = "Failed to convert markdown"
	MsgFixErrors       = "Please fix the errors below"
	MsgDeleteForbidden = "Only administrators can delete pages"
)

// PagesHandler handles page management routes.
type PagesHandler struct {
	pages    *service.PageService
	renderer *render.Renderer
	metrics  *metrics.Metrics
}

// NewPagesHandler creates a new PagesHandler. m may be nil.
func NewPagesHandler(pages *service.PageService, renderer *render.Renderer, m *metrics.Metrics) *PagesHandler {
	return &PagesHandler{
		pages:    pages,
		renderer: renderer,
		metrics:  m,
	}
}

// PagesListData holds data for the pages list template.
type PagesListData struct {
	Pages  []model.Page
	Status string
	Query  string
}

// PageFormInput holds the page fields of the editor form.
type PageFormInput struct {
	Title           string
	Slug            string
	Status          string
	MetaDescription string
	OGImage         string
}

// PageFormData holds data for the page editor template.
type PageFormData struct {
	IsNew     bool
	Action    string
	FormError string
	Errors    map[string]string
	Input     PageFormInput
	Blocks    []block.Block
	Expanded  string
}

// List handles GET /admin/pages.
func (h *PagesHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if !model.IsValidPageStatus(status) {
		status = ""
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))

	pages, err := h.pages.Search(r.Context(), status, query)
	if err != nil {
		logAndInternalError(w, "failed to list pages", "error", err)
		return
	}

	renderOrError(w, r, h.renderer, http.StatusOK, "admin/pages_list", render.TemplateData{
		Title: "Pages",
		Data:  PagesListData{Pages: pages, Status: status, Query: query},
	})
}

// NewForm handles GET /admin/pages/new.
func (h *PagesHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, PageFormData{
		IsNew:  true,
		Action: redirectAdminPagesNew,
		Input:  PageFormInput{Status: model.PageStatusDraft},
		Blocks: []block.Block{},
	})
}

// EditForm handles GET /admin/pages/{id}.
func (h *PagesHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminPages, MsgPageNotFound)
		return
	}

	page, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminPages, "Page", id,
		func(id int64) (model.Page, error) { return h.pages.Get(r.Context(), id) })
	if !ok {
		return
	}

	h.renderForm(w, r, http.StatusOK, PageFormData{
		Action: fmt.Sprintf(redirectAdminPagesID, page.ID),
		Input: PageFormInput{
			Title:           page.Title,
			Slug:            page.Slug,
			Status:          page.Status,
			MetaDescription: page.MetaDescription,
			OGImage:         page.OGImage,
		},
		Blocks: page.Content,
	})
}

// Create handles POST /admin/pages/new.
func (h *PagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, 0)
}

// Update handles POST /admin/pages/{id}.
func (h *PagesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminPages, MsgPageNotFound)
		return
	}
	h.submit(w, r, id)
}

// submit applies one editor action to the submitted form state. Block edits
// re-render the form; save and publish write the page.
func (h *PagesHandler) submit(w http.ResponseWriter, r *http.Request, id int64) {
	formURL := redirectAdminPagesNew
	if id != 0 {
		formURL = fmt.Sprintf(redirectAdminPagesID, id)
	}
	if !parseFormOrRedirect(w, r, h.renderer, formURL) {
		return
	}

	blocks, err := block.ParseForm(r.PostForm)
	if err != nil {
		logAndHTTPError(w, "Invalid editor state", http.StatusBadRequest, "failed to parse editor form", "error", err)
		return
	}
	action, err := block.ParseAction(r.PostFormValue("action"))
	if err != nil {
		http.Error(w, "Invalid editor action", http.StatusBadRequest)
		return
	}

	editor := block.NewEditor(blocks)
	editor.Expanded = r.PostFormValue("expanded")
	form := PageFormData{
		IsNew:  id == 0,
		Action: formURL,
		Input: PageFormInput{
			Title:           r.PostFormValue("title"),
			Slug:            r.PostFormValue("slug"),
			Status:          r.PostFormValue("status"),
			MetaDescription: r.PostFormValue("meta_description"),
			OGImage:         r.PostFormValue("og_image"),
		},
	}

	switch {
	case action.IsPersist():
		h.persist(w, r, id, action, editor, form)
		return
	case action.Kind == block.ActionMarkdown:
		if err := h.convertMarkdown(editor, action.ID, r.PostFormValue("markdown."+action.ID)); err != nil {
			slog.Warn("markdown conversion failed", "category", model.EventCategoryPage, "block_id", action.ID, "error", err)
			form.FormError = MsgMarkdownFailed
		}
	default:
		if _, err := editor.Apply(action); err != nil {
			form.FormError = err.Error()
		}
	}

	form.Blocks = editor.Blocks
	form.Expanded = editor.Expanded
	h.renderForm(w, r, http.StatusOK, form)
}

// convertMarkdown replaces the content of a text block with the HTML
// rendered from src.
func (h *PagesHandler) convertMarkdown(editor *block.Editor, id, src string) error {
	b, ok := editor.Get(id)
	if !ok || b.Type != block.TypeText {
		return nil
	}
	html, err := richtext.FromMarkdown(src)
	if err != nil {
		return err
	}
	editor.Expanded = id
	return editor.Update(id, block.Text{Content: html})
}

func (h *PagesHandler) persist(w http.ResponseWriter, r *http.Request, id int64, action block.Action, editor *block.Editor, form PageFormData) {
	editor.Renumber()
	input := service.PageInput{
		ID:              id,
		Title:           form.Input.Title,
		Slug:            form.Input.Slug,
		Status:          form.Input.Status,
		MetaDescription: form.Input.MetaDescription,
		OGImage:         form.Input.OGImage,
		Content:         editor.Blocks,
	}

	user := middleware.GetUser(r)
	save, msg := h.pages.Save, MsgPageSaved
	if action.Kind == block.ActionPublish {
		save, msg = h.pages.Publish, MsgPagePublished
	}

	page, err := save(r.Context(), user, input)
	if err == nil {
		h.countSave(action, metrics.ResultOK)
		flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminPagesID, page.ID), msg)
		return
	}

	form.Blocks = editor.Blocks
	form.Expanded = editor.Expanded

	switch {
	case service.FieldErrors(err) != nil:
		h.countSave(action, metrics.ResultValidation)
		form.Errors = service.FieldErrors(err)
		form.FormError = MsgFixErrors
		h.renderForm(w, r, http.StatusUnprocessableEntity, form)
	case errors.Is(err, store.ErrDuplicateSlug):
		h.countSave(action, metrics.ResultDuplicate)
		form.Errors = map[string]string{"slug": service.MsgSlugExists}
		h.renderForm(w, r, http.StatusUnprocessableEntity, form)
	case errors.Is(err, service.ErrNoSession):
		h.countSave(action, metrics.ResultError)
		flashError(w, r, h.renderer, redirectLogin, MsgSessionExpired)
	case errors.Is(err, service.ErrPageNotFound):
		h.countSave(action, metrics.ResultNotFound)
		flashError(w, r, h.renderer, redirectAdminPages, MsgPageNotFound)
	default:
		h.countSave(action, metrics.ResultError)
		slog.Error("failed to save page", "error", err, "page_id", id, "slug", input.Slug)
		form.FormError = MsgSaveFailed
		h.renderForm(w, r, http.StatusInternalServerError, form)
	}
}

// Delete handles POST /admin/pages/{id}/delete.
func (h *PagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminPages, MsgPageNotFound)
		return
	}

	err := h.pages.Delete(r.Context(), middleware.GetUser(r), id)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, redirectAdminPages, MsgPageDeleted)
	case errors.Is(err, service.ErrForbidden):
		flashError(w, r, h.renderer, redirectAdminPages, MsgDeleteForbidden)
	case errors.Is(err, service.ErrNoSession):
		flashError(w, r, h.renderer, redirectLogin, MsgSessionExpired)
	case isNotFound(err):
		flashError(w, r, h.renderer, redirectAdminPages, MsgPageNotFound)
	default:
		slog.Error("failed to delete page", "error", err, "page_id", id)
		flashError(w, r, h.renderer, redirectAdminPages, "Failed to delete page")
	}
}

func (h *PagesHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, form PageFormData) {
	title := "Edit page"
	if form.IsNew {
		title = "New page"
	}
	if form.Errors == nil {
		form.Errors = map[string]string{}
	}
	renderOrError(w, r, h.renderer, status, "admin/page_form", render.TemplateData{
		Title: title,
		Data:  form,
	})
}

func (h *PagesHandler) countSave(action block.Action, result string) {
	if h.metrics == nil {
		return
	}
	h.metrics.PageSavesTotal.WithLabelValues(string(action.Kind), result).Inc()
}
