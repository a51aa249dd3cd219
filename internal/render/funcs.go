// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/richtext"
	"github.com/olegiv/blockcms/internal/seo"
	"github.com/olegiv/blockcms/internal/util"
)

// TemplateFuncs returns the functions available to every template.
func (r *Renderer) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// Formatting
		"formatDate":     util.FormatDate,
		"formatDateTime": util.FormatDateTime,
		"formatNullDate": util.FormatNullDate,
		"formatNullTime": formatNullTime,
		"truncate":       util.Truncate,
		"statusColor":    util.StatusColor,
		"runeCount":      utf8.RuneCountInString,
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
		"seq":            seq,
		"dict":           dict,
		"now":            time.Now,

		// Roles
		"isAdmin":  isAdmin,
		"isEditor": isEditor,
		"userRole": userRole,
		"roles":    func() []string { return model.Roles },

		// Pages
		"pagesListURL":  pagesListURL,
		"pageStatuses":  func() []string { return model.PageStatuses },
		"maxMetaLength": func() int { return model.MaxMetaDescriptionLength },
		"searchPreview": r.searchPreview,
		"pageURL":       func(slug string) string { return seo.PageURL(r.site.SiteURL, slug) },

		// Block editor
		"blockTypes":    block.Types,
		"blockField":    block.BlockField,
		"dataField":     block.DataField,
		"itemField":     block.ItemField,
		"editorAction":  editorAction,
		"options":       options,
		"levelOptions":  levelOptions,
		"unknownRaw":    unknownRaw,
		"dimension":     dimension,
		"trustedHTML":   trustedHTML,
		"toolbar":       richtext.Toolbar,
		"fieldError":    fieldError,
		"blockHasError": blockHasError,
		"alignments":    func() []string { return block.Alignments },
		"quoteStyles":   func() []string { return block.QuoteStyles },
		"dividerStyles": func() []string { return block.DividerStyles },
		"listStyles":    func() []string { return block.ListStyles },
	}
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return "Never"
	}
	return util.FormatDateTime(t.Time)
}

func seq(start, end int) []int {
	var result []int
	for i := start; i <= end; i++ {
		result = append(result, i)
	}
	return result
}

// dict builds a map from alternating keys and values, for passing several
// values into a partial.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict requires an even number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

func userRole(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Role
}

func isAdmin(u *model.User) bool {
	return userRole(u) == model.RoleAdmin
}

// isEditor reports editor access; admins have it too.
func isEditor(u *model.User) bool {
	role := userRole(u)
	return role == model.RoleEditor || role == model.RoleAdmin
}

// pagesListURL returns the admin pages list URL for a status filter and
// an optional search term.
func pagesListURL(status string, query ...string) string {
	v := url.Values{}
	if status != "" {
		v.Set("status", status)
	}
	if len(query) > 0 && strings.TrimSpace(query[0]) != "" {
		v.Set("q", strings.TrimSpace(query[0]))
	}
	if len(v) == 0 {
		return "/admin/pages"
	}
	return "/admin/pages?" + v.Encode()
}

// searchPreview returns the title, URL and description a search engine
// would show for the page being edited.
func (r *Renderer) searchPreview(title, slug, metaDescription string, blocks []block.Block) seo.Meta {
	page := model.Page{Title: title, Slug: slug, MetaDescription: metaDescription, Content: blocks}
	return seo.PageMeta(page, r.site)
}

// editorAction formats the value of an editor submit button, e.g.
// editorAction "move" 2 "up" is "move:2:up".
func editorAction(kind string, args ...any) string {
	parts := []string{kind}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// options returns the choices for a select, with current prepended when it
// is not one of them so the stored value survives a form round-trip.
func options(choices []string, current string) []string {
	if slices.Contains(choices, current) {
		return choices
	}
	return append([]string{current}, choices...)
}

// levelOptions is options for heading levels.
func levelOptions(current int) []int {
	if slices.Contains(block.HeadingLevels, current) {
		return block.HeadingLevels
	}
	return append([]int{current}, block.HeadingLevels...)
}

// unknownRaw returns the preserved JSON of an unknown block.
func unknownRaw(b block.Block) string {
	if u, ok := b.Data.(block.Unknown); ok {
		return string(u.Raw)
	}
	return ""
}

// dimension renders an image dimension, leaving zero empty.
func dimension(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}

// trustedHTML marks text block content as safe. Content is sanitised when
// the editor form is read, before it is stored or rendered.
func trustedHTML(s string) template.HTML {
	return template.HTML(richtext.Sanitize(s))
}

func fieldError(errs map[string]string, field string) string {
	if errs == nil {
		return ""
	}
	return errs[field]
}

// blockHasError reports whether any error is keyed to a field of block i.
func blockHasError(errs map[string]string, i int) bool {
	prefix := block.BlockField(i, "")
	for key := range errs {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
