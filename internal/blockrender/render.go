// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blockrender turns page blocks into public HTML.
//
// Rendering is pure: the input blocks are never modified. Blocks of unknown
// type produce no output.
package blockrender

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/olegiv/blockcms/internal/block"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("blocks").ParseFS(templatesFS, "templates/*.html"))

// Render returns the HTML for blocks in array order.
func Render(blocks []block.Block) (template.HTML, error) {
	var buf bytes.Buffer
	buf.WriteString(`<div class="blocks">`)
	r := &renderer{buf: &buf}
	for _, b := range blocks {
		if b.Data == nil {
			continue
		}
		if err := b.Data.Accept(r); err != nil {
			return "", fmt.Errorf("rendering block %s (%s): %w", b.ID, b.Type, err)
		}
	}
	buf.WriteString(`</div>`)
	return template.HTML(buf.String()), nil //nolint:gosec // assembled from html/template output
}

// renderer executes the fragment template of each payload into buf.
type renderer struct {
	buf *bytes.Buffer
}

func (r *renderer) exec(name string, data any) error {
	return templates.ExecuteTemplate(r.buf, name, data)
}

// heroWord is one word of a hero headline.
type heroWord struct {
	Text     string
	Emphasis bool
}

// heroWords splits a headline on spaces; every third word starting from the second is emphasised.
func heroWords(headline string) []heroWord {
	parts := strings.Split(headline, " ")
	words := make([]heroWord, len(parts))
	for i, p := range parts {
		words[i] = heroWord{Text: p, Emphasis: i%3 == 1}
	}
	return words
}

func (r *renderer) VisitHero(p block.Hero) error {
	align := p.Alignment
	switch align {
	case block.AlignLeft, block.AlignCenter, block.AlignRight:
	default:
		align = block.AlignCenter
	}
	return r.exec("hero", struct {
		block.Hero
		Align string
		Words []heroWord
	}{p, align, heroWords(p.Headline)})
}

func (r *renderer) VisitHeading(p block.Heading) error {
	if p.Level < 1 || p.Level > 4 {
		p.Level = block.HeadingLevelDefault
	}
	return r.exec("heading", p)
}

func (r *renderer) VisitText(p block.Text) error {
	// Text content is sanitised when the page is saved.
	return r.exec("text", template.HTML(p.Content)) //nolint:gosec // sanitised at entry
}

func (r *renderer) VisitImage(p block.Image) error {
	return r.exec("image", p)
}

func (r *renderer) VisitCTA(p block.CTA) error {
	return r.exec("cta", p)
}

func (r *renderer) VisitFAQ(p block.FAQ) error {
	return r.exec("faq", p)
}

func (r *renderer) VisitQuote(p block.Quote) error {
	return r.exec("quote", p)
}

func (r *renderer) VisitDivider(p block.Divider) error {
	switch p.Style {
	case block.DividerStyleSpace:
		return r.exec("divider-space", nil)
	case block.DividerStyleDots:
		return r.exec("divider-dots", nil)
	default:
		return r.exec("divider-line", nil)
	}
}

func (r *renderer) VisitList(p block.List) error {
	return r.exec("list", p)
}

func (r *renderer) VisitUnknown(block.Unknown) error {
	return nil
}
