// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package richtext holds the rules for the HTML stored in text blocks:
// the sanitising policy, markdown import and plain-text extraction.
package richtext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/olegiv/blockcms/internal/block"
)

// policy permits exactly the markup the editor toolbar produces.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "b", "em", "i", "h1", "h2", "h3", "ul", "ol", "li", "blockquote")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}

// Sanitize strips everything outside the toolbar's markup from html.
func Sanitize(html string) string {
	return strings.TrimSpace(policy.Sanitize(html))
}

// SanitizeBlocks returns a copy of blocks with the content of every text block sanitised.
// Other payloads are left as they are.
func SanitizeBlocks(blocks []block.Block) []block.Block {
	out := block.Clone(blocks)
	for i := range out {
		if t, ok := out[i].Data.(block.Text); ok {
			t.Content = Sanitize(t.Content)
			out[i].Data = t
		}
	}
	return out
}

// FromMarkdown converts markdown to sanitised HTML.
func FromMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return Sanitize(buf.String()), nil
}

// blockElements are followed by a space when extracting text so adjacent
// paragraphs do not run together.
const blockElements = "p, br, h1, h2, h3, li, blockquote"

// PlainText returns the whitespace-normalised text content of an HTML fragment.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// FirstText returns the plain text of the first non-empty text block.
func FirstText(blocks []block.Block) string {
	for _, b := range blocks {
		if t, ok := b.Data.(block.Text); ok {
			if s := PlainText(t.Content); s != "" {
				return s
			}
		}
	}
	return ""
}
