// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/olegiv/blockcms/internal/model"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// HomeSlug is the slug served at the site root.
const HomeSlug = "home"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the builder.
const (
	ChangeFreqDaily  ChangeFreq = "daily"
	ChangeFreqWeekly ChangeFreq = "weekly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapBuilder collects sitemap entries.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a sitemap builder for siteURL.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{siteURL: strings.TrimSuffix(siteURL, "/")}
}

// AddHomepage adds the site root.
func (b *SitemapBuilder) AddHomepage(lastMod time.Time) {
	u := SitemapURL{
		Loc:        b.siteURL + "/",
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	}
	if !lastMod.IsZero() {
		u.LastMod = lastMod.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// AddPage adds a published page. The home page is served at the root and
// is skipped here.
func (b *SitemapBuilder) AddPage(page model.Page) {
	if !page.IsPublished() || page.Slug == HomeSlug {
		return
	}
	u := SitemapURL{
		Loc:        b.siteURL + "/" + page.Slug,
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
	}
	if !page.UpdatedAt.IsZero() {
		u.LastMod = page.UpdatedAt.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), xmlBytes...), nil
}

// GenerateSitemap builds a sitemap for the root and every published page.
// The root's lastmod is taken from the home page when one is published.
func GenerateSitemap(siteURL string, pages []model.Page) ([]byte, error) {
	b := NewSitemapBuilder(siteURL)

	var homeMod time.Time
	for _, p := range pages {
		if p.Slug == HomeSlug && p.IsPublished() {
			homeMod = p.UpdatedAt
		}
	}
	b.AddHomepage(homeMod)
	for _, p := range pages {
		b.AddPage(p)
	}
	return b.Build()
}
