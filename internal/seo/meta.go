// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds meta tags, structured data, robots.txt and sitemaps
// for the public site.
package seo

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"github.com/olegiv/blockcms/internal/model"
	"github.com/olegiv/blockcms/internal/richtext"
)

// DescriptionLength is the longest derived description.
const DescriptionLength = model.MaxMetaDescriptionLength

// Meta holds the SEO tags for a rendered page.
type Meta struct {
	Title         string // <title>
	Description   string
	Canonical     string
	OGTitle       string
	OGDescription string
	OGImage       string // absolute
	OGType        string // website, article
	OGSiteName    string
	OGURL         string
	Robots        string
	TwitterCard   string
	JSONLD        template.JS
}

// SiteConfig contains site-wide settings.
type SiteConfig struct {
	SiteName        string
	SiteURL         string
	SiteDescription string
}

// PageMeta builds the tags for a published page. The description falls
// back to the plain text of the first text block.
func PageMeta(page model.Page, site SiteConfig) Meta {
	meta := Meta{
		Title:      page.Title,
		OGTitle:    page.Title,
		OGType:     "article",
		OGSiteName: site.SiteName,
		Robots:     "index,follow",
	}
	if site.SiteName != "" && page.Title != "" && page.Title != site.SiteName {
		meta.Title = page.Title + " | " + site.SiteName
	}

	desc := strings.TrimSpace(page.MetaDescription)
	if desc == "" {
		desc = truncateText(richtext.FirstText(page.Content), DescriptionLength)
	}
	meta.Description = desc
	meta.OGDescription = desc

	meta.OGImage = makeAbsoluteURL(page.OGImage, site.SiteURL)
	meta.TwitterCard = "summary"
	if meta.OGImage != "" {
		meta.TwitterCard = "summary_large_image"
	}

	meta.Canonical = PageURL(site.SiteURL, page.Slug)
	meta.OGURL = meta.Canonical
	meta.JSONLD = buildWebPageSchema(page, site, meta)
	return meta
}

// HomeMeta builds the tags for the built-in landing page.
func HomeMeta(site SiteConfig) Meta {
	return Meta{
		Title:         site.SiteName,
		Description:   site.SiteDescription,
		OGTitle:       site.SiteName,
		OGDescription: site.SiteDescription,
		OGType:        "website",
		OGSiteName:    site.SiteName,
		Canonical:     strings.TrimSuffix(site.SiteURL, "/"),
		OGURL:         strings.TrimSuffix(site.SiteURL, "/"),
		Robots:        "index,follow",
		TwitterCard:   "summary",
	}
}

// NotFoundMeta keeps 404 pages out of search indexes.
func NotFoundMeta(site SiteConfig) Meta {
	return Meta{
		Title:      "Page not found | " + site.SiteName,
		OGSiteName: site.SiteName,
		Robots:     "noindex,nofollow",
	}
}

// webPageSchema is schema.org WebPage structured data.
type webPageSchema struct {
	Context       string      `json:"@context"`
	Type          string      `json:"@type"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	URL           string      `json:"url,omitempty"`
	Image         string      `json:"image,omitempty"`
	DatePublished string      `json:"datePublished,omitempty"`
	DateModified  string      `json:"dateModified,omitempty"`
	IsPartOf      *webSiteRef `json:"isPartOf,omitempty"`
}

type webSiteRef struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

func buildWebPageSchema(page model.Page, site SiteConfig, meta Meta) template.JS {
	schema := webPageSchema{
		Context:     "https://schema.org",
		Type:        "WebPage",
		Name:        page.Title,
		Description: meta.Description,
		URL:         meta.Canonical,
		Image:       meta.OGImage,
	}
	if page.PublishedAt.Valid {
		schema.DatePublished = page.PublishedAt.Time.Format(time.RFC3339)
	}
	if !page.UpdatedAt.IsZero() {
		schema.DateModified = page.UpdatedAt.Format(time.RFC3339)
	}
	if site.SiteName != "" {
		schema.IsPartOf = &webSiteRef{Type: "WebSite", Name: site.SiteName, URL: strings.TrimSuffix(site.SiteURL, "/")}
	}
	return marshalJSONLD(schema)
}

// marshalJSONLD returns JSON-LD script tag content. encoding/json escapes
// '<' and '>' so the result cannot close the surrounding script element.
func marshalJSONLD(v any) template.JS {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(data)
}

// truncateText truncates to maxLen runes at a word boundary.
func truncateText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	// Leave room for the ellipsis
	truncated := string(runes[:maxLen-3])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > len(truncated)/2 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimSpace(truncated) + "..."
}

// PageURL returns the public URL of slug. The home page lives at the root.
func PageURL(siteURL, slug string) string {
	root := strings.TrimSuffix(siteURL, "/")
	if slug == HomeSlug {
		return root
	}
	return root + "/" + slug
}

// makeAbsoluteURL prefixes relative URLs with the site URL.
func makeAbsoluteURL(url, siteURL string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	siteURL = strings.TrimSuffix(siteURL, "/")
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return siteURL + url
}
