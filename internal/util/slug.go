// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and validation with Unicode normalization support,
// date formatting and status presentation helpers.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugPattern is the canonical slug format: lowercase alphanumeric words joined by single hyphens.
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	// nonSlugRun matches any run of characters that cannot appear inside a slug word.
	nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)
	// slugInputFilter matches characters the slug input field drops while typing.
	slugInputFilter = regexp.MustCompile(`[^a-z0-9-]`)
)

// SlugPattern returns the regular expression source of a valid slug.
// Used for the HTML pattern attribute of slug inputs.
func SlugPattern() string {
	return slugPattern.String()
}

// Slugify converts a string to a URL-friendly slug.
// Accents are stripped, other scripts are transliterated to ASCII, and every
// run of characters outside [a-z0-9] becomes a single hyphen.
// The result is either empty or a valid slug, and Slugify is idempotent.
func Slugify(s string) string {
	// Decompose and drop combining marks so "é" becomes "e" before transliteration
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	result = unidecode.Unidecode(result)
	result = strings.ToLower(result)
	result = nonSlugRun.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// SanitizeSlugInput mirrors the live filter of the slug field: it lowercases the
// value and removes everything except letters, digits and hyphens.
// The result is not necessarily a valid slug (it may contain "--" or edge hyphens).
func SanitizeSlugInput(s string) string {
	return slugInputFilter.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}
