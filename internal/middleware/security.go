// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// Directive is one Content-Security-Policy or Permissions-Policy entry.
type Directive struct {
	Name  string
	Value string
}

// SecurityHeadersConfig holds configuration for security headers.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS.
	IsDevelopment bool

	CSP         []Directive
	Permissions []Directive

	// HSTSMaxAge is in seconds; 0 disables Strict-Transport-Security.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool

	FrameOptions   string
	ReferrerPolicy string

	// ExcludePaths are path prefixes served without these headers.
	ExcludePaths []string
}

// DefaultSecurityHeadersConfig returns the policy for the public site and
// the admin. Scripts and styles are self-hosted; block images may point at
// any https origin.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	imgSrc := "'self' data: https:"
	if isDev {
		imgSrc = "'self' data: blob: http: https:"
	}

	csp := []Directive{
		{"default-src", "'self'"},
		{"script-src", "'self'"},
		{"style-src", "'self' 'unsafe-inline'"},
		{"img-src", imgSrc},
		{"font-src", "'self' data:"},
		{"connect-src", "'self'"},
		{"frame-src", "'none'"},
		{"object-src", "'none'"},
		{"base-uri", "'self'"},
		{"form-action", "'self'"},
		{"frame-ancestors", "'self'"},
	}
	if !isDev {
		csp = append(csp, Directive{Name: "upgrade-insecure-requests"})
	}

	var perms []Directive
	for _, feature := range []string{
		"accelerometer", "browsing-topics", "camera", "geolocation", "gyroscope",
		"interest-cohort", "magnetometer", "microphone", "payment", "usb",
	} {
		perms = append(perms, Directive{feature, "()"})
	}

	return SecurityHeadersConfig{
		IsDevelopment:         isDev,
		CSP:                   csp,
		Permissions:           perms,
		HSTSMaxAge:            365 * 24 * 60 * 60,
		HSTSIncludeSubDomains: !isDev,
		FrameOptions:          "SAMEORIGIN",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

func joinDirectives(ds []Directive, kv, sep string) string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		if d.Value == "" {
			parts = append(parts, d.Name)
			continue
		}
		parts = append(parts, d.Name+kv+d.Value)
	}
	return strings.Join(parts, sep)
}

// headers renders the static header set once.
func (c SecurityHeadersConfig) headers() http.Header {
	h := http.Header{}
	h.Set("X-Content-Type-Options", "nosniff")
	if len(c.CSP) > 0 {
		h.Set("Content-Security-Policy", joinDirectives(c.CSP, " ", "; "))
	}
	if len(c.Permissions) > 0 {
		h.Set("Permissions-Policy", joinDirectives(c.Permissions, "=", ", "))
	}
	if !c.IsDevelopment && c.HSTSMaxAge > 0 {
		hsts := "max-age=" + strconv.Itoa(c.HSTSMaxAge)
		if c.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		h.Set("Strict-Transport-Security", hsts)
	}
	if c.FrameOptions != "" {
		h.Set("X-Frame-Options", c.FrameOptions)
	}
	if c.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", c.ReferrerPolicy)
	}
	return h
}

// SecurityHeaders adds the configured security headers to every response
// whose path is not under one of cfg.ExcludePaths.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	static := cfg.headers()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range cfg.ExcludePaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			for k, v := range static {
				w.Header()[k] = v
			}
			next.ServeHTTP(w, r)
		})
	}
}
