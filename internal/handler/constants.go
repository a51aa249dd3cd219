// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"
	// RouteSuffixRole is the suffix for role change routes.
	RouteSuffixRole = "/role"
	// RouteSuffixRun is the suffix for manual job runs.
	RouteSuffixRun = "/run"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"
	// RouteParamName is the job name parameter pattern.
	RouteParamName = "/{name}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
	// RouteSitemap is the sitemap route.
	RouteSitemap = "/sitemap.xml"
	// RouteRobots is the robots.txt route.
	RouteRobots = "/robots.txt"

	// RouteAdmin is the admin root.
	RouteAdmin = "/admin"
	// RoutePages is the pages admin route.
	RoutePages = "/pages"
	// RouteUsers is the users admin route.
	RouteUsers = "/users"
	// RouteSettings is the settings admin route.
	RouteSettings = "/settings"
	// RouteJobs is the scheduled jobs admin route.
	RouteJobs = "/jobs"
	// RouteExport is the export download route.
	RouteExport = "/export"

	// RoutePagesID is the pages ID route pattern.
	RoutePagesID = RoutePages + RouteParamID
	// RouteUsersID is the users ID route pattern.
	RouteUsersID = RouteUsers + RouteParamID
	// RouteJobsName is the jobs name route pattern.
	RouteJobsName = RouteJobs + RouteParamName
)

const (
	redirectAdmin         = RouteAdmin
	redirectAdminPages    = redirectAdmin + RoutePages
	redirectAdminPagesNew = redirectAdminPages + RouteSuffixNew
	redirectAdminUsers    = redirectAdmin + RouteUsers
	redirectAdminSettings = redirectAdmin + RouteSettings
	redirectLogin         = RouteLogin

	redirectAdminPagesID = redirectAdminPages + "/%d"
)

// Utility constants used by main.go.
const (
	// HeaderContentType is the Content-Type HTTP header name.
	HeaderContentType = "Content-Type"
)
