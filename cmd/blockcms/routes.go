// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/cache"
	"github.com/olegiv/blockcms/internal/config"
	"github.com/olegiv/blockcms/internal/export"
	"github.com/olegiv/blockcms/internal/handler"
	"github.com/olegiv/blockcms/internal/handler/api"
	"github.com/olegiv/blockcms/internal/metrics"
	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/scheduler"
	"github.com/olegiv/blockcms/internal/seo"
	"github.com/olegiv/blockcms/internal/service"
	"github.com/olegiv/blockcms/web"
)

// Request limits.
const (
	requestTimeout = 30 * time.Second
	publicRPS      = 20
	publicBurst    = 40
	apiRPS         = 10
	apiBurst       = 20
)

type routerDeps struct {
	cfg             *config.Config
	db              *sqlx.DB
	sessionManager  *scs.SessionManager
	renderer        *render.Renderer
	metrics         *metrics.Metrics
	cache           cache.Cacher
	events          *service.EventService
	pages           *service.PageService
	users           *service.UserService
	scheduler       *scheduler.Scheduler
	exporter        *export.Exporter
	loginProtection *middleware.LoginProtection
	apiLimiter      *middleware.GlobalRateLimiter
	publicLimiter   *middleware.GlobalRateLimiter
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.cfg

	authHandler := handler.NewAuthHandler(d.users, d.events, d.renderer, d.sessionManager, d.loginProtection)
	adminHandler := handler.NewAdminHandler(d.pages, d.events, d.renderer, d.scheduler, d.exporter)
	pagesHandler := handler.NewPagesHandler(d.pages, d.renderer, d.metrics)
	usersHandler := handler.NewUsersHandler(d.users, d.renderer)
	frontendHandler := handler.NewFrontendHandler(d.pages, d.renderer, d.metrics, seo.RobotsConfig{
		SiteURL:     cfg.SiteURL,
		DisallowAll: cfg.IsDevelopment(),
	})
	healthHandler := handler.NewHealthHandler(d.db, d.sessionManager, d.cache)
	apiHandler := api.NewHandler(d.pages)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.Metrics(d.metrics))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.StripTrailingSlash)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	securityConfig.ExcludePaths = []string{"/api/"}
	r.Use(middleware.SecurityHeaders(securityConfig))
	slog.Info("security headers middleware initialized", "hsts", !cfg.IsDevelopment())

	// Health and metrics stay outside sessions and rate limits.
	r.Get(handler.RouteHealth, healthHandler.Health)
	r.Get(handler.RouteHealth+"/live", healthHandler.Liveness)
	r.Get(handler.RouteHealth+"/ready", healthHandler.Readiness)
	r.Handle("/metrics", d.metrics.Handler())

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))

	// JSON API: read-only, CORS enabled, no sessions
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins(),
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(d.apiLimiter.Middleware())
		r.Get(handler.RouteRoot, apiHandler.Status)
		r.Get(handler.RoutePages, apiHandler.ListPages)
		r.Get(handler.RoutePages+handler.RouteParamSlug, apiHandler.GetPageBySlug)
	})

	// Everything below uses sessions and CSRF protection.
	r.Group(func(r chi.Router) {
		r.Use(d.sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), siteHost(cfg.SiteURL))))

		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(d.loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.Auth(d.sessionManager))
			r.Use(middleware.LoadUser(d.sessionManager, d.users))
			r.Use(middleware.RequireEditor(d.events))

			r.Get(handler.RouteRoot, adminHandler.Dashboard)

			r.Get(handler.RoutePages, pagesHandler.List)
			r.Get(handler.RoutePages+handler.RouteSuffixNew, pagesHandler.NewForm)
			r.Post(handler.RoutePages+handler.RouteSuffixNew, pagesHandler.Create)
			r.Get(handler.RoutePagesID, pagesHandler.EditForm)
			r.Post(handler.RoutePagesID, pagesHandler.Update)

			r.Get(handler.RouteSettings, usersHandler.Settings)
			r.Post(handler.RouteSettings, usersHandler.UpdateSettings)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(d.events))

				r.Post(handler.RoutePagesID+handler.RouteSuffixDelete, pagesHandler.Delete)
				r.Get(handler.RouteUsers, usersHandler.List)
				r.Post(handler.RouteUsersID+handler.RouteSuffixRole, usersHandler.ChangeRole)
				r.Get(handler.RouteJobs, adminHandler.Jobs)
				r.Post(handler.RouteJobsName+handler.RouteSuffixRun, adminHandler.RunJob)
				r.Get(handler.RouteExport, adminHandler.Export)
			})
		})

		// Public site
		r.Group(func(r chi.Router) {
			r.Use(d.publicLimiter.HTMLMiddleware())
			r.Get(handler.RouteRoot, frontendHandler.Home)
			r.Get(handler.RouteSitemap, frontendHandler.Sitemap)
			r.Get(handler.RouteRobots, frontendHandler.Robots)
			r.Get(handler.RouteParamSlug, frontendHandler.Page)
		})

		r.NotFound(frontendHandler.NotFound)
	})

	return r
}

// siteHost returns the host[:port] of the public site URL.
func siteHost(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	return u.Host
}
