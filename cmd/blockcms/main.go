// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/olegiv/blockcms/internal/cache"
	"github.com/olegiv/blockcms/internal/config"
	"github.com/olegiv/blockcms/internal/export"
	"github.com/olegiv/blockcms/internal/logging"
	"github.com/olegiv/blockcms/internal/metrics"
	"github.com/olegiv/blockcms/internal/middleware"
	"github.com/olegiv/blockcms/internal/render"
	"github.com/olegiv/blockcms/internal/scheduler"
	"github.com/olegiv/blockcms/internal/seo"
	"github.com/olegiv/blockcms/internal/service"
	"github.com/olegiv/blockcms/internal/session"
	"github.com/olegiv/blockcms/internal/store"
	"github.com/olegiv/blockcms/internal/version"
	"github.com/olegiv/blockcms/web"
)

// shutdownTimeout bounds graceful shutdown of the server and the scheduler.
const shutdownTimeout = 30 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "blockcms - block-based content management\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOCKCMS_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOCKCMS_DB_DRIVER       sqlite|postgres (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOCKCMS_DB_PATH         SQLite database path (default: ./data/blockcms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOCKCMS_DATABASE_URL    PostgreSQL DSN when DB_DRIVER=postgres\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOCKCMS_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOCKCMS_ENV             development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOCKCMS_REDIS_URL       Redis URL for the page cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOCKCMS_EXPORT_BUCKET   S3 bucket for scheduled exports (optional)\n")
	}
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("blockcms %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.Setup(os.Stdout, logLevel, cfg.LogFormat)
	slog.Info("starting blockcms", "version", version.Get().String())

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations", "driver", db.DriverName())
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger := slog.New(logging.NewEventLogHandler(logging.NewHandler(os.Stdout, logLevel, cfg.LogFormat), db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db, store.SeedConfig{
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		}); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	byteCache := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxSize:    cfg.CacheMaxSize,
	})
	defer func() { _ = byteCache.Close() }()

	m := metrics.New()
	if sp, ok := byteCache.(cache.StatsProvider); ok {
		m.RegisterCacheStats(sp)
	}

	events := service.NewEventService(db)
	pages := service.NewPageService(db, cache.NewPageCache(byteCache, cfg.CacheTTLDuration()), events)
	users := service.NewUserService(db, events)

	if n, err := pages.WarmCache(ctx); err != nil {
		slog.Warn("failed to warm page cache", "category", "cache", "error", err)
	} else {
		slog.Info("page cache warmed", "pages", n)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	site := seo.SiteConfig{SiteName: cfg.SiteName, SiteURL: cfg.SiteURL}
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sessionManager,
		Site:           site,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	exporter := export.NewExporter(store.New(db), logger, export.Site{Name: cfg.SiteName, URL: cfg.SiteURL})

	sched, err := newScheduler(ctx, cfg, logger, m, pages, exporter)
	if err != nil {
		return err
	}
	sched.Start()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()
	apiLimiter := middleware.NewGlobalRateLimiter("api", apiRPS, apiBurst)
	defer apiLimiter.Stop()
	publicLimiter := middleware.NewGlobalRateLimiter("public", publicRPS, publicBurst)
	defer publicLimiter.Stop()

	router := newRouter(routerDeps{
		cfg:             cfg,
		db:              db,
		sessionManager:  sessionManager,
		renderer:        renderer,
		metrics:         m,
		cache:           byteCache,
		events:          events,
		pages:           pages,
		users:           users,
		scheduler:       sched,
		exporter:        exporter,
		loginProtection: loginProtection,
		apiLimiter:      apiLimiter,
		publicLimiter:   publicLimiter,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sched.Stop(shutdownCtx)

	slog.Info("server stopped")
	return nil
}

// openDatabase connects to the configured driver, creating the SQLite data
// directory when needed.
func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.UsePostgres() {
		slog.Info("initializing database", "driver", "postgres")
		db, err := store.Open(store.DriverPostgres, cfg.DatabaseURL, store.DefaultDBConfig())
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		return db, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return db, nil
}

// newScheduler registers the cache warm job and, when a bucket is
// configured, the S3 export job.
func newScheduler(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, pages *service.PageService, exporter *export.Exporter) (*scheduler.Scheduler, error) {
	sched := scheduler.New(logger, m)

	if err := sched.Add(scheduler.JobCacheWarm, "Load published pages into the cache", cfg.WarmSchedule,
		scheduler.CacheWarmJob(pages, m)); err != nil {
		return nil, fmt.Errorf("registering %s job: %w", scheduler.JobCacheWarm, err)
	}

	if !cfg.ExportEnabled() {
		return sched, nil
	}

	uploader, err := export.NewS3Uploader(ctx, export.S3Config{
		Bucket:   cfg.ExportBucket,
		Region:   cfg.AWSRegion,
		Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring export uploader: %w", err)
	}
	job := export.NewJob(exporter, uploader, cfg.ExportPrefix, logger)
	if err := sched.Add(scheduler.JobExport, "Upload a JSON export to "+cfg.ExportBucket, cfg.ExportSchedule,
		scheduler.ExportJob(job, m)); err != nil {
		return nil, fmt.Errorf("registering %s job: %w", scheduler.JobExport, err)
	}
	slog.Info("export job enabled", "bucket", cfg.ExportBucket, "schedule", cfg.ExportSchedule)
	return sched, nil
}
