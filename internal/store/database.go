// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides SQL persistence for users, pages and events on
// SQLite or PostgreSQL.
package store

import (
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"  // modernc.org/sqlite
	DriverSQLite3  = "sqlite3" // mattn/go-sqlite3, used by tests
	DriverPostgres = "pgx"     // jackc/pgx/v5/stdlib
)

func init() {
	// sqlx only knows the mattn driver name for question-mark binding.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DBConfig holds database configuration options.
type DBConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible pool defaults.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// sqlitePragmas are applied to every SQLite database on open.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
	"PRAGMA busy_timeout=5000",  // Wait 5s when database is locked
	"PRAGMA synchronous=NORMAL", // Good balance of safety and speed
	"PRAGMA cache_size=-64000",  // 64MB cache
	"PRAGMA foreign_keys=ON",    // Enforce foreign key constraints
	"PRAGMA temp_store=MEMORY",  // Store temp tables in memory
}

// NewDB opens a SQLite database file with the default configuration.
func NewDB(path string) (*sqlx.DB, error) {
	return Open(DriverSQLite, path, DefaultDBConfig())
}

// Open connects to a database with one of the supported drivers.
func Open(driver, dsn string, cfg DBConfig) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverSQLite3, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if IsSQLite(driver) {
		for _, pragma := range sqlitePragmas {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
			}
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// IsSQLite reports whether driver is one of the SQLite drivers.
func IsSQLite(driver string) bool {
	return driver == DriverSQLite || driver == DriverSQLite3
}

// Migrate runs all pending migrations for the database's dialect.
func Migrate(db *sqlx.DB) error {
	dialect, dir := "sqlite3", "migrations/sqlite"
	if db.DriverName() == DriverPostgres {
		dialect, dir = "postgres", "migrations/postgres"
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
