// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olegiv/blockcms/internal/block"
	"github.com/olegiv/blockcms/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a migrated SQLite database in a temporary directory.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return openTestDB(t, DriverSQLite)
}

func openTestDB(t *testing.T, driver string) *sqlx.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "blockcms-test.db")
	db, err := Open(driver, dbPath, DefaultDBConfig())
	if err != nil {
		t.Fatalf("Open(%s): %v", driver, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, q *Queries, email, role string) model.User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		FullName:     "Test " + role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func newPageParams(slug string, userID int64) CreatePageParams {
	return CreatePageParams{
		Slug:      slug,
		Title:     "Page " + slug,
		Status:    model.PageStatusDraft,
		Content:   []block.Block{},
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "x", DefaultDBConfig()); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestCreateAndGetPage(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "editor@example.com", model.RoleEditor)

	content := []block.Block{
		{ID: "h1", Type: block.TypeHeading, Order: 0, Data: block.Heading{Text: "Our Story", Level: 2}},
		{ID: "f1", Type: block.TypeFAQ, Order: 1, Data: block.FAQ{Items: []block.FAQItem{{Question: "Q1", Answer: "A1"}}}},
		{ID: "x1", Type: "carousel", Order: 2, Data: block.Unknown{Raw: []byte(`{"id":"x1","type":"carousel","order":2,"data":{}}`)}},
	}
	params := newPageParams("about-us", user.ID)
	params.Content = content
	params.MetaDescription = "About the company"

	page, err := q.CreatePage(ctx, params)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if page.ID == 0 {
		t.Fatal("page.ID should not be 0")
	}
	if page.CreatedByName != "Test editor" {
		t.Errorf("CreatedByName = %q, want %q", page.CreatedByName, "Test editor")
	}
	if page.MetaDescription != "About the company" {
		t.Errorf("MetaDescription = %q", page.MetaDescription)
	}
	if page.PublishedAt.Valid {
		t.Error("draft should have no published_at")
	}

	got, err := q.GetPageBySlug(ctx, "about-us")
	if err != nil {
		t.Fatalf("GetPageBySlug: %v", err)
	}
	if len(got.Content) != 3 {
		t.Fatalf("content length = %d, want 3", len(got.Content))
	}
	if faq, ok := got.Content[1].Data.(block.FAQ); !ok || faq.Items[0].Question != "Q1" {
		t.Errorf("faq block = %+v", got.Content[1].Data)
	}
	if !got.Content[2].IsUnknown() {
		t.Error("unknown block should survive the store")
	}
}

func TestGetPublishedPageBySlug(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "editor@example.com", model.RoleEditor)

	page, err := q.CreatePage(ctx, newPageParams("about-us", user.ID))
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	if _, err := q.GetPublishedPageBySlug(ctx, "about-us"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("draft lookup error = %v, want sql.ErrNoRows", err)
	}

	now := time.Now().UTC()
	_, err = q.UpdatePage(ctx, UpdatePageParams{
		ID:          page.ID,
		Slug:        page.Slug,
		Title:       page.Title,
		Status:      model.PageStatusPublished,
		Content:     page.Content,
		UpdatedBy:   user.ID,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}

	got, err := q.GetPublishedPageBySlug(ctx, "about-us")
	if err != nil {
		t.Fatalf("published lookup: %v", err)
	}
	if !got.PublishedAt.Valid {
		t.Error("published_at should be set")
	}
}

func TestCreatePageDuplicateSlug(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverSQLite3} {
		t.Run(driver, func(t *testing.T) {
			db := openTestDB(t, driver)
			ctx := context.Background()
			q := New(db)
			user := createTestUser(t, q, "editor@example.com", model.RoleEditor)

			if _, err := q.CreatePage(ctx, newPageParams("pricing", user.ID)); err != nil {
				t.Fatalf("first CreatePage: %v", err)
			}
			_, err := q.CreatePage(ctx, newPageParams("pricing", user.ID))
			if !errors.Is(err, ErrDuplicateSlug) {
				t.Fatalf("second CreatePage error = %v, want ErrDuplicateSlug", err)
			}

			var n int
			if err := db.Get(&n, `SELECT COUNT(*) FROM pages WHERE slug = 'pricing'`); err != nil {
				t.Fatalf("count: %v", err)
			}
			if n != 1 {
				t.Errorf("rows with slug pricing = %d, want 1", n)
			}
		})
	}
}

func TestUpdatePageDuplicateSlug(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "editor@example.com", model.RoleEditor)

	if _, err := q.CreatePage(ctx, newPageParams("pricing", user.ID)); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	other, err := q.CreatePage(ctx, newPageParams("contact", user.ID))
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	_, err = q.UpdatePage(ctx, UpdatePageParams{
		ID: other.ID, Slug: "pricing", Title: other.Title, Status: other.Status,
		UpdatedBy: user.ID, UpdatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Fatalf("UpdatePage error = %v, want ErrDuplicateSlug", err)
	}

	exists, err := q.SlugExists(ctx, "pricing", other.ID)
	if err != nil || !exists {
		t.Errorf("SlugExists(pricing) = %v, %v", exists, err)
	}
	exists, _ = q.SlugExists(ctx, "contact", other.ID)
	if exists {
		t.Error("SlugExists should exclude the page itself")
	}
}

func TestUpdateMissingPage(t *testing.T) {
	db := testDB(t)
	q := New(db)
	_, err := q.UpdatePage(context.Background(), UpdatePageParams{ID: 999, Slug: "x", Title: "x", Status: model.PageStatusDraft, UpdatedAt: time.Now()})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("error = %v, want sql.ErrNoRows", err)
	}
}

func TestListPagesAndStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "admin@example.com", model.RoleAdmin)

	base := time.Now().UTC().Add(-time.Hour)
	for i, slug := range []string{"one", "two", "three", "four", "five", "six"} {
		params := newPageParams(slug, user.ID)
		params.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if i%2 == 0 {
			params.Status = model.PageStatusPublished
			params.PublishedAt = sql.NullTime{Time: params.CreatedAt, Valid: true}
		}
		if _, err := q.CreatePage(ctx, params); err != nil {
			t.Fatalf("CreatePage(%s): %v", slug, err)
		}
	}

	all, err := q.ListPages(ctx, "")
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(all) != 6 || all[0].Slug != "six" {
		t.Errorf("ListPages = %d pages, first %q; want 6, six", len(all), all[0].Slug)
	}

	published, err := q.ListPages(ctx, model.PageStatusPublished)
	if err != nil {
		t.Fatalf("ListPages(published): %v", err)
	}
	if len(published) != 3 {
		t.Errorf("published pages = %d, want 3", len(published))
	}

	recent, err := q.ListRecentPages(ctx, 5)
	if err != nil {
		t.Fatalf("ListRecentPages: %v", err)
	}
	if len(recent) != 5 {
		t.Errorf("recent pages = %d, want 5", len(recent))
	}

	stats, err := q.GetPageStats(ctx)
	if err != nil {
		t.Fatalf("GetPageStats: %v", err)
	}
	if stats != (model.PageStats{Total: 6, Published: 3, Draft: 3}) {
		t.Errorf("stats = %+v", stats)
	}

	pub, err := q.ListPublishedPages(ctx)
	if err != nil {
		t.Fatalf("ListPublishedPages: %v", err)
	}
	if len(pub) != 3 || pub[0].Slug != "five" {
		t.Errorf("ListPublishedPages = %d, first %q; want 3, five", len(pub), pub[0].Slug)
	}
}

func TestDeletePage(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "admin@example.com", model.RoleAdmin)

	page, err := q.CreatePage(ctx, newPageParams("gone", user.ID))
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if err := q.DeletePage(ctx, page.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if _, err := q.GetPageByID(ctx, page.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetPageByID after delete error = %v", err)
	}
	if err := q.DeletePage(ctx, page.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second DeletePage error = %v, want sql.ErrNoRows", err)
	}
}

func TestUsers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	admin := createTestUser(t, q, "admin@example.com", model.RoleAdmin)
	editor := createTestUser(t, q, "editor@example.com", model.RoleEditor)

	if _, err := q.CreateUser(ctx, CreateUserParams{Email: "admin@example.com", PasswordHash: "x", Role: model.RoleEditor, CreatedAt: time.Now()}); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate email error = %v", err)
	}

	byEmail, err := q.GetUserByEmail(ctx, "editor@example.com")
	if err != nil || byEmail.ID != editor.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", byEmail, err)
	}

	now := time.Now().UTC()
	if err := q.UpdateUserRole(ctx, editor.ID, model.RoleAdmin, now); err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	if err := q.UpdateUserFullName(ctx, admin.ID, "Ada Admin", now); err != nil {
		t.Fatalf("UpdateUserFullName: %v", err)
	}
	if err := q.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	if err := q.UpdateUserRole(ctx, 999, model.RoleAdmin, now); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("UpdateUserRole(missing) = %v", err)
	}

	users, err := q.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	if users[0].FullName != "Ada Admin" || !users[0].LastLoginAt.Valid {
		t.Errorf("admin = %+v", users[0])
	}
	if users[1].Role != model.RoleAdmin {
		t.Errorf("editor role = %q, want admin", users[1].Role)
	}

	n, err := q.CountUsers(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountUsers = %d, %v", n, err)
	}
}

func TestEvents(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	base := time.Now().UTC()
	for i, msg := range []string{"first", "second", "third"} {
		err := q.CreateEvent(ctx, CreateEventParams{
			Level:     model.EventLevelWarning,
			Category:  model.EventCategorySystem,
			Message:   msg,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	events, err := q.ListRecentEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 2 || events[0].Message != "third" {
		t.Errorf("events = %+v", events)
	}
	if events[0].Metadata != "{}" {
		t.Errorf("Metadata = %q, want {}", events[0].Metadata)
	}
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db, SeedConfig{}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := Seed(ctx, db, SeedConfig{}); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	q := New(db)
	user, err := q.GetUserByEmail(ctx, DefaultAdminEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", user.Role)
	}
	n, _ := q.CountUsers(ctx)
	if n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestSeedCustomAdmin(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db, SeedConfig{AdminEmail: "owner@example.com", AdminPassword: "a long secret password"}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if _, err := New(db).GetUserByEmail(ctx, "owner@example.com"); err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
}
