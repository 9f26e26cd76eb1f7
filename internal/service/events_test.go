// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/olegiv/otms-go/internal/model"
)

func setupEventTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Create events table (matches schema in migrations)
	_, err = db.Exec(`
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			ip_address TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		t.Fatalf("failed to create events table: %v", err)
	}

	return db
}

func TestNewEventService(t *testing.T) {
	db := setupEventTestDB(t)
	defer func() { _ = db.Close() }()

	svc := NewEventService(db)
	if svc == nil {
		t.Error("NewEventService returned nil")
	}
}

func TestLogEvent(t *testing.T) {
	db := setupEventTestDB(t)
	defer func() { _ = db.Close() }()

	svc := NewEventService(db)
	ctx := context.Background()

	userID := int64(123)
	err := svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryComponent, "Test message", &userID, "192.168.1.100", map[string]any{
		"key": "value",
	})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	// Verify event was created
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	if count != 1 {
		t.Errorf("event count = %d, want 1", count)
	}

	// Verify event details
	var level, category, message, metadata, ipAddress string
	var savedUserID sql.NullInt64
	err = db.QueryRow("SELECT level, category, message, user_id, metadata, ip_address FROM events").Scan(&level, &category, &message, &savedUserID, &metadata, &ipAddress)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if level != "info" {
		t.Errorf("level = %q, want %q", level, "info")
	}
	if category != "component" {
		t.Errorf("category = %q, want %q", category, "component")
	}
	if message != "Test message" {
		t.Errorf("message = %q, want %q", message, "Test message")
	}
	if !savedUserID.Valid || savedUserID.Int64 != 123 {
		t.Errorf("user_id = %v, want 123", savedUserID)
	}
	if metadata != `{"key":"value"}` {
		t.Errorf("metadata = %q, want %q", metadata, `{"key":"value"}`)
	}
	if ipAddress != "192.168.1.100" {
		t.Errorf("ip_address = %q, want %q", ipAddress, "192.168.1.100")
	}
}

func TestLogEvent_NilUserID(t *testing.T) {
	db := setupEventTestDB(t)
	defer func() { _ = db.Close() }()

	svc := NewEventService(db)
	ctx := context.Background()

	err := svc.LogEvent(ctx, model.EventLevelWarning, model.EventCategorySystem, "No user", nil, "", nil)
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	// Verify user_id is NULL
	var savedUserID sql.NullInt64
	err = db.QueryRow("SELECT user_id FROM events").Scan(&savedUserID)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if savedUserID.Valid {
		t.Errorf("user_id = %v, want NULL", savedUserID)
	}
}

func TestLogEvent_NilMetadata(t *testing.T) {
	db := setupEventTestDB(t)
	defer func() { _ = db.Close() }()

	svc := NewEventService(db)
	ctx := context.Background()

	err := svc.LogEvent(ctx, model.EventLevelError, model.EventCategoryRepo, "Clone failed", nil, "", nil)
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var metadata string
	err = db.QueryRow("SELECT metadata FROM events").Scan(&metadata)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if metadata != "{}" {
		t.Errorf("metadata = %q, want %q", metadata, "{}")
	}
}

func TestCategoryHelpers(t *testing.T) {
	db := setupEventTestDB(t)
	defer func() { _ = db.Close() }()

	svc := NewEventService(db)
	ctx := context.Background()

	tests := []struct {
		name     string
		log      func() error
		category string
	}{
		{"auth", func() error {
			return svc.LogAuthEvent(ctx, model.EventLevelInfo, "login", nil, "", nil)
		}, model.EventCategoryAuth},
		{"project", func() error {
			return svc.LogProjectEvent(ctx, model.EventLevelInfo, "created", nil, "", nil)
		}, model.EventCategoryProject},
		{"component", func() error {
			return svc.LogComponentEvent(ctx, model.EventLevelInfo, "created", nil, "", nil)
		}, model.EventCategoryComponent},
		{"file", func() error {
			return svc.LogFileEvent(ctx, model.EventLevelInfo, "submitted", nil, "", nil)
		}, model.EventCategoryFile},
		{"repo", func() error {
			return svc.LogRepoEvent(ctx, model.EventLevelInfo, "updated", nil, "", nil)
		}, model.EventCategoryRepo},
		{"cache", func() error {
			return svc.LogCacheEvent(ctx, model.EventLevelInfo, "cleared", nil, "", nil)
		}, model.EventCategoryCache},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Exec("DELETE FROM events"); err != nil {
				t.Fatalf("clearing events: %v", err)
			}
			if err := tt.log(); err != nil {
				t.Fatalf("log: %v", err)
			}
			var category string
			if err := db.QueryRow("SELECT category FROM events").Scan(&category); err != nil {
				t.Fatalf("reading event: %v", err)
			}
			if category != tt.category {
				t.Errorf("category = %q, want %q", category, tt.category)
			}
		})
	}
}

func TestLogAudit(t *testing.T) {
	db := setupEventTestDB(t)
	defer func() { _ = db.Close() }()

	svc := NewEventService(db)
	ctx := context.Background()

	userID := int64(7)
	err := svc.LogAudit(ctx, model.EventCategoryProject, model.ActionAddition, "fooproj", &userID, "10.0.0.1")
	if err != nil {
		t.Fatalf("LogAudit failed: %v", err)
	}

	var message, metadata string
	if err := db.QueryRow("SELECT message, metadata FROM events").Scan(&message, &metadata); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if message != "addition: fooproj" {
		t.Errorf("message = %q, want %q", message, "addition: fooproj")
	}
	if metadata != `{"action":"addition","object":"fooproj"}` {
		t.Errorf("metadata = %q", metadata)
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db := setupEventTestDB(t)
	defer func() { _ = db.Close() }()

	svc := NewEventService(db)
	ctx := context.Background()

	// Insert an old event directly
	old := time.Now().Add(-48 * time.Hour)
	if _, err := db.Exec("INSERT INTO events (message, created_at) VALUES (?, ?)", "old", old); err != nil {
		t.Fatalf("inserting old event: %v", err)
	}
	if err := svc.LogInfo(ctx, model.EventCategorySystem, "recent", nil, "", nil); err != nil {
		t.Fatalf("LogInfo: %v", err)
	}

	if err := svc.DeleteOldEvents(ctx, 24*time.Hour); err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
