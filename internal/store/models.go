// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User represents an application user.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// Language represents a translation language known to the system.
type Language struct {
	ID         int64
	Code       string
	Name       string
	NativeName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Project is a top-level grouping of translatable components.
type Project struct {
	ID              int64
	Slug            string
	Name            string
	Description     string
	LongDescription string
	Homepage        string
	FeedURL         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Unit is the repository metadata record associated with a component.
// Its name is derived from the component's full name.
type Unit struct {
	ID          int64
	Name        string
	Type        string
	Root        string
	Branch      string
	Directory   string
	WebFrontend string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Component is a translatable software module within a project, backed by
// a version-control checkout described by its Unit.
type Component struct {
	ID           int64
	ProjectID    int64
	Slug         string
	Name         string
	Description  string
	UnitID       int64
	I18nType     string
	FileFilter   string
	SourceLang   string
	ShouldSubmit bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// POFile is a per-language translation file record for a component.
type POFile struct {
	ID           int64
	ComponentID  int64
	Filename     string
	LanguageID   sql.NullInt64
	Total        int64
	Translated   int64
	Fuzzy        int64
	Untranslated int64
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// POFileLock is an advisory exclusive-edit marker on a POFile. At most one
// lock exists per file; only its owner may remove it.
type POFileLock struct {
	ID        int64
	PofileID  int64
	OwnerID   int64
	CreatedAt time.Time
}

// Event represents a system event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string // JSON string
	IpAddress string
	CreatedAt time.Time
}

// Config represents a site configuration item.
type Config struct {
	ID        int64
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
