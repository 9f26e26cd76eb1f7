// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const upsertPOFile = `
INSERT INTO pofiles (component_id, filename, language_id, total, translated, fuzzy, untranslated, enabled, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
ON CONFLICT (component_id, filename) DO UPDATE
SET language_id = excluded.language_id,
    total = excluded.total,
    translated = excluded.translated,
    fuzzy = excluded.fuzzy,
    untranslated = excluded.untranslated,
    enabled = 1,
    updated_at = excluded.updated_at
RETURNING id, component_id, filename, language_id, total, translated, fuzzy, untranslated, enabled, created_at, updated_at`

// UpsertPOFileParams holds parameters for UpsertPOFile.
type UpsertPOFileParams struct {
	ComponentID  int64
	Filename     string
	LanguageID   sql.NullInt64
	Total        int64
	Translated   int64
	Fuzzy        int64
	Untranslated int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertPOFile inserts or refreshes the statistics row for a translation file.
func (q *Queries) UpsertPOFile(ctx context.Context, arg UpsertPOFileParams) (POFile, error) {
	row := q.db.QueryRowContext(ctx, upsertPOFile,
		arg.ComponentID, arg.Filename, arg.LanguageID, arg.Total, arg.Translated,
		arg.Fuzzy, arg.Untranslated, arg.CreatedAt, arg.UpdatedAt)
	return scanPOFile(row)
}

const getPOFile = `
SELECT id, component_id, filename, language_id, total, translated, fuzzy, untranslated, enabled, created_at, updated_at
FROM pofiles WHERE component_id = ? AND filename = ?`

// GetPOFileParams holds parameters for GetPOFile.
type GetPOFileParams struct {
	ComponentID int64
	Filename    string
}

// GetPOFile fetches a translation file record by component and filename.
func (q *Queries) GetPOFile(ctx context.Context, arg GetPOFileParams) (POFile, error) {
	row := q.db.QueryRowContext(ctx, getPOFile, arg.ComponentID, arg.Filename)
	return scanPOFile(row)
}

const listPOFilesByComponent = `
SELECT id, component_id, filename, language_id, total, translated, fuzzy, untranslated, enabled, created_at, updated_at
FROM pofiles WHERE component_id = ? AND enabled = 1 ORDER BY filename`

// ListPOFilesByComponent returns all enabled translation files of a component.
func (q *Queries) ListPOFilesByComponent(ctx context.Context, componentID int64) ([]POFile, error) {
	rows, err := q.db.QueryContext(ctx, listPOFilesByComponent, componentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []POFile
	for rows.Next() {
		f, err := scanPOFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

const disableMissingPOFiles = `
UPDATE pofiles SET enabled = 0, updated_at = ? WHERE component_id = ? AND updated_at < ?`

// DisableMissingPOFilesParams holds parameters for DisableMissingPOFiles.
type DisableMissingPOFilesParams struct {
	UpdatedAt   time.Time
	ComponentID int64
	Cutoff      time.Time
}

// DisableMissingPOFiles marks rows not refreshed by the latest stats run as
// disabled. Files removed from the repository stop being listed but keep
// their history.
func (q *Queries) DisableMissingPOFiles(ctx context.Context, arg DisableMissingPOFilesParams) error {
	_, err := q.db.ExecContext(ctx, disableMissingPOFiles, arg.UpdatedAt, arg.ComponentID, arg.Cutoff)
	return err
}

const deletePOFilesByComponent = `DELETE FROM pofiles WHERE component_id = ?`

// DeletePOFilesByComponent removes all translation file records of a component.
func (q *Queries) DeletePOFilesByComponent(ctx context.Context, componentID int64) error {
	_, err := q.db.ExecContext(ctx, deletePOFilesByComponent, componentID)
	return err
}

const createPOFileLock = `
INSERT INTO pofile_locks (pofile_id, owner_id, created_at)
VALUES (?, ?, ?)
RETURNING id, pofile_id, owner_id, created_at`

// CreatePOFileLockParams holds parameters for CreatePOFileLock.
type CreatePOFileLockParams struct {
	PofileID  int64
	OwnerID   int64
	CreatedAt time.Time
}

// CreatePOFileLock creates an advisory lock on a translation file. The
// unique index on pofile_id makes concurrent creation attempts race at the
// database: exactly one wins.
func (q *Queries) CreatePOFileLock(ctx context.Context, arg CreatePOFileLockParams) (POFileLock, error) {
	row := q.db.QueryRowContext(ctx, createPOFileLock, arg.PofileID, arg.OwnerID, arg.CreatedAt)
	var l POFileLock
	err := row.Scan(&l.ID, &l.PofileID, &l.OwnerID, &l.CreatedAt)
	return l, err
}

const getPOFileLock = `
SELECT id, pofile_id, owner_id, created_at FROM pofile_locks WHERE pofile_id = ?`

// GetPOFileLock fetches the lock for a translation file, if any.
func (q *Queries) GetPOFileLock(ctx context.Context, pofileID int64) (POFileLock, error) {
	row := q.db.QueryRowContext(ctx, getPOFileLock, pofileID)
	var l POFileLock
	err := row.Scan(&l.ID, &l.PofileID, &l.OwnerID, &l.CreatedAt)
	return l, err
}

const deletePOFileLock = `DELETE FROM pofile_locks WHERE id = ?`

// DeletePOFileLock removes a lock by its ID.
func (q *Queries) DeletePOFileLock(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePOFileLock, id)
	return err
}

const listPOFileLocksByComponent = `
SELECT l.id, l.pofile_id, l.owner_id, l.created_at
FROM pofile_locks l
JOIN pofiles f ON f.id = l.pofile_id
WHERE f.component_id = ?`

// ListPOFileLocksByComponent returns all locks held on a component's files.
func (q *Queries) ListPOFileLocksByComponent(ctx context.Context, componentID int64) ([]POFileLock, error) {
	rows, err := q.db.QueryContext(ctx, listPOFileLocksByComponent, componentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []POFileLock
	for rows.Next() {
		var l POFileLock
		if err := rows.Scan(&l.ID, &l.PofileID, &l.OwnerID, &l.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func scanPOFile(row scanner) (POFile, error) {
	var f POFile
	err := row.Scan(&f.ID, &f.ComponentID, &f.Filename, &f.LanguageID,
		&f.Total, &f.Translated, &f.Fuzzy, &f.Untranslated, &f.Enabled,
		&f.CreatedAt, &f.UpdatedAt)
	return f, err
}
