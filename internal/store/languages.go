// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createLanguage = `
INSERT INTO languages (code, name, native_name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, code, name, native_name, created_at, updated_at`

// CreateLanguageParams holds parameters for CreateLanguage.
type CreateLanguageParams struct {
	Code       string
	Name       string
	NativeName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateLanguage inserts a new language and returns the created row.
func (q *Queries) CreateLanguage(ctx context.Context, arg CreateLanguageParams) (Language, error) {
	row := q.db.QueryRowContext(ctx, createLanguage,
		arg.Code, arg.Name, arg.NativeName, arg.CreatedAt, arg.UpdatedAt)
	var l Language
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const getLanguageByCode = `
SELECT id, code, name, native_name, created_at, updated_at
FROM languages WHERE code = ?`

// GetLanguageByCode fetches a language by its gettext code.
func (q *Queries) GetLanguageByCode(ctx context.Context, code string) (Language, error) {
	row := q.db.QueryRowContext(ctx, getLanguageByCode, code)
	var l Language
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const listLanguages = `
SELECT id, code, name, native_name, created_at, updated_at
FROM languages ORDER BY code`

// ListLanguages returns all languages ordered by code.
func (q *Queries) ListLanguages(ctx context.Context) ([]Language, error) {
	rows, err := q.db.QueryContext(ctx, listLanguages)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Language
	for rows.Next() {
		var l Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const countLanguages = `SELECT COUNT(*) FROM languages`

// CountLanguages returns the total number of languages.
func (q *Queries) CountLanguages(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countLanguages)
	var count int64
	err := row.Scan(&count)
	return count, err
}
