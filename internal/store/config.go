// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const getConfig = `
SELECT id, key, value, created_at, updated_at FROM config WHERE key = ?`

// GetConfig fetches a configuration item by key.
func (q *Queries) GetConfig(ctx context.Context, key string) (Config, error) {
	row := q.db.QueryRowContext(ctx, getConfig, key)
	var c Config
	err := row.Scan(&c.ID, &c.Key, &c.Value, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const setConfig = `
INSERT INTO config (key, value, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
RETURNING id, key, value, created_at, updated_at`

// SetConfigParams holds parameters for SetConfig.
type SetConfigParams struct {
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetConfig creates or updates a configuration item.
func (q *Queries) SetConfig(ctx context.Context, arg SetConfigParams) (Config, error) {
	row := q.db.QueryRowContext(ctx, setConfig,
		arg.Key, arg.Value, arg.CreatedAt, arg.UpdatedAt)
	var c Config
	err := row.Scan(&c.ID, &c.Key, &c.Value, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listConfig = `
SELECT id, key, value, created_at, updated_at FROM config ORDER BY key`

// ListConfig returns all configuration items ordered by key.
func (q *Queries) ListConfig(ctx context.Context) ([]Config, error) {
	rows, err := q.db.QueryContext(ctx, listConfig)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Config
	for rows.Next() {
		var c Config
		if err := rows.Scan(&c.ID, &c.Key, &c.Value, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
