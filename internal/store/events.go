// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createEvent = `
INSERT INTO events (level, category, message, user_id, metadata, ip_address, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, level, category, message, user_id, metadata, ip_address, created_at`

// CreateEventParams holds parameters for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}

// CreateEvent inserts a new event log entry and returns the created row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata,
		arg.IpAddress, arg.CreatedAt)
	var e Event
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
		&e.Metadata, &e.IpAddress, &e.CreatedAt)
	return e, err
}

// EventWithUser is an event joined with the acting user's display fields.
type EventWithUser struct {
	Event
	UserEmail sql.NullString
	UserName  sql.NullString
}

const listEventsWithUser = `
SELECT e.id, e.level, e.category, e.message, e.user_id, e.metadata, e.ip_address, e.created_at,
       u.email, u.name
FROM events e
LEFT JOIN users u ON u.id = e.user_id
ORDER BY e.created_at DESC, e.id DESC
LIMIT ? OFFSET ?`

// ListEventsWithUserParams holds parameters for ListEventsWithUser.
type ListEventsWithUserParams struct {
	Limit  int64
	Offset int64
}

// ListEventsWithUser returns a page of events, newest first, joined with
// the acting user where one is recorded.
func (q *Queries) ListEventsWithUser(ctx context.Context, arg ListEventsWithUserParams) ([]EventWithUser, error) {
	rows, err := q.db.QueryContext(ctx, listEventsWithUser, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEventsWithUser(rows)
}

const listEventsByCategoryWithUser = `
SELECT e.id, e.level, e.category, e.message, e.user_id, e.metadata, e.ip_address, e.created_at,
       u.email, u.name
FROM events e
LEFT JOIN users u ON u.id = e.user_id
WHERE e.category = ?
ORDER BY e.created_at DESC, e.id DESC
LIMIT ? OFFSET ?`

// ListEventsByCategoryWithUserParams holds parameters for ListEventsByCategoryWithUser.
type ListEventsByCategoryWithUserParams struct {
	Category string
	Limit    int64
	Offset   int64
}

// ListEventsByCategoryWithUser returns a page of events in one category.
func (q *Queries) ListEventsByCategoryWithUser(ctx context.Context, arg ListEventsByCategoryWithUserParams) ([]EventWithUser, error) {
	rows, err := q.db.QueryContext(ctx, listEventsByCategoryWithUser, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEventsWithUser(rows)
}

const listEvents = `
SELECT id, level, category, message, user_id, metadata, ip_address, created_at
FROM events
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

// ListEventsParams holds parameters for ListEvents.
type ListEventsParams struct {
	Limit  int64
	Offset int64
}

// ListEvents returns a page of events, newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
			&e.Metadata, &e.IpAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const countEvents = `SELECT COUNT(*) FROM events`

// CountEvents returns the total number of events.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countEvents)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countEventsByCategory = `SELECT COUNT(*) FROM events WHERE category = ?`

// CountEventsByCategory returns the number of events in a category.
func (q *Queries) CountEventsByCategory(ctx context.Context, category string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countEventsByCategory, category)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteOldEvents = `DELETE FROM events WHERE created_at < ?`

// DeleteOldEvents removes events created before the cutoff time.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) error {
	_, err := q.db.ExecContext(ctx, deleteOldEvents, cutoff)
	return err
}

func collectEventsWithUser(rows *sql.Rows) ([]EventWithUser, error) {
	var items []EventWithUser
	for rows.Next() {
		var e EventWithUser
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
			&e.Metadata, &e.IpAddress, &e.CreatedAt, &e.UserEmail, &e.UserName); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
