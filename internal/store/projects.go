// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createProject = `
INSERT INTO projects (slug, name, description, long_description, homepage, feed_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, slug, name, description, long_description, homepage, feed_url, created_at, updated_at`

// CreateProjectParams holds parameters for CreateProject.
type CreateProjectParams struct {
	Slug            string
	Name            string
	Description     string
	LongDescription string
	Homepage        string
	FeedURL         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateProject inserts a new project and returns the created row.
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, createProject,
		arg.Slug, arg.Name, arg.Description, arg.LongDescription,
		arg.Homepage, arg.FeedURL, arg.CreatedAt, arg.UpdatedAt)
	var p Project
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.LongDescription,
		&p.Homepage, &p.FeedURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const updateProject = `
UPDATE projects
SET slug = ?, name = ?, description = ?, long_description = ?, homepage = ?, feed_url = ?, updated_at = ?
WHERE id = ?
RETURNING id, slug, name, description, long_description, homepage, feed_url, created_at, updated_at`

// UpdateProjectParams holds parameters for UpdateProject.
type UpdateProjectParams struct {
	Slug            string
	Name            string
	Description     string
	LongDescription string
	Homepage        string
	FeedURL         string
	UpdatedAt       time.Time
	ID              int64
}

// UpdateProject updates an existing project and returns the updated row.
func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, updateProject,
		arg.Slug, arg.Name, arg.Description, arg.LongDescription,
		arg.Homepage, arg.FeedURL, arg.UpdatedAt, arg.ID)
	var p Project
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.LongDescription,
		&p.Homepage, &p.FeedURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getProjectBySlug = `
SELECT id, slug, name, description, long_description, homepage, feed_url, created_at, updated_at
FROM projects WHERE slug = ?`

// GetProjectBySlug fetches a project by its unique slug.
func (q *Queries) GetProjectBySlug(ctx context.Context, slug string) (Project, error) {
	row := q.db.QueryRowContext(ctx, getProjectBySlug, slug)
	var p Project
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.LongDescription,
		&p.Homepage, &p.FeedURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getProjectByID = `
SELECT id, slug, name, description, long_description, homepage, feed_url, created_at, updated_at
FROM projects WHERE id = ?`

// GetProjectByID fetches a project by its ID.
func (q *Queries) GetProjectByID(ctx context.Context, id int64) (Project, error) {
	row := q.db.QueryRowContext(ctx, getProjectByID, id)
	var p Project
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.LongDescription,
		&p.Homepage, &p.FeedURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const listProjects = `
SELECT id, slug, name, description, long_description, homepage, feed_url, created_at, updated_at
FROM projects ORDER BY name`

// ListProjects returns all projects ordered by name.
func (q *Queries) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, listProjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.LongDescription,
			&p.Homepage, &p.FeedURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const listRecentProjects = `
SELECT id, slug, name, description, long_description, homepage, feed_url, created_at, updated_at
FROM projects ORDER BY updated_at DESC LIMIT ?`

// ListRecentProjects returns the most recently updated projects.
func (q *Queries) ListRecentProjects(ctx context.Context, limit int64) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, listRecentProjects, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.LongDescription,
			&p.Homepage, &p.FeedURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const deleteProject = `DELETE FROM projects WHERE id = ?`

// DeleteProject removes a project. Components cascade via FK.
func (q *Queries) DeleteProject(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteProject, id)
	return err
}

const projectSlugExists = `SELECT COUNT(*) FROM projects WHERE slug = ?`

// ProjectSlugExists reports whether a project with the given slug exists.
func (q *Queries) ProjectSlugExists(ctx context.Context, slug string) (int64, error) {
	row := q.db.QueryRowContext(ctx, projectSlugExists, slug)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const projectSlugExistsExcluding = `SELECT COUNT(*) FROM projects WHERE slug = ? AND id != ?`

// ProjectSlugExistsExcludingParams holds parameters for ProjectSlugExistsExcluding.
type ProjectSlugExistsExcludingParams struct {
	Slug string
	ID   int64
}

// ProjectSlugExistsExcluding reports whether another project uses the slug.
func (q *Queries) ProjectSlugExistsExcluding(ctx context.Context, arg ProjectSlugExistsExcludingParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, projectSlugExistsExcluding, arg.Slug, arg.ID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countProjects = `SELECT COUNT(*) FROM projects`

// CountProjects returns the total number of projects.
func (q *Queries) CountProjects(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countProjects)
	var count int64
	err := row.Scan(&count)
	return count, err
}
