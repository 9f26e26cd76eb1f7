// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createUnit = `
INSERT INTO units (name, type, root, branch, directory, web_frontend, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, name, type, root, branch, directory, web_frontend, created_at, updated_at`

// CreateUnitParams holds parameters for CreateUnit.
type CreateUnitParams struct {
	Name        string
	Type        string
	Root        string
	Branch      string
	Directory   string
	WebFrontend string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUnit inserts a new unit and returns the created row.
func (q *Queries) CreateUnit(ctx context.Context, arg CreateUnitParams) (Unit, error) {
	row := q.db.QueryRowContext(ctx, createUnit,
		arg.Name, arg.Type, arg.Root, arg.Branch, arg.Directory, arg.WebFrontend,
		arg.CreatedAt, arg.UpdatedAt)
	var u Unit
	err := row.Scan(&u.ID, &u.Name, &u.Type, &u.Root, &u.Branch, &u.Directory,
		&u.WebFrontend, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const updateUnit = `
UPDATE units
SET name = ?, type = ?, root = ?, branch = ?, directory = ?, web_frontend = ?, updated_at = ?
WHERE id = ?
RETURNING id, name, type, root, branch, directory, web_frontend, created_at, updated_at`

// UpdateUnitParams holds parameters for UpdateUnit.
type UpdateUnitParams struct {
	Name        string
	Type        string
	Root        string
	Branch      string
	Directory   string
	WebFrontend string
	UpdatedAt   time.Time
	ID          int64
}

// UpdateUnit updates an existing unit and returns the updated row.
func (q *Queries) UpdateUnit(ctx context.Context, arg UpdateUnitParams) (Unit, error) {
	row := q.db.QueryRowContext(ctx, updateUnit,
		arg.Name, arg.Type, arg.Root, arg.Branch, arg.Directory, arg.WebFrontend,
		arg.UpdatedAt, arg.ID)
	var u Unit
	err := row.Scan(&u.ID, &u.Name, &u.Type, &u.Root, &u.Branch, &u.Directory,
		&u.WebFrontend, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUnitByID = `
SELECT id, name, type, root, branch, directory, web_frontend, created_at, updated_at
FROM units WHERE id = ?`

// GetUnitByID fetches a unit by its ID.
func (q *Queries) GetUnitByID(ctx context.Context, id int64) (Unit, error) {
	row := q.db.QueryRowContext(ctx, getUnitByID, id)
	var u Unit
	err := row.Scan(&u.ID, &u.Name, &u.Type, &u.Root, &u.Branch, &u.Directory,
		&u.WebFrontend, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const deleteUnit = `DELETE FROM units WHERE id = ?`

// DeleteUnit removes a unit record.
func (q *Queries) DeleteUnit(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUnit, id)
	return err
}

const createComponent = `
INSERT INTO components (project_id, slug, name, description, unit_id, i18n_type, file_filter, source_lang, should_submit, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, project_id, slug, name, description, unit_id, i18n_type, file_filter, source_lang, should_submit, created_at, updated_at`

// CreateComponentParams holds parameters for CreateComponent.
type CreateComponentParams struct {
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

// CreateComponent inserts a new component and returns the created row.
func (q *Queries) CreateComponent(ctx context.Context, arg CreateComponentParams) (Component, error) {
	row := q.db.QueryRowContext(ctx, createComponent,
		arg.ProjectID, arg.Slug, arg.Name, arg.Description, arg.UnitID,
		arg.I18nType, arg.FileFilter, arg.SourceLang, arg.ShouldSubmit,
		arg.CreatedAt, arg.UpdatedAt)
	return scanComponent(row)
}

const updateComponent = `
UPDATE components
SET slug = ?, name = ?, description = ?, i18n_type = ?, file_filter = ?, source_lang = ?, should_submit = ?, updated_at = ?
WHERE id = ?
RETURNING id, project_id, slug, name, description, unit_id, i18n_type, file_filter, source_lang, should_submit, created_at, updated_at`

// UpdateComponentParams holds parameters for UpdateComponent.
type UpdateComponentParams struct {
	Slug         string
	Name         string
	Description  string
	I18nType     string
	FileFilter   string
	SourceLang   string
	ShouldSubmit bool
	UpdatedAt    time.Time
	ID           int64
}

// UpdateComponent updates an existing component and returns the updated row.
func (q *Queries) UpdateComponent(ctx context.Context, arg UpdateComponentParams) (Component, error) {
	row := q.db.QueryRowContext(ctx, updateComponent,
		arg.Slug, arg.Name, arg.Description, arg.I18nType, arg.FileFilter,
		arg.SourceLang, arg.ShouldSubmit, arg.UpdatedAt, arg.ID)
	return scanComponent(row)
}

const touchComponent = `UPDATE components SET updated_at = ? WHERE id = ?`

// TouchComponentParams holds parameters for TouchComponent.
type TouchComponentParams struct {
	UpdatedAt time.Time
	ID        int64
}

// TouchComponent bumps a component's updated_at timestamp.
func (q *Queries) TouchComponent(ctx context.Context, arg TouchComponentParams) error {
	_, err := q.db.ExecContext(ctx, touchComponent, arg.UpdatedAt, arg.ID)
	return err
}

const getComponentBySlug = `
SELECT id, project_id, slug, name, description, unit_id, i18n_type, file_filter, source_lang, should_submit, created_at, updated_at
FROM components WHERE project_id = ? AND slug = ?`

// GetComponentBySlugParams holds parameters for GetComponentBySlug.
type GetComponentBySlugParams struct {
	ProjectID int64
	Slug      string
}

// GetComponentBySlug fetches a component by project ID and slug.
func (q *Queries) GetComponentBySlug(ctx context.Context, arg GetComponentBySlugParams) (Component, error) {
	row := q.db.QueryRowContext(ctx, getComponentBySlug, arg.ProjectID, arg.Slug)
	return scanComponent(row)
}

const getComponentByID = `
SELECT id, project_id, slug, name, description, unit_id, i18n_type, file_filter, source_lang, should_submit, created_at, updated_at
FROM components WHERE id = ?`

// GetComponentByID fetches a component by its ID.
func (q *Queries) GetComponentByID(ctx context.Context, id int64) (Component, error) {
	row := q.db.QueryRowContext(ctx, getComponentByID, id)
	return scanComponent(row)
}

const listComponentsByProject = `
SELECT id, project_id, slug, name, description, unit_id, i18n_type, file_filter, source_lang, should_submit, created_at, updated_at
FROM components WHERE project_id = ? ORDER BY name`

// ListComponentsByProject returns all components of a project ordered by name.
func (q *Queries) ListComponentsByProject(ctx context.Context, projectID int64) ([]Component, error) {
	rows, err := q.db.QueryContext(ctx, listComponentsByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Component
	for rows.Next() {
		c, err := scanComponentRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const listComponents = `
SELECT id, project_id, slug, name, description, unit_id, i18n_type, file_filter, source_lang, should_submit, created_at, updated_at
FROM components ORDER BY project_id, name`

// ListComponents returns all components.
func (q *Queries) ListComponents(ctx context.Context) ([]Component, error) {
	rows, err := q.db.QueryContext(ctx, listComponents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Component
	for rows.Next() {
		c, err := scanComponentRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const listRecentComponentsByProject = `
SELECT id, project_id, slug, name, description, unit_id, i18n_type, file_filter, source_lang, should_submit, created_at, updated_at
FROM components WHERE project_id = ? ORDER BY updated_at DESC LIMIT ?`

// ListRecentComponentsByProjectParams holds parameters for ListRecentComponentsByProject.
type ListRecentComponentsByProjectParams struct {
	ProjectID int64
	Limit     int64
}

// ListRecentComponentsByProject returns the most recently updated components of a project.
func (q *Queries) ListRecentComponentsByProject(ctx context.Context, arg ListRecentComponentsByProjectParams) ([]Component, error) {
	rows, err := q.db.QueryContext(ctx, listRecentComponentsByProject, arg.ProjectID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Component
	for rows.Next() {
		c, err := scanComponentRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const deleteComponent = `DELETE FROM components WHERE id = ?`

// DeleteComponent removes a component. POFiles cascade via FK; the unit
// record must be removed separately.
func (q *Queries) DeleteComponent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteComponent, id)
	return err
}

const componentSlugExists = `SELECT COUNT(*) FROM components WHERE project_id = ? AND slug = ?`

// ComponentSlugExistsParams holds parameters for ComponentSlugExists.
type ComponentSlugExistsParams struct {
	ProjectID int64
	Slug      string
}

// ComponentSlugExists reports whether the slug is taken within the project.
func (q *Queries) ComponentSlugExists(ctx context.Context, arg ComponentSlugExistsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, componentSlugExists, arg.ProjectID, arg.Slug)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const componentSlugExistsExcluding = `SELECT COUNT(*) FROM components WHERE project_id = ? AND slug = ? AND id != ?`

// ComponentSlugExistsExcludingParams holds parameters for ComponentSlugExistsExcluding.
type ComponentSlugExistsExcludingParams struct {
	ProjectID int64
	Slug      string
	ID        int64
}

// ComponentSlugExistsExcluding reports whether another component in the
// project uses the slug.
func (q *Queries) ComponentSlugExistsExcluding(ctx context.Context, arg ComponentSlugExistsExcludingParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, componentSlugExistsExcluding, arg.ProjectID, arg.Slug, arg.ID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// scanner abstracts *sql.Row and *sql.Rows for the component scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanComponent(row scanner) (Component, error) {
	var c Component
	err := row.Scan(&c.ID, &c.ProjectID, &c.Slug, &c.Name, &c.Description,
		&c.UnitID, &c.I18nType, &c.FileFilter, &c.SourceLang, &c.ShouldSubmit,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanComponentRows(rows scanner) (Component, error) {
	return scanComponent(rows)
}
