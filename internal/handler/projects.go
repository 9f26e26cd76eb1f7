// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/otms-go/internal/cache"
	"github.com/olegiv/otms-go/internal/middleware"
	"github.com/olegiv/otms-go/internal/model"
	"github.com/olegiv/otms-go/internal/render"
	"github.com/olegiv/otms-go/internal/service"
	"github.com/olegiv/otms-go/internal/store"
	"github.com/olegiv/otms-go/internal/util"
	"github.com/olegiv/otms-go/internal/vcs"
)

// ProjectsHandler handles project listing and management.
type ProjectsHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	events         *service.EventService
	cache          *cache.Manager
	repos          *vcs.Manager
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager,
	events *service.EventService, cacheManager *cache.Manager, repos *vcs.Manager) *ProjectsHandler {
	return &ProjectsHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		events:         events,
		cache:          cacheManager,
		repos:          repos,
	}
}

// ProjectFormData holds form state for the project create/edit pages.
type ProjectFormData struct {
	Errors     map[string]string
	FormValues map[string]string
	IsEdit     bool
	Project    store.Project
}

// ProjectComponentRow is a component with aggregated translation totals
// for the project detail page.
type ProjectComponentRow struct {
	Component  store.Component
	Total      int64
	Translated int64
	Files      int
	Completion int
}

// ProjectDetailData is the template payload for the project detail page.
type ProjectDetailData struct {
	Project             store.Project
	LongDescriptionHTML template.HTML
	Components          []ProjectComponentRow
}

// Home handles GET / with the most recently updated projects.
func (h *ProjectsHandler) Home(w http.ResponseWriter, r *http.Request) {
	projects, err := h.queries.ListRecentProjects(r.Context(), 10)
	if err != nil {
		logAndInternalError(w, "failed to list recent projects", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "site/home", render.TemplateData{
		Title:    "Home",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     projects,
	}); err != nil {
		logAndInternalError(w, "failed to render home", "error", err)
	}
}

// List handles GET /projects.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.queries.ListProjects(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list projects", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "site/project_list", render.TemplateData{
		Title:    "Projects",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     projects,
	}); err != nil {
		logAndInternalError(w, "failed to render project list", "error", err)
	}
}

// Detail handles GET /projects/{project}.
func (h *ProjectsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}

	components, err := h.queries.ListComponentsByProject(r.Context(), project.ID)
	if err != nil {
		logAndInternalError(w, "failed to list components", "error", err, "project", project.Slug)
		return
	}

	rows := make([]ProjectComponentRow, 0, len(components))
	for _, c := range components {
		row := ProjectComponentRow{Component: c}
		files, err := h.queries.ListPOFilesByComponent(r.Context(), c.ID)
		if err != nil {
			logAndInternalError(w, "failed to list translation files", "error", err, "component", c.Slug)
			return
		}
		for _, f := range files {
			row.Total += f.Total
			row.Translated += f.Translated
		}
		row.Files = len(files)
		if row.Total > 0 {
			row.Completion = int(row.Translated * 100 / row.Total)
		}
		rows = append(rows, row)
	}

	data := ProjectDetailData{
		Project:             project,
		LongDescriptionHTML: renderMarkdown(project.LongDescription),
		Components:          rows,
	}

	if err := h.renderer.Render(w, r, "site/project_detail", render.TemplateData{
		Title:    project.Name,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     data,
	}); err != nil {
		logAndInternalError(w, "failed to render project detail", "error", err)
	}
}

// NewForm handles GET /projects/new.
func (h *ProjectsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderProjectForm(w, r, ProjectFormData{
		Errors:     map[string]string{},
		FormValues: map[string]string{},
	})
}

// Create handles POST /projects.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, PathProjects+"/new") {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	slug := strings.TrimSpace(r.FormValue("slug"))
	if slug == "" && name != "" {
		slug = util.Slugify(name)
	}

	formData := ProjectFormData{
		Errors: map[string]string{},
		FormValues: map[string]string{
			"name":             name,
			"slug":             slug,
			"description":      r.FormValue("description"),
			"long_description": r.FormValue("long_description"),
			"homepage":         r.FormValue("homepage"),
			"feed_url":         r.FormValue("feed_url"),
		},
	}

	if name == "" {
		formData.Errors["name"] = "Name is required"
	}
	if msg := ValidateSlugWithChecker(slug, func() (int64, error) {
		return h.queries.ProjectSlugExists(r.Context(), slug)
	}); msg != "" {
		formData.Errors["slug"] = msg
	}

	if len(formData.Errors) > 0 {
		h.renderProjectForm(w, r, formData)
		return
	}

	now := time.Now()
	project, err := h.queries.CreateProject(r.Context(), store.CreateProjectParams{
		Slug:            slug,
		Name:            name,
		Description:     strings.TrimSpace(r.FormValue("description")),
		LongDescription: r.FormValue("long_description"),
		Homepage:        strings.TrimSpace(r.FormValue("homepage")),
		FeedURL:         strings.TrimSpace(r.FormValue("feed_url")),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		slog.Error("failed to create project", "error", err, "slug", slug)
		flashError(w, r, h.renderer, PathProjects+"/new", "Error creating project")
		return
	}

	if err := h.events.LogAudit(r.Context(), model.EventCategoryProject, model.ActionAddition,
		project.Slug, middleware.GetUserIDPtr(r), r.RemoteAddr); err != nil {
		slog.Error("failed to log project creation", "error", err)
	}

	flashSuccess(w, r, h.renderer, PathProjects+"/"+project.Slug, "Project created successfully")
}

// EditForm handles GET /projects/{project}/edit.
func (h *ProjectsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}

	h.renderProjectForm(w, r, ProjectFormData{
		Errors: map[string]string{},
		FormValues: map[string]string{
			"name":             project.Name,
			"slug":             project.Slug,
			"description":      project.Description,
			"long_description": project.LongDescription,
			"homepage":         project.Homepage,
			"feed_url":         project.FeedURL,
		},
		IsEdit:  true,
		Project: project,
	})
}

// Update handles POST /projects/{project}/edit.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, PathProjects+"/"+project.Slug+"/edit") {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	slug := strings.TrimSpace(r.FormValue("slug"))

	formData := ProjectFormData{
		Errors: map[string]string{},
		FormValues: map[string]string{
			"name":             name,
			"slug":             slug,
			"description":      r.FormValue("description"),
			"long_description": r.FormValue("long_description"),
			"homepage":         r.FormValue("homepage"),
			"feed_url":         r.FormValue("feed_url"),
		},
		IsEdit:  true,
		Project: project,
	}

	if name == "" {
		formData.Errors["name"] = "Name is required"
	}
	if msg := ValidateSlugForUpdate(slug, project.Slug, func() (int64, error) {
		return h.queries.ProjectSlugExistsExcluding(r.Context(), store.ProjectSlugExistsExcludingParams{
			Slug: slug,
			ID:   project.ID,
		})
	}); msg != "" {
		formData.Errors["slug"] = msg
	}

	if len(formData.Errors) > 0 {
		h.renderProjectForm(w, r, formData)
		return
	}

	updated, err := h.queries.UpdateProject(r.Context(), store.UpdateProjectParams{
		Slug:            slug,
		Name:            name,
		Description:     strings.TrimSpace(r.FormValue("description")),
		LongDescription: r.FormValue("long_description"),
		Homepage:        strings.TrimSpace(r.FormValue("homepage")),
		FeedURL:         strings.TrimSpace(r.FormValue("feed_url")),
		UpdatedAt:       time.Now(),
		ID:              project.ID,
	})
	if err != nil {
		slog.Error("failed to update project", "error", err, "project_id", project.ID)
		flashError(w, r, h.renderer, PathProjects+"/"+project.Slug+"/edit", "Error updating project")
		return
	}

	// Slug renames invalidate cached stats keyed by the old full name.
	if slug != project.Slug {
		components, err := h.queries.ListComponentsByProject(r.Context(), project.ID)
		if err == nil {
			for _, c := range components {
				if err := h.cache.InvalidateComponent(r.Context(), model.FullName(project.Slug, c.Slug)); err != nil {
					slog.Warn("failed to invalidate component cache", "error", err)
				}
			}
		}
	}

	if err := h.events.LogAudit(r.Context(), model.EventCategoryProject, model.ActionChange,
		updated.Slug, middleware.GetUserIDPtr(r), r.RemoteAddr); err != nil {
		slog.Error("failed to log project update", "error", err)
	}

	flashSuccess(w, r, h.renderer, PathProjects+"/"+updated.Slug, "Project updated successfully")
}

// ConfirmDelete handles GET /projects/{project}/delete.
func (h *ProjectsHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}

	components, err := h.queries.ListComponentsByProject(r.Context(), project.ID)
	if err != nil {
		logAndInternalError(w, "failed to list components", "error", err, "project", project.Slug)
		return
	}

	if err := h.renderer.Render(w, r, "site/project_confirm_delete", render.TemplateData{
		Title:    "Delete " + project.Name,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: map[string]any{
			"Project":    project,
			"Components": components,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render delete confirmation", "error", err)
	}
}

// Delete handles POST /projects/{project}/delete. Removes the project with
// all its components, their units, translation file records, checkouts,
// and cached data.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProject(w, r)
	if !ok {
		return
	}

	components, err := h.queries.ListComponentsByProject(r.Context(), project.ID)
	if err != nil {
		logAndInternalError(w, "failed to list components", "error", err, "project", project.Slug)
		return
	}

	for _, c := range components {
		if err := deleteComponentResources(r, h.queries, h.cache, h.repos, project, c); err != nil {
			slog.Error("failed to delete component", "error", err, "component", c.Slug)
			flashError(w, r, h.renderer, PathProjects+"/"+project.Slug, "Error deleting project")
			return
		}
	}

	if err := h.queries.DeleteProject(r.Context(), project.ID); err != nil {
		slog.Error("failed to delete project", "error", err, "project_id", project.ID)
		flashError(w, r, h.renderer, PathProjects+"/"+project.Slug, "Error deleting project")
		return
	}

	if err := h.events.LogAudit(r.Context(), model.EventCategoryProject, model.ActionDeletion,
		project.Slug, middleware.GetUserIDPtr(r), r.RemoteAddr); err != nil {
		slog.Error("failed to log project deletion", "error", err)
	}

	flashSuccess(w, r, h.renderer, PathProjects, "Project deleted successfully")
}

// requireProject fetches the project named by the {project} URL parameter.
// Writes a 404 and returns false when it does not exist.
func (h *ProjectsHandler) requireProject(w http.ResponseWriter, r *http.Request) (store.Project, bool) {
	slug := chi.URLParam(r, "project")
	project, err := h.queries.GetProjectBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
		} else {
			logAndInternalError(w, "failed to get project", "error", err, "slug", slug)
		}
		return store.Project{}, false
	}
	return project, true
}

func (h *ProjectsHandler) renderProjectForm(w http.ResponseWriter, r *http.Request, data ProjectFormData) {
	title := "New Project"
	if data.IsEdit {
		title = "Edit " + data.Project.Name
	}
	if err := h.renderer.Render(w, r, "site/project_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     data,
	}); err != nil {
		logAndInternalError(w, "failed to render project form", "error", err)
	}
}

// deleteComponentResources removes a component together with its unit,
// translation file records, checkout, and cached entries. The unit lock is
// held while the checkout is torn down.
func deleteComponentResources(r *http.Request, queries *store.Queries, cacheManager *cache.Manager,
	repos *vcs.Manager, project store.Project, component store.Component) error {
	ctx := r.Context()

	unit, err := queries.GetUnitByID(ctx, component.UnitID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if err := queries.DeletePOFilesByComponent(ctx, component.ID); err != nil {
		return err
	}
	if err := queries.DeleteComponent(ctx, component.ID); err != nil {
		return err
	}

	if unit.ID != 0 {
		if err := queries.DeleteUnit(ctx, unit.ID); err != nil {
			return err
		}
		unlock := repos.Lock(unit.Name)
		err = repos.Teardown(unit.Name)
		unlock()
		if err != nil {
			slog.Warn("failed to remove checkout", "error", err, "unit", unit.Name)
		}
	}

	fullName := model.FullName(project.Slug, component.Slug)
	if err := cacheManager.InvalidateComponent(ctx, fullName); err != nil {
		slog.Warn("failed to invalidate component cache", "error", err, "component", fullName)
	}

	return nil
}
