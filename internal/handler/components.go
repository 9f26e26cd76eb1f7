// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
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
	"github.com/olegiv/otms-go/internal/trans"
	"github.com/olegiv/otms-go/internal/util"
	"github.com/olegiv/otms-go/internal/vcs"
)

// ComponentsHandler handles component management and statistics refresh.
type ComponentsHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	events         *service.EventService
	cache          *cache.Manager
	repos          *vcs.Manager
	updater        *trans.Updater
}

// NewComponentsHandler creates a new components handler.
func NewComponentsHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager,
	events *service.EventService, cacheManager *cache.Manager, repos *vcs.Manager,
	updater *trans.Updater) *ComponentsHandler {
	return &ComponentsHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		events:         events,
		cache:          cacheManager,
		repos:          repos,
		updater:        updater,
	}
}

// ComponentFormData holds form state for the component create/edit pages.
type ComponentFormData struct {
	Errors     map[string]string
	FormValues map[string]string
	IsEdit     bool
	Project    store.Project
	Component  store.Component
	UnitTypes  []string
	I18nTypes  []string
}

// ComponentFileRow is a translation file with its lock state for the
// component detail page.
type ComponentFileRow struct {
	File         store.POFile
	Language     string
	Locked       bool
	LockOwnerID  int64
	LockedByUser bool
	Completion   int
}

// ComponentDetailData is the template payload for the component detail page.
type ComponentDetailData struct {
	Project    store.Project
	Component  store.Component
	Unit       store.Unit
	Files      []ComponentFileRow
	Total      int64
	Translated int64
}

// Detail handles GET /projects/{project}/components/{component}.
func (h *ComponentsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	project, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	unit, ok := requireEntityWithError(w, "unit", component.UnitID,
		func(id int64) (store.Unit, error) { return h.queries.GetUnitByID(r.Context(), id) })
	if !ok {
		return
	}

	files, err := h.loadFiles(r, project, component)
	if err != nil {
		logAndInternalError(w, "failed to list translation files", "error", err, "component", component.Slug)
		return
	}

	locks, err := h.queries.ListPOFileLocksByComponent(r.Context(), component.ID)
	if err != nil {
		logAndInternalError(w, "failed to list file locks", "error", err, "component", component.Slug)
		return
	}
	lockByFile := make(map[int64]store.POFileLock, len(locks))
	for _, l := range locks {
		lockByFile[l.PofileID] = l
	}

	languages, err := h.queries.ListLanguages(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list languages", "error", err)
		return
	}
	langByID := make(map[int64]store.Language, len(languages))
	for _, l := range languages {
		langByID[l.ID] = l
	}

	userID := middleware.GetUserID(r)
	data := ComponentDetailData{
		Project:   project,
		Component: component,
		Unit:      unit,
	}
	for _, f := range files {
		row := ComponentFileRow{File: f}
		if f.LanguageID.Valid {
			if lang, ok := langByID[f.LanguageID.Int64]; ok {
				row.Language = lang.Name
			}
		}
		if lock, ok := lockByFile[f.ID]; ok {
			row.Locked = true
			row.LockOwnerID = lock.OwnerID
			row.LockedByUser = lock.OwnerID == userID
		}
		if f.Total > 0 {
			row.Completion = int(f.Translated * 100 / f.Total)
		}
		data.Total += f.Total
		data.Translated += f.Translated
		data.Files = append(data.Files, row)
	}

	if err := h.renderer.Render(w, r, "site/component_detail", render.TemplateData{
		Title:    project.Name + " / " + component.Name,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     data,
	}); err != nil {
		logAndInternalError(w, "failed to render component detail", "error", err)
	}
}

// loadFiles returns the component's enabled translation files, serving the
// cached copy when present and writing through on miss.
func (h *ComponentsHandler) loadFiles(r *http.Request, project store.Project, component store.Component) ([]store.POFile, error) {
	fullName := model.FullName(project.Slug, component.Slug)

	if data, err := h.cache.GetStats(r.Context(), fullName); err == nil && data != nil {
		var files []store.POFile
		if err := json.Unmarshal(data, &files); err == nil {
			return files, nil
		}
		slog.Warn("discarding malformed cached stats", "component", fullName)
	}

	files, err := h.queries.ListPOFilesByComponent(r.Context(), component.ID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(files); err == nil {
		if err := h.cache.SetStats(r.Context(), fullName, data); err != nil {
			slog.Warn("failed to cache component stats", "error", err, "component", fullName)
		}
	}

	return files, nil
}

// NewForm handles GET /projects/{project}/components/new.
func (h *ComponentsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProjectParam(w, r)
	if !ok {
		return
	}

	h.renderComponentForm(w, r, ComponentFormData{
		Errors: map[string]string{},
		FormValues: map[string]string{
			"i18n_type":   model.I18nTypePOT,
			"unit_type":   model.UnitTypeGit,
			"branch":      "master",
			"source_lang": "en",
		},
		Project: project,
	})
}

// Create handles POST /projects/{project}/components.
func (h *ComponentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, ok := h.requireProjectParam(w, r)
	if !ok {
		return
	}

	newURL := PathProjects + "/" + project.Slug + "/components/new"
	if !parseFormOrRedirect(w, r, h.renderer, newURL) {
		return
	}

	formData, ok := h.validateComponentForm(r, project, store.Component{})
	if !ok {
		h.renderComponentForm(w, r, formData)
		return
	}

	slug := formData.FormValues["slug"]
	fullName := model.FullName(project.Slug, slug)
	now := time.Now()

	unit, err := h.queries.CreateUnit(r.Context(), store.CreateUnitParams{
		Name:        fullName,
		Type:        formData.FormValues["unit_type"],
		Root:        formData.FormValues["root"],
		Branch:      formData.FormValues["branch"],
		Directory:   formData.FormValues["directory"],
		WebFrontend: formData.FormValues["web_frontend"],
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		slog.Error("failed to create unit", "error", err, "unit", fullName)
		flashError(w, r, h.renderer, newURL, "Error creating component")
		return
	}

	component, err := h.queries.CreateComponent(r.Context(), store.CreateComponentParams{
		ProjectID:    project.ID,
		Slug:         slug,
		Name:         formData.FormValues["name"],
		Description:  formData.FormValues["description"],
		UnitID:       unit.ID,
		I18nType:     formData.FormValues["i18n_type"],
		FileFilter:   formData.FormValues["file_filter"],
		SourceLang:   formData.FormValues["source_lang"],
		ShouldSubmit: formData.FormValues["should_submit"] == "on",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		slog.Error("failed to create component", "error", err, "component", fullName)
		if delErr := h.queries.DeleteUnit(r.Context(), unit.ID); delErr != nil {
			slog.Error("failed to delete orphaned unit", "error", delErr, "unit_id", unit.ID)
		}
		flashError(w, r, h.renderer, newURL, "Error creating component")
		return
	}

	if err := h.events.LogAudit(r.Context(), model.EventCategoryComponent, model.ActionAddition,
		fullName, middleware.GetUserIDPtr(r), r.RemoteAddr); err != nil {
		slog.Error("failed to log component creation", "error", err)
	}

	detailURL := PathProjects + "/" + project.Slug + "/components/" + component.Slug

	// Initial checkout and stats run. A filter that matches nothing is
	// reported but does not roll back the component.
	if err := h.updater.RefreshComponent(r.Context(), project, component); err != nil {
		if errors.Is(err, trans.ErrFileFilter) {
			flashError(w, r, h.renderer, detailURL, "Component created, but the file filter matched no translation files")
			return
		}
		slog.Error("initial stats refresh failed", "error", err, "component", fullName)
		flashError(w, r, h.renderer, detailURL, "Component created, but the initial repository update failed")
		return
	}

	flashSuccess(w, r, h.renderer, detailURL, "Component created successfully")
}

// EditForm handles GET /projects/{project}/components/{component}/edit.
func (h *ComponentsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	project, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	unit, ok := requireEntityWithError(w, "unit", component.UnitID,
		func(id int64) (store.Unit, error) { return h.queries.GetUnitByID(r.Context(), id) })
	if !ok {
		return
	}

	shouldSubmit := ""
	if component.ShouldSubmit {
		shouldSubmit = "on"
	}

	h.renderComponentForm(w, r, ComponentFormData{
		Errors: map[string]string{},
		FormValues: map[string]string{
			"name":          component.Name,
			"slug":          component.Slug,
			"description":   component.Description,
			"i18n_type":     component.I18nType,
			"file_filter":   component.FileFilter,
			"source_lang":   component.SourceLang,
			"should_submit": shouldSubmit,
			"unit_type":     unit.Type,
			"root":          unit.Root,
			"branch":        unit.Branch,
			"directory":     unit.Directory,
			"web_frontend":  unit.WebFrontend,
		},
		IsEdit:    true,
		Project:   project,
		Component: component,
	})
}

// Update handles POST /projects/{project}/components/{component}/edit.
func (h *ComponentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	editURL := PathProjects + "/" + project.Slug + "/components/" + component.Slug + "/edit"
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	formData, ok := h.validateComponentForm(r, project, component)
	if !ok {
		h.renderComponentForm(w, r, formData)
		return
	}

	oldFullName := model.FullName(project.Slug, component.Slug)
	slug := formData.FormValues["slug"]
	newFullName := model.FullName(project.Slug, slug)
	now := time.Now()

	unit, ok := requireEntityWithError(w, "unit", component.UnitID,
		func(id int64) (store.Unit, error) { return h.queries.GetUnitByID(r.Context(), id) })
	if !ok {
		return
	}

	rootChanged := unit.Root != formData.FormValues["root"] ||
		unit.Branch != formData.FormValues["branch"] ||
		unit.Type != formData.FormValues["unit_type"]

	if _, err := h.queries.UpdateUnit(r.Context(), store.UpdateUnitParams{
		Name:        newFullName,
		Type:        formData.FormValues["unit_type"],
		Root:        formData.FormValues["root"],
		Branch:      formData.FormValues["branch"],
		Directory:   formData.FormValues["directory"],
		WebFrontend: formData.FormValues["web_frontend"],
		UpdatedAt:   now,
		ID:          unit.ID,
	}); err != nil {
		slog.Error("failed to update unit", "error", err, "unit_id", unit.ID)
		flashError(w, r, h.renderer, editURL, "Error updating component")
		return
	}

	updated, err := h.queries.UpdateComponent(r.Context(), store.UpdateComponentParams{
		Slug:         slug,
		Name:         formData.FormValues["name"],
		Description:  formData.FormValues["description"],
		I18nType:     formData.FormValues["i18n_type"],
		FileFilter:   formData.FormValues["file_filter"],
		SourceLang:   formData.FormValues["source_lang"],
		ShouldSubmit: formData.FormValues["should_submit"] == "on",
		UpdatedAt:    now,
		ID:           component.ID,
	})
	if err != nil {
		slog.Error("failed to update component", "error", err, "component_id", component.ID)
		flashError(w, r, h.renderer, editURL, "Error updating component")
		return
	}

	// A renamed or repointed unit abandons its old checkout; the next
	// refresh re-creates it under the new name.
	if newFullName != oldFullName || rootChanged {
		unlock := h.repos.Lock(unit.Name)
		err := h.repos.Teardown(unit.Name)
		unlock()
		if err != nil {
			slog.Warn("failed to remove stale checkout", "error", err, "unit", unit.Name)
		}
	}
	if err := h.cache.InvalidateComponent(r.Context(), oldFullName); err != nil {
		slog.Warn("failed to invalidate component cache", "error", err, "component", oldFullName)
	}

	if err := h.events.LogAudit(r.Context(), model.EventCategoryComponent, model.ActionChange,
		newFullName, middleware.GetUserIDPtr(r), r.RemoteAddr); err != nil {
		slog.Error("failed to log component update", "error", err)
	}

	flashSuccess(w, r, h.renderer,
		PathProjects+"/"+project.Slug+"/components/"+updated.Slug, "Component updated successfully")
}

// ConfirmDelete handles GET /projects/{project}/components/{component}/delete.
func (h *ComponentsHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	project, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	if err := h.renderer.Render(w, r, "site/component_confirm_delete", render.TemplateData{
		Title:    "Delete " + component.Name,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: map[string]any{
			"Project":   project,
			"Component": component,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render delete confirmation", "error", err)
	}
}

// Delete handles POST /projects/{project}/components/{component}/delete.
func (h *ComponentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	fullName := model.FullName(project.Slug, component.Slug)
	if err := deleteComponentResources(r, h.queries, h.cache, h.repos, project, component); err != nil {
		slog.Error("failed to delete component", "error", err, "component", fullName)
		flashError(w, r, h.renderer,
			PathProjects+"/"+project.Slug+"/components/"+component.Slug, "Error deleting component")
		return
	}

	if err := h.events.LogAudit(r.Context(), model.EventCategoryComponent, model.ActionDeletion,
		fullName, middleware.GetUserIDPtr(r), r.RemoteAddr); err != nil {
		slog.Error("failed to log component deletion", "error", err)
	}

	flashSuccess(w, r, h.renderer, PathProjects+"/"+project.Slug, "Component deleted successfully")
}

// RefreshStats handles POST /projects/{project}/components/{component}/set-stats.
// Updates the checkout and recalculates translation statistics.
func (h *ComponentsHandler) RefreshStats(w http.ResponseWriter, r *http.Request) {
	project, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	detailURL := PathProjects + "/" + project.Slug + "/components/" + component.Slug
	fullName := model.FullName(project.Slug, component.Slug)

	if err := h.updater.RefreshComponent(r.Context(), project, component); err != nil {
		if errors.Is(err, trans.ErrFileFilter) {
			flashError(w, r, h.renderer, detailURL, "The file filter matched no translation files")
			return
		}
		slog.Error("stats refresh failed", "error", err, "component", fullName)
		flashError(w, r, h.renderer, detailURL, "Error refreshing statistics")
		return
	}

	if err := h.events.LogComponentEvent(r.Context(), model.EventLevelInfo,
		"Statistics refreshed for "+fullName, middleware.GetUserIDPtr(r), r.RemoteAddr,
		map[string]any{"component": fullName}); err != nil {
		slog.Error("failed to log stats refresh", "error", err)
	}

	flashSuccess(w, r, h.renderer, detailURL, "Statistics refreshed")
}

// ClearCache handles POST /projects/{project}/components/{component}/clear-cache.
func (h *ComponentsHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	project, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	fullName := model.FullName(project.Slug, component.Slug)
	detailURL := PathProjects + "/" + project.Slug + "/components/" + component.Slug

	if err := h.cache.InvalidateComponent(r.Context(), fullName); err != nil {
		slog.Error("failed to clear component cache", "error", err, "component", fullName)
		flashError(w, r, h.renderer, detailURL, "Error clearing cache")
		return
	}

	if err := h.events.LogCacheEvent(r.Context(), model.EventLevelInfo,
		"Cache cleared for "+fullName, middleware.GetUserIDPtr(r), r.RemoteAddr,
		map[string]any{"component": fullName}); err != nil {
		slog.Error("failed to log cache clear", "error", err)
	}

	flashSuccess(w, r, h.renderer, detailURL, "Component cache cleared")
}

// validateComponentForm parses and validates the component form. Returns the
// collected form data and whether it passed validation. When editing,
// current carries the existing component for slug-change checks.
func (h *ComponentsHandler) validateComponentForm(r *http.Request, project store.Project, current store.Component) (ComponentFormData, bool) {
	name := strings.TrimSpace(r.FormValue("name"))
	slug := strings.TrimSpace(r.FormValue("slug"))
	if slug == "" && name != "" {
		slug = util.Slugify(name)
	}

	i18nType := r.FormValue("i18n_type")
	if i18nType == "" {
		i18nType = model.I18nTypePOT
	}

	formData := ComponentFormData{
		Errors: map[string]string{},
		FormValues: map[string]string{
			"name":          name,
			"slug":          slug,
			"description":   strings.TrimSpace(r.FormValue("description")),
			"i18n_type":     i18nType,
			"file_filter":   strings.TrimSpace(r.FormValue("file_filter")),
			"source_lang":   strings.TrimSpace(r.FormValue("source_lang")),
			"should_submit": r.FormValue("should_submit"),
			"unit_type":     r.FormValue("unit_type"),
			"root":          strings.TrimSpace(r.FormValue("root")),
			"branch":        strings.TrimSpace(r.FormValue("branch")),
			"directory":     strings.TrimSpace(r.FormValue("directory")),
			"web_frontend":  strings.TrimSpace(r.FormValue("web_frontend")),
		},
		IsEdit:    current.ID != 0,
		Project:   project,
		Component: current,
	}

	if name == "" {
		formData.Errors["name"] = "Name is required"
	}

	checkExists := func() (int64, error) {
		if current.ID != 0 {
			return h.queries.ComponentSlugExistsExcluding(r.Context(), store.ComponentSlugExistsExcludingParams{
				ProjectID: project.ID,
				Slug:      slug,
				ID:        current.ID,
			})
		}
		return h.queries.ComponentSlugExists(r.Context(), store.ComponentSlugExistsParams{
			ProjectID: project.ID,
			Slug:      slug,
		})
	}
	if current.ID != 0 && slug == current.Slug {
		// Unchanged slug needs no uniqueness check
	} else if msg := ValidateSlugWithChecker(slug, checkExists); msg != "" {
		formData.Errors["slug"] = msg
	}

	if !slices.Contains(model.ValidI18nTypes, i18nType) {
		formData.Errors["i18n_type"] = "Unsupported i18n type"
	}

	fileFilter := formData.FormValues["file_filter"]
	if fileFilter == "" {
		formData.Errors["file_filter"] = "File filter is required"
	} else if _, err := regexp.Compile(fileFilter); err != nil {
		formData.Errors["file_filter"] = "File filter is not a valid regular expression"
	}

	unitType := formData.FormValues["unit_type"]
	if !slices.Contains(model.ValidUnitTypes, unitType) {
		formData.Errors["unit_type"] = "Unsupported repository type"
	}
	if formData.FormValues["root"] == "" {
		formData.Errors["root"] = "Repository root is required"
	}
	if unitType == model.UnitTypeGit && formData.FormValues["branch"] == "" {
		formData.Errors["branch"] = "Branch is required for git repositories"
	}

	return formData, len(formData.Errors) == 0
}

// requireComponent fetches the project and component named by the URL.
func (h *ComponentsHandler) requireComponent(w http.ResponseWriter, r *http.Request) (store.Project, store.Component, bool) {
	project, ok := h.requireProjectParam(w, r)
	if !ok {
		return store.Project{}, store.Component{}, false
	}

	slug := chi.URLParam(r, "component")
	component, err := h.queries.GetComponentBySlug(r.Context(), store.GetComponentBySlugParams{
		ProjectID: project.ID,
		Slug:      slug,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
		} else {
			logAndInternalError(w, "failed to get component", "error", err, "slug", slug)
		}
		return store.Project{}, store.Component{}, false
	}
	return project, component, true
}

func (h *ComponentsHandler) requireProjectParam(w http.ResponseWriter, r *http.Request) (store.Project, bool) {
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

func (h *ComponentsHandler) renderComponentForm(w http.ResponseWriter, r *http.Request, data ComponentFormData) {
	data.UnitTypes = model.ValidUnitTypes
	data.I18nTypes = model.ValidI18nTypes

	title := "New Component"
	if data.IsEdit {
		title = "Edit " + data.Component.Name
	}
	if err := h.renderer.Render(w, r, "site/component_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     data,
	}); err != nil {
		logAndInternalError(w, "failed to render component form", "error", err)
	}
}
