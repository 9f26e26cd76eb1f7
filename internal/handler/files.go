// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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

// FilesHandler handles translation file download, viewing, upload, and
// edit locks.
type FilesHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	events         *service.EventService
	cache          *cache.Manager
	repos          *vcs.Manager
	uploadsDir     string
}

// NewFilesHandler creates a new files handler. uploadsDir receives
// submitted files before they are moved into the checkout.
func NewFilesHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager,
	events *service.EventService, cacheManager *cache.Manager, repos *vcs.Manager,
	uploadsDir string) *FilesHandler {
	return &FilesHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		events:         events,
		cache:          cacheManager,
		repos:          repos,
		uploadsDir:     uploadsDir,
	}
}

// POViewData is the template payload for the highlighted file view page.
type POViewData struct {
	Project     store.Project
	Component   store.Component
	File        store.POFile
	Filename    string
	Highlighted template.HTML
	Completion  int
}

// Raw handles GET /projects/{project}/components/{component}/raw/*.
// Serves the file as a download named after the component full name.
func (h *FilesHandler) Raw(w http.ResponseWriter, r *http.Request) {
	project, component, pofile, ok := h.requireFile(w, r)
	if !ok {
		return
	}

	content, err := h.fileContent(r.Context(), project, component, pofile.Filename)
	if err != nil {
		// A tracked file that is gone from the checkout is a stale
		// record, not a server fault.
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to read translation file",
			"error", err, "component", component.Slug, "file", pofile.Filename)
		return
	}

	fullName := model.FullName(project.Slug, component.Slug)
	downloadName := fullName + "." + path.Base(pofile.Filename)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	_, _ = w.Write(content)
}

// View handles GET /projects/{project}/components/{component}/view/*.
// Renders the file with syntax highlighting.
func (h *FilesHandler) View(w http.ResponseWriter, r *http.Request) {
	project, component, pofile, ok := h.requireFile(w, r)
	if !ok {
		return
	}

	content, err := h.fileContent(r.Context(), project, component, pofile.Filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to read translation file",
			"error", err, "component", component.Slug, "file", pofile.Filename)
		return
	}

	highlighted, err := highlightPO(content)
	if err != nil {
		logAndInternalError(w, "failed to highlight translation file",
			"error", err, "file", pofile.Filename)
		return
	}

	data := POViewData{
		Project:     project,
		Component:   component,
		File:        pofile,
		Filename:    pofile.Filename,
		Highlighted: highlighted,
	}
	if pofile.Total > 0 {
		data.Completion = int(pofile.Translated * 100 / pofile.Total)
	}

	if err := h.renderer.Render(w, r, "site/poview", render.TemplateData{
		Title:    pofile.Filename,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     data,
	}); err != nil {
		logAndInternalError(w, "failed to render file view", "error", err)
	}
}

// Submit handles POST /projects/{project}/components/{component}/submit/*.
// Accepts an uploaded translation file, places it in the checkout, records
// the change once when the component submits upstream, and refreshes the
// file's statistics.
func (h *FilesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	project, component, pofile, ok := h.requireFile(w, r)
	if !ok {
		return
	}

	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}

	fullName := model.FullName(project.Slug, component.Slug)
	detailURL := PathProjects + "/" + project.Slug + "/components/" + component.Slug

	// A lock held by someone else blocks the upload.
	lock, err := h.queries.GetPOFileLock(r.Context(), pofile.ID)
	if err == nil && lock.OwnerID != user.ID {
		flashError(w, r, h.renderer, detailURL, "This file is locked by another user")
		return
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "failed to check file lock", "error", err, "pofile_id", pofile.ID)
		return
	}

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		flashError(w, r, h.renderer, detailURL, "Invalid upload")
		return
	}
	upload, _, err := r.FormFile("file")
	if err != nil {
		flashError(w, r, h.renderer, detailURL, "Please select a file to upload")
		return
	}
	defer upload.Close()

	tmpPath, err := h.saveUpload(upload)
	if err != nil {
		logAndInternalError(w, "failed to store upload", "error", err)
		return
	}
	defer os.Remove(tmpPath)

	unit, ok := requireEntityWithRedirect(w, r, h.renderer, detailURL, "unit", component.UnitID,
		func(id int64) (store.Unit, error) { return h.queries.GetUnitByID(r.Context(), id) })
	if !ok {
		return
	}

	unlock := h.repos.Lock(unit.Name)
	defer unlock()

	browser, err := h.repos.Browser(unit)
	if err != nil {
		logAndInternalError(w, "failed to open repository", "error", err, "unit", unit.Name)
		return
	}
	if err := browser.Setup(r.Context()); err != nil {
		logAndInternalError(w, "failed to set up checkout", "error", err, "unit", unit.Name)
		return
	}
	if err := browser.Update(r.Context()); err != nil {
		logAndInternalError(w, "failed to update checkout", "error", err, "unit", unit.Name)
		return
	}

	potHandler, err := trans.NewPOTHandler(
		filepath.Join(browser.Path(), filepath.FromSlash(unit.Directory)),
		component.FileFilter, component.SourceLang)
	if err != nil {
		logAndInternalError(w, "invalid component file filter", "error", err, "component", fullName)
		return
	}
	if !potHandler.Matches(pofile.Filename) {
		flashError(w, r, h.renderer, detailURL, "The file does not match the component's file filter")
		return
	}

	dest, err := util.SafeJoinPath(
		filepath.Join(browser.Path(), filepath.FromSlash(unit.Directory)),
		filepath.FromSlash(pofile.Filename))
	if err != nil {
		logAndInternalError(w, "invalid file path", "error", err, "file", pofile.Filename)
		return
	}
	if err := moveFile(tmpPath, dest); err != nil {
		logAndInternalError(w, "failed to place upload in checkout", "error", err, "file", pofile.Filename)
		return
	}

	stats, err := potHandler.FileStats(pofile.Filename)
	if err != nil {
		flashError(w, r, h.renderer, detailURL, "The uploaded file could not be parsed")
		return
	}

	// One commit, one push per upload.
	if component.ShouldSubmit {
		message := fmt.Sprintf("Updated %s via web upload by %s", pofile.Filename, user.Email)
		relPath := path.Join(unit.Directory, pofile.Filename)
		if err := browser.Submit(r.Context(), message, []string{relPath}); err != nil {
			slog.Error("failed to submit upload upstream", "error", err, "unit", unit.Name)
			if logErr := h.events.LogRepoEvent(r.Context(), model.EventLevelError,
				"Failed to push "+pofile.Filename+" for "+fullName, &user.ID, r.RemoteAddr,
				map[string]any{"component": fullName, "file": pofile.Filename}); logErr != nil {
				slog.Error("failed to log repo event", "error", logErr)
			}
			flashError(w, r, h.renderer, detailURL, "File stored, but pushing to the repository failed")
			return
		}
	}

	now := time.Now()

	// Files tracked before language detection carry no language yet.
	langID := pofile.LanguageID
	if !langID.Valid {
		if code := potHandler.GuessLanguage(pofile.Filename); code != "" {
			if lang, err := h.queries.GetLanguageByCode(r.Context(), code); err == nil {
				langID = sql.NullInt64{Int64: lang.ID, Valid: true}
			}
		}
	}
	if _, err := h.queries.UpsertPOFile(r.Context(), store.UpsertPOFileParams{
		ComponentID:  component.ID,
		Filename:     pofile.Filename,
		LanguageID:   langID,
		Total:        int64(stats.Total),
		Translated:   int64(stats.Translated),
		Fuzzy:        int64(stats.Fuzzy),
		Untranslated: int64(stats.Untranslated),
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		logAndInternalError(w, "failed to update file statistics", "error", err, "file", pofile.Filename)
		return
	}

	if err := h.cache.InvalidateComponent(r.Context(), fullName); err != nil {
		slog.Warn("failed to invalidate component cache", "error", err, "component", fullName)
	}

	if err := h.events.LogFileEvent(r.Context(), model.EventLevelInfo,
		"File "+pofile.Filename+" uploaded for "+fullName, &user.ID, r.RemoteAddr,
		map[string]any{"component": fullName, "file": pofile.Filename}); err != nil {
		slog.Error("failed to log file upload", "error", err)
	}

	flashSuccess(w, r, h.renderer, detailURL, "File uploaded successfully")
}

// ToggleLock handles POST /projects/{project}/components/{component}/lock/*.
// No lock: the caller acquires one. Own lock: it is released. Someone
// else's lock: the request is refused.
func (h *FilesHandler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	project, component, pofile, ok := h.requireFile(w, r)
	if !ok {
		return
	}

	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}

	fullName := model.FullName(project.Slug, component.Slug)
	detailURL := PathProjects + "/" + project.Slug + "/components/" + component.Slug

	lock, err := h.queries.GetPOFileLock(r.Context(), pofile.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// The unique index on pofile_id arbitrates concurrent attempts.
		if _, err := h.queries.CreatePOFileLock(r.Context(), store.CreatePOFileLockParams{
			PofileID:  pofile.ID,
			OwnerID:   user.ID,
			CreatedAt: time.Now(),
		}); err != nil {
			flashError(w, r, h.renderer, detailURL, "This file was just locked by another user")
			return
		}
		if err := h.events.LogFileEvent(r.Context(), model.EventLevelInfo,
			"File "+pofile.Filename+" locked for "+fullName, &user.ID, r.RemoteAddr,
			map[string]any{"component": fullName, "file": pofile.Filename}); err != nil {
			slog.Error("failed to log file lock", "error", err)
		}
		flashSuccess(w, r, h.renderer, detailURL, "File locked")

	case err != nil:
		logAndInternalError(w, "failed to check file lock", "error", err, "pofile_id", pofile.ID)

	case lock.OwnerID == user.ID:
		if err := h.queries.DeletePOFileLock(r.Context(), lock.ID); err != nil {
			logAndInternalError(w, "failed to release file lock", "error", err, "lock_id", lock.ID)
			return
		}
		if err := h.events.LogFileEvent(r.Context(), model.EventLevelInfo,
			"File "+pofile.Filename+" unlocked for "+fullName, &user.ID, r.RemoteAddr,
			map[string]any{"component": fullName, "file": pofile.Filename}); err != nil {
			slog.Error("failed to log file unlock", "error", err)
		}
		flashSuccess(w, r, h.renderer, detailURL, "File unlocked")

	default:
		flashError(w, r, h.renderer, detailURL, "This file is locked by another user")
	}
}

// fileContent returns a tracked file's bytes, preferring the cache and
// reading the checkout on miss.
func (h *FilesHandler) fileContent(ctx context.Context, project store.Project,
	component store.Component, filename string) ([]byte, error) {
	fullName := model.FullName(project.Slug, component.Slug)

	if data, err := h.cache.GetContent(ctx, fullName, filename); err == nil && data != nil {
		return data, nil
	}

	unit, err := h.queries.GetUnitByID(ctx, component.UnitID)
	if err != nil {
		return nil, err
	}

	unlock := h.repos.Lock(unit.Name)
	defer unlock()

	browser, err := h.repos.Browser(unit)
	if err != nil {
		return nil, err
	}
	if err := browser.Setup(ctx); err != nil {
		return nil, err
	}

	potHandler, err := trans.NewPOTHandler(
		filepath.Join(browser.Path(), filepath.FromSlash(unit.Directory)),
		component.FileFilter, component.SourceLang)
	if err != nil {
		return nil, err
	}
	data, err := potHandler.FileContent(filename)
	if err != nil {
		return nil, err
	}

	if err := h.cache.SetContent(ctx, fullName, filename, data); err != nil {
		slog.Warn("failed to cache file content", "error", err, "component", fullName, "file", filename)
	}

	return data, nil
}

// requireFile resolves the project, component, and tracked file named by
// the URL. Only files with a statistics record are served.
func (h *FilesHandler) requireFile(w http.ResponseWriter, r *http.Request) (store.Project, store.Component, store.POFile, bool) {
	projectSlug := chi.URLParam(r, "project")
	project, err := h.queries.GetProjectBySlug(r.Context(), projectSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
		} else {
			logAndInternalError(w, "failed to get project", "error", err, "slug", projectSlug)
		}
		return store.Project{}, store.Component{}, store.POFile{}, false
	}

	componentSlug := chi.URLParam(r, "component")
	component, err := h.queries.GetComponentBySlug(r.Context(), store.GetComponentBySlugParams{
		ProjectID: project.ID,
		Slug:      componentSlug,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
		} else {
			logAndInternalError(w, "failed to get component", "error", err, "slug", componentSlug)
		}
		return store.Project{}, store.Component{}, store.POFile{}, false
	}

	filename := path.Clean(chi.URLParam(r, "*"))
	pofile, err := h.queries.GetPOFile(r.Context(), store.GetPOFileParams{
		ComponentID: component.ID,
		Filename:    filename,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
		} else {
			logAndInternalError(w, "failed to get translation file", "error", err, "file", filename)
		}
		return store.Project{}, store.Component{}, store.POFile{}, false
	}

	return project, component, pofile, true
}

// saveUpload spools the uploaded file into the uploads directory under a
// random name and returns the path.
func (h *FilesHandler) saveUpload(upload io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		return "", err
	}
	tmpPath := filepath.Join(h.uploadsDir, uuid.NewString()+".po")
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, io.LimitReader(upload, MaxUploadSize)); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// moveFile moves src to dst, copying when a rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}

// highlightPO renders PO file content as HTML with line numbers.
func highlightPO(content []byte) (template.HTML, error) {
	lexer := lexers.Get("gettext")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, string(content))
	if err != nil {
		return "", err
	}

	formatter := chromahtml.New(chromahtml.WithLineNumbers(true))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // chroma output is escaped
}
