// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package trans

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/olegiv/otms-go/internal/cache"
	"github.com/olegiv/otms-go/internal/model"
	"github.com/olegiv/otms-go/internal/store"
	"github.com/olegiv/otms-go/internal/vcs"
)

// Updater rebuilds translation statistics for components. It refreshes
// the repository checkout, re-parses every matching catalog file, and
// keeps the pofiles table and the cache in sync with what is on disk.
type Updater struct {
	queries *store.Queries
	cache   *cache.Manager
	repos   *vcs.Manager
}

// NewUpdater creates an Updater.
func NewUpdater(queries *store.Queries, cacheManager *cache.Manager, repos *vcs.Manager) *Updater {
	return &Updater{
		queries: queries,
		cache:   cacheManager,
		repos:   repos,
	}
}

// RefreshComponent updates the component's checkout and recomputes the
// statistics of every translation file it contains. Files that vanished
// from the checkout are disabled, not deleted. Returns ErrFileFilter
// when the component's file filter matches nothing.
func (u *Updater) RefreshComponent(ctx context.Context, project store.Project, component store.Component) error {
	unit, err := u.queries.GetUnitByID(ctx, component.UnitID)
	if err != nil {
		return fmt.Errorf("loading unit for component %d: %w", component.ID, err)
	}

	unlock := u.repos.Lock(unit.Name)
	defer unlock()

	browser, err := u.repos.Browser(unit)
	if err != nil {
		return err
	}
	if err := browser.Setup(ctx); err != nil {
		return err
	}
	if err := browser.Update(ctx); err != nil {
		return err
	}

	fullName := model.FullName(project.Slug, component.Slug)
	handler, err := NewPOTHandler(
		filepath.Join(browser.Path(), filepath.FromSlash(unit.Directory)),
		component.FileFilter, component.SourceLang)
	if err != nil {
		return err
	}

	files, err := handler.Files()
	if err != nil {
		// Stale entries must not keep serving once the filter stops
		// matching anything.
		if cerr := u.cache.InvalidateComponent(ctx, fullName); cerr != nil {
			slog.Warn("cache invalidation failed",
				"category", "cache", "component", fullName, "error", cerr)
		}
		return err
	}

	cutoff := time.Now()
	for _, f := range files {
		stats, err := handler.FileStats(f)
		if err != nil {
			slog.Warn("skipping unreadable translation file",
				"category", "component", "component", fullName, "file", f, "error", err)
			continue
		}

		var langID sql.NullInt64
		if code := handler.GuessLanguage(f); code != "" {
			if lang, err := u.queries.GetLanguageByCode(ctx, code); err == nil {
				langID = sql.NullInt64{Int64: lang.ID, Valid: true}
			}
		}

		now := time.Now()
		_, err = u.queries.UpsertPOFile(ctx, store.UpsertPOFileParams{
			ComponentID:  component.ID,
			Filename:     f,
			LanguageID:   langID,
			Total:        int64(stats.Total),
			Translated:   int64(stats.Translated),
			Fuzzy:        int64(stats.Fuzzy),
			Untranslated: int64(stats.Untranslated),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("storing stats for %s/%s: %w", fullName, f, err)
		}
	}

	err = u.queries.DisableMissingPOFiles(ctx, store.DisableMissingPOFilesParams{
		UpdatedAt:   time.Now(),
		ComponentID: component.ID,
		Cutoff:      cutoff,
	})
	if err != nil {
		return fmt.Errorf("disabling missing files for %s: %w", fullName, err)
	}

	err = u.queries.TouchComponent(ctx, store.TouchComponentParams{
		UpdatedAt: time.Now(),
		ID:        component.ID,
	})
	if err != nil {
		return fmt.Errorf("touching component %s: %w", fullName, err)
	}

	if err := u.cache.InvalidateComponent(ctx, fullName); err != nil {
		slog.Warn("cache invalidation failed",
			"category", "cache", "component", fullName, "error", err)
	}

	slog.Info("component stats refreshed",
		"category", "component", "component", fullName, "files", len(files))
	return nil
}

// RefreshAll refreshes every component. Per-component failures are
// logged and do not stop the sweep; the first error is returned after
// all components were attempted.
func (u *Updater) RefreshAll(ctx context.Context) error {
	components, err := u.queries.ListComponents(ctx)
	if err != nil {
		return fmt.Errorf("listing components: %w", err)
	}

	var firstErr error
	for _, c := range components {
		project, err := u.queries.GetProjectByID(ctx, c.ProjectID)
		if err != nil {
			slog.Error("loading project for stats refresh",
				"category", "component", "component_id", c.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := u.RefreshComponent(ctx, project, c); err != nil {
			slog.Error("component stats refresh failed",
				"category", "component",
				"component", model.FullName(project.Slug, c.Slug), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
