// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/feeds"

	"github.com/olegiv/otms-go/internal/store"
)

// FeedsHandler serves RSS and Atom feeds of project and component activity.
type FeedsHandler struct {
	queries *store.Queries
	baseURL string
}

// NewFeedsHandler creates a new feeds handler. baseURL is the externally
// visible site root without a trailing slash.
func NewFeedsHandler(db *sql.DB, baseURL string) *FeedsHandler {
	return &FeedsHandler{
		queries: store.New(db),
		baseURL: baseURL,
	}
}

// LatestProjects handles GET /projects/feed with the most recently
// updated projects.
func (h *FeedsHandler) LatestProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.queries.ListRecentProjects(r.Context(), 20)
	if err != nil {
		logAndInternalError(w, "failed to list recent projects", "error", err)
		return
	}

	feed := &feeds.Feed{
		Title:       "Latest projects",
		Link:        &feeds.Link{Href: h.baseURL + PathProjects},
		Description: "Recently updated translation projects",
	}
	for _, p := range projects {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       p.Name,
			Link:        &feeds.Link{Href: h.baseURL + PathProjects + "/" + p.Slug},
			Description: p.Description,
			Created:     p.CreatedAt,
			Updated:     p.UpdatedAt,
			Id:          h.baseURL + PathProjects + "/" + p.Slug,
		})
		if p.UpdatedAt.After(feed.Updated) {
			feed.Updated = p.UpdatedAt
		}
	}

	h.writeFeed(w, r, feed)
}

// ProjectFeed handles GET /projects/{project}/feed with the project's
// recently updated components.
func (h *FeedsHandler) ProjectFeed(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "project")
	project, err := h.queries.GetProjectBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
		} else {
			logAndInternalError(w, "failed to get project", "error", err, "slug", slug)
		}
		return
	}

	components, err := h.queries.ListRecentComponentsByProject(r.Context(), store.ListRecentComponentsByProjectParams{
		ProjectID: project.ID,
		Limit:     20,
	})
	if err != nil {
		logAndInternalError(w, "failed to list components", "error", err, "project", project.Slug)
		return
	}

	projectURL := h.baseURL + PathProjects + "/" + project.Slug
	feed := &feeds.Feed{
		Title:       project.Name,
		Link:        &feeds.Link{Href: projectURL},
		Description: project.Description,
		Created:     project.CreatedAt,
		Updated:     project.UpdatedAt,
	}
	for _, c := range components {
		componentURL := projectURL + "/components/" + c.Slug
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       c.Name,
			Link:        &feeds.Link{Href: componentURL},
			Description: c.Description,
			Created:     c.CreatedAt,
			Updated:     c.UpdatedAt,
			Id:          componentURL,
		})
	}

	h.writeFeed(w, r, feed)
}

// writeFeed serializes the feed as Atom when ?format=atom is given, RSS
// otherwise.
func (h *FeedsHandler) writeFeed(w http.ResponseWriter, r *http.Request, feed *feeds.Feed) {
	var (
		body        string
		contentType string
		err         error
	)
	if r.URL.Query().Get("format") == "atom" {
		body, err = feed.ToAtom()
		contentType = "application/atom+xml; charset=utf-8"
	} else {
		body, err = feed.ToRss()
		contentType = "application/rss+xml; charset=utf-8"
	}
	if err != nil {
		logAndInternalError(w, "failed to serialize feed", "error", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write([]byte(body))
}
