// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"slices"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/otms-go/internal/middleware"
	"github.com/olegiv/otms-go/internal/model"
	"github.com/olegiv/otms-go/internal/render"
	"github.com/olegiv/otms-go/internal/store"
)

// validEventCategories are the category filter values accepted by the
// event log page.
var validEventCategories = []string{
	model.EventCategoryAuth,
	model.EventCategoryProject,
	model.EventCategoryComponent,
	model.EventCategoryFile,
	model.EventCategoryRepo,
	model.EventCategorySystem,
	model.EventCategoryCache,
}

// EventsHandler handles the event log pages.
type EventsHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *EventsHandler {
	return &EventsHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// EventsListData is the template payload for the event log page.
type EventsListData struct {
	Events     []store.EventWithUser
	Categories []string
	Category   string
	Pagination AdminPagination
}

// List handles GET /events with optional category filtering.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !slices.Contains(validEventCategories, category) {
		category = ""
	}

	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, EventsPerPage, MaxEventPerPage)

	var (
		total int64
		err   error
	)
	if category != "" {
		total, err = h.queries.CountEventsByCategory(r.Context(), category)
	} else {
		total, err = h.queries.CountEvents(r.Context())
	}
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}

	page, _ = NormalizePagination(page, int(total), perPage)
	offset := int64((page - 1) * perPage)

	var events []store.EventWithUser
	if category != "" {
		events, err = h.queries.ListEventsByCategoryWithUser(r.Context(), store.ListEventsByCategoryWithUserParams{
			Category: category,
			Limit:    int64(perPage),
			Offset:   offset,
		})
	} else {
		events, err = h.queries.ListEventsWithUser(r.Context(), store.ListEventsWithUserParams{
			Limit:  int64(perPage),
			Offset: offset,
		})
	}
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	data := EventsListData{
		Events:     events,
		Categories: validEventCategories,
		Category:   category,
		Pagination: BuildAdminPagination(page, int(total), perPage, PathEvents, r.URL.Query()),
	}

	if err := h.renderer.Render(w, r, "site/events_list", render.TemplateData{
		Title:    "Events",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     data,
	}); err != nil {
		logAndInternalError(w, "failed to render event log", "error", err)
	}
}
