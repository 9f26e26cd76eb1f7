// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/otms-go/internal/cache"
	"github.com/olegiv/otms-go/internal/middleware"
	"github.com/olegiv/otms-go/internal/model"
	"github.com/olegiv/otms-go/internal/render"
	"github.com/olegiv/otms-go/internal/service"
)

// CacheHandler handles the cache administration page.
type CacheHandler struct {
	renderer *render.Renderer
	cache    *cache.Manager
	events   *service.EventService
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(renderer *render.Renderer, cacheManager *cache.Manager, events *service.EventService) *CacheHandler {
	return &CacheHandler{
		renderer: renderer,
		cache:    cacheManager,
		events:   events,
	}
}

// Stats handles GET /cache with backend statistics.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "site/cache_stats", render.TemplateData{
		Title:    "Cache",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     h.cache.Stats(),
	}); err != nil {
		logAndInternalError(w, "failed to render cache stats", "error", err)
	}
}

// Clear handles POST /cache/clear. Drops every cached entry.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.ClearAll(r.Context()); err != nil {
		slog.Error("failed to clear cache", "error", err)
		flashError(w, r, h.renderer, PathCache, "Error clearing cache")
		return
	}

	if err := h.events.LogCacheEvent(r.Context(), model.EventLevelInfo,
		"Cache cleared", middleware.GetUserIDPtr(r), r.RemoteAddr, nil); err != nil {
		slog.Error("failed to log cache clear", "error", err)
	}

	flashSuccess(w, r, h.renderer, PathCache, "Cache cleared")
}
