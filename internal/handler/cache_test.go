package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/otms-go/internal/cache"
	"github.com/olegiv/otms-go/internal/service"
)

func TestCacheStatsPage(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	cacheManager := cache.NewManager(cache.NewSimpleMemoryCache(time.Minute), time.Minute)
	h := NewCacheHandler(testRenderer(t, sm), cacheManager, service.NewEventService(db))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cache", nil)
	req = requestWithSession(sm, req)
	h.Stats(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
}

func TestCacheClear(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	cacheManager := cache.NewManager(cache.NewSimpleMemoryCache(time.Minute), time.Minute)
	h := NewCacheHandler(testRenderer(t, sm), cacheManager, service.NewEventService(db))

	ctx := context.Background()
	if err := cacheManager.SetStats(ctx, "gnome.po-docs", []byte("[]")); err != nil {
		t.Fatalf("SetStats: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/cache/clear", nil)
	req = requestWithSession(sm, req)

	rec := httptest.NewRecorder()
	h.Clear(rec, req)

	assertStatus(t, rec.Code, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != PathCache {
		t.Errorf("Location = %q, want %q", loc, PathCache)
	}

	if data, err := cacheManager.GetStats(ctx, "gnome.po-docs"); err == nil && data != nil {
		t.Error("cache should be empty after clear")
	}
}
