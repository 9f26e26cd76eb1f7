package cache

import (
	"context"
	"testing"
	"time"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(NewSimpleMemoryCache(time.Hour), time.Hour)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_StatsRoundTrip(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	if _, err := m.GetStats(ctx, "fooproj.main"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	if err := m.SetStats(ctx, "fooproj.main", []byte(`{"total":100}`)); err != nil {
		t.Fatalf("SetStats: %v", err)
	}

	data, err := m.GetStats(ctx, "fooproj.main")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if string(data) != `{"total":100}` {
		t.Errorf("data = %s", data)
	}
}

func TestManager_ContentRoundTrip(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	if err := m.SetContent(ctx, "fooproj.main", "po/de.po", []byte("msgid")); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	data, err := m.GetContent(ctx, "fooproj.main", "po/de.po")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if string(data) != "msgid" {
		t.Errorf("data = %s", data)
	}
}

func TestManager_InvalidateComponent(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	// Populate two components
	if err := m.SetStats(ctx, "fooproj.main", []byte("a")); err != nil {
		t.Fatalf("SetStats: %v", err)
	}
	if err := m.SetContent(ctx, "fooproj.main", "po/de.po", []byte("b")); err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	if err := m.SetStats(ctx, "fooproj.docs", []byte("c")); err != nil {
		t.Fatalf("SetStats: %v", err)
	}

	if err := m.InvalidateComponent(ctx, "fooproj.main"); err != nil {
		t.Fatalf("InvalidateComponent: %v", err)
	}

	// Invalidated component entries are gone
	if _, err := m.GetStats(ctx, "fooproj.main"); err != ErrCacheMiss {
		t.Errorf("stats: expected ErrCacheMiss, got %v", err)
	}
	if _, err := m.GetContent(ctx, "fooproj.main", "po/de.po"); err != ErrCacheMiss {
		t.Errorf("content: expected ErrCacheMiss, got %v", err)
	}

	// Other component is untouched
	if _, err := m.GetStats(ctx, "fooproj.docs"); err != nil {
		t.Errorf("other component stats should survive, got %v", err)
	}
}

func TestManager_ConfigRoundTrip(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	if err := m.SetConfig(ctx, "site_name", []byte("Translations")); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	data, err := m.GetConfig(ctx, "site_name")
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if string(data) != "Translations" {
		t.Errorf("data = %s", data)
	}

	if err := m.InvalidateConfig(ctx); err != nil {
		t.Fatalf("InvalidateConfig: %v", err)
	}
	if _, err := m.GetConfig(ctx, "site_name"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after invalidation, got %v", err)
	}
}

func TestManager_ClearAll(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	if err := m.SetStats(ctx, "fooproj.main", []byte("a")); err != nil {
		t.Fatalf("SetStats: %v", err)
	}
	if err := m.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if _, err := m.GetStats(ctx, "fooproj.main"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after clear, got %v", err)
	}

	stats := m.Stats()
	if stats.Sets != 0 {
		t.Errorf("Sets = %d, want 0 after reset", stats.Sets)
	}
}
