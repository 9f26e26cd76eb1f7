package scheduler

import (
	"database/sql"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/otms-go/internal/cache"
	"github.com/olegiv/otms-go/internal/service"
	"github.com/olegiv/otms-go/internal/store"
	"github.com/olegiv/otms-go/internal/trans"
	"github.com/olegiv/otms-go/internal/vcs"
)

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cacheManager := cache.NewManager(cache.NewSimpleMemoryCache(time.Minute), time.Minute)
	repos := vcs.NewManager(t.TempDir())
	updater := trans.NewUpdater(store.New(db), cacheManager, repos)

	return New(updater, service.NewEventService(db), "@hourly", slog.Default())
}

func TestStartStop(t *testing.T) {
	s := testScheduler(t)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("registered jobs = %d, want 2", got)
	}
	s.Stop()
}

func TestStartInvalidSpec(t *testing.T) {
	s := testScheduler(t)
	s.refreshSpec = "not a cron spec"

	if err := s.Start(); err == nil {
		t.Error("Start() should reject an invalid cron spec")
	}
}
