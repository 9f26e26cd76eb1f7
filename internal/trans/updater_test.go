package trans

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/otms-go/internal/cache"
	"github.com/olegiv/otms-go/internal/store"
	"github.com/olegiv/otms-go/internal/vcs"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "otms-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		db.Close()
		os.Remove(dbPath)
	}
}

// newTestUpdater wires an Updater over a local checkout directory and
// returns it with the created project and component.
func newTestUpdater(t *testing.T, q *store.Queries, checkout, fileFilter string) (*Updater, store.Project, store.Component) {
	t.Helper()

	ctx := context.Background()
	now := time.Now()

	project, err := q.CreateProject(ctx, store.CreateProjectParams{
		Slug: "fooproj", Name: "Foo Project", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	unit, err := q.CreateUnit(ctx, store.CreateUnitParams{
		Name: "fooproj.main", Type: "local", Root: checkout,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}

	component, err := q.CreateComponent(ctx, store.CreateComponentParams{
		ProjectID: project.ID, Slug: "main", Name: "Main",
		UnitID: unit.ID, I18nType: "POT", FileFilter: fileFilter,
		SourceLang: "en", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}

	manager := cache.NewManager(cache.NewSimpleMemoryCache(time.Minute), time.Minute)
	updater := NewUpdater(q, manager, vcs.NewManager(t.TempDir()))
	return updater, project, component
}

func TestRefreshComponent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)

	checkout := writeCheckout(t, map[string]string{
		"po/de.po": testPODE,
		"po/fr.po": testPOT,
	})

	now := time.Now()
	if _, err := q.CreateLanguage(ctx, store.CreateLanguageParams{
		Code: "de", Name: "German", NativeName: "Deutsch",
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateLanguage: %v", err)
	}

	updater, project, component := newTestUpdater(t, q, checkout, `po/.*\.po$`)

	if err := updater.RefreshComponent(ctx, project, component); err != nil {
		t.Fatalf("RefreshComponent: %v", err)
	}

	files, err := q.ListPOFilesByComponent(ctx, component.ID)
	if err != nil {
		t.Fatalf("ListPOFilesByComponent: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}

	byName := make(map[string]store.POFile)
	for _, f := range files {
		byName[f.Filename] = f
	}

	de, ok := byName["po/de.po"]
	if !ok {
		t.Fatal("po/de.po not recorded")
	}
	if de.Total != 3 || de.Translated != 1 || de.Fuzzy != 1 || de.Untranslated != 1 {
		t.Errorf("de.po stats = %d/%d/%d/%d, want 3/1/1/1",
			de.Total, de.Translated, de.Fuzzy, de.Untranslated)
	}
	if !de.LanguageID.Valid {
		t.Error("de.po should resolve to the seeded language")
	}

	fr, ok := byName["po/fr.po"]
	if !ok {
		t.Fatal("po/fr.po not recorded")
	}
	if fr.LanguageID.Valid {
		t.Error("fr.po should not resolve to a language")
	}
}

func TestRefreshComponent_DisablesMissing(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)

	checkout := writeCheckout(t, map[string]string{
		"po/de.po": testPODE,
		"po/fr.po": testPODE,
	})

	updater, project, component := newTestUpdater(t, q, checkout, `po/.*\.po$`)

	if err := updater.RefreshComponent(ctx, project, component); err != nil {
		t.Fatalf("first RefreshComponent: %v", err)
	}

	if err := os.Remove(filepath.Join(checkout, "po", "fr.po")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := updater.RefreshComponent(ctx, project, component); err != nil {
		t.Fatalf("second RefreshComponent: %v", err)
	}

	files, err := q.ListPOFilesByComponent(ctx, component.ID)
	if err != nil {
		t.Fatalf("ListPOFilesByComponent: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1", len(files))
	}
	if files[0].Filename != "po/de.po" {
		t.Errorf("remaining file = %q, want po/de.po", files[0].Filename)
	}
}

func TestRefreshComponent_FileFilterMismatch(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)

	checkout := writeCheckout(t, map[string]string{"README": "no catalogs here"})
	updater, project, component := newTestUpdater(t, q, checkout, `po/.*\.po$`)

	err := updater.RefreshComponent(ctx, project, component)
	if !errors.Is(err, ErrFileFilter) {
		t.Errorf("RefreshComponent error = %v, want ErrFileFilter", err)
	}
}

func TestRefreshComponent_InvalidFilter(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)

	checkout := writeCheckout(t, map[string]string{"po/de.po": testPODE})
	updater, project, component := newTestUpdater(t, q, checkout, `po/(`)

	if err := updater.RefreshComponent(ctx, project, component); err == nil {
		t.Error("expected error for invalid file filter")
	}
}
