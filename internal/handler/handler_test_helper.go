package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/olegiv/otms-go/internal/middleware"
	"github.com/olegiv/otms-go/internal/render"
	"github.com/olegiv/otms-go/internal/store"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'maintainer',
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);

		CREATE TABLE languages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			native_name TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			long_description TEXT NOT NULL DEFAULT '',
			homepage TEXT NOT NULL DEFAULT '',
			feed_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE units (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'git',
			root TEXT NOT NULL,
			branch TEXT NOT NULL DEFAULT '',
			directory TEXT NOT NULL DEFAULT '',
			web_frontend TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE components (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			unit_id INTEGER NOT NULL,
			i18n_type TEXT NOT NULL DEFAULT 'POT',
			file_filter TEXT NOT NULL DEFAULT 'po/.*\.pot?$',
			source_lang TEXT NOT NULL DEFAULT 'en',
			should_submit BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
			FOREIGN KEY (unit_id) REFERENCES units(id),
			UNIQUE (project_id, slug)
		);

		CREATE TABLE pofiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			component_id INTEGER NOT NULL,
			filename TEXT NOT NULL,
			language_id INTEGER,
			total INTEGER NOT NULL DEFAULT 0,
			translated INTEGER NOT NULL DEFAULT 0,
			fuzzy INTEGER NOT NULL DEFAULT 0,
			untranslated INTEGER NOT NULL DEFAULT 0,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (component_id) REFERENCES components(id) ON DELETE CASCADE,
			FOREIGN KEY (language_id) REFERENCES languages(id) ON DELETE SET NULL,
			UNIQUE (component_id, filename)
		);

		CREATE TABLE pofile_locks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pofile_id INTEGER NOT NULL UNIQUE,
			owner_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (pofile_id) REFERENCES pofiles(id) ON DELETE CASCADE,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			ip_address TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
		);

		CREATE TABLE config (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			value TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	return db
}

// testRenderer creates a renderer over a minimal template tree covering
// the pages exercised by handler tests.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	page := &fstest.MapFile{Data: []byte(`{{define "content"}}{{.Title}}{{end}}`)}
	templatesFS := fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{define "base"}}<html><title>{{.Title}}</title>{{template "content" .}}</html>{{end}}`),
		},
		"site/home.html":                     page,
		"site/project_list.html":             page,
		"site/project_detail.html":           page,
		"site/project_form.html":             page,
		"site/project_confirm_delete.html":   page,
		"site/component_detail.html":         page,
		"site/component_form.html":           page,
		"site/component_confirm_delete.html": page,
		"site/poview.html":                   page,
		"site/events_list.html":              page,
		"site/cache_stats.html":              page,
		"auth/login.html":                    page,
	}

	renderer, err := render.New(render.Config{TemplatesFS: templatesFS, SessionManager: sm})
	if err != nil {
		t.Fatalf("failed to create test renderer: %v", err)
	}
	return renderer
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testUser is a test user for testing.
type testUser struct {
	ID           int64
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *sql.DB, user testUser) store.User {
	t.Helper()

	if user.PasswordHash == "" {
		// Default password hash for "password123"
		user.PasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$c29tZXNhbHQ$RdescudvJCsgt3ub+b+dWRWJTmaaJObG"
	}

	now := time.Now()
	result, err := db.Exec(
		`INSERT INTO users (email, password_hash, role, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Role, user.Name, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.User{
		ID:           id,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Name:         user.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// createTestProject inserts a project row.
func createTestProject(t *testing.T, db *sql.DB, slug, name string) store.Project {
	t.Helper()

	now := time.Now()
	result, err := db.Exec(
		`INSERT INTO projects (slug, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		slug, name, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	id, _ := result.LastInsertId()
	return store.Project{ID: id, Slug: slug, Name: name, CreatedAt: now, UpdatedAt: now}
}

// createTestComponent inserts a unit and component pair for the project.
func createTestComponent(t *testing.T, db *sql.DB, project store.Project, slug, root string) store.Component {
	t.Helper()

	now := time.Now()
	unitName := project.Slug + "." + slug
	unitRes, err := db.Exec(
		`INSERT INTO units (name, type, root, created_at, updated_at) VALUES (?, 'local', ?, ?, ?)`,
		unitName, root, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test unit: %v", err)
	}
	unitID, _ := unitRes.LastInsertId()

	res, err := db.Exec(
		`INSERT INTO components (project_id, slug, name, unit_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID, slug, slug, unitID, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test component: %v", err)
	}
	id, _ := res.LastInsertId()
	return store.Component{
		ID:           id,
		ProjectID:    project.ID,
		Slug:         slug,
		Name:         slug,
		UnitID:       unitID,
		I18nType:     "POT",
		FileFilter:   `po/.*\.pot?$`,
		SourceLang:   "en",
		ShouldSubmit: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// createTestPOFile inserts a translation file record.
func createTestPOFile(t *testing.T, db *sql.DB, componentID int64, filename string, total, translated int64) store.POFile {
	t.Helper()

	now := time.Now()
	res, err := db.Exec(
		`INSERT INTO pofiles (component_id, filename, total, translated, untranslated, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		componentID, filename, total, translated, total-translated, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test pofile: %v", err)
	}
	id, _ := res.LastInsertId()
	return store.POFile{
		ID:           id,
		ComponentID:  componentID,
		Filename:     filename,
		Total:        total,
		Translated:   translated,
		Untranslated: total - translated,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(sm *scs.SessionManager, r *http.Request) *http.Request {
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		return r
	}
	return r.WithContext(ctx)
}

// requestWithUser attaches an authenticated user to the request context.
func requestWithUser(r *http.Request, user store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
