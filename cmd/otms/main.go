// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/otms-go/internal/auth"
	"github.com/olegiv/otms-go/internal/cache"
	"github.com/olegiv/otms-go/internal/config"
	"github.com/olegiv/otms-go/internal/handler"
	"github.com/olegiv/otms-go/internal/logging"
	"github.com/olegiv/otms-go/internal/middleware"
	"github.com/olegiv/otms-go/internal/render"
	"github.com/olegiv/otms-go/internal/scheduler"
	"github.com/olegiv/otms-go/internal/service"
	"github.com/olegiv/otms-go/internal/session"
	"github.com/olegiv/otms-go/internal/store"
	"github.com/olegiv/otms-go/internal/trans"
	"github.com/olegiv/otms-go/internal/vcs"
	"github.com/olegiv/otms-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oTMS - Open Translation Management System\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OTMS_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OTMS_DB_PATH           SQLite database path (default: ./data/otms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OTMS_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OTMS_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OTMS_REPOS_DIR         Root directory for component checkouts (default: ./repos)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OTMS_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OTMS_STATS_REFRESH_SPEC  Cron spec for periodic stats refresh (default: @hourly)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("otms %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		adminHash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
		if err := store.Seed(ctx, db, store.SeedParams{
			AdminEmail:        cfg.AdminEmail,
			AdminPasswordHash: adminHash,
			AdminName:         "Administrator",
			SiteName:          "oTMS",
		}); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Session manager backed by the sessions table
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Cache backend: Redis when configured, in-memory otherwise
	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	backend, err := cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cacheTTL,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	cacheManager := cache.NewManager(backend, cacheTTL)
	defer func() {
		if err := cacheManager.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if cfg.UseRedisCache() {
		slog.Info("cache manager initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache manager initialized", "backend", "memory")
	}

	// Template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Repository checkout manager and stats updater
	repos := vcs.NewManager(cfg.ReposDir)
	updater := trans.NewUpdater(store.New(db), cacheManager, repos)
	eventService := service.NewEventService(db)

	// Periodic stats refresh and event cleanup
	sched := scheduler.New(updater, eventService, cfg.StatsRefreshSpec, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Create router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(sessionManager.LoadAndSave)

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized")

	// Initialize handlers
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection)
	projectsHandler := handler.NewProjectsHandler(db, renderer, sessionManager, eventService, cacheManager, repos)
	componentsHandler := handler.NewComponentsHandler(db, renderer, sessionManager, eventService, cacheManager, repos, updater)
	filesHandler := handler.NewFilesHandler(db, renderer, sessionManager, eventService, cacheManager, repos, cfg.UploadsDir)
	eventsHandler := handler.NewEventsHandler(db, renderer, sessionManager)
	cacheHandler := handler.NewCacheHandler(renderer, cacheManager, eventService)
	feedsHandler := handler.NewFeedsHandler(db, cfg.BaseURL)
	healthHandler := handler.NewHealthHandler(db, sessionManager, cfg.ReposDir)

	// Health check routes (public, more detail for authenticated callers)
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.OptionalLoadUser(sessionManager, db))
		r.Use(middleware.LoadSiteConfig(db, cacheManager))

		r.Get("/", projectsHandler.Home)
		r.Get(handler.PathProjects, projectsHandler.List)
		r.Get("/feed", feedsHandler.LatestProjects)
		r.Get(handler.PathProjects+"/feed", feedsHandler.LatestProjects)
		r.Get("/projects/{project}", projectsHandler.Detail)
		r.Get("/projects/{project}/feed", feedsHandler.ProjectFeed)
		r.Get("/projects/{project}/components/{component}", componentsHandler.Detail)
		r.Get("/projects/{project}/components/{component}/raw/*", filesHandler.Raw)
		r.Get("/projects/{project}/components/{component}/view/*", filesHandler.View)

		r.Get(handler.PathLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.PathLogin, authHandler.Login)
		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)
	})

	// Maintainer routes (project and component management, uploads, locks)
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))
		r.Use(middleware.LoadSiteConfig(db, cacheManager))
		r.Use(middleware.RequireMaintainer())

		r.Get(handler.PathProjects+"/new", projectsHandler.NewForm)
		r.Post(handler.PathProjects, projectsHandler.Create)
		r.Get("/projects/{project}/edit", projectsHandler.EditForm)
		r.Post("/projects/{project}/edit", projectsHandler.Update)
		r.Get("/projects/{project}/delete", projectsHandler.ConfirmDelete)
		r.Post("/projects/{project}/delete", projectsHandler.Delete)

		r.Get("/projects/{project}/components/new", componentsHandler.NewForm)
		r.Post("/projects/{project}/components", componentsHandler.Create)
		r.Get("/projects/{project}/components/{component}/edit", componentsHandler.EditForm)
		r.Post("/projects/{project}/components/{component}/edit", componentsHandler.Update)
		r.Get("/projects/{project}/components/{component}/delete", componentsHandler.ConfirmDelete)
		r.Post("/projects/{project}/components/{component}/delete", componentsHandler.Delete)
		r.Post("/projects/{project}/components/{component}/set-stats", componentsHandler.RefreshStats)
		r.Post("/projects/{project}/components/{component}/clear-cache", componentsHandler.ClearCache)

		r.Post("/projects/{project}/components/{component}/submit/*", filesHandler.Submit)
		r.Post("/projects/{project}/components/{component}/lock/*", filesHandler.ToggleLock)
	})

	// Admin routes (event log and cache administration)
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))
		r.Use(middleware.LoadSiteConfig(db, cacheManager))
		r.Use(middleware.RequireAdmin())

		r.Get(handler.PathEvents, eventsHandler.List)
		r.Get(handler.PathCache, cacheHandler.Stats)
		r.Post(handler.PathCache+"/clear", cacheHandler.Clear)
	})

	// Static assets
	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow clones
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
