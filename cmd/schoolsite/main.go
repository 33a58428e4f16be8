// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/backend/memory"
	"github.com/olegiv/school-site/internal/backend/supabase"
	"github.com/olegiv/school-site/internal/config"
	"github.com/olegiv/school-site/internal/handler"
	"github.com/olegiv/school-site/internal/logging"
	"github.com/olegiv/school-site/internal/middleware"
	"github.com/olegiv/school-site/internal/session"
	"github.com/olegiv/school-site/internal/store"
	"github.com/olegiv/school-site/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "schoolsite - school website\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_BACKEND_URL         Backend project URL (required unless demo mode)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_BACKEND_ANON_KEY    Backend public API key (required unless demo mode)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_BACKEND_JWT_SECRET  Verifies restored access tokens (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_DEMO                Serve seeded demo content in-process (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_DB_PATH             SQLite session database path (default: ./data/school.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_REDIS_URL           Keep sessions in Redis instead of SQLite (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_RESOLVE_TIMEOUT     Identity resolution wait before the loading page (default: 2s)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SCHOOL_SECTION_TIMEOUT     Homepage section render deadline (default: 3s)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("schoolsite %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger; WARN and ERROR records also go to the diagnostics ring
	ring := logging.NewRing(logging.DefaultCapacity)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger := slog.New(logging.NewDiagnosticsHandler(textHandler, ring))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Initialize session manager
	sessionManager, sessionPing, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	// Connect to the backend
	connector, err := openBackend(cfg)
	if err != nil {
		return err
	}

	// Initialize login protection
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	router, err := newRouter(&application{
		cfg:             cfg,
		logger:          logger,
		sessionManager:  sessionManager,
		sessionPing:     sessionPing,
		connector:       connector,
		ring:            ring,
		loginProtection: loginProtection,
		versionInfo:     versionInfo,
	})
	if err != nil {
		return err
	}

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			"addr", cfg.ServerAddr(),
			"env", cfg.Env,
			"demo", cfg.Demo,
			"version", versionInfo.String(),
			"release", versionInfo.Release(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openSessions creates the session manager on Redis when configured,
// otherwise on the SQLite sessions table.
func openSessions(ctx context.Context, cfg *config.Config) (*scs.SessionManager, handler.PingFunc, func(), error) {
	if cfg.UseRedisSessions() {
		client, err := session.NewRedisClient(ctx, session.DefaultRedisOptions(cfg.RedisURL))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		slog.Info("session manager initialized", "store", "redis")
		closeFn := func() {
			if err := client.Close(); err != nil {
				slog.Error("error closing redis connection", "error", err)
			}
		}
		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return session.NewRedis(client, cfg.IsDevelopment()), ping, closeFn, nil
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing session database", "path", cfg.DBPath)
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	if v, err := store.Version(db); err == nil {
		slog.Info("session database ready", "migration", v)
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}
	return session.NewSQLite(db, cfg.IsDevelopment()), pingDB(db), closeFn, nil
}

func pingDB(db *sql.DB) handler.PingFunc {
	return db.PingContext
}

// openBackend returns the in-process demo backend or the remote one.
func openBackend(cfg *config.Config) (backend.Connector, error) {
	if cfg.Demo {
		b := memory.New()
		if err := memory.SeedDemo(b, time.Now()); err != nil {
			return nil, fmt.Errorf("seeding demo backend: %w", err)
		}
		slog.Warn("demo mode enabled: using in-process backend with seeded content",
			"admin", memory.DemoAdminEmail, "member", memory.DemoMemberEmail)
		return b, nil
	}

	connector, err := supabase.NewConnector(supabase.Config{
		URL:       cfg.BackendURL,
		AnonKey:   cfg.BackendAnonKey,
		JWTSecret: cfg.BackendJWTSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring backend: %w", err)
	}
	slog.Info("backend configured", "url", cfg.BackendURL, "jwt_verification", cfg.BackendJWTSecret != "")
	return connector, nil
}
