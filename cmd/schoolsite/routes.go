// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/config"
	"github.com/olegiv/school-site/internal/handler"
	"github.com/olegiv/school-site/internal/logging"
	"github.com/olegiv/school-site/internal/middleware"
	"github.com/olegiv/school-site/internal/render"
	"github.com/olegiv/school-site/internal/version"
	"github.com/olegiv/school-site/web"
)

// requestTimeout bounds every request, including backend calls made on its behalf.
const requestTimeout = 30 * time.Second

// application holds the dependencies shared by all routes.
type application struct {
	cfg             *config.Config
	logger          *slog.Logger
	sessionManager  *scs.SessionManager
	sessionPing     handler.PingFunc
	connector       backend.Connector
	ring            *logging.Ring
	loginProtection *middleware.LoginProtection
	versionInfo     version.Info
}

// newRouter builds the renderer, the handlers and the middleware stack.
func newRouter(app *application) (http.Handler, error) {
	cfg := app.cfg

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: app.sessionManager,
		IsDev:          cfg.IsDevelopment(),
		Demo:           cfg.Demo,
		Logger:         app.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing renderer: %w", err)
	}

	pagesHandler := handler.NewPagesHandler(renderer)
	homeHandler := handler.NewHomeHandler(renderer, app.connector, cfg.SectionTimeout, app.logger)
	authHandler := handler.NewAuthHandler(renderer, app.sessionManager, app.loginProtection)
	eventsHandler := handler.NewEventsHandler(renderer, app.connector)
	accountHandler := handler.NewAccountHandler(renderer, app.connector, app.ring, app.versionInfo, cfg.Demo)
	healthHandler := handler.NewHealthHandler(app.connector, app.sessionPing, app.versionInfo)
	guardPages := pagesHandler.GuardPages()

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(middleware.SiteName(cfg.SiteName))

	// Static files skip sessions and identity resolution.
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("getting static fs: %w", err)
	}
	r.With(middleware.StaticCache(24 * time.Hour)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get(handler.RouteHealthLive, healthHandler.Liveness)

	// Public rate limiter for everything that touches the backend
	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.Middleware())
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerPort)))
		r.Use(middleware.ResolveVisitor(app.sessionManager, app.connector, cfg.ResolveTimeout, app.logger))
		r.Use(middleware.NoStore)

		r.Get(handler.RouteRoot, homeHandler.Home)
		r.Get(handler.RouteEvents, eventsHandler.List)
		r.Get(handler.RouteEventID, eventsHandler.Show)
		r.Get(handler.RouteEventIDSlug, eventsHandler.Show)

		r.With(middleware.RedirectSignedIn(handler.RouteRoot)).Get(handler.RouteAuth, authHandler.AuthForm)
		r.Group(func(r chi.Router) {
			r.Use(app.loginProtection.Middleware())
			r.Post(handler.RouteSignIn, authHandler.SignIn)
			r.Post(handler.RouteSignUp, authHandler.SignUp)
		})
		r.Post(handler.RouteLogout, authHandler.Logout)

		r.With(middleware.RequireSignIn(guardPages)).Get(handler.RouteAccount, accountHandler.Account)
		r.With(middleware.RequireAdmin(guardPages)).Get(handler.RouteAdmin, accountHandler.Dashboard)

		r.Get(handler.RouteHealth, healthHandler.Health)
		r.Get(handler.RouteHealthReady, healthHandler.Readiness)

		r.NotFound(pagesHandler.NotFound)
		r.MethodNotAllowed(pagesHandler.MethodNotAllowed)
	})

	return r, nil
}
