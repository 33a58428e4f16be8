// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/school-site/internal/auth"
	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/logging"
	"github.com/olegiv/school-site/internal/middleware"
	"github.com/olegiv/school-site/internal/render"
	"github.com/olegiv/school-site/internal/version"
)

// backendPingTimeout bounds the dashboard's backend check.
const backendPingTimeout = 3 * time.Second

// DashboardPage is the admin dashboard view model.
type DashboardPage struct {
	Visitor        auth.Snapshot
	Backend        Check
	Uptime         string
	Version        string
	Diagnostics    []logging.Entry
	DiagnosticsLen int
	Demo           bool
}

// AccountHandler serves the signed-in visitor's pages.
type AccountHandler struct {
	renderer  *render.Renderer
	connector backend.Connector
	ring      *logging.Ring
	info      version.Info
	startTime time.Time
	demo      bool
}

// NewAccountHandler creates a new AccountHandler. ring may be nil.
func NewAccountHandler(renderer *render.Renderer, connector backend.Connector, ring *logging.Ring, info version.Info, demo bool) *AccountHandler {
	return &AccountHandler{
		renderer:  renderer,
		connector: connector,
		ring:      ring,
		info:      info,
		startTime: time.Now(),
		demo:      demo,
	}
}

// Account handles GET /account. RequireSignIn guards it.
func (h *AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "account", render.TemplateData{
		Title: "My Account",
		Data:  middleware.GetSnapshot(r),
	})
}

// Dashboard handles GET /admin. RequireAdmin guards it.
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := middleware.GetSnapshot(r)

	page := DashboardPage{
		Visitor: snap,
		Backend: pingBackend(r.Context(), h.connector),
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: h.info.String(),
		Demo:    h.demo,
	}
	if h.ring != nil {
		page.Diagnostics = h.ring.Recent(DiagnosticsShown)
		page.DiagnosticsLen = h.ring.Len()
	}

	if snap.User != nil {
		slog.Debug("admin dashboard viewed", "user_id", snap.User.ID)
	}

	renderPage(w, r, h.renderer, http.StatusOK, "admin", render.TemplateData{
		Title: "Admin Dashboard",
		Data:  page,
	})
}

// pingBackend checks backend reachability with a bounded wait.
func pingBackend(ctx context.Context, connector backend.Connector) Check {
	ctx, cancel := context.WithTimeout(ctx, backendPingTimeout)
	defer cancel()

	start := time.Now()
	err := connector.Ping(ctx)
	latency := time.Since(start)
	if err != nil {
		slog.Warn("backend health check failed", "error", err)
		return Check{Status: statusUnhealthy, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: statusHealthy, Latency: latency.String()}
}
