// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/school-site/internal/middleware"
	"github.com/olegiv/school-site/internal/render"
)

// PagesHandler renders the pages that are not tied to content: the guard
// outcomes and the error pages.
type PagesHandler struct {
	renderer *render.Renderer
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(renderer *render.Renderer) *PagesHandler {
	return &PagesHandler{renderer: renderer}
}

// GuardPages returns the pages route guards show instead of the route.
func (h *PagesHandler) GuardPages() middleware.GuardPages {
	return middleware.GuardPages{
		Loading: h.Loading,
		Denied:  h.Denied,
	}
}

// Loading renders the loading page shown while identity is still resolving.
// The guard sets the Refresh header, so the browser retries on its own.
func (h *PagesHandler) Loading(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "loading", render.TemplateData{
		Title: "Loading",
		Data: map[string]any{
			"Path": r.URL.RequestURI(),
		},
	})
}

// Denied renders the access-denied page for signed-in visitors without the admin role.
func (h *PagesHandler) Denied(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusForbidden, "access_denied", render.TemplateData{
		Title: "Access Denied",
	})
}

// NotFound renders the 404 page.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.Error(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

// MethodNotAllowed renders the 405 page.
func (h *PagesHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderer.Error(w, r, http.StatusMethodNotAllowed, "That action is not allowed here.")
}
