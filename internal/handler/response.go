// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/middleware"
	"github.com/olegiv/school-site/internal/render"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashTypeError)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashTypeSuccess)
}

// renderPage renders a page and turns a template failure into the error page.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.RenderStatus(w, r, status, name, data); err != nil {
		logAndInternalError(w, r, renderer, "failed to render page", "template", name, "error", err)
	}
}

// logAndInternalError logs an error and renders the 500 page.
func logAndInternalError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// contentFor returns the content service as the visitor sees it. Requests
// that skipped ResolveVisitor read anonymously.
func contentFor(r *http.Request, connector backend.Connector) backend.Content {
	if v := middleware.GetVisitor(r); v != nil {
		return v.Client
	}
	return connector.Connect(nil)
}
