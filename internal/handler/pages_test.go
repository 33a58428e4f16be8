// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPagesHandler_Loading(t *testing.T) {
	env := newTestEnv(t)
	h := NewPagesHandler(env.renderer)

	w := serve(env.sessions.LoadAndSave(http.HandlerFunc(h.Loading)), httptest.NewRequest(http.MethodGet, "/admin?tab=x", nil), nil)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assertContains(t, body, "Loading...")
	assertContains(t, body, `href="/admin?tab=x"`)
}

func TestPagesHandler_Denied(t *testing.T) {
	env := newTestEnv(t)
	h := NewPagesHandler(env.renderer)

	w := serve(env.sessions.LoadAndSave(http.HandlerFunc(h.Denied)), httptest.NewRequest(http.MethodGet, "/admin", nil), nil)

	assertStatus(t, w.Code, http.StatusForbidden)
	assertContains(t, w.Body.String(), "You don't have permission to access this page.")
}

func TestPagesHandler_NotFound(t *testing.T) {
	env := newTestEnv(t)
	h := NewPagesHandler(env.renderer)

	w := serve(env.sessions.LoadAndSave(http.HandlerFunc(h.NotFound)), httptest.NewRequest(http.MethodGet, "/missing", nil), nil)

	assertStatus(t, w.Code, http.StatusNotFound)
	assertContains(t, w.Body.String(), "Page Not Found")
	assertContains(t, w.Body.String(), "The page you are looking for does not exist.")
}

func TestPagesHandler_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	h := NewPagesHandler(env.renderer)

	w := serve(env.sessions.LoadAndSave(http.HandlerFunc(h.MethodNotAllowed)), httptest.NewRequest(http.MethodDelete, "/", nil), nil)

	assertStatus(t, w.Code, http.StatusMethodNotAllowed)
	assertContains(t, w.Body.String(), "That action is not allowed here.")
}
