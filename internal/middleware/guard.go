// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/school-site/internal/auth"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/auth"

// LoadingRefreshSeconds is how soon the loading page asks the browser to
// retry.
const LoadingRefreshSeconds = "1"

// GuardPages renders the non-redirect guard outcomes. Nil fields fall back
// to plain text responses.
type GuardPages struct {
	// Loading responds 200 with the loading page.
	Loading http.HandlerFunc
	// Denied responds 403 with the access-denied page.
	Denied http.HandlerFunc
}

// Guard creates middleware that protects a route with auth.Decide.
func Guard(requireAdmin bool, pages GuardPages) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := GetSnapshot(r)

			switch auth.Decide(snap, requireAdmin) {
			case auth.ShowLoading:
				w.Header().Set("Refresh", LoadingRefreshSeconds)
				w.Header().Set("Cache-Control", "no-store")
				if pages.Loading != nil {
					pages.Loading(w, r)
					return
				}
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("Loading..."))

			case auth.RedirectToLogin:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)

			case auth.ShowAccessDenied:
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", snap.User.ID,
					"user_role", string(snap.Role),
					"required_role", string(auth.RoleAdmin),
					"remote_addr", r.RemoteAddr,
				)
				if pages.Denied != nil {
					pages.Denied(w, r)
					return
				}
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)

			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireSignIn protects a route that any signed-in visitor may see.
func RequireSignIn(pages GuardPages) func(http.Handler) http.Handler {
	return Guard(false, pages)
}

// RequireAdmin protects a route that only admins may see.
func RequireAdmin(pages GuardPages) func(http.Handler) http.Handler {
	return Guard(true, pages)
}

// RedirectSignedIn sends resolved, signed-in visitors away from the
// sign-in page.
func RedirectSignedIn(to string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && auth.ShouldLeaveLoginPage(GetSnapshot(r)) {
				http.Redirect(w, r, to, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
