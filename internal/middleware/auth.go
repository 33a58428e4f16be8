// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/school-site/internal/auth"
	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyVisitor     ContextKey = "visitor"
	ContextKeySiteName    ContextKey = "site_name"
	ContextKeyRequestPath ContextKey = "request_path"
)

// Visitor is the per-request view of the person browsing: a backend client
// bound to their session and the resolver tracking who they are.
type Visitor struct {
	Client   backend.Client
	Resolver *auth.Resolver
}

// Snapshot returns the visitor's current identity state.
func (v *Visitor) Snapshot() auth.Snapshot {
	return v.Resolver.Snapshot()
}

// ResolveVisitor creates middleware that connects the visitor to the
// backend, restores their persisted session and waits up to timeout for
// identity to resolve. Requests that run out of time continue with a
// loading snapshot; guarded pages then show the loading page.
// It must run inside the session manager's LoadAndSave.
func ResolveVisitor(sm *scs.SessionManager, connector backend.Connector, timeout time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			client := connector.Connect(session.NewStorage(sm))
			resolver := auth.NewResolver(client, auth.ContentRoleLookup{Content: client}, logger)
			resolver.Start(ctx)
			defer resolver.Close()

			waitCtx, cancel := context.WithTimeout(ctx, timeout)
			snap, err := resolver.Wait(waitCtx)
			cancel()
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Debug("identity still resolving", "path", r.URL.Path, "timeout", timeout)
			}

			v := &Visitor{Client: client, Resolver: resolver}
			ctx = context.WithValue(ctx, ContextKeyVisitor, v)
			if snap.User != nil {
				logger.Debug("visitor resolved", "user_id", snap.User.ID, "role", snap.Role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetVisitor retrieves the visitor from the request context.
// Returns nil if ResolveVisitor did not run.
func GetVisitor(r *http.Request) *Visitor {
	v, _ := r.Context().Value(ContextKeyVisitor).(*Visitor)
	return v
}

// GetSnapshot returns the visitor's identity state, or a resolved
// anonymous snapshot when there is no visitor.
func GetSnapshot(r *http.Request) auth.Snapshot {
	if v := GetVisitor(r); v != nil {
		return v.Snapshot()
	}
	return auth.Snapshot{Role: auth.RoleAnonymous}
}

// GetUserID returns the signed-in user's id, or "" for anyone else.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) string {
	if s := GetSnapshot(r); s.User != nil {
		return s.User.ID
	}
	return ""
}

// SiteName creates middleware that stores the configured site name in the context.
func SiteName(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ContextKeySiteName, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSiteName retrieves the site name from the request context.
func GetSiteName(r *http.Request) string {
	siteName, ok := r.Context().Value(ContextKeySiteName).(string)
	if !ok || siteName == "" {
		return "School"
	}
	return siteName
}

// RequestPath creates middleware that stores the request path in the context.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
