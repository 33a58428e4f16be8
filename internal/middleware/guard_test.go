// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/school-site/internal/auth"
	"github.com/olegiv/school-site/internal/backend"
)

// staticIdentity never notifies, leaving its resolver wherever the test
// puts it.
type staticIdentity struct{}

func (staticIdentity) SignInWithPassword(context.Context, string, string) (*backend.Session, error) {
	return nil, nil
}

func (staticIdentity) SignUp(context.Context, string, string, backend.Profile) (*backend.Session, error) {
	return nil, nil
}

func (staticIdentity) SignOut(context.Context) error { return nil }

func (staticIdentity) OnAuthStateChange(context.Context, func(backend.AuthEvent)) func() {
	return func() {}
}

func (staticIdentity) Select(context.Context, backend.Query, any) error { return nil }

// withLoadingVisitor attaches a visitor whose identity never resolves.
func withLoadingVisitor(r *http.Request) *http.Request {
	v := &Visitor{Client: staticIdentity{}, Resolver: auth.NewResolver(staticIdentity{}, nil, nil)}
	return r.WithContext(context.WithValue(r.Context(), ContextKeyVisitor, v))
}

// withSnapshotVisitor attaches a visitor resolved to role for user.
func withSnapshotVisitor(t *testing.T, r *http.Request, user *backend.User, admin bool) *http.Request {
	t.Helper()
	id := &emitIdentity{}
	roles := fixedRoles(admin)
	res := auth.NewResolver(id, roles, nil)
	res.Start(context.Background())
	t.Cleanup(res.Close)

	var session *backend.Session
	if user != nil {
		session = &backend.Session{AccessToken: "t", User: *user}
	}
	id.fn(backend.AuthEvent{Kind: backend.EventInitialSession, Session: session})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := res.Wait(ctx); err != nil {
		t.Fatalf("resolver did not settle: %v", err)
	}

	v := &Visitor{Client: staticIdentity{}, Resolver: res}
	return r.WithContext(context.WithValue(r.Context(), ContextKeyVisitor, v))
}

type emitIdentity struct {
	staticIdentity
	fn func(backend.AuthEvent)
}

func (e *emitIdentity) OnAuthStateChange(_ context.Context, fn func(backend.AuthEvent)) func() {
	e.fn = fn
	return func() {}
}

type fixedRoles bool

func (f fixedRoles) IsAdmin(context.Context, string) (bool, error) { return bool(f), nil }

var testPages = GuardPages{
	Loading: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("loading page"))
	},
	Denied: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("denied page"))
	},
}

func TestGuard(t *testing.T) {
	parent := &backend.User{ID: "u-1", Email: "parent@school.example"}
	admin := &backend.User{ID: "u-2", Email: "admin@school.example"}

	tests := []struct {
		name         string
		requireAdmin bool
		prepare      func(*testing.T, *http.Request) *http.Request
		wantCode     int
		wantBody     string
		wantLocation string
		wantRefresh  bool
	}{
		{
			name:        "loading shows loading page",
			prepare:     func(_ *testing.T, r *http.Request) *http.Request { return withLoadingVisitor(r) },
			wantCode:    http.StatusOK,
			wantBody:    "loading page",
			wantRefresh: true,
		},
		{
			name:         "loading beats admin check",
			requireAdmin: true,
			prepare:      func(_ *testing.T, r *http.Request) *http.Request { return withLoadingVisitor(r) },
			wantCode:     http.StatusOK,
			wantBody:     "loading page",
			wantRefresh:  true,
		},
		{
			name: "anonymous redirects to login",
			prepare: func(t *testing.T, r *http.Request) *http.Request {
				return withSnapshotVisitor(t, r, nil, false)
			},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/auth",
		},
		{
			name: "missing visitor redirects to login",
			prepare: func(_ *testing.T, r *http.Request) *http.Request {
				return r
			},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/auth",
		},
		{
			name: "member sees signed-in page",
			prepare: func(t *testing.T, r *http.Request) *http.Request {
				return withSnapshotVisitor(t, r, parent, false)
			},
			wantCode: http.StatusOK,
			wantBody: "protected",
		},
		{
			name:         "member denied admin page",
			requireAdmin: true,
			prepare: func(t *testing.T, r *http.Request) *http.Request {
				return withSnapshotVisitor(t, r, parent, false)
			},
			wantCode: http.StatusForbidden,
			wantBody: "denied page",
		},
		{
			name:         "admin sees admin page",
			requireAdmin: true,
			prepare: func(t *testing.T, r *http.Request) *http.Request {
				return withSnapshotVisitor(t, r, admin, true)
			},
			wantCode: http.StatusOK,
			wantBody: "protected",
		},
	}

	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("protected"))
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Guard(tt.requireAdmin, testPages)(protected)
			req := tt.prepare(t, httptest.NewRequest(http.MethodGet, "/account", nil))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
			if got := rec.Header().Get("Refresh") != ""; got != tt.wantRefresh {
				t.Errorf("Refresh header present = %v, want %v", got, tt.wantRefresh)
			}
		})
	}
}

func TestGuard_PlainFallbacks(t *testing.T) {
	protected := okHandler()

	rec := httptest.NewRecorder()
	RequireSignIn(GuardPages{})(protected).ServeHTTP(rec,
		withLoadingVisitor(httptest.NewRequest(http.MethodGet, "/account", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Loading") {
		t.Errorf("loading fallback = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	member := &backend.User{ID: "u-1", Email: "parent@school.example"}
	RequireAdmin(GuardPages{})(protected).ServeHTTP(rec,
		withSnapshotVisitor(t, httptest.NewRequest(http.MethodGet, "/admin", nil), member, false))
	if rec.Code != http.StatusForbidden {
		t.Errorf("denied fallback status = %d, want 403", rec.Code)
	}
}

func TestRedirectSignedIn(t *testing.T) {
	handler := RedirectSignedIn("/")(okHandler())
	user := &backend.User{ID: "u-1", Email: "parent@school.example"}

	tests := []struct {
		name     string
		method   string
		req      func(*testing.T, *http.Request) *http.Request
		wantCode int
	}{
		{"signed in GET leaves", http.MethodGet, func(t *testing.T, r *http.Request) *http.Request {
			return withSnapshotVisitor(t, r, user, false)
		}, http.StatusSeeOther},
		{"signed in POST passes", http.MethodPost, func(t *testing.T, r *http.Request) *http.Request {
			return withSnapshotVisitor(t, r, user, false)
		}, http.StatusOK},
		{"anonymous stays", http.MethodGet, func(t *testing.T, r *http.Request) *http.Request {
			return withSnapshotVisitor(t, r, nil, false)
		}, http.StatusOK},
		{"loading stays", http.MethodGet, func(_ *testing.T, r *http.Request) *http.Request {
			return withLoadingVisitor(r)
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tt.req(t, httptest.NewRequest(tt.method, "/auth", nil)))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}
