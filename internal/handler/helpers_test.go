// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/school-site/internal/backend/memory"
	"github.com/olegiv/school-site/internal/middleware"
	"github.com/olegiv/school-site/internal/render"
	"github.com/olegiv/school-site/internal/session"
	"github.com/olegiv/school-site/web"
)

// testResolveTimeout is generous: the memory backend answers immediately.
const testResolveTimeout = 2 * time.Second

// testEnv bundles what a handler test needs.
type testEnv struct {
	backend  *memory.Backend
	sessions *scs.SessionManager
	renderer *render.Renderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sm := session.New(memstore.New(), true)
	return &testEnv{
		backend:  memory.New(),
		sessions: sm,
		renderer: newTestRenderer(t, sm),
	}
}

// newTestRenderer parses the real site templates.
func newTestRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	r, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return r
}

// wrap runs h behind sessions and visitor resolution, as the router does.
func (e *testEnv) wrap(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	h = middleware.ResolveVisitor(e.sessions, e.backend, testResolveTimeout, nil)(h)
	h = middleware.SiteName("Saraswati School")(h)
	return e.sessions.LoadAndSave(h)
}

// serve performs one request, replaying cookies from a previous response.
func serve(h http.Handler, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// postForm builds a form POST request.
func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// signIn signs email in through the auth handler and returns the session cookies.
func (e *testEnv) signIn(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()

	h := e.wrap(http.HandlerFunc(NewAuthHandler(e.renderer, e.sessions, nil).SignIn))
	w := serve(h, postForm(RouteSignIn, url.Values{"email": {email}, "password": {password}}), nil)
	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != RouteRoot {
		t.Fatalf("sign-in redirected to %q; want %q", loc, RouteRoot)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("sign-in set no session cookie")
	}
	return cookies
}

// addMember registers a non-admin account.
func (e *testEnv) addMember(t *testing.T, email, password string) {
	t.Helper()
	if _, err := e.backend.AddUser(email, password, "Test Member"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
}

// addAdmin registers an account with the admin role.
func (e *testEnv) addAdmin(t *testing.T, email, password string) {
	t.Helper()
	u, err := e.backend.AddUser(email, password, "Test Admin")
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := e.backend.SetRole(u.ID, memory.RoleAdmin); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q", want)
	}
}

func assertNotContains(t *testing.T, body, unwanted string) {
	t.Helper()
	if strings.Contains(body, unwanted) {
		t.Errorf("body unexpectedly contains %q", unwanted)
	}
}
