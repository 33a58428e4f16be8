// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/middleware"
)

func newTestAuthHandler(env *testEnv, lp *middleware.LoginProtection) *AuthHandler {
	return NewAuthHandler(env.renderer, env.sessions, lp)
}

func TestAuthHandler_AuthForm(t *testing.T) {
	env := newTestEnv(t)
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).AuthForm))

	tests := []struct {
		name      string
		target    string
		wantTitle string
		wantForm  string
	}{
		{"default tab", "/auth", "<title>Sign In | Saraswati School</title>", `action="/auth/signin"`},
		{"signup tab", "/auth?tab=signup", "<title>Sign Up | Saraswati School</title>", `action="/auth/signup"`},
		{"unknown tab", "/auth?tab=other", "<title>Sign In | Saraswati School</title>", `action="/auth/signin"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, httptest.NewRequest(http.MethodGet, tt.target, nil), nil)
			assertStatus(t, w.Code, http.StatusOK)
			assertContains(t, w.Body.String(), tt.wantTitle)
			assertContains(t, w.Body.String(), tt.wantForm)
		})
	}
}

func TestAuthHandler_SignIn_Success(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "parent@example.com", "secret123")

	cookies := env.signIn(t, "parent@example.com", "secret123")

	// The next page sees the signed-in visitor and the welcome flash.
	home := env.wrap(http.HandlerFunc(NewHomeHandler(env.renderer, env.backend, time.Second, nil).Home))
	w := serve(home, httptest.NewRequest(http.MethodGet, "/", nil), cookies)
	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assertContains(t, body, "Welcome back!")
	assertContains(t, body, `action="/auth/logout"`)
	assertNotContains(t, body, `href="/admin"`)
}

func TestAuthHandler_SignIn_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "parent@example.com", "secret123")
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).SignIn))

	w := serve(h, postForm(RouteSignIn, url.Values{
		"email":    {"parent@example.com"},
		"password": {"wrong-password"},
	}), nil)

	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != RouteAuth {
		t.Errorf("Location = %q; want %q", loc, RouteAuth)
	}

	// The flash is shown on the auth screen.
	form := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).AuthForm))
	w = serve(form, httptest.NewRequest(http.MethodGet, RouteAuth, nil), w.Result().Cookies())
	assertContains(t, w.Body.String(), "Invalid email or password")
}

func TestAuthHandler_SignIn_ValidationError(t *testing.T) {
	env := newTestEnv(t)
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).SignIn))

	w := serve(h, postForm(RouteSignIn, url.Values{
		"email":    {"not-an-email"},
		"password": {"secret123"},
	}), nil)

	assertStatus(t, w.Code, http.StatusUnprocessableEntity)
	body := w.Body.String()
	assertContains(t, body, "Please enter a valid email address")
	assertContains(t, body, `value="not-an-email"`)
	assertNotContains(t, body, "secret123")
}

func TestAuthHandler_SignIn_Lockout(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "parent@example.com", "secret123")

	cfg := middleware.DefaultLoginProtectionConfig()
	lp := middleware.NewLoginProtection(cfg)
	defer lp.Stop()
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, lp).SignIn))

	for i := 0; i < cfg.MaxFailedAttempts; i++ {
		w := serve(h, postForm(RouteSignIn, url.Values{
			"email":    {"parent@example.com"},
			"password": {"wrong-password"},
		}), nil)
		assertStatus(t, w.Code, http.StatusSeeOther)
	}

	if locked, _ := lp.IsAccountLocked("parent@example.com"); !locked {
		t.Fatal("account should be locked after repeated failures")
	}

	// Even the right password is refused while locked.
	w := serve(h, postForm(RouteSignIn, url.Values{
		"email":    {"parent@example.com"},
		"password": {"secret123"},
	}), nil)
	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != RouteAuth {
		t.Errorf("Location = %q; want %q", loc, RouteAuth)
	}
}

func TestAuthHandler_SignIn_BackendDown(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "parent@example.com", "secret123")
	env.backend.SetDown(errors.New("connection refused"))
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).SignIn))

	w := serve(h, postForm(RouteSignIn, url.Values{
		"email":    {"parent@example.com"},
		"password": {"secret123"},
	}), nil)
	assertStatus(t, w.Code, http.StatusSeeOther)

	form := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).AuthForm))
	w = serve(form, httptest.NewRequest(http.MethodGet, RouteAuth, nil), w.Result().Cookies())
	assertContains(t, w.Body.String(), "The sign-in service is unavailable right now.")
}

func TestAuthHandler_SignUp_PasswordMismatch(t *testing.T) {
	env := newTestEnv(t)
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).SignUp))

	w := serve(h, postForm(RouteSignUp, url.Values{
		"full_name":        {"New Parent"},
		"email":            {"new@example.com"},
		"password":         {"secret123"},
		"confirm_password": {"secret124"},
	}), nil)

	assertStatus(t, w.Code, http.StatusUnprocessableEntity)
	body := w.Body.String()
	assertContains(t, body, "Passwords do not match")
	assertContains(t, body, `value="New Parent"`)

	// The identity service was never called.
	if _, err := env.backend.AddUser("new@example.com", "secret123", "New Parent"); err != nil {
		t.Errorf("account was created despite the mismatch: %v", err)
	}
}

func TestAuthHandler_SignUp_SignedIn(t *testing.T) {
	env := newTestEnv(t)
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).SignUp))

	w := serve(h, postForm(RouteSignUp, url.Values{
		"full_name":        {"New Parent"},
		"email":            {"new@example.com"},
		"password":         {"secret123"},
		"confirm_password": {"secret123"},
	}), nil)

	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != RouteRoot {
		t.Errorf("Location = %q; want %q", loc, RouteRoot)
	}

	account := env.wrap(http.HandlerFunc(NewAccountHandler(env.renderer, env.backend, nil, testVersion, false).Account),
		middleware.RequireSignIn(middleware.GuardPages{}))
	w = serve(account, httptest.NewRequest(http.MethodGet, RouteAccount, nil), w.Result().Cookies())
	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assertContains(t, body, "Account created successfully. Welcome!")
	assertContains(t, body, "new@example.com")
	assertContains(t, body, "New Parent")
}

func TestAuthHandler_SignUp_ConfirmationRequired(t *testing.T) {
	env := newTestEnv(t)
	env.backend.ConfirmEmail = true
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).SignUp))

	w := serve(h, postForm(RouteSignUp, url.Values{
		"full_name":        {"New Parent"},
		"email":            {"new@example.com"},
		"password":         {"secret123"},
		"confirm_password": {"secret123"},
	}), nil)

	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != RouteAuth {
		t.Errorf("Location = %q; want %q", loc, RouteAuth)
	}

	form := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).AuthForm))
	w = serve(form, httptest.NewRequest(http.MethodGet, RouteAuth, nil), w.Result().Cookies())
	assertContains(t, w.Body.String(), "Please check your email to confirm your account")
}

func TestAuthHandler_SignUp_AlreadyRegistered(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "parent@example.com", "secret123")
	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).SignUp))

	w := serve(h, postForm(RouteSignUp, url.Values{
		"full_name":        {"Parent Again"},
		"email":            {"parent@example.com"},
		"password":         {"secret123"},
		"confirm_password": {"secret123"},
	}), nil)

	assertStatus(t, w.Code, http.StatusConflict)
	assertContains(t, w.Body.String(), "User already registered")
}

func TestAuthHandler_Logout(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "parent@example.com", "secret123")
	cookies := env.signIn(t, "parent@example.com", "secret123")

	h := env.wrap(http.HandlerFunc(newTestAuthHandler(env, nil).Logout))
	w := serve(h, postForm(RouteLogout, nil), cookies)
	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != RouteRoot {
		t.Errorf("Location = %q; want %q", loc, RouteRoot)
	}

	account := env.wrap(http.HandlerFunc(NewAccountHandler(env.renderer, env.backend, nil, testVersion, false).Account),
		middleware.RequireSignIn(middleware.GuardPages{}))

	// The old cookie no longer carries a signed-in session.
	w = serve(account, httptest.NewRequest(http.MethodGet, RouteAccount, nil), cookies)
	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != middleware.LoginPath {
		t.Errorf("Location = %q; want %q", loc, middleware.LoginPath)
	}
}

func TestAuthErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid credentials", &backend.AuthError{Kind: backend.AuthInvalidCredentials, Message: "Invalid login credentials"}, "Invalid email or password"},
		{"unavailable", &backend.AuthError{Kind: backend.AuthUnavailable}, "The sign-in service is unavailable right now. Please try again later."},
		{"service message", &backend.AuthError{Kind: backend.AuthRejected, Message: "Password should be at least 6 characters."}, "Password should be at least 6 characters."},
		{"already registered", &backend.AuthError{Kind: backend.AuthAlreadyRegistered}, "An account with this email already exists"},
		{"plain error", errors.New("boom"), "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authErrorMessage(tt.err); got != tt.want {
				t.Errorf("authErrorMessage() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestSignUpErrorStatus(t *testing.T) {
	if got := signUpErrorStatus(&backend.AuthError{Kind: backend.AuthAlreadyRegistered}); got != http.StatusConflict {
		t.Errorf("already registered = %d; want 409", got)
	}
	if got := signUpErrorStatus(&backend.AuthError{Kind: backend.AuthUnavailable}); got != http.StatusServiceUnavailable {
		t.Errorf("unavailable = %d; want 503", got)
	}
	if got := signUpErrorStatus(errors.New("boom")); got != http.StatusUnprocessableEntity {
		t.Errorf("other = %d; want 422", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{time.Minute, "1 minute"},
		{15 * time.Minute, "15 minutes"},
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q; want %q", tt.d, got, tt.want)
		}
	}
}
