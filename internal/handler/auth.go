// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/school-site/internal/auth"
	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/middleware"
	"github.com/olegiv/school-site/internal/render"
)

// Auth screen tabs.
const (
	TabSignIn = "signin"
	TabSignUp = "signup"
)

// AuthPage is the view model of the sign-in / sign-up screen. Passwords are
// never echoed back.
type AuthPage struct {
	Tab      string
	Email    string
	FullName string
	Errors   auth.FieldErrors
}

// AuthHandler handles the sign-in, sign-up and sign-out routes.
type AuthHandler struct {
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// AuthForm renders the sign-in / sign-up screen.
// Signed-in visitors never get here: RedirectSignedIn sends them home.
func (h *AuthHandler) AuthForm(w http.ResponseWriter, r *http.Request) {
	tab := TabSignIn
	if r.URL.Query().Get("tab") == TabSignUp {
		tab = TabSignUp
	}
	h.renderAuth(w, r, http.StatusOK, AuthPage{Tab: tab})
}

func (h *AuthHandler) renderAuth(w http.ResponseWriter, r *http.Request, status int, page AuthPage) {
	data := render.TemplateData{
		Title: "Sign In",
		Data:  page,
	}
	if page.Tab == TabSignUp {
		data.Title = "Sign Up"
	}
	if len(page.Errors) > 0 {
		data.Flash = page.Errors.First("full_name", "email", "password", "confirm_password")
		data.FlashType = flashTypeError
	}
	renderPage(w, r, h.renderer, status, "auth", data)
}

// authURL returns the auth screen URL for a tab.
func authURL(tab string) string {
	if tab == TabSignUp {
		return RouteAuth + "?tab=" + TabSignUp
	}
	return RouteAuth
}

// SignIn handles the sign-in form submission.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	visitor := middleware.GetVisitor(r)
	if visitor == nil {
		logAndInternalError(w, r, h.renderer, "sign-in without visitor context")
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, authURL(TabSignIn), "Invalid form data")
		return
	}

	form := auth.SignInForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	page := AuthPage{Tab: TabSignIn, Email: form.Email}

	if errs := auth.Validate(form); errs != nil {
		page.Errors = errs
		h.renderAuth(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	// Check if account is locked
	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(form.Email); locked {
			slog.Warn("sign-in attempt on locked account", "email", form.Email, "remaining", remaining)
			flashError(w, r, h.renderer, authURL(TabSignIn),
				fmt.Sprintf("Too many failed sign-in attempts. Please try again in %s.", formatDuration(remaining)))
			return
		}
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, r, h.renderer, "session renewal error", "error", err)
		return
	}

	if err := visitor.Resolver.SignIn(r.Context(), form.Email, form.Password); err != nil {
		h.signInFailed(w, r, form.Email, err)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(form.Email)
	}

	slog.Info("visitor signed in", "email", form.Email)
	flashSuccess(w, r, h.renderer, RouteRoot, "Welcome back!")
}

func (h *AuthHandler) signInFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	if !backend.IsAuthKind(err, backend.AuthInvalidCredentials) {
		slog.Error("sign-in failed", "email", email, "error", err)
		flashError(w, r, h.renderer, authURL(TabSignIn), authErrorMessage(err))
		return
	}

	slog.Warn("invalid sign-in attempt", "email", email)
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			slog.Warn("account locked due to failed sign-in attempts", "email", email, "duration", lockDuration.String())
			flashError(w, r, h.renderer, authURL(TabSignIn),
				fmt.Sprintf("Too many failed sign-in attempts. Please try again in %s.", formatDuration(lockDuration)))
			return
		}
		remaining := h.loginProtection.GetRemainingAttempts(email)
		if remaining <= 3 && remaining > 0 {
			flashError(w, r, h.renderer, authURL(TabSignIn),
				fmt.Sprintf("%s. %d attempts remaining before your account is temporarily locked.", authErrorMessage(err), remaining))
			return
		}
	}
	flashError(w, r, h.renderer, authURL(TabSignIn), authErrorMessage(err))
}

// SignUp handles the sign-up form submission. A password mismatch fails
// validation before the identity service is called.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	visitor := middleware.GetVisitor(r)
	if visitor == nil {
		logAndInternalError(w, r, h.renderer, "sign-up without visitor context")
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, authURL(TabSignUp), "Invalid form data")
		return
	}

	form := auth.SignUpForm{
		FullName:        strings.TrimSpace(r.PostFormValue("full_name")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	page := AuthPage{Tab: TabSignUp, Email: form.Email, FullName: form.FullName}

	if errs := auth.Validate(form); errs != nil {
		page.Errors = errs
		h.renderAuth(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, r, h.renderer, "session renewal error", "error", err)
		return
	}

	signedIn, err := visitor.Resolver.SignUp(r.Context(), form.Email, form.Password, form.FullName)
	if err != nil {
		if backend.IsAuthKind(err, backend.AuthAlreadyRegistered) {
			slog.Info("sign-up for existing account", "email", form.Email)
		} else {
			slog.Error("sign-up failed", "email", form.Email, "error", err)
		}
		page.Errors = auth.FieldErrors{"form": authErrorMessage(err)}
		h.renderAuth(w, r, signUpErrorStatus(err), page)
		return
	}

	slog.Info("account created", "email", form.Email, "signed_in", signedIn)
	if signedIn {
		flashSuccess(w, r, h.renderer, RouteRoot, "Account created successfully. Welcome!")
		return
	}
	// The form starts empty again on the redirected page.
	flashSuccess(w, r, h.renderer, authURL(TabSignIn),
		"Account created! Please check your email to confirm your account, then sign in.")
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	if visitor := middleware.GetVisitor(r); visitor != nil {
		if err := visitor.Resolver.SignOut(r.Context()); err != nil {
			slog.Warn("backend sign-out failed", "user_id", userID, "error", err)
		}
	}

	// Destroy the session
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("visitor signed out", "user_id", userID)
	flashAndRedirect(w, r, h.renderer, RouteRoot, "You have been signed out.", flashTypeInfo)
}

// authErrorMessage returns the text shown for an identity failure. The
// service's own message wins when it has one.
func authErrorMessage(err error) string {
	var ae *backend.AuthError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case backend.AuthInvalidCredentials:
			return "Invalid email or password"
		case backend.AuthUnavailable:
			return "The sign-in service is unavailable right now. Please try again later."
		}
		if ae.Message != "" {
			return ae.Message
		}
		if ae.Kind == backend.AuthAlreadyRegistered {
			return "An account with this email already exists"
		}
	}
	return "Something went wrong. Please try again."
}

func signUpErrorStatus(err error) int {
	switch {
	case backend.IsAuthKind(err, backend.AuthAlreadyRegistered):
		return http.StatusConflict
	case backend.IsAuthKind(err, backend.AuthUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
