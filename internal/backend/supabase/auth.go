// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/olegiv/school-site/internal/backend"
)

// tokenResponse is the GoTrue session payload.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         *apiUser `json:"user"`

	// Sign-up with email confirmation returns the bare user instead.
	ID    string `json:"id"`
	Email string `json:"email"`
}

type apiUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// SignInWithPassword implements backend.Identity.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, c.conn.cfg.URL+authPath+"/token?grant_type=password", "",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, toAuthError(err)
	}

	s, err := c.sessionFrom(resp)
	if err != nil {
		return nil, &backend.AuthError{Kind: backend.AuthRejected, Message: "malformed session", Err: err}
	}
	if err := c.persist(ctx, s); err != nil {
		return nil, err
	}

	c.notifier.Emit(backend.AuthEvent{Kind: backend.EventSignedIn, Session: s})
	return s, nil
}

// SignUp implements backend.Identity.
func (c *Client) SignUp(ctx context.Context, email, password string, profile backend.Profile) (*backend.Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     profile,
	}

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, c.conn.cfg.URL+authPath+"/signup", "", body, &resp); err != nil {
		return nil, toAuthError(err)
	}

	// Email confirmation pending: no session yet.
	if resp.AccessToken == "" {
		return nil, nil
	}

	s, err := c.sessionFrom(resp)
	if err != nil {
		return nil, &backend.AuthError{Kind: backend.AuthRejected, Message: "malformed session", Err: err}
	}
	if err := c.persist(ctx, s); err != nil {
		return nil, err
	}

	c.notifier.Emit(backend.AuthEvent{Kind: backend.EventSignedIn, Session: s})
	return s, nil
}

// SignOut implements backend.Identity. The local session is cleared even
// when the revoke call fails.
func (c *Client) SignOut(ctx context.Context) error {
	s, _ := c.currentSession(ctx)

	var revokeErr error
	if s != nil && s.AccessToken != "" {
		err := c.do(ctx, http.MethodPost, c.conn.cfg.URL+authPath+"/logout", s.AccessToken, nil, nil)
		var apiErr *apiError
		// Already revoked or expired tokens are fine.
		if err != nil && !(errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized ||
			apiErr.Status == http.StatusForbidden || apiErr.Status == http.StatusNotFound)) {
			revokeErr = toAuthError(err)
		}
	}

	c.mu.Lock()
	c.session = nil
	c.restored = true
	c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.Clear(ctx); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
	}

	c.notifier.Emit(backend.AuthEvent{Kind: backend.EventSignedOut})
	return revokeErr
}

// OnAuthStateChange implements backend.Identity.
func (c *Client) OnAuthStateChange(ctx context.Context, fn func(backend.AuthEvent)) func() {
	return c.notifier.Restore(ctx, fn, c.restore)
}

// restore loads the persisted session, refreshing it when expired and
// dropping it when it cannot be trusted.
func (c *Client) restore(ctx context.Context) (*backend.Session, error) {
	if c.storage == nil {
		c.setSession(nil)
		return nil, nil
	}

	s, err := c.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if s == nil {
		c.setSession(nil)
		return nil, nil
	}

	if c.conn.cfg.JWTSecret != "" {
		if _, err := verifyToken(s.AccessToken, c.conn.cfg.JWTSecret, c.conn.now()); err != nil &&
			!errors.Is(err, jwt.ErrTokenExpired) {
			_ = c.storage.Clear(ctx)
			c.setSession(nil)
			return nil, nil
		}
	}

	if s.Expired(c.conn.now()) {
		refreshed, err := c.refresh(ctx, s.RefreshToken)
		if err != nil {
			_ = c.storage.Clear(ctx)
			c.setSession(nil)
			return nil, nil
		}
		if err := c.persist(ctx, refreshed); err != nil {
			return nil, err
		}
		return refreshed, nil
	}

	c.setSession(s)
	return s, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, c.conn.cfg.URL+authPath+"/token?grant_type=refresh_token", "",
		map[string]string{"refresh_token": refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	return c.sessionFrom(resp)
}

// currentSession returns the in-memory session, loading it from storage on
// first use without refreshing.
func (c *Client) currentSession(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	if c.restored {
		s := c.session
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	if c.storage == nil {
		return nil, nil
	}
	s, err := c.storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.setSession(s)
	return s, nil
}

func (c *Client) setSession(s *backend.Session) {
	c.mu.Lock()
	c.session = s
	c.restored = true
	c.mu.Unlock()
}

func (c *Client) persist(ctx context.Context, s *backend.Session) error {
	if c.storage != nil {
		if err := c.storage.Save(ctx, s); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
	}
	c.setSession(s)
	return nil
}

// sessionFrom converts a token response, filling gaps from the JWT claims.
func (c *Client) sessionFrom(resp tokenResponse) (*backend.Session, error) {
	if resp.AccessToken == "" {
		return nil, errors.New("missing access token")
	}

	s := &backend.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	switch {
	case resp.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		s.ExpiresAt = c.conn.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	if resp.User != nil {
		s.User = backend.User{
			ID:       resp.User.ID,
			Email:    resp.User.Email,
			FullName: resp.User.UserMetadata.FullName,
		}
	}

	claims, err := parseClaims(resp.AccessToken)
	if err != nil {
		return nil, err
	}
	if s.User.ID == "" {
		s.User.ID = claims.Subject
	}
	if s.User.Email == "" {
		s.User.Email = claims.Email
	}
	if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	if s.User.ID == "" {
		return nil, errors.New("session without user id")
	}
	return s, nil
}

// accessClaims are the GoTrue access token claims the site reads.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// parseClaims reads the claims without verifying the signature. The token
// came straight from the identity service over TLS.
func parseClaims(token string) (*accessClaims, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}
	return claims, nil
}

// verifyToken checks an HS256 access token against the project secret.
func verifyToken(token, secret string, now time.Time) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return claims, err
	}
	return claims, nil
}

// toAuthError classifies an identity failure.
func toAuthError(err error) error {
	var te *transportError
	if errors.As(err, &te) {
		return &backend.AuthError{Kind: backend.AuthUnavailable, Message: "identity service unreachable", Err: err}
	}

	var ae *apiError
	if !errors.As(err, &ae) {
		return &backend.AuthError{Kind: backend.AuthRejected, Message: err.Error(), Err: err}
	}

	kind := backend.AuthRejected
	text := strings.ToLower(ae.text())
	switch {
	case ae.Status >= http.StatusInternalServerError:
		kind = backend.AuthUnavailable
	case ae.ErrorCode == "invalid_credentials" || ae.ErrorName == "invalid_grant" ||
		strings.Contains(text, "invalid login credentials"):
		kind = backend.AuthInvalidCredentials
	case ae.ErrorCode == "user_already_exists" || ae.ErrorCode == "email_exists" ||
		strings.Contains(text, "already registered"):
		kind = backend.AuthAlreadyRegistered
	}

	return &backend.AuthError{Kind: kind, Message: ae.text(), Status: ae.Status, Err: err}
}
