// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backend defines the typed contract between the website and the
// remote backend-as-a-service: the identity service that owns accounts and
// sessions, and the content query service that owns events, achievements
// and staff records.
package backend

import (
	"context"
	"time"
)

// Tables served by the content query service.
const (
	TableEvents       = "events"
	TableAchievements = "achievements"
	TableStaff        = "staff"
	TableUserRoles    = "user_roles"
)

// User is the identity attached to a backend session.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// Session is an authenticated backend session as persisted between requests.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Password policy of the identity service. Passwords longer than
// MaxPasswordLength bytes are truncated by its hash, so they are refused.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// Profile carries the user metadata sent along with a sign-up.
type Profile struct {
	FullName string `json:"full_name"`
}

// AuthEventKind names an identity state change.
type AuthEventKind string

// Identity notifications, delivered through OnAuthStateChange.
const (
	EventInitialSession AuthEventKind = "INITIAL_SESSION"
	EventSignedIn       AuthEventKind = "SIGNED_IN"
	EventSignedOut      AuthEventKind = "SIGNED_OUT"
	EventTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
)

// AuthEvent is a single identity notification. Session is nil when the
// visitor has no session (initial restoration found nothing, or sign-out).
type AuthEvent struct {
	Kind    AuthEventKind
	Session *Session
}

// Identity is the identity service as seen by one visitor.
type Identity interface {
	// SignInWithPassword authenticates and persists the resulting session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account. The returned session is nil when the
	// backend requires email confirmation before the first sign-in.
	SignUp(ctx context.Context, email, password string, profile Profile) (*Session, error)

	// SignOut revokes and clears the persisted session.
	SignOut(ctx context.Context) error

	// OnAuthStateChange registers fn for identity notifications. The first
	// notification is EventInitialSession, delivered once the persisted
	// session has been restored. The returned function unsubscribes.
	OnAuthStateChange(ctx context.Context, fn func(AuthEvent)) (unsubscribe func())
}

// Content is the content query service.
type Content interface {
	// Select runs q and decodes the resulting JSON rows into dest, which
	// must be a pointer to a slice.
	Select(ctx context.Context, q Query, dest any) error
}

// Client is a per-visitor connection to the backend.
type Client interface {
	Identity
	Content
}

// Connector opens per-visitor clients whose session is persisted in storage.
// A nil storage yields an anonymous client.
type Connector interface {
	Connect(storage SessionStorage) Client
	Ping(ctx context.Context) error
}

// SessionStorage persists the visitor's backend session between requests.
type SessionStorage interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}
