// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth tracks a visitor's identity and role and decides which
// protected pages they may see.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/olegiv/school-site/internal/backend"
)

// Role of the current visitor.
type Role string

// Visitor roles.
const (
	RoleAnonymous Role = "anonymous"
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
)

// Snapshot is the visitor's identity state at one point in time. It is
// replaced as a whole, never updated field by field.
type Snapshot struct {
	Loading bool
	User    *backend.User
	Role    Role
}

// IsAdmin reports whether the visitor holds the admin role.
func (s Snapshot) IsAdmin() bool {
	return !s.Loading && s.User != nil && s.Role == RoleAdmin
}

// SignedIn reports whether identity is resolved to a user.
func (s Snapshot) SignedIn() bool {
	return !s.Loading && s.User != nil
}

// DisplayName returns the user's full name, falling back to the email.
func (s Snapshot) DisplayName() string {
	if s.User == nil {
		return ""
	}
	if name := strings.TrimSpace(s.User.FullName); name != "" {
		return name
	}
	return s.User.Email
}

// RoleLookup answers whether a user id holds the admin role.
type RoleLookup interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// ContentRoleLookup reads role assignments from the user_roles table.
type ContentRoleLookup struct {
	Content backend.Content
}

// IsAdmin implements RoleLookup.
func (l ContentRoleLookup) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var rows []struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	q := backend.From(backend.TableUserRoles).
		Eq("user_id", userID).
		Eq("role", string(RoleAdmin)).
		WithLimit(1)
	if err := l.Content.Select(ctx, q, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0 && rows[0].UserID == userID, nil
}

// Resolver maintains one visitor's Snapshot from identity notifications.
// A notification carrying a session is published only after the role
// lookup for that user finished, so User and role always change together.
type Resolver struct {
	identity backend.Identity
	roles    RoleLookup
	logger   *slog.Logger

	mu      sync.Mutex
	snap    Snapshot
	changed chan struct{}
	seq     uint64
	started bool
	closed  bool
	unsub   func()
	cancel  context.CancelFunc
}

// NewResolver returns a Resolver in the loading state. Call Start to begin
// resolution and Close to release the subscription.
func NewResolver(identity backend.Identity, roles RoleLookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		identity: identity,
		roles:    roles,
		logger:   logger,
		snap:     Snapshot{Loading: true, Role: RoleAnonymous},
		changed:  make(chan struct{}),
	}
}

// Start subscribes to identity notifications. Calls after the first are
// no-ops. ctx bounds the role lookups.
func (r *Resolver) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	lookupCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	unsub := r.identity.OnAuthStateChange(ctx, func(ev backend.AuthEvent) {
		r.handle(lookupCtx, ev)
	})

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		unsub()
		return
	}
	r.unsub = unsub
	r.mu.Unlock()
}

// Close tears the subscription down and drops in-flight role lookups.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	unsub, cancel := r.unsub, r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsub != nil {
		unsub()
	}
}

// Snapshot returns the current state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Changed returns a channel closed at the next snapshot change.
func (r *Resolver) Changed() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// Wait blocks until identity is resolved or ctx is done, and returns the
// latest snapshot either way.
func (r *Resolver) Wait(ctx context.Context) (Snapshot, error) {
	for {
		r.mu.Lock()
		snap, ch := r.snap, r.changed
		r.mu.Unlock()

		if !snap.Loading {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return r.Snapshot(), ctx.Err()
		}
	}
}

func (r *Resolver) handle(ctx context.Context, ev backend.AuthEvent) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	// Restoration finished after a newer notification: it is stale.
	if ev.Kind == backend.EventInitialSession && r.seq > 0 {
		r.mu.Unlock()
		return
	}
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	if ev.Session == nil {
		r.publish(seq, Snapshot{Role: RoleAnonymous})
		return
	}

	user := ev.Session.User
	// The lookup runs outside the notification callback so a slow role
	// query never blocks further notifications or Close.
	go func() {
		r.publish(seq, Snapshot{User: &user, Role: r.lookupRole(ctx, user.ID)})
	}()
}

func (r *Resolver) lookupRole(ctx context.Context, userID string) Role {
	if r.roles == nil {
		return RoleMember
	}
	admin, err := r.roles.IsAdmin(ctx, userID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Warn("role lookup failed, treating as member", "user_id", userID, "error", err)
		}
		return RoleMember
	}
	if admin {
		return RoleAdmin
	}
	return RoleMember
}

// publish installs snap if seq is still the latest notification.
func (r *Resolver) publish(seq uint64, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || seq != r.seq {
		return
	}
	r.snap = snap
	close(r.changed)
	r.changed = make(chan struct{})
}

// SignIn authenticates with the identity service. The snapshot changes
// only through the resulting notification.
func (r *Resolver) SignIn(ctx context.Context, email, password string) error {
	_, err := r.identity.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	return err
}

// SignUp registers a new account. signedIn is false when the identity
// service requires email confirmation first.
func (r *Resolver) SignUp(ctx context.Context, email, password, fullName string) (signedIn bool, err error) {
	s, err := r.identity.SignUp(ctx, strings.TrimSpace(email), password,
		backend.Profile{FullName: strings.TrimSpace(fullName)})
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

// SignOut clears the persisted session. The identity service then notifies
// SIGNED_OUT, which resets the snapshot to anonymous.
func (r *Resolver) SignOut(ctx context.Context) error {
	return r.identity.SignOut(ctx)
}
