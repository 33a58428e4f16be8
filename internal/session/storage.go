// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/school-site/internal/backend"
)

// Keys in the HTTP session.
const (
	keyBackendSession = "backend_session"
	KeyFlash          = "flash"
	KeyFlashType      = "flash_type"
)

// Storage persists the backend session inside the visitor's HTTP session.
// Contexts passed to it must come from a request that went through the
// session manager's LoadAndSave middleware.
type Storage struct {
	sm *scs.SessionManager
}

var _ backend.SessionStorage = (*Storage)(nil)

// NewStorage returns a Storage over sm.
func NewStorage(sm *scs.SessionManager) *Storage {
	return &Storage{sm: sm}
}

// Load returns the stored session or nil.
func (s *Storage) Load(ctx context.Context) (*backend.Session, error) {
	raw := s.sm.GetString(ctx, keyBackendSession)
	if raw == "" {
		return nil, nil
	}
	var bs backend.Session
	if err := json.Unmarshal([]byte(raw), &bs); err != nil {
		// Unreadable state is dropped rather than retried on every request.
		s.sm.Remove(ctx, keyBackendSession)
		return nil, fmt.Errorf("decoding stored session: %w", err)
	}
	return &bs, nil
}

// Save stores bs. The HTTP session token is renewed when the stored user
// changes, to prevent session fixation.
func (s *Storage) Save(ctx context.Context, bs *backend.Session) error {
	if bs == nil {
		return s.Clear(ctx)
	}

	prev, _ := s.Load(ctx)
	if prev == nil || prev.User.ID != bs.User.ID {
		if err := s.sm.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}
	}

	raw, err := json.Marshal(bs)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	s.sm.Put(ctx, keyBackendSession, string(raw))
	return nil
}

// Clear removes the stored session and renews the HTTP session token.
func (s *Storage) Clear(ctx context.Context) error {
	if !s.sm.Exists(ctx, keyBackendSession) {
		return nil
	}
	s.sm.Remove(ctx, keyBackendSession)
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	return nil
}

// SetFlash stores a one-shot message shown on the next rendered page.
func SetFlash(ctx context.Context, sm *scs.SessionManager, message, kind string) {
	sm.Put(ctx, KeyFlash, message)
	sm.Put(ctx, KeyFlashType, kind)
}
