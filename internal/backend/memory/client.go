// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/olegiv/school-site/internal/backend"
)

// Client is one visitor's connection to a Backend.
type Client struct {
	b        *Backend
	storage  backend.SessionStorage
	notifier backend.Notifier

	mu      sync.Mutex
	session *backend.Session
}

var _ backend.Client = (*Client)(nil)

// SignInWithPassword implements backend.Identity.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	s, err := c.b.signIn(email, password)
	if err != nil {
		return nil, err
	}
	if err := c.persist(ctx, s); err != nil {
		return nil, err
	}
	c.notifier.Emit(backend.AuthEvent{Kind: backend.EventSignedIn, Session: s})
	return s, nil
}

// SignUp implements backend.Identity.
func (c *Client) SignUp(ctx context.Context, email, password string, profile backend.Profile) (*backend.Session, error) {
	s, err := c.b.signUp(email, password, profile)
	if err != nil || s == nil {
		return nil, err
	}
	if err := c.persist(ctx, s); err != nil {
		return nil, err
	}
	c.notifier.Emit(backend.AuthEvent{Kind: backend.EventSignedIn, Session: s})
	return s, nil
}

// SignOut implements backend.Identity.
func (c *Client) SignOut(ctx context.Context) error {
	s, err := c.current(ctx)
	if err != nil {
		return err
	}
	if s != nil {
		c.b.revoke(s)
	}

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.Clear(ctx); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
	}
	c.notifier.Emit(backend.AuthEvent{Kind: backend.EventSignedOut})
	return nil
}

// OnAuthStateChange implements backend.Identity.
func (c *Client) OnAuthStateChange(ctx context.Context, fn func(backend.AuthEvent)) func() {
	return c.notifier.Restore(ctx, fn, c.restore)
}

func (c *Client) restore(ctx context.Context) (*backend.Session, error) {
	if c.storage == nil {
		return nil, nil
	}
	stored, err := c.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if stored == nil {
		return nil, nil
	}

	s := c.b.validate(stored)
	if s == nil {
		_ = c.storage.Clear(ctx)
		return nil, nil
	}
	if s.AccessToken != stored.AccessToken {
		if err := c.persist(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s, nil
}

func (c *Client) current(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s != nil || c.storage == nil {
		return s, nil
	}
	return c.storage.Load(ctx)
}

func (c *Client) persist(ctx context.Context, s *backend.Session) error {
	if c.storage != nil {
		if err := c.storage.Save(ctx, s); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return nil
}

// Select implements backend.Content.
func (c *Client) Select(ctx context.Context, q backend.Query, dest any) error {
	rows, err := c.b.selectRows(ctx, q)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return &backend.QueryError{Table: q.Table, Message: "encoding rows", Err: err}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &backend.QueryError{Table: q.Table, Message: "decoding rows", Err: err}
	}
	return nil
}
