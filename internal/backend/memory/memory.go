// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package memory is an in-process implementation of the backend contracts.
// It serves the demo mode and stands in for the remote backend in tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/school-site/internal/backend"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = time.Hour

type account struct {
	user backend.User
	hash string
}

type grant struct {
	userID    string
	expiresAt time.Time
}

// Backend holds users, sessions and table rows. It is safe for concurrent use.
type Backend struct {
	// TokenTTL defaults to DefaultTokenTTL.
	TokenTTL time.Duration
	// ConfirmEmail makes SignUp return no session, as when the identity
	// service requires email confirmation.
	ConfirmEmail bool
	// Now defaults to time.Now.
	Now func() time.Time

	mu       sync.RWMutex
	accounts map[string]*account // by lower-cased email
	access   map[string]grant
	refresh  map[string]string // refresh token -> user id
	tables   map[string][]map[string]any
	failures map[string]error
	delays   map[string]time.Duration
	down     error
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		accounts: make(map[string]*account),
		access:   make(map[string]grant),
		refresh:  make(map[string]string),
		tables:   make(map[string][]map[string]any),
		failures: make(map[string]error),
		delays:   make(map[string]time.Duration),
	}
}

var _ backend.Connector = (*Backend)(nil)

// Connect implements backend.Connector.
func (b *Backend) Connect(storage backend.SessionStorage) backend.Client {
	return &Client{b: b, storage: storage}
}

// Ping implements backend.Connector.
func (b *Backend) Ping(context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.down
}

// SetDown makes every identity call fail as unavailable and Ping return err.
// A nil err brings the backend back.
func (b *Backend) SetDown(err error) {
	b.mu.Lock()
	b.down = err
	b.mu.Unlock()
}

// FailTable makes every select on table return err. A nil err clears it.
func (b *Backend) FailTable(table string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, table)
		return
	}
	b.failures[table] = err
}

// DelayTable makes every select on table wait d before answering.
func (b *Backend) DelayTable(table string, d time.Duration) {
	b.mu.Lock()
	b.delays[table] = d
	b.mu.Unlock()
}

// AddUser registers an account directly, bypassing sign-up policy.
func (b *Backend) AddUser(email, password, fullName string) (backend.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return backend.User{}, err
	}

	key := strings.ToLower(strings.TrimSpace(email))
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[key]; ok {
		return backend.User{}, fmt.Errorf("user %s already exists", key)
	}
	u := backend.User{ID: uuid.NewString(), Email: key, FullName: fullName}
	b.accounts[key] = &account{user: u, hash: hash}
	return u, nil
}

// SetRole records role for the user in the user_roles table.
func (b *Backend) SetRole(userID, role string) error {
	return b.Insert(backend.TableUserRoles, map[string]any{
		"id":      uuid.NewString(),
		"user_id": userID,
		"role":    role,
	})
}

// Insert appends rows to table. Rows may be any JSON-encodable value whose
// encoding is an object.
func (b *Backend) Insert(table string, rows ...any) error {
	decoded := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding %s row: %w", table, err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("%s row is not an object: %w", table, err)
		}
		decoded = append(decoded, m)
	}

	b.mu.Lock()
	b.tables[table] = append(b.tables[table], decoded...)
	b.mu.Unlock()
	return nil
}

// Truncate removes every row of table.
func (b *Backend) Truncate(table string) {
	b.mu.Lock()
	delete(b.tables, table)
	b.mu.Unlock()
}

func (b *Backend) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Backend) ttl() time.Duration {
	if b.TokenTTL > 0 {
		return b.TokenTTL
	}
	return DefaultTokenTTL
}

func (b *Backend) unavailable() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.down != nil {
		return &backend.AuthError{Kind: backend.AuthUnavailable, Message: "identity service unreachable", Err: b.down}
	}
	return nil
}

// issue creates a session for u. Callers hold b.mu.
func (b *Backend) issue(u backend.User) *backend.Session {
	s := &backend.Session{
		AccessToken:  newToken("at_"),
		RefreshToken: newToken("rt_"),
		ExpiresAt:    b.now().Add(b.ttl()),
		User:         u,
	}
	b.access[s.AccessToken] = grant{userID: u.ID, expiresAt: s.ExpiresAt}
	b.refresh[s.RefreshToken] = u.ID
	return s
}

func (b *Backend) userByID(id string) (backend.User, bool) {
	for _, a := range b.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return backend.User{}, false
}

func (b *Backend) signIn(email, password string) (*backend.Session, error) {
	if err := b.unavailable(); err != nil {
		return nil, err
	}

	key := strings.ToLower(strings.TrimSpace(email))
	b.mu.RLock()
	a, ok := b.accounts[key]
	b.mu.RUnlock()

	invalid := &backend.AuthError{Kind: backend.AuthInvalidCredentials, Message: "Invalid login credentials", Status: 400}
	if !ok {
		return nil, invalid
	}
	valid, err := checkPassword(password, a.hash)
	if err != nil || !valid {
		return nil, invalid
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(a.user), nil
}

func (b *Backend) signUp(email, password string, profile backend.Profile) (*backend.Session, error) {
	if err := b.unavailable(); err != nil {
		return nil, err
	}
	if len(password) < backend.MinPasswordLength {
		return nil, &backend.AuthError{
			Kind:    backend.AuthRejected,
			Message: fmt.Sprintf("Password should be at least %d characters.", backend.MinPasswordLength),
			Status:  422,
		}
	}

	u, err := b.AddUser(email, password, profile.FullName)
	if err != nil {
		return nil, &backend.AuthError{Kind: backend.AuthAlreadyRegistered, Message: "User already registered", Status: 422}
	}
	if b.ConfirmEmail {
		return nil, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(u), nil
}

func (b *Backend) revoke(s *backend.Session) {
	b.mu.Lock()
	delete(b.access, s.AccessToken)
	delete(b.refresh, s.RefreshToken)
	b.mu.Unlock()
}

// validate resolves a persisted session: a known, live token is returned
// as is, an expired one is exchanged through its refresh token, anything
// else yields nil.
func (b *Backend) validate(s *backend.Session) *backend.Session {
	b.mu.Lock()
	defer b.mu.Unlock()

	if g, ok := b.access[s.AccessToken]; ok && b.now().Before(g.expiresAt) {
		u, ok := b.userByID(g.userID)
		if !ok {
			return nil
		}
		out := *s
		out.User = u
		return &out
	}

	userID, ok := b.refresh[s.RefreshToken]
	if !ok {
		return nil
	}
	delete(b.access, s.AccessToken)
	delete(b.refresh, s.RefreshToken)
	u, ok := b.userByID(userID)
	if !ok {
		return nil
	}
	return b.issue(u)
}

func (b *Backend) selectRows(ctx context.Context, q backend.Query) ([]map[string]any, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	delay := b.delays[q.Table]
	failure := b.failures[q.Table]
	b.mu.RUnlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, &backend.QueryError{Table: q.Table, Message: "request canceled", Err: ctx.Err()}
		}
	}
	if failure != nil {
		qe := &backend.QueryError{Table: q.Table, Status: 500, Message: failure.Error(), Err: failure}
		var given *backend.QueryError
		if errors.As(failure, &given) {
			qe = given
		}
		return nil, qe
	}

	b.mu.RLock()
	rows := make([]map[string]any, 0)
	for _, r := range b.tables[q.Table] {
		if matches(r, q.Filters) {
			rows = append(rows, r)
		}
	}
	b.mu.RUnlock()

	if len(q.Orders) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			return less(rows[i], rows[j], q.Orders)
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			return []map[string]any{}, nil
		}
		rows = rows[q.Offset:]
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func matches(row map[string]any, filters []backend.Filter) bool {
	for _, f := range filters {
		v := row[f.Column]
		if f.Value == nil || v == nil {
			if f.Value != nil || v != nil {
				return false
			}
			continue
		}
		if backend.FormatValue(v) != backend.FormatValue(f.Value) {
			return false
		}
	}
	return true
}

// less orders rows by each term in turn. Nulls sort last in ascending
// order and first in descending order.
func less(a, b map[string]any, orders []backend.Order) bool {
	for _, o := range orders {
		c := compare(a[o.Column], b[o.Column])
		if c == 0 {
			continue
		}
		if o.Ascending {
			return c < 0
		}
		return c > 0
	}
	return false
}

func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(backend.FormatValue(a), backend.FormatValue(b))
}
