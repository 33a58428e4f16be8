// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures HTTP sessions and keeps the visitor's backend
// session inside them.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"
)

// Lifetime of an HTTP session.
const Lifetime = 24 * time.Hour

// New creates a session manager on top of store.
func New(store scs.Store, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = store

	sm.Lifetime = Lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// NewSQLite creates a session manager backed by the sessions table.
func NewSQLite(db *sql.DB, isDev bool) *scs.SessionManager {
	return New(sqlite3store.New(db), isDev)
}

// NewRedis creates a session manager backed by Redis.
func NewRedis(client *redis.Client, isDev bool) *scs.SessionManager {
	return New(NewRedisStore(client, DefaultRedisPrefix), isDev)
}
