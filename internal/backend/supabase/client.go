// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package supabase implements the backend contracts over the REST interface
// of a Supabase-compatible backend: the GoTrue identity endpoints under
// /auth/v1 and the PostgREST content endpoints under /rest/v1.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/school-site/internal/backend"
)

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Config configures the connector.
type Config struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co
	URL string
	// AnonKey is the public API key sent with every request.
	AnonKey string
	// JWTSecret, when set, is used to verify restored access tokens (HS256).
	JWTSecret string
	// HTTPClient defaults to a client without timeout; backend calls are not
	// bounded here, callers bound them through the request context.
	HTTPClient *http.Client
	// Now defaults to time.Now.
	Now func() time.Time
}

// Connector opens per-visitor clients against one backend project.
type Connector struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// NewConnector validates cfg and returns a Connector.
func NewConnector(cfg Config) (*Connector, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase: URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase: anon key is required")
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	c := &Connector{cfg: cfg, http: cfg.HTTPClient, now: cfg.Now}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Connect returns a client whose session is persisted in storage.
// A nil storage gives an anonymous, read-only client.
func (c *Connector) Connect(storage backend.SessionStorage) backend.Client {
	return &Client{conn: c, storage: storage}
}

// Ping checks that the identity service answers.
func (c *Connector) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+authPath+"/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.cfg.AnonKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend health request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("backend health: status %d", resp.StatusCode)
	}
	return nil
}

// Client is one visitor's connection. It is safe for concurrent use.
type Client struct {
	conn     *Connector
	storage  backend.SessionStorage
	notifier backend.Notifier

	mu       sync.Mutex
	session  *backend.Session
	restored bool
}

var _ backend.Client = (*Client)(nil)

// do sends a JSON request and decodes a JSON response into out.
// Non-2xx responses are returned as *apiError.
func (c *Client) do(ctx context.Context, method, url, bearer string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("apikey", c.conn.cfg.AnonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.conn.cfg.AnonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.conn.http.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// transportError is a failure before any HTTP status was received.
type transportError struct{ err error }

func (e *transportError) Error() string { return "backend request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// apiError is a non-2xx response from either service.
type apiError struct {
	Status int
	// GoTrue fields (both the current and the legacy shapes).
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
	// PostgREST fields.
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.text())
}

func (e *apiError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.ErrorName} {
		if s != "" {
			return s
		}
	}
	return http.StatusText(e.Status)
}

func parseAPIError(status int, raw []byte) *apiError {
	e := &apiError{}
	// GoTrue sends "code" as a number, PostgREST as a string.
	var probe map[string]json.RawMessage
	if json.Unmarshal(raw, &probe) == nil {
		if c, ok := probe["code"]; ok && len(c) > 0 && c[0] != '"' {
			delete(probe, "code")
			raw, _ = json.Marshal(probe)
		}
		_ = json.Unmarshal(raw, e)
	}
	e.Status = status
	return e
}
