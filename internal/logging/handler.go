// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that keeps recent warnings and
// errors in memory so they can be reviewed on the admin dashboard.
package logging

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Diagnostic categories
const (
	CategoryAuth    = "auth"
	CategoryContent = "content"
	CategorySession = "session"
	CategorySystem  = "system"
)

// DefaultCapacity is the number of records kept by default.
const DefaultCapacity = 200

// Entry is a captured log record.
type Entry struct {
	Time     time.Time
	Level    slog.Level
	Category string
	Message  string
	Attrs    map[string]string
}

// Ring is a bounded, concurrency-safe buffer of entries. The oldest entry is
// overwritten when full.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewRing returns a ring holding up to capacity entries.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{entries: make([]Entry, capacity)}
}

func (r *Ring) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (r *Ring) Recent(n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	if r.full {
		out = append(out, r.entries[r.next:]...)
	}
	out = append(out, r.entries[:r.next]...)
	slices.Reverse(out)

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Len returns the number of entries held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// DiagnosticsHandler is a slog.Handler that wraps another handler and also
// records WARN and ERROR level logs in a Ring.
type DiagnosticsHandler struct {
	inner slog.Handler
	ring  *Ring
	level slog.Level // Minimum level to record (default: WARN)
	attrs []slog.Attr
	group string
}

// NewDiagnosticsHandler creates a handler recording WARN and above into ring.
func NewDiagnosticsHandler(inner slog.Handler, ring *Ring) *DiagnosticsHandler {
	return NewDiagnosticsHandlerWithLevel(inner, ring, slog.LevelWarn)
}

// NewDiagnosticsHandlerWithLevel creates a handler with a custom minimum level.
func NewDiagnosticsHandlerWithLevel(inner slog.Handler, ring *Ring, level slog.Level) *DiagnosticsHandler {
	return &DiagnosticsHandler{inner: inner, ring: ring, level: level}
}

// Ring returns the buffer records are written to.
func (h *DiagnosticsHandler) Ring() *Ring { return h.ring }

// Enabled implements slog.Handler.
func (h *DiagnosticsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *DiagnosticsHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.inner.Enabled(ctx, r.Level) {
		err = h.inner.Handle(ctx, r)
	}

	if r.Level >= h.level {
		h.ring.add(h.entry(r))
	}

	return err
}

// WithAttrs implements slog.Handler.
func (h *DiagnosticsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DiagnosticsHandler{
		inner: h.inner.WithAttrs(attrs),
		ring:  h.ring,
		level: h.level,
		attrs: append(slices.Clip(h.attrs), h.qualify(attrs)...),
		group: h.group,
	}
}

// WithGroup implements slog.Handler.
func (h *DiagnosticsHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &DiagnosticsHandler{
		inner: h.inner.WithGroup(name),
		ring:  h.ring,
		level: h.level,
		attrs: h.attrs,
		group: group,
	}
}

func (h *DiagnosticsHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

func (h *DiagnosticsHandler) entry(r slog.Record) Entry {
	e := Entry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]string, len(h.attrs)+r.NumAttrs()),
	}

	add := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		if a.Key == "category" {
			e.Category = a.Value.String()
			return
		}
		if a.Value.Kind() == slog.KindGroup {
			for _, g := range a.Value.Group() {
				e.Attrs[a.Key+"."+g.Key] = g.Value.String()
			}
			return
		}
		e.Attrs[a.Key] = a.Value.String()
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		add(a)
		return true
	})

	if e.Category == "" {
		e.Category = inferCategory(r.Message, e.Attrs)
	}
	return e
}

// inferCategory guesses a category from the message and attribute names.
func inferCategory(message string, attrs map[string]string) string {
	msg := strings.ToLower(message)
	_, hasSection := attrs["section"]
	switch {
	case strings.Contains(msg, "sign") || strings.Contains(msg, "role") ||
		strings.Contains(msg, "access denied") || strings.Contains(msg, "auth"):
		return CategoryAuth
	case hasSection || strings.Contains(msg, "section") || strings.Contains(msg, "query"):
		return CategoryContent
	case strings.Contains(msg, "session"):
		return CategorySession
	default:
		return CategorySystem
	}
}
