// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package section loads the independent content blocks of a page. Each
// block issues one query when mounted and moves from loading to ready,
// empty or failed. A Group runs the blocks of one page in parallel and
// bounds them by the render deadline.
package section

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/school-site/internal/backend"
)

// Status is the render state of a slot.
type Status int

// Slot states.
const (
	StatusLoading Status = iota
	StatusEmpty
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusEmpty:
		return "empty"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader describes one section: a name for diagnostics and the query
// whose rows fill it.
type Loader[T any] struct {
	Name  string
	Query backend.Query
}

// Slot holds a section's rows. Once disposed it ignores late results.
type Slot[T any] struct {
	name string

	mu       sync.Mutex
	status   Status
	items    []T
	err      error
	disposed bool
}

// Name returns the loader name.
func (s *Slot[T]) Name() string { return s.name }

// Status returns the current state.
func (s *Slot[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Items returns the rows in backend order. It is empty unless Ready.
func (s *Slot[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Head returns at most n rows.
func (s *Slot[T]) Head(n int) []T {
	items := s.Items()
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// First returns the first row, for singleton lookups.
func (s *Slot[T]) First() (T, bool) {
	items := s.Items()
	if len(items) == 0 {
		var zero T
		return zero, false
	}
	return items[0], true
}

// Err returns the load error of a Failed slot.
func (s *Slot[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Template helpers.
func (s *Slot[T]) Loading() bool { return s.Status() == StatusLoading }
func (s *Slot[T]) Empty() bool   { return s.Status() == StatusEmpty }
func (s *Slot[T]) Ready() bool   { return s.Status() == StatusReady }
func (s *Slot[T]) Failed() bool  { return s.Status() == StatusFailed }

func (s *Slot[T]) fill(rows []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if len(rows) == 0 {
		s.items = []T{}
		s.status = StatusEmpty
		return
	}
	s.items = rows
	s.status = StatusReady
}

func (s *Slot[T]) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.err = err
	s.items = []T{}
	s.status = StatusFailed
}

func (s *Slot[T]) dispose() {
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
}

func (s *Slot[T]) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Group runs the loaders of one page.
type Group struct {
	content backend.Content
	logger  *slog.Logger

	eg     *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	disposes []func()
	waited   bool
}

// NewGroup returns a group whose loads run under ctx.
func NewGroup(ctx context.Context, content backend.Content, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{content: content, logger: logger, eg: eg, ctx: ctx, cancel: cancel}
}

// Mount starts loading l and returns its slot in the loading state.
// Mounting after Wait returns a slot that stays loading.
func Mount[T any](g *Group, l Loader[T]) *Slot[T] {
	slot := &Slot[T]{name: l.Name}

	g.mu.Lock()
	if g.waited {
		g.mu.Unlock()
		slot.dispose()
		return slot
	}
	g.disposes = append(g.disposes, slot.dispose)
	g.mu.Unlock()

	g.eg.Go(func() error {
		var rows []T
		err := g.content.Select(g.ctx, l.Query, &rows)
		if slot.isDisposed() {
			return nil
		}
		if err != nil {
			g.logger.Error("section load failed", "section", l.Name, "query", l.Query.String(), "error", err)
			slot.fail(err)
			return nil
		}
		slot.fill(rows)
		return nil
	})
	return slot
}

// Wait returns once every mounted loader finished or ctx is done. Slots
// are disposed on return: rows arriving later are dropped and unfinished
// slots stay loading. The returned error is ctx's when the deadline cut
// loading short.
func (g *Group) Wait(ctx context.Context) error {
	g.mu.Lock()
	g.waited = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = g.eg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	g.mu.Lock()
	disposes := g.disposes
	g.disposes = nil
	g.mu.Unlock()
	for _, d := range disposes {
		d()
	}
	g.cancel()
	return err
}
