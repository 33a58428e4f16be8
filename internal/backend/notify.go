// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"sync"
)

// Notifier fans identity notifications out to subscribers. It is shared by
// the Identity implementations.
type Notifier struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(AuthEvent)
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is safe to call more than once.
func (n *Notifier) Subscribe(fn func(AuthEvent)) (unsubscribe func()) {
	n.mu.Lock()
	if n.listeners == nil {
		n.listeners = make(map[int]func(AuthEvent))
	}
	id := n.next
	n.next++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Emit delivers ev to every subscriber in the calling goroutine.
// Listeners are invoked without the lock held.
func (n *Notifier) Emit(ev AuthEvent) {
	n.mu.Lock()
	fns := make([]func(AuthEvent), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Restore subscribes fn and then, in a new goroutine, runs restore and
// delivers its result to fn as EventInitialSession. A restore error is
// delivered as "no session". Nothing is delivered once unsubscribed.
func (n *Notifier) Restore(ctx context.Context, fn func(AuthEvent), restore func(context.Context) (*Session, error)) (unsubscribe func()) {
	var (
		mu     sync.Mutex
		closed bool
	)
	guarded := func(ev AuthEvent) {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			fn(ev)
		}
	}
	unsub := n.Subscribe(guarded)

	go func() {
		s, err := restore(ctx)
		if err != nil {
			s = nil
		}
		guarded(AuthEvent{Kind: EventInitialSession, Session: s})
	}()

	return func() {
		unsub()
		mu.Lock()
		closed = true
		mu.Unlock()
	}
}
