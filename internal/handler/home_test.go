// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/backend/memory"
)

func newTestHomeHandler(env *testEnv, timeout time.Duration) http.Handler {
	return env.wrap(http.HandlerFunc(NewHomeHandler(env.renderer, env.backend, timeout, nil).Home))
}

func TestHomeHandler_Home_Ready(t *testing.T) {
	env := newTestEnv(t)
	if err := memory.SeedDemo(env.backend, time.Now()); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}

	w := serve(newTestHomeHandler(env, time.Second), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assertStatus(t, w.Code, http.StatusOK)

	body := w.Body.String()
	assertContains(t, body, "<title>Home | Saraswati School</title>")

	// Three nearest events of the four seeded.
	assertContains(t, body, "Annual Sports Day")
	assertContains(t, body, "Science Exhibition")
	assertContains(t, body, "Parent-Teacher Meeting")
	assertNotContains(t, body, "Annual Day Celebration")
	assertContains(t, body, "View All Events")

	// Four most recent achievements of the five seeded.
	assertContains(t, body, "100% Board Results")
	assertContains(t, body, "Inter-School Debate Champions")
	assertNotContains(t, body, "Best Eco Club Award")

	assertContains(t, body, "Dr. Meera Sharma")
	assertContains(t, body, "Ph.D. Education, M.Sc. Physics")
	assertNotContains(t, body, "Rajesh Kumar")

	assertNotContains(t, body, "skeleton-line")
	assertContains(t, body, "Sign In")
}

func TestHomeHandler_Home_Empty(t *testing.T) {
	env := newTestEnv(t)

	w := serve(newTestHomeHandler(env, time.Second), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assertStatus(t, w.Code, http.StatusOK)

	body := w.Body.String()
	assertContains(t, body, "No Events Yet")
	assertContains(t, body, "Achievements Coming Soon")
	assertContains(t, body, "Director information will be available soon")
	assertNotContains(t, body, "View All Events")
}

func TestHomeHandler_Home_SectionFailure(t *testing.T) {
	env := newTestEnv(t)
	if err := memory.SeedDemo(env.backend, time.Now()); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	env.backend.FailTable(backend.TableEvents, errors.New("relation does not exist"))

	w := serve(newTestHomeHandler(env, time.Second), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assertStatus(t, w.Code, http.StatusOK)

	body := w.Body.String()
	assertContains(t, body, "Events could not be loaded right now")
	assertNotContains(t, body, "No Events Yet")

	// The other sections are unaffected.
	assertContains(t, body, "100% Board Results")
	assertContains(t, body, "Dr. Meera Sharma")
}

func TestHomeHandler_Home_DeadlineRendersSkeleton(t *testing.T) {
	env := newTestEnv(t)
	if err := memory.SeedDemo(env.backend, time.Now()); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	env.backend.DelayTable(backend.TableStaff, 5*time.Second)

	start := time.Now()
	w := serve(newTestHomeHandler(env, 100*time.Millisecond), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("render waited %v for a slow section", elapsed)
	}
	assertStatus(t, w.Code, http.StatusOK)

	body := w.Body.String()
	assertContains(t, body, `class="card director skeleton"`)
	assertNotContains(t, body, "Dr. Meera Sharma")
	assertContains(t, body, "Annual Sports Day")
}

func TestHomePage_DirectorProfile(t *testing.T) {
	env := newTestEnv(t)
	w := serve(newTestHomeHandler(env, time.Second), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assertStatus(t, w.Code, http.StatusOK)
	assertNotContains(t, w.Body.String(), `class="card director"`)
}
