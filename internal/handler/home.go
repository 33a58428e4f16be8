// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/model"
	"github.com/olegiv/school-site/internal/render"
	"github.com/olegiv/school-site/internal/section"
)

// Homepage section loaders.
var (
	eventsSection = section.Loader[model.Event]{
		Name:  "events",
		Query: backend.From(backend.TableEvents).OrderBy("event_date", true).WithLimit(HomeEventsFetched),
	}
	achievementsSection = section.Loader[model.Achievement]{
		Name:  "achievements",
		Query: backend.From(backend.TableAchievements).OrderBy("year", false).WithLimit(HomeAchievements),
	}
	directorSection = section.Loader[model.DirectorProfile]{
		Name:  "director",
		Query: backend.From(backend.TableStaff).Eq("is_director", true).WithLimit(1),
	}
)

// HomePage is the homepage view model. Each section renders from its own slot.
type HomePage struct {
	Events       *section.Slot[model.Event]
	Achievements *section.Slot[model.Achievement]
	Director     *section.Slot[model.DirectorProfile]
}

// UpcomingEvents returns the events shown on the homepage.
func (p HomePage) UpcomingEvents() []model.Event {
	return p.Events.Head(HomeEventsShown)
}

// DirectorProfile returns the director record, or nil when there is none.
func (p HomePage) DirectorProfile() *model.DirectorProfile {
	d, ok := p.Director.First()
	if !ok {
		return nil
	}
	return &d
}

// HomeHandler renders the homepage.
type HomeHandler struct {
	renderer       *render.Renderer
	connector      backend.Connector
	sectionTimeout time.Duration
	logger         *slog.Logger
}

// NewHomeHandler creates a new HomeHandler. Sections still loading after
// sectionTimeout render as placeholders.
func NewHomeHandler(renderer *render.Renderer, connector backend.Connector, sectionTimeout time.Duration, logger *slog.Logger) *HomeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HomeHandler{
		renderer:       renderer,
		connector:      connector,
		sectionTimeout: sectionTimeout,
		logger:         logger,
	}
}

// Home handles GET /.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	g := section.NewGroup(ctx, contentFor(r, h.connector), h.logger)

	page := HomePage{
		Events:       section.Mount(g, eventsSection),
		Achievements: section.Mount(g, achievementsSection),
		Director:     section.Mount(g, directorSection),
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.sectionTimeout)
	defer cancel()
	if err := g.Wait(waitCtx); err != nil && errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn("sections not ready before render deadline",
			"timeout", h.sectionTimeout,
			"events", page.Events.Status().String(),
			"achievements", page.Achievements.Status().String(),
			"director", page.Director.Status().String())
	}

	renderPage(w, r, h.renderer, http.StatusOK, "home", render.TemplateData{
		Title:       "Home",
		Description: "Nurturing young minds with excellence in education, character building, and holistic development.",
		Data:        page,
	})
}
