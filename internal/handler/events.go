// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/model"
	"github.com/olegiv/school-site/internal/render"
	"github.com/olegiv/school-site/internal/uikit"
)

// EventsPage is the view model of the events listing.
type EventsPage struct {
	Events     []model.Event
	Pager      uikit.Pager
	LoadFailed bool
	Today      time.Time
}

// EventPage is the view model of one event.
type EventPage struct {
	Event model.Event
	Past  bool
}

// EventsHandler serves the events listing and detail pages.
type EventsHandler struct {
	renderer  *render.Renderer
	connector backend.Connector
	now       func() time.Time
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(renderer *render.Renderer, connector backend.Connector) *EventsHandler {
	return &EventsHandler{
		renderer:  renderer,
		connector: connector,
		now:       time.Now,
	}
}

// List handles GET /events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := uikit.ParsePageParam(r)
	offset := (page - 1) * EventsPerPage

	q := backend.From(backend.TableEvents).
		OrderBy("event_date", true).
		WithLimit(EventsPerPage + 1).
		WithOffset(offset)

	var events []model.Event
	view := EventsPage{Today: h.now()}
	if err := contentFor(r, h.connector).Select(r.Context(), q, &events); err != nil {
		slog.Error("failed to load events", "page", page, "query", q.String(), "error", err)
		view.LoadFailed = true
	}

	if !view.LoadFailed && page > 1 && len(events) == 0 {
		h.renderer.Error(w, r, http.StatusNotFound, "There are no more events.")
		return
	}

	view.Pager = uikit.BuildPager(page, EventsPerPage, len(events), RouteEvents, r.URL.Query())
	view.Events = uikit.Visible(events, EventsPerPage)

	renderPage(w, r, h.renderer, http.StatusOK, "events", render.TemplateData{
		Title:       "Events",
		Description: "Stay updated with our latest school events, activities, and celebrations.",
		Data:        view,
		Breadcrumbs: uikit.Trail("Home", RouteRoot, "Events", RouteEvents),
	})
}

// Show handles GET /events/{id} and /events/{id}/{slug}. Non-canonical
// URLs redirect permanently to the canonical one.
func (h *EventsHandler) Show(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	id, err := uuid.Parse(rawID)
	if err != nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Event not found.")
		return
	}

	q := backend.From(backend.TableEvents).Eq("id", id.String()).WithLimit(1)
	var events []model.Event
	if err := contentFor(r, h.connector).Select(r.Context(), q, &events); err != nil {
		slog.Error("failed to load event", "event_id", id.String(), "error", err)
		h.renderer.Error(w, r, http.StatusBadGateway, "This event could not be loaded. Please try again later.")
		return
	}
	if len(events) == 0 {
		h.renderer.Error(w, r, http.StatusNotFound, "Event not found.")
		return
	}
	event := events[0]

	if rawID != event.ID || chi.URLParam(r, "slug") != event.Slug() {
		http.Redirect(w, r, event.Path(), http.StatusMovedPermanently)
		return
	}

	data := render.TemplateData{
		Title: event.Title,
		Data: EventPage{
			Event: event,
			Past:  event.Past(h.now()),
		},
		Breadcrumbs: uikit.Trail("Home", RouteRoot, "Events", RouteEvents, event.Title, event.Path()),
	}
	if event.Description != nil {
		data.Description = uikit.Truncate(*event.Description, 160)
	}
	renderPage(w, r, h.renderer, http.StatusOK, "event", data)
}
