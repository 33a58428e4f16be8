// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the homepage.
	RouteRoot = "/"

	// RouteAuth is the sign-in / sign-up screen.
	RouteAuth = "/auth"
	// RouteSignIn receives the sign-in form.
	RouteSignIn = "/auth/signin"
	// RouteSignUp receives the sign-up form.
	RouteSignUp = "/auth/signup"
	// RouteLogout signs the visitor out.
	RouteLogout = "/auth/logout"

	// RouteEvents is the events listing.
	RouteEvents = "/events"
	// RouteEventID is an event without its slug; it redirects to the canonical URL.
	RouteEventID = "/events/{id}"
	// RouteEventIDSlug is the canonical event URL.
	RouteEventIDSlug = "/events/{id}/{slug}"

	// RouteAccount is the signed-in visitor's page.
	RouteAccount = "/account"
	// RouteAdmin is the admin dashboard.
	RouteAdmin = "/admin"

	// RouteHealth is the detailed health check.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness probe.
	RouteHealthLive = "/health/live"
	// RouteHealthReady is the readiness probe.
	RouteHealthReady = "/health/ready"
)

// Paging and homepage limits.
const (
	// EventsPerPage is the events listing page size.
	EventsPerPage = 24
	// HomeEventsFetched is how many events the homepage asks for.
	HomeEventsFetched = 6
	// HomeEventsShown is how many of them it displays.
	HomeEventsShown = 3
	// HomeAchievements is how many achievements the homepage shows.
	HomeAchievements = 4
	// DiagnosticsShown is how many diagnostic records the dashboard lists.
	DiagnosticsShown = 50
)

// Flash message types understood by the layout.
const (
	flashTypeSuccess = "success"
	flashTypeError   = "error"
	flashTypeInfo    = "info"
)
