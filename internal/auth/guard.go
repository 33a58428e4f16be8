// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

// Decision is the outcome of guarding a protected page.
type Decision int

// Guard decisions.
const (
	ShowLoading Decision = iota
	RedirectToLogin
	ShowAccessDenied
	RenderChildren
)

func (d Decision) String() string {
	switch d {
	case ShowLoading:
		return "show_loading"
	case RedirectToLogin:
		return "redirect_to_login"
	case ShowAccessDenied:
		return "show_access_denied"
	case RenderChildren:
		return "render_children"
	default:
		return "unknown"
	}
}

// Decide gates a protected page. Loading takes precedence over everything.
func Decide(s Snapshot, requireAdmin bool) Decision {
	switch {
	case s.Loading:
		return ShowLoading
	case s.User == nil:
		return RedirectToLogin
	case requireAdmin && !s.IsAdmin():
		return ShowAccessDenied
	default:
		return RenderChildren
	}
}

// ShouldLeaveLoginPage reports whether the sign-in page should send the
// visitor home because they are already signed in.
func ShouldLeaveLoginPage(s Snapshot) bool {
	return s.SignedIn()
}
