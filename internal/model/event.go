// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Event is a scheduled school event.
type Event struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Date        Date    `json:"event_date"`
	Time        *string `json:"event_time"`
	Location    *string `json:"location"`
	ImageURL    *string `json:"image_url"`
	Featured    bool    `json:"is_featured"`
}

// Slug returns the URL slug derived from the title.
func (e Event) Slug() string {
	if s := Slugify(e.Title); s != "" {
		return s
	}
	return "event"
}

// Path returns the canonical URL of the event detail page.
func (e Event) Path() string {
	return "/events/" + e.ID + "/" + e.Slug()
}

// TimeLabel returns the event time for display. Wall-clock values such as
// "14:30:00" are shown as "2:30 PM"; free text is returned unchanged.
func (e Event) TimeLabel() string {
	if e.Time == nil {
		return ""
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, *e.Time); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return *e.Time
}

// Past reports whether the event date is before the day of now.
func (e Event) Past(now time.Time) bool {
	return e.Date.Before(NewDate(now).Time)
}
