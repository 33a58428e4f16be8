// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple title", "Annual Sports Day", "annual-sports-day"},
		{"punctuation", "Parent-Teacher Meeting!", "parent-teacher-meeting"},
		{"apostrophe", "Director's Address", "directors-address"},
		{"typographic apostrophe", "Director’s Address", "directors-address"},
		{"accents", "Café Über München", "cafe-uber-munchen"},
		{"digits", "Class 10 Results 2025", "class-10-results-2025"},
		{"surrounding space", "  Science   Exhibition  ", "science-exhibition"},
		{"underscores and tabs", "inter_school\tdebate", "inter-school-debate"},
		{"mixed case", "HeLLo WoRLd", "hello-world"},
		{"symbols only", "!@#$%^&*()", ""},
		{"non-latin", "वार्षिक उत्सव", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugify_LongTitle(t *testing.T) {
	title := strings.Repeat("celebration ", 10)
	got := Slugify(title)

	if len(got) > maxSlugLength {
		t.Errorf("len(Slugify()) = %d, want <= %d", len(got), maxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("Slugify() = %q ends with a hyphen", got)
	}
	if !strings.HasSuffix(got, "celebration") {
		t.Errorf("Slugify() = %q cut a word", got)
	}
}
