// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"testing"
	"time"
)

func TestTemplateFuncs_FormatFunctions(t *testing.T) {
	funcs := TemplateFuncs()

	formatDate := funcs["formatDate"].(func(time.Time) string)
	testTime := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	if got := formatDate(testTime); got != "Mar 05, 2025" {
		t.Errorf("formatDate() = %q, want %q", got, "Mar 05, 2025")
	}

	formatDateTime := funcs["formatDateTime"].(func(time.Time) string)
	testTime = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)
	if got := formatDateTime(testTime); got != "Mar 15, 2025 2:30 PM" {
		t.Errorf("formatDateTime() = %q, want %q", got, "Mar 15, 2025 2:30 PM")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "hello..."},
		{"hello world", 6, "hello..."},
		{"hello", 5, "hello"},
		{"hello", 10, "hello"},
		{"", 5, ""},
		{"नमस्ते दुनिया", 3, "नमस..."},
		{"keep", -1, "keep"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.input, tt.length); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.expected)
		}
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Dr. Anita Sharma", "DA"},
		{"anita", "A"},
		{"  ", ""},
		{"1st Place Team", "PT"},
	}
	for _, tt := range tests {
		if got := Initials(tt.name); got != tt.want {
			t.Errorf("Initials(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTemplateFuncs_StringFunctions(t *testing.T) {
	funcs := TemplateFuncs()

	lower := funcs["lower"].(func(string) string)
	upper := funcs["upper"].(func(string) string)
	if got := lower("HELLO"); got != "hello" {
		t.Errorf("lower(HELLO) = %q, want %q", got, "hello")
	}
	if got := upper("hello"); got != "HELLO" {
		t.Errorf("upper(hello) = %q, want %q", got, "HELLO")
	}

	hasPrefix := funcs["hasPrefix"].(func(string, string) bool)
	if !hasPrefix("/events/abc", "/events") {
		t.Error("hasPrefix should return true")
	}
	if hasPrefix("/", "/events") {
		t.Error("hasPrefix should return false")
	}

	contains := funcs["contains"].(func(any, any) bool)
	if !contains([]string{"a", "b"}, "b") {
		t.Error("contains should find element in slice")
	}
	if contains([]string{"a"}, "c") {
		t.Error("contains should not find missing element")
	}
	if !contains("Class 10 & 12", "12") {
		t.Error("contains should find substring")
	}
	if contains(42, "4") {
		t.Error("contains should reject unsupported types")
	}
}

func TestTemplateFuncs_MathFunctions(t *testing.T) {
	funcs := TemplateFuncs()

	add := funcs["add"].(func(int, int) int)
	sub := funcs["sub"].(func(int, int) int)

	if got := add(5, 3); got != 8 {
		t.Errorf("add(5, 3) = %d, want 8", got)
	}
	if got := sub(5, 3); got != 2 {
		t.Errorf("sub(5, 3) = %d, want 2", got)
	}
}

func TestTemplateFuncs_SeqFunction(t *testing.T) {
	funcs := TemplateFuncs()
	seq := funcs["seq"].(func(int, int) []int)

	tests := []struct {
		start    int
		end      int
		expected []int
	}{
		{1, 3, []int{1, 2, 3}},
		{0, 0, []int{0}},
		{5, 3, nil},
	}

	for _, tt := range tests {
		got := seq(tt.start, tt.end)
		if len(got) != len(tt.expected) {
			t.Errorf("seq(%d, %d) length = %d, want %d", tt.start, tt.end, len(got), len(tt.expected))
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("seq(%d, %d)[%d] = %d, want %d", tt.start, tt.end, i, got[i], tt.expected[i])
			}
		}
	}
}

func TestTemplateFuncs_Deref(t *testing.T) {
	deref := TemplateFuncs()["deref"].(func(*string) string)
	if got := deref(nil); got != "" {
		t.Errorf("deref(nil) = %q, want empty", got)
	}
	s := "bio"
	if got := deref(&s); got != "bio" {
		t.Errorf("deref(&s) = %q, want %q", got, "bio")
	}
}

func TestTemplateFuncs_Dict(t *testing.T) {
	dict := TemplateFuncs()["dict"].(func(...any) map[string]any)

	m := dict("Title", "Events", "Count", 3)
	if m["Title"] != "Events" || m["Count"] != 3 {
		t.Errorf("dict() = %v", m)
	}
	if dict("odd") != nil {
		t.Error("dict with odd arguments should return nil")
	}
	if m := dict(1, "x", "k", "v"); len(m) != 1 || m["k"] != "v" {
		t.Errorf("dict should skip non-string keys, got %v", m)
	}
}
