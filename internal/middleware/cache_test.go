// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStaticCache(t *testing.T) {
	tests := []struct {
		name   string
		maxAge time.Duration
		status int
		write  bool
		want   string
	}{
		{"implicit 200", 24 * time.Hour, 0, true, "public, max-age=86400"},
		{"explicit 200", time.Hour, http.StatusOK, false, "public, max-age=3600"},
		{"not modified", time.Hour, http.StatusNotModified, false, "public, max-age=3600"},
		{"missing asset", time.Hour, http.StatusNotFound, true, "no-store"},
		{"server error", time.Hour, http.StatusInternalServerError, false, "no-store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				if tt.write {
					_, _ = w.Write([]byte("body{}"))
				}
			})

			rr := httptest.NewRecorder()
			StaticCache(tt.maxAge)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))

			if got := rr.Header().Get("Cache-Control"); got != tt.want {
				t.Errorf("Cache-Control = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStaticCache_PreservesResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("body{}"))
	})

	rr := httptest.NewRecorder()
	StaticCache(time.Hour)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/css" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/css")
	}
	if body := rr.Body.String(); body != "body{}" {
		t.Errorf("Body = %q, want %q", body, "body{}")
	}
}

func TestNoStore(t *testing.T) {
	rr := httptest.NewRecorder()
	NoStore(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if cc := rr.Header().Get("Cache-Control"); cc != "private, no-store" {
		t.Errorf("Cache-Control = %q, want %q", cc, "private, no-store")
	}
	if v := rr.Header().Get("Vary"); v != "Cookie" {
		t.Errorf("Vary = %q, want Cookie", v)
	}
}
