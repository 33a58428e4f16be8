// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/middleware"
	"github.com/olegiv/school-site/internal/version"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	connector    backend.Connector
	sessionStore PingFunc
	info         version.Info
	startTime    time.Time
}

// NewHealthHandler creates a new health handler. sessionStore may be nil
// when sessions live in memory.
func NewHealthHandler(connector backend.Connector, sessionStore PingFunc, info version.Info) *HealthHandler {
	return &HealthHandler{
		connector:    connector,
		sessionStore: sessionStore,
		info:         info,
		startTime:    time.Now(),
	}
}

// StartTime returns when the handler (and application) was started.
func (h *HealthHandler) StartTime() time.Time {
	return h.startTime
}

// HealthStatusPublic is the minimal health response for non-admin callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (admins only).
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Healthy reports whether the check passed.
func (c Check) Healthy() bool { return c.Status == statusHealthy }

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health requests.
// Returns minimal status for most callers, full details for admins.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	backendCheck := pingBackend(r.Context(), h.connector)
	sessionCheck := h.checkSessionStore(r.Context())

	overallStatus := statusHealthy
	switch {
	case !sessionCheck.Healthy():
		overallStatus = statusUnhealthy
	case !backendCheck.Healthy():
		// Pages still render, with sections in their failed state.
		overallStatus = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	if overallStatus == statusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if !middleware.GetSnapshot(r).IsAdmin() {
		_ = json.NewEncoder(w).Encode(HealthStatusPublic{
			Status: overallStatus,
		})
		return
	}

	status := HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.info.String(),
		Checks: map[string]Check{
			"backend":  backendCheck,
			"sessions": sessionCheck,
		},
	}

	if r.URL.Query().Get("verbose") == "true" {
		status.System = getSystemInfo()
	}

	_ = json.NewEncoder(w).Encode(status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// Readiness handles GET /health/ready - checks if the service can serve
// pages. Without the session store no visitor can be resolved.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	sessionCheck := h.checkSessionStore(r.Context())

	w.Header().Set("Content-Type", "application/json")

	if sessionCheck.Healthy() {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
		})
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	resp := map[string]string{
		"status": "not_ready",
	}
	// Only include error details for admins
	if middleware.GetSnapshot(r).IsAdmin() {
		resp["message"] = sessionCheck.Message
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// checkSessionStore verifies session store connectivity.
func (h *HealthHandler) checkSessionStore(ctx context.Context) Check {
	if h.sessionStore == nil {
		return Check{Status: statusHealthy, Message: "In memory"}
	}

	ctx, cancel := context.WithTimeout(ctx, backendPingTimeout)
	defer cancel()

	start := time.Now()
	err := h.sessionStore(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  statusUnhealthy,
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  statusHealthy,
		Message: "Connected",
		Latency: latency.String(),
	}
}

// getSystemInfo returns system-level metrics.
func getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes formats bytes into a human-readable string.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
