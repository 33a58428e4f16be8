// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version describes the running build.
package version

// Info is set from ldflags at build time.
type Info struct {
	Version   string // e.g. "v1.2.3"; "dev" for local builds
	GitCommit string // short commit hash
	BuildTime string // RFC3339
}

// Unknown is the ldflags default for fields not injected.
const Unknown = "unknown"

// String returns the version with its commit, for the dashboard and the
// admin health report.
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = "dev"
	}
	if i.GitCommit == "" || i.GitCommit == Unknown {
		return v
	}
	return v + " (" + i.GitCommit + ")"
}

// Release reports whether the binary was built from a tagged version.
func (i Info) Release() bool {
	return i.Version != "" && i.Version != "dev"
}
