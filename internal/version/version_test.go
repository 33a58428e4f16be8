// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"zero value", Info{}, "dev"},
		{"local build", Info{Version: "dev", GitCommit: Unknown, BuildTime: Unknown}, "dev"},
		{"version only", Info{Version: "v1.0.0"}, "v1.0.0"},
		{"with commit", Info{Version: "v1.0.0", GitCommit: "abc1234"}, "v1.0.0 (abc1234)"},
		{"commit without version", Info{GitCommit: "abc1234"}, "dev (abc1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo_Release(t *testing.T) {
	if (Info{}).Release() {
		t.Error("zero value should not be a release")
	}
	if (Info{Version: "dev"}).Release() {
		t.Error("dev build should not be a release")
	}
	if !(Info{Version: "v1.2.3"}).Release() {
		t.Error("tagged build should be a release")
	}
}
