// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/decred/slog"
)

// TestParseAndSetDebugLevels ensures debug level strings are validated and
// applied to the expected subsystems.
func TestParseAndSetDebugLevels(t *testing.T) {
	defer setLogLevels(defaultLogLevel)

	tests := []struct {
		name    string
		level   string
		want    map[string]slog.Level
		invalid bool
	}{{
		name:  "all subsystems",
		level: "debug",
		want: map[string]slog.Level{
			"MAIN": slog.LevelDebug,
			"RSRC": slog.LevelDebug,
			"BKND": slog.LevelDebug,
			"POOL": slog.LevelDebug,
		},
	}, {
		name:  "per subsystem",
		level: "POOL=trace,BKND=warn",
		want: map[string]slog.Level{
			"MAIN": slog.LevelDebug,
			"POOL": slog.LevelTrace,
			"BKND": slog.LevelWarn,
		},
	}, {
		name:    "invalid level",
		level:   "loud",
		invalid: true,
	}, {
		name:    "invalid subsystem",
		level:   "NOPE=info",
		invalid: true,
	}, {
		name:    "missing pair delimiter",
		level:   "POOL=info,BKND",
		invalid: true,
	}}

	t.Logf("Running %d tests", len(tests))
	for _, test := range tests {
		err := parseAndSetDebugLevels(test.level)
		if test.invalid {
			if err == nil {
				t.Errorf("%q: expected error", test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", test.name, err)
			continue
		}
		for subsys, want := range test.want {
			if got := subsystemLoggers[subsys].Level(); got != want {
				t.Errorf("%q: unexpected %s level -- got %v, want %v",
					test.name, subsys, got, want)
			}
		}
	}
}

// TestSupportedSubsystems ensures the subsystems are listed in sorted order.
func TestSupportedSubsystems(t *testing.T) {
	got := supportedSubsystems()
	want := []string{"BKND", "MAIN", "POOL", "RSRC"}
	if len(got) != len(want) {
		t.Fatalf("unexpected subsystems -- got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected subsystems -- got %v, want %v", got, want)
		}
	}
}
