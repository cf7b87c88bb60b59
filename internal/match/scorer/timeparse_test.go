// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package scorer

import "testing"

func TestParseEstimateHours(t *testing.T) {
	tests := []struct {
		name     string
		estimate string
		want     float64
		wantOK   bool
	}{
		{"plain hours", "4 hours", 4, true},
		{"singular hour", "1 hour", 1, true},
		{"hr abbreviation", "3 hrs", 3, true},
		{"hour range averaged", "4-6 hours", 5, true},
		{"range with spaces", "2 - 4 hours", 3, true},
		{"days converted", "2 days", 16, true},
		{"day range averaged", "1-3 days", 16, true},
		{"weekend keyword", "weekend project", 16, true},
		{"small keyword", "small task", 2, true},
		{"quick keyword", "quick fix", 2, true},
		{"mixed case", "4 Hours", 4, true},
		{"empty", "", 0, false},
		{"unparseable", "a while", 0, false},
		{"bare number", "12", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEstimateHours(tt.estimate)
			if ok != tt.wantOK {
				t.Fatalf("ParseEstimateHours(%q) ok = %v, want %v", tt.estimate, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseEstimateHours(%q) = %v, want %v", tt.estimate, got, tt.want)
			}
		})
	}
}
