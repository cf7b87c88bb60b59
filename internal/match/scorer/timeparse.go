// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package scorer

import (
	"regexp"
	"strconv"
	"strings"
)

// hoursPerDay converts day estimates into working hours.
const hoursPerDay = 8

var (
	hourPattern = regexp.MustCompile(`(\d+)(?:\s*-\s*(\d+))?\s*(?:hour|hr)s?\b`)
	dayPattern  = regexp.MustCompile(`(\d+)(?:\s*-\s*(\d+))?\s*days?\b`)
)

// ParseEstimateHours converts a free-form effort estimate into an hour
// figure. Recognized forms:
//
//   - "N hours" / "N-M hours" (range averaged)
//   - "N days" / "N-M days" (x8 hours, range averaged)
//   - "weekend project" -> 16 hours
//   - "small" / "quick" -> 2 hours
//
// Returns false for anything else; callers resolve that to a neutral score.
func ParseEstimateHours(estimate string) (float64, bool) {
	e := strings.ToLower(strings.TrimSpace(estimate))
	if e == "" {
		return 0, false
	}

	if m := hourPattern.FindStringSubmatch(e); m != nil {
		return rangeAverage(m[1], m[2]), true
	}
	if m := dayPattern.FindStringSubmatch(e); m != nil {
		return rangeAverage(m[1], m[2]) * hoursPerDay, true
	}
	if strings.Contains(e, "weekend") {
		return 16, true
	}
	if strings.Contains(e, "small") || strings.Contains(e, "quick") {
		return 2, true
	}

	return 0, false
}

// rangeAverage averages "lo" and an optional "hi" captured from an
// "N" or "N-M" numeric range.
func rangeAverage(lo, hi string) float64 {
	low, _ := strconv.Atoi(lo)
	if hi == "" {
		return float64(low)
	}
	high, _ := strconv.Atoi(hi)
	return (float64(low) + float64(high)) / 2
}
