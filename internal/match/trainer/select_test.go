// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func TestFitSelectorKeepsInformativeFeatures(t *testing.T) {
	rng := rand.New(rand.NewSource(5)) //nolint:gosec // deterministic test data

	// Feature 0 encodes the label, features 1-9 are noise.
	n := 200
	features := make([][]float64, n)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = i % 2
		row := make([]float64, 10)
		row[0] = float64(labels[i])*10 + rng.Float64()
		for j := 1; j < 10; j++ {
			row[j] = rng.Float64()
		}
		features[i] = row
	}

	sel := FitSelector(features, labels, 3)
	if len(sel.Indices) != 3 {
		t.Fatalf("selected %d features, want 3", len(sel.Indices))
	}
	if sel.Indices[0] != 0 {
		t.Errorf("informative feature 0 not selected: %v", sel.Indices)
	}
	if !sort.IntsAreSorted(sel.Indices) {
		t.Errorf("indices not sorted: %v", sel.Indices)
	}
}

func TestFitSelectorKeepsAllWhenTopKCoversDim(t *testing.T) {
	features := [][]float64{{1, 2}, {3, 4}}
	sel := FitSelector(features, []int{0, 1}, 5)
	if len(sel.Indices) != 2 {
		t.Errorf("selected %d features, want all 2", len(sel.Indices))
	}
}

func TestSelectorTransform(t *testing.T) {
	sel := &MutualInfoSelector{Indices: []int{0, 2}}
	got := sel.Transform([]float64{10, 20, 30})
	if len(got) != 2 || got[0] != 10 || got[1] != 30 {
		t.Errorf("Transform = %v, want [10 30]", got)
	}

	empty := &MutualInfoSelector{}
	x := []float64{1, 2}
	if out := empty.Transform(x); len(out) != 2 {
		t.Errorf("empty selector should pass vectors through, got %v", out)
	}
}

func TestFitScaler(t *testing.T) {
	features := [][]float64{
		{1, 100, 7},
		{3, 200, 7},
		{5, 300, 7},
	}

	s := FitScaler(features)

	if math.Abs(s.Mean[0]-3) > 1e-9 {
		t.Errorf("mean[0] = %v, want 3", s.Mean[0])
	}
	if s.Std[2] != 1 {
		t.Errorf("std of constant column = %v, want 1 fallback", s.Std[2])
	}

	scaled := s.Transform([]float64{3, 200, 7})
	if math.Abs(scaled[0]) > 1e-9 || math.Abs(scaled[1]) > 1e-9 {
		t.Errorf("mean row should scale to zeros, got %v", scaled)
	}
	if math.Abs(scaled[2]) > 1e-9 {
		t.Errorf("constant column should center to zero, got %v", scaled[2])
	}

	for _, row := range s.TransformAll(features) {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("scaled value not finite: %v", row)
			}
		}
	}
}
