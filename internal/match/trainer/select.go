// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import (
	"math"
	"sort"
)

// selectionBins is the number of quantile bins used to discretize
// continuous features for mutual information estimation.
const selectionBins = 10

// MutualInfoSelector keeps the top-K features by estimated mutual
// information with the binary label. Indices are sorted ascending so the
// selected sub-vector preserves the original feature ordering.
type MutualInfoSelector struct {
	Indices []int
}

// FitSelector estimates per-feature mutual information against the labels
// and returns a selector keeping the topK most informative features.
func FitSelector(features [][]float64, labels []int, topK int) *MutualInfoSelector {
	if len(features) == 0 {
		return &MutualInfoSelector{}
	}

	dim := len(features[0])
	if topK >= dim {
		idx := make([]int, dim)
		for i := range idx {
			idx[i] = i
		}
		return &MutualInfoSelector{Indices: idx}
	}

	type scored struct {
		index int
		mi    float64
	}
	scores := make([]scored, dim)

	col := make([]float64, len(features))
	for j := 0; j < dim; j++ {
		for i, row := range features {
			col[i] = row[j]
		}
		scores[j] = scored{index: j, mi: mutualInformation(col, labels)}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].mi != scores[j].mi {
			return scores[i].mi > scores[j].mi
		}
		return scores[i].index < scores[j].index
	})

	keep := make([]int, topK)
	for i := 0; i < topK; i++ {
		keep[i] = scores[i].index
	}
	sort.Ints(keep)

	return &MutualInfoSelector{Indices: keep}
}

// Transform returns the selected sub-vector.
func (s *MutualInfoSelector) Transform(x []float64) []float64 {
	if len(s.Indices) == 0 {
		return x
	}
	out := make([]float64, len(s.Indices))
	for i, idx := range s.Indices {
		out[i] = x[idx]
	}
	return out
}

// TransformAll selects features for a batch of vectors.
func (s *MutualInfoSelector) TransformAll(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, x := range features {
		out[i] = s.Transform(x)
	}
	return out
}

// mutualInformation estimates I(X; Y) for one continuous feature and a
// binary label by discretizing the feature into quantile bins.
func mutualInformation(values []float64, labels []int) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	bins := quantileBin(values)

	// Joint and marginal counts.
	joint := make(map[[2]int]int)
	binCount := make(map[int]int)
	labelCount := [2]int{}
	for i := range values {
		b := bins[i]
		y := labels[i]
		joint[[2]int{b, y}]++
		binCount[b]++
		labelCount[y]++
	}

	var mi float64
	total := float64(n)
	for key, count := range joint {
		pxy := float64(count) / total
		px := float64(binCount[key[0]]) / total
		py := float64(labelCount[key[1]]) / total
		if pxy > 0 && px > 0 && py > 0 {
			mi += pxy * math.Log(pxy/(px*py))
		}
	}

	if mi < 0 {
		mi = 0
	}
	return mi
}

// quantileBin assigns each value its quantile bin index.
func quantileBin(values []float64) []int {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return values[order[i]] < values[order[j]] })

	bins := make([]int, n)
	for rank, idx := range order {
		b := rank * selectionBins / n
		if b >= selectionBins {
			b = selectionBins - 1
		}
		bins[idx] = b
	}
	return bins
}
