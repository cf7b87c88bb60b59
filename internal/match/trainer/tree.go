// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a regression tree. Leaves have Feature == -1.
type TreeNode struct {
	// Feature is the split feature index, or -1 for a leaf.
	Feature int

	// Threshold is the split point; rows with x[Feature] <= Threshold go left.
	Threshold float64

	// Left and Right are child indexes into the tree's node slice.
	Left  int
	Right int

	// Value is the leaf output (undefined for internal nodes).
	Value float64
}

// Tree is a flattened regression tree. Flattening keeps the structure
// gob-serializable and cache-friendly at prediction time.
type Tree struct {
	Nodes []TreeNode
}

// Predict returns the tree output for one feature vector.
func (t *Tree) Predict(x []float64) float64 {
	idx := 0
	for {
		n := &t.Nodes[idx]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// treeParams controls tree growth.
type treeParams struct {
	maxDepth  int
	minLeaf   int
	colSample float64 // fraction of features considered per split
	lambda    float64 // L2 shrinkage on leaf values
}

// buildTree grows a weighted least-squares regression tree on the given
// rows. targets and weights are per-row; split quality is weighted variance
// reduction and leaf values are L2-shrunk weighted means. This single
// builder serves both boosting (targets = Newton steps, weights = hessians)
// and forests (targets = labels, weights = sample weights).
func buildTree(features [][]float64, targets, weights []float64, rows []int, p treeParams, rng *rand.Rand) *Tree {
	t := &Tree{}
	t.grow(features, targets, weights, rows, p, rng, 0)
	return t
}

// grow recursively builds the subtree for rows and returns its node index.
func (t *Tree) grow(features [][]float64, targets, weights []float64, rows []int, p treeParams, rng *rand.Rand, depth int) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{Feature: -1})

	if depth >= p.maxDepth || len(rows) < 2*p.minLeaf {
		t.Nodes[idx].Value = leafValue(targets, weights, rows, p.lambda)
		return idx
	}

	feat, threshold, ok := bestSplit(features, targets, weights, rows, p, rng)
	if !ok {
		t.Nodes[idx].Value = leafValue(targets, weights, rows, p.lambda)
		return idx
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if features[r][feat] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	if len(left) < p.minLeaf || len(right) < p.minLeaf {
		t.Nodes[idx].Value = leafValue(targets, weights, rows, p.lambda)
		return idx
	}

	t.Nodes[idx].Feature = feat
	t.Nodes[idx].Threshold = threshold
	t.Nodes[idx].Left = t.grow(features, targets, weights, left, p, rng, depth+1)
	t.Nodes[idx].Right = t.grow(features, targets, weights, right, p, rng, depth+1)
	return idx
}

// leafValue computes the L2-shrunk weighted mean of the rows' targets.
func leafValue(targets, weights []float64, rows []int, lambda float64) float64 {
	var sum, wsum float64
	for _, r := range rows {
		sum += targets[r] * weights[r]
		wsum += weights[r]
	}
	if wsum+lambda == 0 {
		return 0
	}
	return sum / (wsum + lambda)
}

// bestSplit searches a random subset of features for the split with the
// largest weighted variance reduction.
func bestSplit(features [][]float64, targets, weights []float64, rows []int, p treeParams, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	numFeatures := len(features[rows[0]])
	candidates := sampleFeatures(numFeatures, p.colSample, rng)

	var totalSum, totalWeight float64
	for _, r := range rows {
		totalSum += targets[r] * weights[r]
		totalWeight += weights[r]
	}
	if totalWeight == 0 {
		return 0, 0, false
	}

	// Baseline score: weighted sum of squares is constant across splits, so
	// maximizing sum_l^2/w_l + sum_r^2/w_r maximizes variance reduction.
	bestGain := totalSum * totalSum / totalWeight
	found := false

	order := make([]int, len(rows))
	for _, f := range candidates {
		copy(order, rows)
		sort.Slice(order, func(i, j int) bool {
			return features[order[i]][f] < features[order[j]][f]
		})

		var leftSum, leftWeight float64
		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			leftSum += targets[r] * weights[r]
			leftWeight += weights[r]

			// Cannot split between equal feature values.
			if features[order[i]][f] == features[order[i+1]][f] {
				continue
			}
			if i+1 < p.minLeaf || len(order)-i-1 < p.minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightWeight := totalWeight - leftWeight
			if leftWeight == 0 || rightWeight == 0 {
				continue
			}

			gain := leftSum*leftSum/leftWeight + rightSum*rightSum/rightWeight
			if gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (features[order[i]][f] + features[order[i+1]][f]) / 2
				found = true
			}
		}
	}

	return feature, threshold, found
}

// sampleFeatures picks a random subset of feature indexes per the column
// sampling fraction. A fraction >= 1 returns all features.
func sampleFeatures(numFeatures int, colSample float64, rng *rand.Rand) []int {
	all := make([]int, numFeatures)
	for i := range all {
		all[i] = i
	}
	if colSample >= 1 || colSample <= 0 {
		return all
	}

	n := int(float64(numFeatures) * colSample)
	if n < 1 {
		n = 1
	}
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:n]
}
