// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import (
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig contains hyperparameters for the random forest.
type ForestConfig struct {
	// NumTrees is the number of trees. Default 100.
	NumTrees int

	// MaxDepth limits tree depth. Default 8.
	MaxDepth int

	// MinLeaf is the minimum rows per leaf. Default 2.
	MinLeaf int

	// ScalePosWeight multiplies positive-class sample weights.
	// Zero derives it from the label ratio.
	ScalePosWeight float64

	// Seed makes training reproducible.
	Seed int64
}

// DefaultForestConfig returns the default forest configuration.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees: 100,
		MaxDepth: 8,
		MinLeaf:  2,
		Seed:     42,
	}
}

// RandomForest is a bagged ensemble of regression trees over binary labels.
// Each tree is fit on a bootstrap sample with sqrt-feature sampling; the
// predicted probability is the mean of the tree outputs.
type RandomForest struct {
	Config ForestConfig
	Trees  []Tree
}

// NewRandomForest creates an unfitted forest with defaulted configuration.
func NewRandomForest(cfg ForestConfig) *RandomForest {
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 8
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 2
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return &RandomForest{Config: cfg}
}

// Fit trains the forest on binary labels.
func (f *RandomForest) Fit(features [][]float64, labels []int) error {
	n := len(features)
	if n == 0 || len(labels) != n {
		return fmt.Errorf("forest fit: %d feature rows, %d labels", n, len(labels))
	}

	posWeight := f.Config.ScalePosWeight
	if posWeight <= 0 {
		posWeight = derivePosWeight(labels)
	}

	targets := make([]float64, n)
	weights := make([]float64, n)
	for i, y := range labels {
		targets[i] = float64(y)
		if y == 1 {
			weights[i] = posWeight
		} else {
			weights[i] = 1
		}
	}

	numFeatures := len(features[0])
	colSample := math.Sqrt(float64(numFeatures)) / float64(numFeatures)

	params := treeParams{
		maxDepth:  f.Config.MaxDepth,
		minLeaf:   f.Config.MinLeaf,
		colSample: colSample,
	}

	rng := rand.New(rand.NewSource(f.Config.Seed)) //nolint:gosec // reproducible training, not security
	f.Trees = f.Trees[:0]

	for t := 0; t < f.Config.NumTrees; t++ {
		// Bootstrap sample with replacement.
		rows := make([]int, n)
		for i := range rows {
			rows[i] = rng.Intn(n)
		}

		tree := buildTree(features, targets, weights, rows, params, rng)
		f.Trees = append(f.Trees, *tree)
	}

	return nil
}

// PredictProb returns the mean tree output clamped to [0, 1].
func (f *RandomForest) PredictProb(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0.5
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	p := sum / float64(len(f.Trees))
	return math.Min(math.Max(p, 0), 1)
}
