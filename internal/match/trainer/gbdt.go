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

// GBDTConfig contains hyperparameters for gradient-boosted trees.
type GBDTConfig struct {
	// NumTrees is the number of boosting rounds. Default 100.
	NumTrees int

	// MaxDepth limits tree depth. Default 3.
	MaxDepth int

	// LearningRate shrinks each tree's contribution. Default 0.1.
	LearningRate float64

	// Subsample is the row sampling fraction per round. Default 1.0.
	Subsample float64

	// ColSample is the feature sampling fraction per split. Default 1.0.
	ColSample float64

	// Lambda is the L2 regularization on leaf values. Default 1.0.
	Lambda float64

	// MinLeaf is the minimum rows per leaf. Default 2.
	MinLeaf int

	// ScalePosWeight multiplies positive-class sample weights to compensate
	// class imbalance. Zero means derive it from the label ratio at fit time.
	ScalePosWeight float64

	// SecondOrder selects Newton boosting (gradient and hessian) instead of
	// plain gradient boosting. The two settings behave like two different
	// library implementations and are both used in the stacking ensemble.
	SecondOrder bool

	// Seed makes training reproducible.
	Seed int64
}

// DefaultGBDTConfig returns the default boosting configuration.
func DefaultGBDTConfig() GBDTConfig {
	return GBDTConfig{
		NumTrees:     100,
		MaxDepth:     3,
		LearningRate: 0.1,
		Subsample:    1.0,
		ColSample:    1.0,
		Lambda:       1.0,
		MinLeaf:      2,
		Seed:         42,
	}
}

// normalized fills zero-valued fields with defaults.
func (c GBDTConfig) normalized() GBDTConfig {
	def := DefaultGBDTConfig()
	if c.NumTrees <= 0 {
		c.NumTrees = def.NumTrees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.LearningRate <= 0 {
		c.LearningRate = def.LearningRate
	}
	if c.Subsample <= 0 || c.Subsample > 1 {
		c.Subsample = def.Subsample
	}
	if c.ColSample <= 0 || c.ColSample > 1 {
		c.ColSample = def.ColSample
	}
	if c.Lambda < 0 {
		c.Lambda = def.Lambda
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = def.MinLeaf
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	return c
}

// GBDT is a gradient-boosted tree classifier for binary labels with
// logistic loss. Exported fields keep the fitted model gob-serializable.
type GBDT struct {
	Config    GBDTConfig
	Trees     []Tree
	InitScore float64
}

// NewGBDT creates an unfitted classifier with defaulted configuration.
func NewGBDT(cfg GBDTConfig) *GBDT {
	return &GBDT{Config: cfg.normalized()}
}

// Fit trains the classifier on binary labels. Positive examples are
// up-weighted by ScalePosWeight (derived from the label ratio when unset).
func (g *GBDT) Fit(features [][]float64, labels []int) error {
	n := len(features)
	if n == 0 || len(labels) != n {
		return fmt.Errorf("gbdt fit: %d feature rows, %d labels", n, len(labels))
	}

	posWeight := g.Config.ScalePosWeight
	if posWeight <= 0 {
		posWeight = derivePosWeight(labels)
	}

	weights := make([]float64, n)
	var posSum, totalWeight float64
	for i, y := range labels {
		if y == 1 {
			weights[i] = posWeight
			posSum += posWeight
		} else {
			weights[i] = 1
		}
		totalWeight += weights[i]
	}

	// Initial score is the weighted log-odds of the positive class.
	prior := posSum / totalWeight
	prior = math.Min(math.Max(prior, 1e-6), 1-1e-6)
	g.InitScore = math.Log(prior / (1 - prior))
	g.Trees = g.Trees[:0]

	rng := rand.New(rand.NewSource(g.Config.Seed)) //nolint:gosec // reproducible training, not security

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = g.InitScore
	}

	targets := make([]float64, n)
	hess := make([]float64, n)
	allRows := make([]int, n)
	for i := range allRows {
		allRows[i] = i
	}

	params := treeParams{
		maxDepth:  g.Config.MaxDepth,
		minLeaf:   g.Config.MinLeaf,
		colSample: g.Config.ColSample,
		lambda:    g.Config.Lambda,
	}

	for round := 0; round < g.Config.NumTrees; round++ {
		for i := range features {
			p := sigmoid(scores[i])
			grad := (p - float64(labels[i])) * weights[i]
			h := p * (1 - p) * weights[i]
			if h < 1e-12 {
				h = 1e-12
			}

			if g.Config.SecondOrder {
				// Newton step: the tree fits -grad/hess with hessian weights.
				targets[i] = -grad / h
				hess[i] = h
			} else {
				// Plain gradient boosting fits the negative gradient directly.
				targets[i] = -grad
				hess[i] = weights[i]
			}
		}

		rows := allRows
		if g.Config.Subsample < 1 {
			rows = sampleRows(allRows, g.Config.Subsample, rng)
		}

		tree := buildTree(features, targets, hess, rows, params, rng)
		g.Trees = append(g.Trees, *tree)

		for i := range features {
			scores[i] += g.Config.LearningRate * tree.Predict(features[i])
		}
	}

	return nil
}

// PredictProb returns the probability of the positive ("good") class.
func (g *GBDT) PredictProb(x []float64) float64 {
	score := g.InitScore
	for i := range g.Trees {
		score += g.Config.LearningRate * g.Trees[i].Predict(x)
	}
	return sigmoid(score)
}

// derivePosWeight returns the negative/positive label ratio, the standard
// scale_pos_weight heuristic for imbalanced data.
func derivePosWeight(labels []int) float64 {
	var pos, neg int
	for _, y := range labels {
		if y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 {
		return 1
	}
	w := float64(neg) / float64(pos)
	if w <= 0 {
		return 1
	}
	return w
}

// sampleRows draws a random subset of rows without replacement.
func sampleRows(rows []int, fraction float64, rng *rand.Rand) []int {
	n := int(float64(len(rows)) * fraction)
	if n < 1 {
		n = 1
	}
	out := make([]int, len(rows))
	copy(out, rows)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:n]
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
