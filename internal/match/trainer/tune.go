// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import (
	"context"
	"math"
	"math/rand"
)

// tuneFolds is the inner cross-validation fold count for the search
// objective.
const tuneFolds = 3

// searchSpace bounds the tunable boosting hyperparameters.
var searchSpace = struct {
	numTrees     [2]int
	maxDepth     [2]int
	learningRate [2]float64
	subsample    [2]float64
	colSample    [2]float64
	lambda       [2]float64
}{
	numTrees:     [2]int{50, 300},
	maxDepth:     [2]int{2, 6},
	learningRate: [2]float64{0.01, 0.3},
	subsample:    [2]float64{0.6, 1.0},
	colSample:    [2]float64{0.5, 1.0},
	lambda:       [2]float64{0.1, 10},
}

// tuneGBDT runs a sequential model-based hyperparameter search: random
// exploration seeded by the default configuration, then Gaussian
// perturbation around the incumbent, in the spirit of Bayesian
// optimization without a full surrogate model. The objective is mean
// recall across an inner 3-fold time-ordered split, matching the
// imbalance-sensitive goal of not missing good issues.
func tuneGBDT(ctx context.Context, features [][]float64, labels []int, base GBDTConfig, iterations int) GBDTConfig {
	if iterations <= 0 {
		iterations = 20
	}

	rng := rand.New(rand.NewSource(base.Seed + 17)) //nolint:gosec // reproducible search, not security

	best := base.normalized()
	bestScore := tuneObjective(features, labels, best)

	for i := 0; i < iterations; i++ {
		if ctx.Err() != nil {
			break
		}

		var candidate GBDTConfig
		if i < iterations/3 {
			candidate = randomConfig(base, rng)
		} else {
			candidate = perturbConfig(best, rng)
		}

		score := tuneObjective(features, labels, candidate)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	return best
}

// tuneObjective returns mean recall over inner time-ordered folds. Each
// fold trains on all earlier rows and validates on the fold itself; folds
// with a single-class training or validation set are skipped.
func tuneObjective(features [][]float64, labels []int, cfg GBDTConfig) float64 {
	folds := timeOrderedFolds(len(features), tuneFolds)

	var recallSum float64
	var scored int

	for f := 1; f < len(folds); f++ {
		var trainRows []int
		for p := 0; p < f; p++ {
			trainRows = append(trainRows, folds[p]...)
		}

		trainX, trainY := gather(features, labels, trainRows)
		validX, validY := gather(features, labels, folds[f])
		if singleClass(trainY) || singleClass(validY) {
			continue
		}

		model := NewGBDT(cfg)
		if err := model.Fit(trainX, trainY); err != nil {
			continue
		}

		var tp, fn int
		for i, x := range validX {
			if validY[i] != 1 {
				continue
			}
			if model.PredictProb(x) >= 0.5 {
				tp++
			} else {
				fn++
			}
		}
		if tp+fn == 0 {
			continue
		}

		recallSum += float64(tp) / float64(tp+fn)
		scored++
	}

	if scored == 0 {
		return 0
	}
	return recallSum / float64(scored)
}

// randomConfig samples a uniform point in the search space.
func randomConfig(base GBDTConfig, rng *rand.Rand) GBDTConfig {
	c := base.normalized()
	c.NumTrees = intBetween(searchSpace.numTrees, rng)
	c.MaxDepth = intBetween(searchSpace.maxDepth, rng)
	c.LearningRate = floatBetween(searchSpace.learningRate, rng)
	c.Subsample = floatBetween(searchSpace.subsample, rng)
	c.ColSample = floatBetween(searchSpace.colSample, rng)
	c.Lambda = floatBetween(searchSpace.lambda, rng)
	return c
}

// perturbConfig samples near the incumbent with clamped Gaussian noise.
func perturbConfig(best GBDTConfig, rng *rand.Rand) GBDTConfig {
	c := best

	c.NumTrees = clampInt(best.NumTrees+int(rng.NormFloat64()*30), searchSpace.numTrees)
	c.MaxDepth = clampInt(best.MaxDepth+int(math.Round(rng.NormFloat64())), searchSpace.maxDepth)
	c.LearningRate = clampFloat(best.LearningRate*math.Exp(rng.NormFloat64()*0.3), searchSpace.learningRate)
	c.Subsample = clampFloat(best.Subsample+rng.NormFloat64()*0.1, searchSpace.subsample)
	c.ColSample = clampFloat(best.ColSample+rng.NormFloat64()*0.1, searchSpace.colSample)
	c.Lambda = clampFloat(best.Lambda*math.Exp(rng.NormFloat64()*0.5), searchSpace.lambda)
	return c
}

func intBetween(bounds [2]int, rng *rand.Rand) int {
	return bounds[0] + rng.Intn(bounds[1]-bounds[0]+1)
}

func floatBetween(bounds [2]float64, rng *rand.Rand) float64 {
	return bounds[0] + rng.Float64()*(bounds[1]-bounds[0])
}

func clampInt(v int, bounds [2]int) int {
	if v < bounds[0] {
		return bounds[0]
	}
	if v > bounds[1] {
		return bounds[1]
	}
	return v
}

func clampFloat(v float64, bounds [2]float64) float64 {
	if v < bounds[0] {
		return bounds[0]
	}
	if v > bounds[1] {
		return bounds[1]
	}
	return v
}
