// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import "fmt"

// metaFolds is the number of time-ordered folds used to generate
// out-of-fold predictions for the meta-learner.
const metaFolds = 3

// fitStacking trains the stacking ensemble: three diverse base learners
// (Newton boosting, plain gradient boosting, random forest) with
// class-imbalance compensation, feeding a shallow logistic meta-learner.
//
// Meta-features are out-of-fold: each fold's meta rows come from base
// learners trained on the earlier folds only, so the meta-learner never
// sees in-sample base predictions. Rows must already be in label-time
// order.
func fitStacking(features [][]float64, labels []int, cfg GBDTConfig) (*StackingModel, error) {
	n := len(features)
	if n < 2*metaFolds {
		return nil, fmt.Errorf("stacking: %d rows is too few for %d folds", n, metaFolds)
	}

	newtonCfg := cfg
	newtonCfg.SecondOrder = true

	gradientCfg := cfg
	gradientCfg.SecondOrder = false
	gradientCfg.Seed = cfg.Seed + 1

	forestCfg := DefaultForestConfig()
	forestCfg.ScalePosWeight = cfg.ScalePosWeight
	forestCfg.Seed = cfg.Seed + 2

	// Out-of-fold meta features. The first fold has no earlier data to
	// train on, so it is excluded from the meta training set.
	folds := timeOrderedFolds(n, metaFolds)

	var metaX [][]float64
	var metaY []int

	for f := 1; f < len(folds); f++ {
		var trainRows []int
		for p := 0; p < f; p++ {
			trainRows = append(trainRows, folds[p]...)
		}

		trainX, trainY := gather(features, labels, trainRows)
		if singleClass(trainY) {
			continue
		}

		fold, err := fitBaseLearners(trainX, trainY, newtonCfg, gradientCfg, forestCfg)
		if err != nil {
			return nil, err
		}

		for _, r := range folds[f] {
			metaX = append(metaX, fold.baseFeatures(features[r]))
			metaY = append(metaY, labels[r])
		}
	}

	if len(metaX) == 0 || singleClass(metaY) {
		return nil, fmt.Errorf("stacking: out-of-fold meta set is degenerate")
	}

	// Final base learners are fit on the full training set.
	model, err := fitBaseLearners(features, labels, newtonCfg, gradientCfg, forestCfg)
	if err != nil {
		return nil, err
	}

	model.Meta = NewLogistic()
	model.Meta.Fit(metaX, metaY)
	return model, nil
}

// fitBaseLearners fits the three base learners and returns a model with a
// nil meta-learner.
func fitBaseLearners(features [][]float64, labels []int, newtonCfg, gradientCfg GBDTConfig, forestCfg ForestConfig) (*StackingModel, error) {
	newton := NewGBDT(newtonCfg)
	if err := newton.Fit(features, labels); err != nil {
		return nil, fmt.Errorf("newton learner: %w", err)
	}

	gradient := NewGBDT(gradientCfg)
	if err := gradient.Fit(features, labels); err != nil {
		return nil, fmt.Errorf("gradient learner: %w", err)
	}

	forest := NewRandomForest(forestCfg)
	if err := forest.Fit(features, labels); err != nil {
		return nil, fmt.Errorf("forest learner: %w", err)
	}

	return &StackingModel{Newton: newton, Gradient: gradient, Forest: forest}, nil
}

// gather copies the selected rows into new slices.
func gather(features [][]float64, labels []int, rows []int) ([][]float64, []int) {
	x := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i, r := range rows {
		x[i] = features[r]
		y[i] = labels[r]
	}
	return x, y
}

// singleClass reports whether all labels share one value.
func singleClass(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, y := range labels[1:] {
		if y != first {
			return false
		}
	}
	return true
}
