// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package trainer builds personalized "good"/"bad" issue classifiers from
// labeled examples.
//
// A training run is a one-shot state machine: collect labeled data,
// validate, extract features, split, select and scale, fit, evaluate,
// choose a decision threshold. Two lineages exist:
//
//   - baseline: 14 base features, stratified 80/20 split, a single
//     boosted-tree classifier, fixed 0.5 threshold.
//   - ensemble: up to 207 features, mutual-information feature selection,
//     time-ordered 5-fold split with the final fold held out, standardized
//     features, and a stacking ensemble of three diverse learners (Newton
//     boosting, plain gradient boosting, random forest) feeding a shallow
//     logistic meta-learner, with optional hyperparameter search.
//
// All learners are implemented in-package on a shared weighted
// least-squares regression tree; there is no external model runtime. The
// fitted bundle (classifier, scaler, optional selector, threshold,
// metrics) is returned as an immutable Artifact which the caller persists;
// a failed run writes nothing, so the previously active artifact always
// remains usable.
package trainer
