// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package service wires the rule-based scorer, feature extraction, the
// trained classifier, and the caching layers into the hybrid scoring
// engine.
//
// The serving path never fails on classifier problems: a missing or broken
// artifact degrades the prediction to neutral (0.5, 0.5), which contributes
// no score adjustment, and the rule-based score stands on its own. Scoring
// only returns an error for invalid input.
package service
