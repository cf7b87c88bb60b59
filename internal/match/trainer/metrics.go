// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import "github.com/contribmatch/contribmatch/internal/match"

// Threshold scan bounds. Labeled sets are frequently imbalanced, so the
// decision threshold is chosen by F1 on the held-out split instead of a
// fixed 0.5.
const (
	thresholdMin  = 0.10
	thresholdMax  = 0.90
	thresholdStep = 0.05
)

// evaluate computes held-out classification metrics at the given threshold.
func evaluate(probs []float64, labels []int, threshold float64) match.TrainMetrics {
	var cm match.ConfusionMatrix
	for i, p := range probs {
		predicted := p >= threshold
		actual := labels[i] == 1
		switch {
		case predicted && actual:
			cm.TruePositive++
		case predicted && !actual:
			cm.FalsePositive++
		case !predicted && actual:
			cm.FalseNegative++
		default:
			cm.TrueNegative++
		}
	}

	m := match.TrainMetrics{Confusion: cm, Threshold: threshold}

	total := cm.TruePositive + cm.TrueNegative + cm.FalsePositive + cm.FalseNegative
	if total > 0 {
		m.Accuracy = float64(cm.TruePositive+cm.TrueNegative) / float64(total)
	}
	if cm.TruePositive+cm.FalsePositive > 0 {
		m.Precision = float64(cm.TruePositive) / float64(cm.TruePositive+cm.FalsePositive)
	}
	if cm.TruePositive+cm.FalseNegative > 0 {
		m.Recall = float64(cm.TruePositive) / float64(cm.TruePositive+cm.FalseNegative)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m
}

// chooseThreshold scans candidate thresholds in [0.10, 0.90] step 0.05 and
// returns the one maximizing F1 on the held-out predictions.
func chooseThreshold(probs []float64, labels []int) float64 {
	best := 0.5
	bestF1 := -1.0

	for t := thresholdMin; t <= thresholdMax+1e-9; t += thresholdStep {
		m := evaluate(probs, labels, t)
		if m.F1 > bestF1 {
			bestF1 = m.F1
			best = t
		}
	}
	return best
}
