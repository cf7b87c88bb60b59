// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

// Logistic is a small L2-regularized logistic regression, used as the
// shallow meta-learner on top of the stacking ensemble's base predictions.
type Logistic struct {
	Weights []float64
	Bias    float64

	// LearningRate and Epochs control full-batch gradient descent; the
	// meta-feature space is tiny so this converges quickly.
	LearningRate float64
	Epochs       int
	Lambda       float64
}

// NewLogistic creates a meta-learner with sensible defaults.
func NewLogistic() *Logistic {
	return &Logistic{
		LearningRate: 0.1,
		Epochs:       500,
		Lambda:       0.01,
	}
}

// Fit trains on the given feature rows and binary labels.
func (l *Logistic) Fit(features [][]float64, labels []int) {
	if len(features) == 0 {
		return
	}
	dim := len(features[0])
	l.Weights = make([]float64, dim)
	l.Bias = 0

	n := float64(len(features))
	grad := make([]float64, dim)

	for epoch := 0; epoch < l.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		var biasGrad float64

		for i, x := range features {
			p := l.PredictProb(x)
			diff := p - float64(labels[i])
			for j := range x {
				grad[j] += diff * x[j]
			}
			biasGrad += diff
		}

		for j := range l.Weights {
			l.Weights[j] -= l.LearningRate * (grad[j]/n + l.Lambda*l.Weights[j])
		}
		l.Bias -= l.LearningRate * biasGrad / n
	}
}

// PredictProb returns the probability of the positive class.
func (l *Logistic) PredictProb(x []float64) float64 {
	score := l.Bias
	for j, w := range l.Weights {
		if j < len(x) {
			score += w * x[j]
		}
	}
	return sigmoid(score)
}
