// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import (
	"time"

	"github.com/contribmatch/contribmatch/internal/match"
)

// Classifier is a fitted binary classifier over feature vectors.
// Implementations must be safe for concurrent prediction.
type Classifier interface {
	// PredictProb returns the probability of the positive ("good") class.
	PredictProb(x []float64) float64
}

// StackingModel combines three diverse base learners through a shallow
// logistic meta-learner. Base learners are fit on the full training set;
// the meta-learner is fit on out-of-fold base predictions so it never sees
// predictions a base learner made on its own training rows.
type StackingModel struct {
	Newton   *GBDT
	Gradient *GBDT
	Forest   *RandomForest
	Meta     *Logistic
}

// PredictProb stacks the base predictions through the meta-learner.
func (m *StackingModel) PredictProb(x []float64) float64 {
	return m.Meta.PredictProb(m.baseFeatures(x))
}

// baseFeatures returns the meta-feature row for one input.
func (m *StackingModel) baseFeatures(x []float64) []float64 {
	return []float64{
		m.Newton.PredictProb(x),
		m.Gradient.PredictProb(x),
		m.Forest.PredictProb(x),
	}
}

// Artifact is an immutable trained classifier bundle. A new training run
// creates a replacement artifact; an existing one is never edited in place.
type Artifact struct {
	// Owner is the profile owner the classifier is personalized for.
	Owner string

	// ModelType is the lineage (baseline or ensemble).
	ModelType match.ModelType

	// RunID uniquely identifies the training run that produced the artifact.
	RunID string

	// Model is the fitted classifier.
	Model Classifier

	// Scaler standardizes features before prediction; nil for baseline.
	Scaler *StandardScaler

	// Selector reduces the feature space before scaling; nil when no
	// selection was applied.
	Selector *MutualInfoSelector

	// Threshold is the selected decision threshold.
	Threshold float64

	// FeatureDim is the expected raw feature vector length.
	FeatureDim int

	// Metrics is the held-out evaluation summary.
	Metrics match.TrainMetrics

	// TrainedAt is when the run completed.
	TrainedAt time.Time
}

// PredictProb runs the full serving pipeline (select, scale, classify) on a
// raw feature vector and returns the positive-class probability. A vector of
// the wrong length is a caller bug surfaced as a ValidationError.
func (a *Artifact) PredictProb(features []float64) (float64, error) {
	if len(features) != a.FeatureDim {
		return 0, match.NewValidationError("feature vector length %d, model expects %d", len(features), a.FeatureDim)
	}

	x := features
	if a.Selector != nil {
		x = a.Selector.Transform(x)
	}
	if a.Scaler != nil {
		x = a.Scaler.Transform(x)
	}
	return a.Model.PredictProb(x), nil
}
