// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contribmatch/contribmatch/internal/match"
)

// ensembleFolds is the time-ordered fold count for the ensemble lineage;
// the final fold is the held-out split.
const ensembleFolds = 5

// baselineTestFraction is the held-out fraction for the baseline lineage's
// stratified split.
const baselineTestFraction = 0.2

// FeatureSource produces feature vectors for training examples. It is
// implemented by the feature-cache-backed extraction path, guaranteeing
// training data and serving data use identical feature semantics.
type FeatureSource interface {
	// BaseFeatures returns the 14-dimension base vector for one pair.
	BaseFeatures(ctx context.Context, issue *match.IssueSnapshot, profile *match.Profile) ([]float64, match.ScoreBreakdown, error)

	// AdvancedFeatures returns the 193-dimension extension block.
	AdvancedFeatures(ctx context.Context, issue *match.IssueSnapshot, base []float64) []float64
}

// Config contains training gates and defaults.
type Config struct {
	// MinExamples is the absolute minimum labeled dataset size. Default 8,
	// which admits the smallest balanced set worth fitting (4 per class).
	MinExamples int

	// RecommendedExamples is the minimum without an explicit force flag.
	// Default 200.
	RecommendedExamples int

	// TopFeatures is the feature-selection budget for the ensemble lineage.
	// Default 100.
	TopFeatures int

	// TuneIterations is the default hyperparameter search budget. Default 20.
	TuneIterations int

	// Seed makes splits and fits reproducible.
	Seed int64
}

// DefaultConfig returns the default training configuration.
func DefaultConfig() Config {
	return Config{
		MinExamples:         8,
		RecommendedExamples: 200,
		TopFeatures:         100,
		TuneIterations:      20,
		Seed:                42,
	}
}

// Trainer runs training runs for personalized quality classifiers. A run is
// a state machine over one call, not a long-lived process: collect, validate,
// extract, split, select/scale, fit, evaluate, choose threshold.
type Trainer struct {
	config Config
	source FeatureSource
	logger zerolog.Logger
}

// New creates a Trainer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, source FeatureSource, logger zerolog.Logger) *Trainer {
	def := DefaultConfig()
	if cfg.MinExamples <= 0 {
		cfg.MinExamples = def.MinExamples
	}
	if cfg.RecommendedExamples <= 0 {
		cfg.RecommendedExamples = def.RecommendedExamples
	}
	if cfg.TopFeatures <= 0 {
		cfg.TopFeatures = def.TopFeatures
	}
	if cfg.TuneIterations <= 0 {
		cfg.TuneIterations = def.TuneIterations
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}

	return &Trainer{
		config: cfg,
		source: source,
		logger: logger.With().Str("component", "trainer").Logger(),
	}
}

// Train runs one training run and returns the fitted artifact. Data gates
// reject before any feature computation; fit failures surface as
// ErrTrainingFailed and leave any previously persisted artifact untouched
// (the caller persists the returned artifact only on success).
func (t *Trainer) Train(ctx context.Context, owner string, profile *match.Profile, examples []match.LabeledExample, opts match.TrainOptions) (*Artifact, error) {
	if err := t.validate(examples, opts); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	logger := t.logger.With().
		Str("run_id", runID).
		Str("owner", owner).
		Str("model_type", opts.ModelType.String()).
		Logger()

	// Label-time order is load-bearing for the ensemble's splits.
	ordered := make([]match.LabeledExample, len(examples))
	copy(ordered, examples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LabeledAt.Before(ordered[j].LabeledAt)
	})

	features, labels, err := t.buildDataset(ctx, profile, ordered, opts)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("examples", len(ordered)).
		Int("feature_dim", len(features[0])).
		Msg("starting training run")

	var artifact *Artifact
	switch opts.ModelType {
	case match.ModelEnsemble:
		artifact, err = t.trainEnsemble(ctx, features, labels, opts)
	default:
		artifact, err = t.trainBaseline(features, labels)
	}
	if err != nil {
		logger.Error().Err(err).Msg("training run failed")
		return nil, err
	}

	artifact.Owner = owner
	artifact.ModelType = opts.ModelType
	artifact.RunID = runID
	artifact.FeatureDim = len(features[0])
	artifact.TrainedAt = time.Now()
	fillSampleCounts(&artifact.Metrics.Samples, labels)

	logger.Info().
		Float64("f1", artifact.Metrics.F1).
		Float64("recall", artifact.Metrics.Recall).
		Float64("threshold", artifact.Threshold).
		Dur("duration", time.Since(start)).
		Msg("training run complete")

	return artifact, nil
}

// validate applies the data gates. Gate failures are validation errors,
// reported to the caller rather than silently skipped.
func (t *Trainer) validate(examples []match.LabeledExample, opts match.TrainOptions) error {
	if len(examples) < t.config.MinExamples {
		return match.NewValidationError("need at least %d labeled examples, got %d", t.config.MinExamples, len(examples))
	}
	if len(examples) < t.config.RecommendedExamples && !opts.Force {
		return match.NewValidationError("%d labeled examples is below the recommended %d; pass force to train anyway", len(examples), t.config.RecommendedExamples)
	}

	var good, bad int
	for _, ex := range examples {
		if ex.Good {
			good++
		} else {
			bad++
		}
	}
	if good == 0 || bad == 0 {
		return match.NewValidationError("need both good and bad labels (got %d good, %d bad)", good, bad)
	}

	return nil
}

// buildDataset extracts feature vectors for each example through the
// shared feature source.
func (t *Trainer) buildDataset(ctx context.Context, profile *match.Profile, examples []match.LabeledExample, opts match.TrainOptions) ([][]float64, []int, error) {
	advanced := opts.ModelType == match.ModelEnsemble && opts.UseAdvancedFeatures

	features := make([][]float64, len(examples))
	labels := make([]int, len(examples))

	for i := range examples {
		issue := examples[i].Issue
		base, _, err := t.source.BaseFeatures(ctx, &issue, profile)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: extract features for issue %s: %v", match.ErrTrainingFailed, issue.ID, err)
		}

		vec := base
		if advanced {
			vec = append(append(make([]float64, 0, match.TotalFeatureCount), base...), t.source.AdvancedFeatures(ctx, &issue, base)...)
		}
		features[i] = vec

		if examples[i].Good {
			labels[i] = 1
		}
	}

	return features, labels, nil
}

// trainBaseline fits the baseline lineage: base features, single stratified
// 80/20 split, one boosted classifier, fixed 0.5 threshold.
func (t *Trainer) trainBaseline(features [][]float64, labels []int) (*Artifact, error) {
	rng := rand.New(rand.NewSource(t.config.Seed)) //nolint:gosec // reproducible split, not security
	trainIdx, testIdx := stratifiedSplit(labels, baselineTestFraction, rng)

	trainX, trainY := gather(features, labels, trainIdx)
	testX, testY := gather(features, labels, testIdx)

	cfg := DefaultGBDTConfig()
	cfg.Seed = t.config.Seed

	model := NewGBDT(cfg)
	if err := model.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("%w: %v", match.ErrTrainingFailed, err)
	}

	probs := make([]float64, len(testX))
	for i, x := range testX {
		probs[i] = model.PredictProb(x)
	}

	const threshold = 0.5
	metrics := evaluate(probs, testY, threshold)
	metrics.Samples.Train = len(trainIdx)
	metrics.Samples.Test = len(testIdx)

	return &Artifact{
		Model:     model,
		Threshold: threshold,
		Metrics:   metrics,
	}, nil
}

// trainEnsemble fits the ensemble lineage: time-ordered 5-fold split with
// the final fold held out, optional top-K mutual-information feature
// selection, standardized features, optional hyperparameter search, and a
// stacking ensemble (or a single boosted classifier when stacking is off),
// with the decision threshold chosen by F1 on the held-out fold.
func (t *Trainer) trainEnsemble(ctx context.Context, features [][]float64, labels []int, opts match.TrainOptions) (*Artifact, error) {
	folds := timeOrderedFolds(len(features), ensembleFolds)
	holdout := folds[len(folds)-1]

	var trainRows []int
	for f := 0; f < len(folds)-1; f++ {
		trainRows = append(trainRows, folds[f]...)
	}

	trainX, trainY := gather(features, labels, trainRows)
	testX, testY := gather(features, labels, holdout)

	if singleClass(trainY) || singleClass(testY) {
		return nil, match.NewValidationError("time-ordered split left a single-class fold; label more examples across time")
	}

	var selector *MutualInfoSelector
	if len(trainX[0]) > t.config.TopFeatures {
		selector = FitSelector(trainX, trainY, t.config.TopFeatures)
		trainX = selector.TransformAll(trainX)
		testX = selector.TransformAll(testX)
	}

	scaler := FitScaler(trainX)
	trainX = scaler.TransformAll(trainX)
	testX = scaler.TransformAll(testX)

	cfg := DefaultGBDTConfig()
	cfg.Seed = t.config.Seed
	cfg.ScalePosWeight = derivePosWeight(trainY)

	if opts.UseTuning {
		iterations := opts.TuneIterations
		if iterations <= 0 {
			iterations = t.config.TuneIterations
		}
		cfg = tuneGBDT(ctx, trainX, trainY, cfg, iterations)
	}

	var model Classifier
	if opts.UseStacking {
		stacked, err := fitStacking(trainX, trainY, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", match.ErrTrainingFailed, err)
		}
		model = stacked
	} else {
		single := NewGBDT(cfg)
		if err := single.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("%w: %v", match.ErrTrainingFailed, err)
		}
		model = single
	}

	probs := make([]float64, len(testX))
	for i, x := range testX {
		probs[i] = model.PredictProb(x)
	}

	threshold := chooseThreshold(probs, testY)
	metrics := evaluate(probs, testY, threshold)
	metrics.Samples.Train = len(trainRows)
	metrics.Samples.Test = len(holdout)

	return &Artifact{
		Model:     model,
		Scaler:    scaler,
		Selector:  selector,
		Threshold: threshold,
		Metrics:   metrics,
	}, nil
}

// fillSampleCounts records the dataset composition.
func fillSampleCounts(s *match.SampleCounts, labels []int) {
	s.Total = len(labels)
	for _, y := range labels {
		if y == 1 {
			s.Good++
		} else {
			s.Bad++
		}
	}
}
