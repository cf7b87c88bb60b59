// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/cache"
	"github.com/contribmatch/contribmatch/internal/match/features"
	"github.com/contribmatch/contribmatch/internal/match/scorer"
	"github.com/contribmatch/contribmatch/internal/match/trainer"
)

// Defaults for batch scoring and ranked listings.
const (
	defaultPageSize      = 100
	defaultParallelism   = 4
	defaultTopMatchesTTL = 5 * time.Minute
)

// ArtifactStore persists trained artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, a *trainer.Artifact) error
	Delete(ctx context.Context, owner string, modelType match.ModelType) error
}

// ScoreStore persists per-issue total scores for ranked listings.
type ScoreStore interface {
	BulkUpsert(ctx context.Context, owner string, scores map[string]float64) error
	Scores(ctx context.Context, owner string) (map[string]float64, error)
}

// ModelSource resolves classifier artifacts, typically through the tiered
// model cache.
type ModelSource interface {
	Load(ctx context.Context, owner string, modelType match.ModelType) (*trainer.Artifact, error)
	Invalidate(owner string, modelType match.ModelType)
	InvalidateOwner(owner string)
	InvalidateAll()
}

// Observer receives scoring and training telemetry. Implementations must be
// safe for concurrent use.
type Observer interface {
	// ObserveScore records one scoring call. degraded is true when the
	// classifier was unavailable and the neutral prediction was used.
	ObserveScore(duration time.Duration, degraded bool)

	// ObservePrediction records which lineage served a prediction
	// ("ensemble", "baseline", or "neutral").
	ObservePrediction(lineage string)

	// ObserveTraining records one training run.
	ObserveTraining(modelType string, duration time.Duration, err error)
}

// NopObserver discards all telemetry.
type NopObserver struct{}

// ObserveScore implements Observer.
func (NopObserver) ObserveScore(time.Duration, bool) {}

// ObservePrediction implements Observer.
func (NopObserver) ObservePrediction(string) {}

// ObserveTraining implements Observer.
func (NopObserver) ObserveTraining(string, time.Duration, error) {}

// Config tunes the service. Zero values select the defaults.
type Config struct {
	// PageSize is the batch-scoring page size (issues per transaction).
	PageSize int

	// Parallelism bounds concurrent scoring workers within a batch page.
	Parallelism int

	// TopMatchesTTL is the ranked-listing cache TTL.
	TopMatchesTTL time.Duration
}

func (c Config) normalized() Config {
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.Parallelism <= 0 {
		c.Parallelism = defaultParallelism
	}
	if c.TopMatchesTTL <= 0 {
		c.TopMatchesTTL = defaultTopMatchesTTL
	}
	return c
}

// Service is the hybrid scoring engine. Safe for concurrent use.
type Service struct {
	config    Config
	scorer    *scorer.Scorer
	extractor *features.Extractor
	featCache *cache.FeatureCache
	models    ModelSource
	artifacts ArtifactStore
	scores    ScoreStore
	listings  cache.SharedCache
	trainer   *trainer.Trainer
	observer  Observer
	logger    zerolog.Logger
}

// Deps are the service's collaborators. All fields are required except
// Observer, which defaults to NopObserver.
type Deps struct {
	Scorer       *scorer.Scorer
	Extractor    *features.Extractor
	FeatureCache *cache.FeatureCache
	Models       ModelSource
	Artifacts    ArtifactStore
	Scores       ScoreStore
	Listings     cache.SharedCache
	Trainer      *trainer.Trainer
	Observer     Observer
}

// New creates the hybrid scoring service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, deps Deps, logger zerolog.Logger) *Service {
	obs := deps.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	return &Service{
		config:    cfg.normalized(),
		scorer:    deps.Scorer,
		extractor: deps.Extractor,
		featCache: deps.FeatureCache,
		models:    deps.Models,
		artifacts: deps.Artifacts,
		scores:    deps.Scores,
		listings:  deps.Listings,
		trainer:   deps.Trainer,
		observer:  obs,
		logger:    logger.With().Str("component", "match_service").Logger(),
	}
}

// healthCheckOwner is a reserved owner name used only for storage
// reachability checks. Nothing is ever written under it.
const healthCheckOwner = "__health__"

// Healthy reports whether the engine can reach its score storage. Serves
// the readiness endpoint.
func (s *Service) Healthy(ctx context.Context) error {
	if _, err := s.scores.Scores(ctx, healthCheckOwner); err != nil {
		return fmt.Errorf("score storage unreachable: %w", err)
	}
	return nil
}

// Score computes the full hybrid breakdown for one (issue, profile) pair.
// The rule-based portion comes through the feature cache; the classifier
// adjustment degrades to zero when no usable artifact exists. Scoring the
// same unchanged pair twice returns identical breakdowns.
func (s *Service) Score(ctx context.Context, issue *match.IssueSnapshot, profile *match.Profile) (match.ScoreBreakdown, error) {
	start := time.Now()

	bd, base, err := s.ruleBreakdown(ctx, issue, profile)
	if err != nil {
		return match.ScoreBreakdown{}, err
	}

	good, bad, degraded := s.predict(ctx, profile.Owner, issue, base)
	s.applyPrediction(&bd, issue, good, bad)

	s.observer.ObserveScore(time.Since(start), degraded)
	return bd, nil
}

// PredictQuality returns the classifier's (good, bad) probabilities for one
// pair. Without a usable artifact both probabilities are the neutral 0.5.
func (s *Service) PredictQuality(ctx context.Context, issue *match.IssueSnapshot, profile *match.Profile) (good, bad float64, err error) {
	_, base, err := s.ruleBreakdown(ctx, issue, profile)
	if err != nil {
		return 0, 0, err
	}

	good, bad, _ = s.predict(ctx, profile.Owner, issue, base)
	return good, bad, nil
}

// applyPrediction fills the ML fields of a breakdown and computes the final
// blended total. The adjustment is zero inside the confidence dead-zone, so
// a neutral prediction leaves the rule-based total standing.
func (s *Service) applyPrediction(bd *match.ScoreBreakdown, issue *match.IssueSnapshot, good, bad float64) {
	w := s.scorer.Weights()

	var adj float64
	switch {
	case good > w.ConfidenceFloor:
		adj = (good - w.ConfidenceFloor) * 50
	case bad > w.ConfidenceFloor:
		adj = -(bad - w.ConfidenceFloor) * 50
	}

	bd.MLGoodProb = good
	bd.MLBadProb = bad
	bd.MLAdjustment = adj
	bd.TotalScore = clamp(bd.RuleBasedTotal+adj*w.MLWeight, 0, 100)
}

// predict resolves the best available classifier and runs it. Lineage
// preference is ensemble, then baseline, then the neutral prediction. Any
// failure along the way degrades rather than propagating.
func (s *Service) predict(ctx context.Context, owner string, issue *match.IssueSnapshot, base []float64) (good, bad float64, degraded bool) {
	for _, modelType := range []match.ModelType{match.ModelEnsemble, match.ModelBaseline} {
		artifact, err := s.models.Load(ctx, owner, modelType)
		if err != nil {
			continue
		}

		vec := base
		if artifact.FeatureDim > match.BaseFeatureCount {
			vec = append(append(make([]float64, 0, match.TotalFeatureCount), base...), s.extractor.Advanced(ctx, issue, base)...)
		}

		p, err := artifact.PredictProb(vec)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("owner", owner).
				Str("model_type", modelType.String()).
				Str("run_id", artifact.RunID).
				Msg("artifact prediction failed; trying next lineage")
			continue
		}

		s.observer.ObservePrediction(modelType.String())
		return p, 1 - p, false
	}

	s.observer.ObservePrediction("neutral")
	return match.NeutralProbability, match.NeutralProbability, true
}

// ruleBreakdown returns the cached or freshly computed rule-based breakdown
// and base feature vector.
func (s *Service) ruleBreakdown(ctx context.Context, issue *match.IssueSnapshot, profile *match.Profile) (match.ScoreBreakdown, []float64, error) {
	if err := validatePair(issue, profile); err != nil {
		return match.ScoreBreakdown{}, nil, err
	}

	entry, err := s.featCache.GetOrCompute(ctx, profile.Owner, issue, profile, func(ctx context.Context) (match.ScoreBreakdown, []float64, error) {
		vec, bd := s.extractor.Base(issue, profile)
		return bd, vec, nil
	})
	if err != nil {
		return match.ScoreBreakdown{}, nil, err
	}
	return entry.Breakdown, entry.FeatureVector, nil
}

func validatePair(issue *match.IssueSnapshot, profile *match.Profile) error {
	if issue == nil || issue.ID == "" {
		return match.NewValidationError("issue with a non-empty id is required")
	}
	if profile == nil || profile.Owner == "" {
		return match.NewValidationError("profile with a non-empty owner is required")
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
