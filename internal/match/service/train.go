// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/trainer"
)

// Train runs one training run for an owner, persists the resulting artifact,
// and invalidates the model cache so the next prediction serves it. A failed
// run persists nothing, so the previously active artifact stays in service.
func (s *Service) Train(ctx context.Context, profile *match.Profile, examples []match.LabeledExample, opts match.TrainOptions) (*trainer.Artifact, error) {
	if profile == nil || profile.Owner == "" {
		return nil, match.NewValidationError("profile with a non-empty owner is required")
	}

	start := time.Now()

	artifact, err := s.trainer.Train(ctx, profile.Owner, profile, examples, opts)
	if err != nil {
		s.observer.ObserveTraining(opts.ModelType.String(), time.Since(start), err)
		return nil, err
	}

	if err := s.artifacts.Save(ctx, artifact); err != nil {
		s.observer.ObserveTraining(opts.ModelType.String(), time.Since(start), err)
		return nil, fmt.Errorf("persist artifact: %w", err)
	}

	s.models.Invalidate(profile.Owner, opts.ModelType)
	s.observer.ObserveTraining(opts.ModelType.String(), time.Since(start), nil)

	s.logger.Info().
		Str("owner", profile.Owner).
		Str("model_type", opts.ModelType.String()).
		Str("run_id", artifact.RunID).
		Float64("f1", artifact.Metrics.F1).
		Msg("trained artifact activated")

	return artifact, nil
}

// DeleteModel removes an owner's persisted artifact and drops it from the
// model cache. Subsequent predictions for the lineage degrade to neutral.
func (s *Service) DeleteModel(ctx context.Context, owner string, modelType match.ModelType) error {
	if owner == "" {
		return match.NewValidationError("owner is required")
	}
	if err := s.artifacts.Delete(ctx, owner, modelType); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	s.models.Invalidate(owner, modelType)
	return nil
}

// InvalidateModelCache drops every cached artifact across all owners. The
// durable store is untouched; subsequent predictions reload from it.
func (s *Service) InvalidateModelCache() {
	s.models.InvalidateAll()
}

// InvalidateOwnerCache drops an owner's cached artifacts and ranked
// listings. Feature entries invalidate themselves by staleness and are left
// in place.
func (s *Service) InvalidateOwnerCache(owner string) {
	s.models.InvalidateOwner(owner)
	s.InvalidateOwnerListings(owner)
}
