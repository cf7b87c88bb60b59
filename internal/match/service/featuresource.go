// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package service

import (
	"context"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/cache"
	"github.com/contribmatch/contribmatch/internal/match/features"
	"github.com/contribmatch/contribmatch/internal/match/trainer"
)

// CachedFeatureSource adapts the feature cache and extractor into the
// trainer's feature source, so training sees exactly the vectors the
// serving path would compute for the same pair.
type CachedFeatureSource struct {
	cache     *cache.FeatureCache
	extractor *features.Extractor
}

// NewCachedFeatureSource creates the training-side feature source.
func NewCachedFeatureSource(fc *cache.FeatureCache, ex *features.Extractor) *CachedFeatureSource {
	return &CachedFeatureSource{cache: fc, extractor: ex}
}

// BaseFeatures returns the cached or freshly computed 14-dimension vector.
func (s *CachedFeatureSource) BaseFeatures(ctx context.Context, issue *match.IssueSnapshot, profile *match.Profile) ([]float64, match.ScoreBreakdown, error) {
	owner := ""
	if profile != nil {
		owner = profile.Owner
	}

	entry, err := s.cache.GetOrCompute(ctx, owner, issue, profile, func(ctx context.Context) (match.ScoreBreakdown, []float64, error) {
		vec, bd := s.extractor.Base(issue, profile)
		return bd, vec, nil
	})
	if err != nil {
		return nil, match.ScoreBreakdown{}, err
	}
	return entry.FeatureVector, entry.Breakdown, nil
}

// AdvancedFeatures returns the 193-dimension extension block. Advanced
// features are profile-independent given the base vector, so they are not
// cached per owner.
func (s *CachedFeatureSource) AdvancedFeatures(ctx context.Context, issue *match.IssueSnapshot, base []float64) []float64 {
	return s.extractor.Advanced(ctx, issue, base)
}

var _ trainer.FeatureSource = (*CachedFeatureSource)(nil)
