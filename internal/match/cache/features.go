// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/contribmatch/contribmatch/internal/match"
)

// FeatureEntryStore is the durable backing for cached feature entries.
type FeatureEntryStore interface {
	Get(ctx context.Context, owner, issueID string) (*match.FeatureCacheEntry, error)
	Put(ctx context.Context, owner string, entry *match.FeatureCacheEntry) error
	Delete(ctx context.Context, owner, issueID string) error
	List(ctx context.Context, owner string) ([]*match.FeatureCacheEntry, error)
}

// ComputeFunc produces a fresh breakdown and base feature vector for one
// (issue, profile) pair.
type ComputeFunc func(ctx context.Context) (match.ScoreBreakdown, []float64, error)

// FeatureCache memoizes rule-based breakdowns and base feature vectors per
// (owner, issue). Invalidation is by staleness comparison against the
// profile and issue timestamps, never by TTL: stale entries are recomputed
// in place, and cache failures degrade to direct computation.
type FeatureCache struct {
	store  FeatureEntryStore
	logger zerolog.Logger
	group  singleflight.Group

	// now is injectable for tests.
	now func() time.Time
}

// NewFeatureCache creates a feature cache over the given store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFeatureCache(store FeatureEntryStore, logger zerolog.Logger) *FeatureCache {
	return &FeatureCache{
		store:  store,
		logger: logger.With().Str("component", "feature_cache").Logger(),
		now:    time.Now,
	}
}

// GetOrCompute returns the cached entry for (owner, issue) when it is still
// current, otherwise computes a fresh one and writes it back. Concurrent
// callers for the same pair share one computation. Store errors on either
// side are logged and absorbed; the caller always gets a usable entry or
// the compute error.
func (c *FeatureCache) GetOrCompute(ctx context.Context, owner string, issue *match.IssueSnapshot, profile *match.Profile, compute ComputeFunc) (*match.FeatureCacheEntry, error) {
	var profileUpdated time.Time
	if profile != nil {
		profileUpdated = profile.UpdatedAt
	}

	key := owner + ":" + issue.ID
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		cached, err := c.store.Get(ctx, owner, issue.ID)
		if err != nil {
			c.logger.Warn().Err(err).
				Str("owner", owner).
				Str("issue_id", issue.ID).
				Msg("feature cache read failed; recomputing")
		} else if cached.Valid(profileUpdated, issue.UpdatedAt) {
			return cached, nil
		}

		breakdown, features, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		fresh := &match.FeatureCacheEntry{
			IssueID:          issue.ID,
			Breakdown:        breakdown,
			FeatureVector:    features,
			ProfileUpdatedAt: profileUpdated,
			IssueUpdatedAt:   issue.UpdatedAt,
			ComputedAt:       c.now(),
		}

		if err := c.store.Put(ctx, owner, fresh); err != nil {
			c.logger.Warn().Err(err).
				Str("owner", owner).
				Str("issue_id", issue.ID).
				Msg("feature cache write failed; serving uncached result")
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*match.FeatureCacheEntry), nil
}

// Invalidate drops the cached entry for one (owner, issue).
func (c *FeatureCache) Invalidate(ctx context.Context, owner, issueID string) error {
	return c.store.Delete(ctx, owner, issueID)
}

// Entries returns every cached entry for an owner.
func (c *FeatureCache) Entries(ctx context.Context, owner string) ([]*match.FeatureCacheEntry, error) {
	return c.store.List(ctx, owner)
}
