// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/contribmatch/contribmatch/internal/match"
)

const listingKeyPrefix = "top:"

// BatchScore scores a set of issues for one profile and persists the totals
// for ranked listings. Issues are processed in fixed-size pages with one
// storage transaction per page, so a mid-batch failure leaves earlier pages
// durable. Returns the number of issues scored.
func (s *Service) BatchScore(ctx context.Context, issues []match.IssueSnapshot, profile *match.Profile) (int, error) {
	if profile == nil || profile.Owner == "" {
		return 0, match.NewValidationError("profile with a non-empty owner is required")
	}

	start := time.Now()
	scored := 0

	for offset := 0; offset < len(issues); offset += s.config.PageSize {
		end := offset + s.config.PageSize
		if end > len(issues) {
			end = len(issues)
		}
		page := issues[offset:end]

		totals, err := s.scorePage(ctx, page, profile)
		if err != nil {
			return scored, err
		}
		if err := s.scores.BulkUpsert(ctx, profile.Owner, totals); err != nil {
			return scored, fmt.Errorf("persist score page: %w", err)
		}
		scored += len(totals)
	}

	// Persisted totals changed; cached listings are now stale.
	s.InvalidateOwnerListings(profile.Owner)

	s.logger.Info().
		Str("owner", profile.Owner).
		Int("issues", scored).
		Dur("duration", time.Since(start)).
		Msg("batch scoring complete")

	return scored, nil
}

// scorePage scores one page with bounded parallelism.
func (s *Service) scorePage(ctx context.Context, page []match.IssueSnapshot, profile *match.Profile) (map[string]float64, error) {
	totals := make(map[string]float64, len(page))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Parallelism)

	for i := range page {
		issue := &page[i]
		g.Go(func() error {
			bd, err := s.Score(ctx, issue, profile)
			if err != nil {
				return fmt.Errorf("score issue %s: %w", issue.ID, err)
			}
			mu.Lock()
			totals[issue.ID] = bd.TotalScore
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return totals, nil
}

// TopMatches returns the owner's highest-scoring issues, best first.
// Persisted batch totals are used where available; issues the engine has
// scored but never batch-persisted are computed on demand from their cached
// feature entries. Results are cached per (owner, limit, profile
// fingerprint) so repeated listing calls skip the storage scan.
func (s *Service) TopMatches(ctx context.Context, profile *match.Profile, limit int) ([]match.RankedIssue, error) {
	if profile == nil || profile.Owner == "" {
		return nil, match.NewValidationError("profile with a non-empty owner is required")
	}
	if limit <= 0 {
		return nil, match.NewValidationError("limit must be positive, got %d", limit)
	}

	key := listingKey(profile, limit)
	if v, ok := s.listings.Get(key); ok {
		if ranked, ok := v.([]match.RankedIssue); ok {
			return ranked, nil
		}
	}

	totals, err := s.scores.Scores(ctx, profile.Owner)
	if err != nil {
		return nil, fmt.Errorf("load persisted scores: %w", err)
	}
	s.addOnDemandTotals(ctx, profile.Owner, totals)

	ranked := make([]match.RankedIssue, 0, len(totals))
	for issueID, total := range totals {
		ranked = append(ranked, match.RankedIssue{IssueID: issueID, TotalScore: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		return ranked[i].IssueID < ranked[j].IssueID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	s.listings.SetWithTTL(key, ranked, s.config.TopMatchesTTL)
	return ranked, nil
}

// addOnDemandTotals computes totals for issues present in the feature cache
// but absent from the persisted scores, and merges them into totals. These
// are pairs scored individually and never batch-persisted. A feature store
// failure degrades to the persisted totals alone.
func (s *Service) addOnDemandTotals(ctx context.Context, owner string, totals map[string]float64) {
	entries, err := s.featCache.Entries(ctx, owner)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("owner", owner).
			Msg("feature entry scan failed; listing persisted scores only")
		return
	}

	for _, e := range entries {
		if _, ok := totals[e.IssueID]; ok {
			continue
		}
		issue := &match.IssueSnapshot{ID: e.IssueID, UpdatedAt: e.IssueUpdatedAt}
		good, bad, _ := s.predict(ctx, owner, issue, e.FeatureVector)

		bd := e.Breakdown
		s.applyPrediction(&bd, issue, good, bad)
		totals[e.IssueID] = bd.TotalScore
	}
}

// InvalidateOwnerListings drops all cached ranked listings for an owner.
func (s *Service) InvalidateOwnerListings(owner string) {
	s.listings.DeletePrefix(listingKeyPrefix + owner + ":")
}

// listingKey builds the ranked-listing cache key. The profile fingerprint
// covers skills and experience so a profile edit changes the key even
// before the TTL expires.
func listingKey(profile *match.Profile, limit int) string {
	h := xxhash.New()
	_, _ = h.WriteString(strings.Join(profile.Skills, ","))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(profile.Experience.String())

	return listingKeyPrefix + profile.Owner + ":" + strconv.Itoa(limit) + ":" + strconv.FormatUint(h.Sum64(), 16)
}
