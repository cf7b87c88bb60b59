// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package features converts (issue, profile) pairs into fixed-order feature
// vectors for the quality classifier: a 14-dimension base vector that is
// always available, optionally extended to 207 dimensions with embedding,
// interaction, polynomial, and temporal blocks.
//
// Feature order is part of the contract: classifiers are trained and served
// against this exact ordering. Components that cannot be computed (missing
// profile, parse failure, unavailable embedding model) contribute 0.0 and
// never produce an error.
package features

import (
	"context"
	"strings"
	"time"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/scorer"
)

// Base vector layout. The classifier depends on this exact ordering.
const (
	idxTechCount = iota
	idxSkillPct
	idxExperience
	idxRepoQuality
	idxFreshness
	idxTimeMatch
	idxInterestMatch
	idxRuleTotal
	idxStars
	idxForks
	idxContributors
	idxIssueType
	idxDifficulty
	idxParsedHours
)

// Advanced block sizes. They sum to match.AdvancedFeatureCount.
const (
	bodyEmbeddingDims  = 100
	titleEmbeddingDims = 50
	interactionDims    = 12
	polynomialDims     = 27
	temporalDims       = 4
)

// issueTypeOrdinals maps known issue types to stable ordinals. Unknown
// non-empty types share a single bucket past the known ones.
var issueTypeOrdinals = map[string]float64{
	"bug":           1,
	"feature":       2,
	"refactoring":   3,
	"documentation": 4,
	"testing":       5,
}

const unknownIssueTypeOrdinal = 6

// interactionPairs are the fixed base-feature index pairs whose products
// form the interaction block, capturing cross-effects a linear model
// would miss.
var interactionPairs = [interactionDims][2]int{
	{idxSkillPct, idxExperience},
	{idxSkillPct, idxRepoQuality},
	{idxExperience, idxRepoQuality},
	{idxFreshness, idxRepoQuality},
	{idxTimeMatch, idxExperience},
	{idxInterestMatch, idxSkillPct},
	{idxTechCount, idxSkillPct},
	{idxStars, idxRepoQuality},
	{idxForks, idxContributors},
	{idxFreshness, idxTimeMatch},
	{idxRuleTotal, idxRepoQuality},
	{idxSkillPct, idxRuleTotal},
}

// polynomialIndices are the base features expanded to degree two
// (originals + squares + pairwise cross terms, no bias term).
var polynomialIndices = [6]int{
	idxSkillPct, idxExperience, idxRepoQuality, idxFreshness, idxTimeMatch, idxRuleTotal,
}

// Extractor builds feature vectors. Safe for concurrent use.
type Extractor struct {
	scorer   *scorer.Scorer
	provider EmbeddingProvider
	cache    *embeddingCache
	now      func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithEmbeddingProvider attaches an embedding provider for the advanced
// feature block. Without one, embedding features are zero.
func WithEmbeddingProvider(p EmbeddingProvider) Option {
	return func(e *Extractor) { e.provider = p }
}

// WithEmbeddingCacheSize overrides the per-issue embedding cache capacity.
func WithEmbeddingCacheSize(n int) Option {
	return func(e *Extractor) { e.cache = newEmbeddingCache(n) }
}

// WithClock overrides the time source for temporal features.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New creates an Extractor backed by the given rule-based scorer.
func New(sc *scorer.Scorer, opts ...Option) *Extractor {
	e := &Extractor{
		scorer: sc,
		cache:  newEmbeddingCache(defaultEmbeddingCacheSize),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Base computes the 14-dimension base vector along with the rule-based
// breakdown it was derived from. A nil profile yields zeros for all
// profile-dependent components.
func (e *Extractor) Base(issue *match.IssueSnapshot, profile *match.Profile) ([]float64, match.ScoreBreakdown) {
	vec := make([]float64, match.BaseFeatureCount)
	var bd match.ScoreBreakdown

	vec[idxTechCount] = float64(len(issue.Technologies))

	if profile != nil {
		bd = e.scorer.Evaluate(issue, profile)
		vec[idxSkillPct] = bd.SkillMatchPct
		vec[idxExperience] = bd.ExperienceScore
		vec[idxRepoQuality] = bd.RepoQualityScore
		vec[idxFreshness] = bd.FreshnessScore
		vec[idxTimeMatch] = bd.TimeMatchScore
		vec[idxInterestMatch] = bd.InterestMatchScore
		vec[idxRuleTotal] = bd.RuleBasedTotal
	}

	if issue.Repo != nil {
		vec[idxStars] = float64(issue.Repo.Stars)
		vec[idxForks] = float64(issue.Repo.Forks)
		vec[idxContributors] = float64(issue.Repo.ContributorCount)
	}

	vec[idxIssueType] = issueTypeOrdinal(issue.IssueType)
	if ord, ok := issue.Difficulty.Ordinal(); ok {
		vec[idxDifficulty] = float64(ord + 1)
	}
	if hours, ok := scorer.ParseEstimateHours(issue.TimeEstimate); ok {
		vec[idxParsedHours] = hours
	}

	return vec, bd
}

// Extended computes the full 207-dimension vector (base + advanced).
func (e *Extractor) Extended(ctx context.Context, issue *match.IssueSnapshot, profile *match.Profile) ([]float64, match.ScoreBreakdown) {
	base, bd := e.Base(issue, profile)
	vec := make([]float64, 0, match.TotalFeatureCount)
	vec = append(vec, base...)
	vec = append(vec, e.Advanced(ctx, issue, base)...)
	return vec, bd
}

// Advanced computes the 193-dimension extension block: embeddings (150),
// interactions (12), polynomial terms (27), and temporal features (4).
func (e *Extractor) Advanced(ctx context.Context, issue *match.IssueSnapshot, base []float64) []float64 {
	vec := make([]float64, 0, match.AdvancedFeatureCount)
	vec = append(vec, e.embeddingFeatures(ctx, issue)...)
	vec = append(vec, interactionFeatures(base)...)
	vec = append(vec, polynomialFeatures(base)...)
	vec = append(vec, e.temporalFeatures(issue)...)
	return vec
}

// embeddingFeatures projects body and title sentence embeddings down to
// 100 and 50 dimensions by truncation or zero-padding. Provider failures
// substitute zeros rather than failing.
func (e *Extractor) embeddingFeatures(ctx context.Context, issue *match.IssueSnapshot) []float64 {
	out := make([]float64, bodyEmbeddingDims+titleEmbeddingDims)
	if e.provider == nil {
		return out
	}

	if emb := e.embed(ctx, issue.ID, "body", issue.Body); emb != nil {
		copyTruncated(out[:bodyEmbeddingDims], emb)
	}
	if emb := e.embed(ctx, issue.ID, "title", issue.Title); emb != nil {
		copyTruncated(out[bodyEmbeddingDims:], emb)
	}
	return out
}

// embed returns a cached or freshly computed embedding, or nil when the
// provider is unavailable. Cache keys include the model name so a model
// swap naturally invalidates prior entries.
func (e *Extractor) embed(ctx context.Context, issueID, field, text string) []float64 {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	key := issueID + "|" + e.provider.ModelName() + "|" + field
	if emb, ok := e.cache.get(key); ok {
		return emb
	}

	emb, err := e.provider.Embed(ctx, text)
	if err != nil || len(emb) == 0 {
		return nil
	}
	e.cache.put(key, emb)
	return emb
}

// interactionFeatures computes the fixed pairwise products.
func interactionFeatures(base []float64) []float64 {
	out := make([]float64, interactionDims)
	for i, pair := range interactionPairs {
		out[i] = base[pair[0]] * base[pair[1]]
	}
	return out
}

// polynomialFeatures computes the degree-2 expansion over six selected base
// features: 6 originals + 6 squares + 15 pairwise cross terms.
func polynomialFeatures(base []float64) []float64 {
	out := make([]float64, 0, polynomialDims)

	for _, idx := range polynomialIndices {
		out = append(out, base[idx])
	}
	for _, idx := range polynomialIndices {
		out = append(out, base[idx]*base[idx])
	}
	for i := 0; i < len(polynomialIndices); i++ {
		for j := i + 1; j < len(polynomialIndices); j++ {
			out = append(out, base[polynomialIndices[i]]*base[polynomialIndices[j]])
		}
	}
	return out
}

// temporalFeatures computes issue age features. An internal staleness flag
// is intentionally not emitted to keep the advanced block at exactly 193.
func (e *Extractor) temporalFeatures(issue *match.IssueSnapshot) []float64 {
	now := e.now()
	out := make([]float64, temporalDims)

	if !issue.CreatedAt.IsZero() {
		out[0] = now.Sub(issue.CreatedAt).Hours() / 24
	}

	var daysSinceUpdate float64
	if !issue.UpdatedAt.IsZero() {
		daysSinceUpdate = now.Sub(issue.UpdatedAt).Hours() / 24
	}
	out[1] = daysSinceUpdate

	decay := 1 - daysSinceUpdate/365
	if decay < 0 {
		decay = 0
	}
	out[2] = decay

	if !issue.UpdatedAt.IsZero() && daysSinceUpdate < 7 {
		out[3] = 1
	}
	return out
}

// issueTypeOrdinal maps an issue type to its stable ordinal.
func issueTypeOrdinal(issueType string) float64 {
	t := strings.ToLower(strings.TrimSpace(issueType))
	if t == "" {
		return 0
	}
	if ord, ok := issueTypeOrdinals[t]; ok {
		return ord
	}
	return unknownIssueTypeOrdinal
}

// copyTruncated copies src into dst, truncating or leaving trailing zeros.
func copyTruncated(dst, src []float64) {
	copy(dst, src)
}
