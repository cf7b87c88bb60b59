// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package scorer implements the transparent rule-based scorer: six
// independent sub-scores combined into a weighted 0-100 total.
//
// Every sub-score resolves missing or unparseable inputs to a documented
// neutral value rather than returning an error, so scoring always produces
// a result (degraded computation, never failure).
package scorer

import (
	"strings"
	"time"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/normalize"
)

// Weights configures the rule-based scoring scale and the hybrid blending
// constants. Sub-score caps (20/15/10/10/5) are fixed by the tier tables;
// together with the skill weight they sum to a 100-point scale.
type Weights struct {
	// Skill is the weight of the skill-match percentage (default 40).
	Skill float64

	// CodeFocusBonus multiplies the total for code-focused issue types
	// (bug, feature, refactoring). Default 1.10.
	CodeFocusBonus float64

	// MLWeight scales the classifier adjustment into the total score.
	// Default 0.45: the classifier contributes at most 45% weight. Zero is
	// a valid setting that disables the classifier blend entirely; only a
	// negative value selects the default.
	MLWeight float64

	// ConfidenceFloor is the probability above which the classifier is
	// considered confident enough to adjust the score. Default 0.7.
	ConfidenceFloor float64
}

// DefaultWeights returns the production scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Skill:           40,
		CodeFocusBonus:  1.10,
		MLWeight:        0.45,
		ConfidenceFloor: 0.7,
	}
}

// codeFocusedTypes are issue types that receive the code-focus bonus.
var codeFocusedTypes = map[string]struct{}{
	"bug":         {},
	"feature":     {},
	"refactoring": {},
}

// Scorer computes rule-based score breakdowns. The zero value is not usable;
// construct with New. Scorer is stateless and safe for concurrent use.
type Scorer struct {
	weights Weights

	// now is injectable for deterministic tests.
	now func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// New creates a Scorer with the given weights. Unset weights fall back to
// defaults: zero or negative for the weights that must be positive, but
// only negative for MLWeight, where zero means no classifier blend.
func New(w Weights, opts ...Option) *Scorer {
	def := DefaultWeights()
	if w.Skill <= 0 {
		w.Skill = def.Skill
	}
	if w.CodeFocusBonus <= 0 {
		w.CodeFocusBonus = def.CodeFocusBonus
	}
	if w.MLWeight < 0 {
		w.MLWeight = def.MLWeight
	}
	if w.ConfidenceFloor <= 0 {
		w.ConfidenceFloor = def.ConfidenceFloor
	}

	s := &Scorer{weights: w, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Evaluate computes all six sub-scores and the rule-based total for one
// (issue, profile) pair. The returned breakdown has zero ML fields; the
// hybrid service fills those in.
func (s *Scorer) Evaluate(issue *match.IssueSnapshot, profile *match.Profile) match.ScoreBreakdown {
	now := s.now()

	pct, matching, missing := s.SkillMatch(profile.Skills, issue.Technologies)

	bd := match.ScoreBreakdown{
		SkillMatchPct:      pct,
		MatchingSkills:     matching,
		MissingSkills:      missing,
		ExperienceScore:    s.ExperienceMatch(profile.Experience, issue.Difficulty),
		RepoQualityScore:   s.RepoQuality(issue.Repo, now),
		FreshnessScore:     s.Freshness(issue.UpdatedAt, now),
		TimeMatchScore:     s.TimeMatch(profile.WeeklyHours, issue.TimeEstimate),
		InterestMatchScore: s.InterestMatch(profile.Interests, issue.RepoTopics),
	}
	bd.RuleBasedTotal = s.Total(&bd, issue.IssueType)
	return bd
}

// SkillMatch matches issue technologies against profile skills using
// semantic equality. An issue with no technology requirements is a perfect
// match for any profile.
func (s *Scorer) SkillMatch(skills, techs []string) (pct float64, matching, missing []string) {
	if len(techs) == 0 {
		return 100.0, []string{}, []string{}
	}

	matching = make([]string, 0, len(techs))
	missing = make([]string, 0, len(techs))

	for _, tech := range techs {
		matched := false
		for _, skill := range skills {
			if normalize.SemanticallyEqual(skill, tech) {
				matched = true
				break
			}
		}
		if matched {
			matching = append(matching, tech)
		} else {
			missing = append(missing, tech)
		}
	}

	pct = float64(len(matching)) / float64(len(techs)) * 100.0
	return pct, matching, missing
}

// ExperienceMatch scores the fit between profile experience and issue
// difficulty on a 0-20 scale. Unknown difficulty is neutral (10). An exact
// level match scores 20, adjacent levels 15; a gap of two or more levels
// scores 5 when the issue is too hard and 10 when the developer is
// overqualified but still usable.
func (s *Scorer) ExperienceMatch(level match.ExperienceLevel, difficulty match.Difficulty) float64 {
	ord, ok := difficulty.Ordinal()
	if !ok {
		return 10.0
	}

	gap := int(level) - ord
	switch {
	case gap == 0:
		return 20.0
	case gap == 1 || gap == -1:
		return 15.0
	case gap <= -2:
		return 5.0 // issue well above the developer's level
	default:
		return 10.0 // overqualified but usable
	}
}

// RepoQuality scores repository health on a 0-15 scale from three capped
// bonuses: commit recency, popularity, and community size. Missing metadata
// is neutral (5).
func (s *Scorer) RepoQuality(repo *match.RepoStats, now time.Time) float64 {
	if repo == nil {
		return 5.0
	}

	var score float64

	// Commit recency.
	if !repo.LastCommitAt.IsZero() {
		days := now.Sub(repo.LastCommitAt).Hours() / 24
		switch {
		case days <= 30:
			score += 5
		case days <= 90:
			score += 3
		case days <= 180:
			score += 1
		}
	}

	// Popularity.
	if repo.Stars > 0 && float64(repo.Forks)/float64(repo.Stars) >= 0.1 {
		score += 2.5
	}
	switch {
	case repo.Stars >= 100:
		score += 2.5
	case repo.Stars >= 10:
		score += 1.0
	}

	// Community size.
	switch {
	case repo.ContributorCount >= 10:
		score += 5
	case repo.ContributorCount >= 5:
		score += 3
	case repo.ContributorCount >= 2:
		score += 1
	}

	if score > 15 {
		score = 15
	}
	return score
}

// Freshness scores issue activity on a 0-10 scale by days since last update.
// A missing date is treated as cold (1), not neutral, favoring active issues.
func (s *Scorer) Freshness(updatedAt, now time.Time) float64 {
	if updatedAt.IsZero() {
		return 1.0
	}

	days := now.Sub(updatedAt).Hours() / 24
	switch {
	case days <= 7:
		return 10.0
	case days <= 30:
		return 7.0
	case days <= 90:
		return 4.0
	default:
		return 1.0
	}
}

// TimeMatch scores the fit between weekly availability and the issue's
// effort estimate on a 0-10 scale. Missing either input is neutral (5).
func (s *Scorer) TimeMatch(availHours int, estimate string) float64 {
	if availHours <= 0 || strings.TrimSpace(estimate) == "" {
		return 5.0
	}

	hours, ok := ParseEstimateHours(estimate)
	if !ok {
		return 5.0
	}

	avail := float64(availHours)
	switch {
	case hours <= avail:
		return 10.0
	case hours <= 2*avail:
		return 5.0
	default:
		return 0.0
	}
}

// InterestMatch scores case-insensitive exact overlap between profile
// interests and repository topics on a 0-5 scale. Missing either list is
// neutral (2.5).
func (s *Scorer) InterestMatch(interests, topics []string) float64 {
	if len(interests) == 0 || len(topics) == 0 {
		return 2.5
	}

	topicSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		topicSet[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	matches := 0
	for _, in := range interests {
		if _, ok := topicSet[strings.ToLower(strings.TrimSpace(in))]; ok {
			matches++
		}
	}

	switch {
	case matches >= 3:
		return 5.0
	case matches == 2:
		return 3.0
	case matches == 1:
		return 1.0
	default:
		return 0.0
	}
}

// Total combines the sub-scores into the weighted rule-based total and
// applies the code-focus bonus for bug/feature/refactoring issues.
func (s *Scorer) Total(bd *match.ScoreBreakdown, issueType string) float64 {
	total := bd.SkillMatchPct/100.0*s.weights.Skill +
		bd.ExperienceScore +
		bd.RepoQualityScore +
		bd.FreshnessScore +
		bd.TimeMatchScore +
		bd.InterestMatchScore

	if _, ok := codeFocusedTypes[strings.ToLower(strings.TrimSpace(issueType))]; ok {
		total *= s.weights.CodeFocusBonus
	}
	return total
}
