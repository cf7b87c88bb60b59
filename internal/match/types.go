// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package match

import (
	"strings"
	"time"
)

// ExperienceLevel classifies a developer's self-reported experience.
type ExperienceLevel int

const (
	// ExperienceBeginner indicates a developer new to open source.
	ExperienceBeginner ExperienceLevel = iota
	// ExperienceIntermediate indicates a developer with some contributions.
	ExperienceIntermediate
	// ExperienceAdvanced indicates an experienced contributor.
	ExperienceAdvanced
	// ExperienceExpert indicates a maintainer-level contributor.
	ExperienceExpert
)

// String returns a human-readable name for the experience level.
func (l ExperienceLevel) String() string {
	switch l {
	case ExperienceBeginner:
		return "beginner"
	case ExperienceIntermediate:
		return "intermediate"
	case ExperienceAdvanced:
		return "advanced"
	case ExperienceExpert:
		return "expert"
	default:
		return "unknown"
	}
}

// ParseExperienceLevel parses a level name. Unrecognized values map to
// ExperienceBeginner, the conservative default.
func ParseExperienceLevel(s string) ExperienceLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate":
		return ExperienceIntermediate
	case "advanced":
		return ExperienceAdvanced
	case "expert":
		return ExperienceExpert
	default:
		return ExperienceBeginner
	}
}

// Difficulty classifies the estimated difficulty of an issue.
// DifficultyUnknown means the issue carries no difficulty label.
type Difficulty int

const (
	// DifficultyUnknown indicates no difficulty label is present.
	DifficultyUnknown Difficulty = iota
	// DifficultyBeginner indicates a beginner-friendly issue.
	DifficultyBeginner
	// DifficultyIntermediate indicates a moderately hard issue.
	DifficultyIntermediate
	// DifficultyAdvanced indicates an issue requiring deep familiarity.
	DifficultyAdvanced
	// DifficultyExpert indicates an issue for project experts.
	DifficultyExpert
)

// String returns a human-readable name for the difficulty.
func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "beginner"
	case DifficultyIntermediate:
		return "intermediate"
	case DifficultyAdvanced:
		return "advanced"
	case DifficultyExpert:
		return "expert"
	default:
		return "unknown"
	}
}

// ParseDifficulty parses a difficulty name. Unrecognized values map to
// DifficultyUnknown.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "easy", "good first issue":
		return DifficultyBeginner
	case "intermediate", "medium":
		return DifficultyIntermediate
	case "advanced", "hard":
		return DifficultyAdvanced
	case "expert":
		return DifficultyExpert
	default:
		return DifficultyUnknown
	}
}

// Ordinal returns the difficulty on the same 0-3 scale as experience levels,
// and false when the difficulty is unknown.
func (d Difficulty) Ordinal() (int, bool) {
	if d == DifficultyUnknown {
		return 0, false
	}
	return int(d) - 1, true
}

// ModelType identifies a trained classifier lineage.
type ModelType int

const (
	// ModelBaseline is the 14-feature single-classifier lineage.
	ModelBaseline ModelType = iota
	// ModelEnsemble is the up-to-207-feature stacking lineage.
	ModelEnsemble
)

// String returns the lineage name used in storage keys and logs.
func (m ModelType) String() string {
	switch m {
	case ModelBaseline:
		return "baseline"
	case ModelEnsemble:
		return "ensemble"
	default:
		return "unknown"
	}
}

// Profile is a read-only snapshot of a developer profile, owned by an
// external account system.
type Profile struct {
	// Owner is the profile owner's identifier.
	Owner string `json:"owner"`

	// Skills is the set of technologies the developer knows.
	Skills []string `json:"skills"`

	// Experience is the self-reported experience level.
	Experience ExperienceLevel `json:"experience"`

	// Interests is a list of topic interests (e.g. "machine-learning").
	Interests []string `json:"interests"`

	// PreferredLanguages lists preferred programming languages.
	PreferredLanguages []string `json:"preferred_languages"`

	// WeeklyHours is the available contribution time per week.
	// Zero means unspecified.
	WeeklyHours int `json:"weekly_hours"`

	// UpdatedAt is when the profile was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// RepoStats carries repository health metadata attached to an issue.
type RepoStats struct {
	// Stars is the repository star count.
	Stars int `json:"stars"`

	// Forks is the repository fork count.
	Forks int `json:"forks"`

	// ContributorCount is the number of distinct contributors.
	ContributorCount int `json:"contributor_count"`

	// LastCommitAt is the timestamp of the most recent commit.
	// The zero value means unknown.
	LastCommitAt time.Time `json:"last_commit_at"`
}

// IssueSnapshot is a read-only snapshot of an open-source issue as seen at
// scoring time. Technologies are derived upstream and attached separately
// from the raw issue text.
type IssueSnapshot struct {
	// ID uniquely identifies the issue.
	ID string `json:"id"`

	// Title is the issue title.
	Title string `json:"title"`

	// Body is the issue description.
	Body string `json:"body"`

	// Difficulty is the optional difficulty label.
	Difficulty Difficulty `json:"difficulty"`

	// IssueType is the optional issue category (bug, feature, docs, ...).
	// Empty means unknown.
	IssueType string `json:"issue_type"`

	// TimeEstimate is a free-form effort estimate ("4-6 hours", "weekend
	// project"). Empty means no estimate.
	TimeEstimate string `json:"time_estimate"`

	// Technologies is the derived list of technologies the issue touches.
	Technologies []string `json:"technologies"`

	// Repo holds repository health stats; nil means unavailable.
	Repo *RepoStats `json:"repo,omitempty"`

	// RepoTopics is the list of repository topic tags.
	RepoTopics []string `json:"repo_topics"`

	// CreatedAt is when the issue was opened.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the issue last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreBreakdown is the externally visible result of scoring one
// (issue, profile) pair. Values are created fresh per scoring call and
// never mutated in place.
type ScoreBreakdown struct {
	// SkillMatchPct is the percentage of issue technologies matched by
	// profile skills (0-100).
	SkillMatchPct float64 `json:"skill_match_pct"`

	// MatchingSkills lists issue technologies covered by the profile.
	MatchingSkills []string `json:"matching_skills,omitempty"`

	// MissingSkills lists issue technologies the profile lacks.
	MissingSkills []string `json:"missing_skills,omitempty"`

	// ExperienceScore is the experience/difficulty fit (0-20).
	ExperienceScore float64 `json:"experience_score"`

	// RepoQualityScore is the repository health score (0-15).
	RepoQualityScore float64 `json:"repo_quality_score"`

	// FreshnessScore is the issue activity score (0-10).
	FreshnessScore float64 `json:"freshness_score"`

	// TimeMatchScore is the availability/effort fit (0-10).
	TimeMatchScore float64 `json:"time_match_score"`

	// InterestMatchScore is the interest/topic overlap score (0-5).
	InterestMatchScore float64 `json:"interest_match_score"`

	// RuleBasedTotal is the weighted rule-based total before ML blending.
	RuleBasedTotal float64 `json:"rule_based_total"`

	// MLGoodProb is the classifier's probability the issue is a good match.
	MLGoodProb float64 `json:"ml_good_prob"`

	// MLBadProb is the classifier's probability the issue is a bad match.
	MLBadProb float64 `json:"ml_bad_prob"`

	// MLAdjustment is the signed adjustment derived from classifier
	// confidence, zero inside the confidence dead-zone.
	MLAdjustment float64 `json:"ml_adjustment"`

	// TotalScore is the final hybrid score, clamped to [0, 100].
	TotalScore float64 `json:"total_score"`
}

// FeatureCacheEntry caches the computed breakdown and feature vector for one
// issue, invalidated by staleness comparison against source timestamps.
type FeatureCacheEntry struct {
	// IssueID is the cache key.
	IssueID string `json:"issue_id"`

	// Breakdown is the cached rule-based score breakdown.
	Breakdown ScoreBreakdown `json:"breakdown"`

	// FeatureVector is the cached base feature vector.
	FeatureVector []float64 `json:"feature_vector"`

	// ProfileUpdatedAt is the profile timestamp the entry was computed from.
	ProfileUpdatedAt time.Time `json:"profile_updated_at"`

	// IssueUpdatedAt is the issue timestamp the entry was computed from.
	IssueUpdatedAt time.Time `json:"issue_updated_at"`

	// ComputedAt is when the entry was computed.
	ComputedAt time.Time `json:"computed_at"`
}

// Valid reports whether the entry is still current for the given source
// timestamps. An entry is valid iff it was computed from timestamps at least
// as recent as both sources.
func (e *FeatureCacheEntry) Valid(profileUpdatedAt, issueUpdatedAt time.Time) bool {
	if e == nil {
		return false
	}
	return !e.ProfileUpdatedAt.Before(profileUpdatedAt) && !e.IssueUpdatedAt.Before(issueUpdatedAt)
}

// LabeledExample is one labeled training example for the quality classifier.
type LabeledExample struct {
	// Issue is the issue snapshot at labeling time.
	Issue IssueSnapshot `json:"issue"`

	// Good is true for a "good match" label, false for "bad match".
	Good bool `json:"good"`

	// LabeledAt orders examples for time-aware splitting.
	LabeledAt time.Time `json:"labeled_at"`
}

// TrainOptions controls a training run.
type TrainOptions struct {
	// ModelType selects the lineage to train.
	ModelType ModelType `json:"model_type"`

	// UseAdvancedFeatures extends base features to the full 207 dimensions.
	// Only honored by the ensemble lineage.
	UseAdvancedFeatures bool `json:"use_advanced_features"`

	// UseStacking enables the stacking ensemble; when false the ensemble
	// lineage falls back to a single boosted classifier.
	UseStacking bool `json:"use_stacking"`

	// UseTuning enables hyperparameter search before the final fit.
	UseTuning bool `json:"use_tuning"`

	// TuneIterations bounds the hyperparameter search.
	TuneIterations int `json:"tune_iterations"`

	// Force bypasses the recommended-minimum data gate (but never the
	// absolute minimum or the both-classes gate).
	Force bool `json:"force"`
}

// ConfusionMatrix holds held-out classification outcomes.
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	TrueNegative  int `json:"true_negative"`
	FalsePositive int `json:"false_positive"`
	FalseNegative int `json:"false_negative"`
}

// SampleCounts describes the labeled dataset a model was trained on.
type SampleCounts struct {
	// Total is the number of labeled examples.
	Total int `json:"total"`

	// Good is the number of positive labels.
	Good int `json:"good"`

	// Bad is the number of negative labels.
	Bad int `json:"bad"`

	// Train is the number of examples in the training split.
	Train int `json:"train"`

	// Test is the number of examples in the held-out split.
	Test int `json:"test"`
}

// TrainMetrics is the evaluation summary returned from a training run and
// persisted alongside the artifact.
type TrainMetrics struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
	Samples   SampleCounts    `json:"sample_counts"`

	// Threshold is the selected decision threshold.
	Threshold float64 `json:"threshold"`
}

// RankedIssue pairs an issue ID with its total score, for ranked listings.
type RankedIssue struct {
	IssueID    string  `json:"issue_id"`
	TotalScore float64 `json:"total_score"`
}

// NeutralProbability is the prediction used when no usable classifier
// artifact is available. A (0.5, 0.5) prediction always lands inside the
// confidence dead-zone, so it contributes no score adjustment.
const NeutralProbability = 0.5

// BaseFeatureCount is the length of the always-available feature vector.
const BaseFeatureCount = 14

// AdvancedFeatureCount is the length of the optional extension block.
const AdvancedFeatureCount = 193

// TotalFeatureCount is the fixed length of the extended feature vector.
const TotalFeatureCount = BaseFeatureCount + AdvancedFeatureCount
