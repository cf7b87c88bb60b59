// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package match defines the shared data model for the issue-profile matching
// engine: developer profiles, issue snapshots, score breakdowns, cache
// entries, and the training surface (labeled examples, options, metrics).
//
// The engine consumes read-only Profile and IssueSnapshot values owned by
// external systems and produces ScoreBreakdown values; it never mutates its
// inputs. All types in this package are plain data with no behavior beyond
// parsing, formatting, and validity checks.
//
// # Error Taxonomy
//
// Four failure classes exist, with different propagation policies:
//
//   - ValidationError: insufficient or imbalanced labeled data, malformed
//     feature vectors. Surfaced to the caller, never retried.
//   - Degraded computation: missing metadata, unparseable estimate strings,
//     unavailable embedding models. Never an error; resolved to documented
//     neutral defaults so scoring always returns a result.
//   - ErrArtifactUnavailable: no trained model, or a corrupt artifact.
//     Resolved to the neutral (0.5, 0.5) prediction, logged but not raised.
//   - ErrTrainingFailed: an underlying fit or optimization failure. Surfaced
//     to the caller; the previously active artifact remains usable.
package match
