// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package cache provides the engine's two caching layers.
//
// ModelLoader resolves trained classifier artifacts through three tiers:
// an in-process map, a shared TTL cache, and the durable artifact store.
// Hits promote upward (cache-aside), and concurrent misses for the same
// artifact collapse into a single durable load via singleflight.
//
// FeatureCache memoizes per-issue score breakdowns and feature vectors.
// Entries are invalidated by staleness comparison, not TTL: an entry is
// served only if it was computed from profile and issue timestamps at
// least as recent as the current ones, so a cached vector never reflects
// an older profile or issue revision.
package cache
