// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package metrics provides Prometheus instrumentation for the matching
// engine: scoring latency, prediction lineage, training outcomes, and
// cache efficiency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scoring metrics.
	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_score_duration_seconds",
			Help:    "Duration of single scoring calls in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	ScoresDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_scores_degraded_total",
			Help: "Scoring calls served with the neutral prediction because no classifier was usable",
		},
	)

	// PredictionsTotal tracks which lineage served each prediction:
	// "ensemble", "baseline", or "neutral".
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_predictions_total",
			Help: "Classifier predictions by serving lineage",
		},
		[]string{"lineage"},
	)

	// Training metrics.
	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
		[]string{"model_type"},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_training_runs_total",
			Help: "Training runs by model type and outcome",
		},
		[]string{"model_type", "outcome"},
	)

	// Cache metrics, labeled by cache layer ("shared", "listing"). The
	// caches track their own counters internally; these gauges publish
	// periodic snapshots.
	CacheHits = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "match_cache_hits",
			Help: "Cumulative cache hits by layer, published from cache snapshots",
		},
		[]string{"layer"},
	)

	CacheMisses = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "match_cache_misses",
			Help: "Cumulative cache misses by layer, published from cache snapshots",
		},
		[]string{"layer"},
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "match_cache_entries",
			Help: "Current cache entry count by layer",
		},
		[]string{"layer"},
	)
)

// Observer implements the scoring service's telemetry hooks on the
// package-level Prometheus collectors.
type Observer struct{}

// ObserveScore records one scoring call.
func (Observer) ObserveScore(duration time.Duration, degraded bool) {
	ScoreDuration.Observe(duration.Seconds())
	if degraded {
		ScoresDegraded.Inc()
	}
}

// ObservePrediction records the serving lineage of one prediction.
func (Observer) ObservePrediction(lineage string) {
	PredictionsTotal.WithLabelValues(lineage).Inc()
}

// ObserveTraining records one training run.
func (Observer) ObserveTraining(modelType string, duration time.Duration, err error) {
	TrainingDuration.WithLabelValues(modelType).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	TrainingRuns.WithLabelValues(modelType, outcome).Inc()
}

// RecordCacheStats publishes a cache stats snapshot for one layer.
func RecordCacheStats(layer string, hits, misses, keys int64) {
	CacheHits.WithLabelValues(layer).Set(float64(hits))
	CacheMisses.WithLabelValues(layer).Set(float64(misses))
	CacheKeys.WithLabelValues(layer).Set(float64(keys))
}
