// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package main is the entry point for the ContribMatch engine daemon.
//
// matchd wires the rule-based scorer, feature extraction, the classifier
// trainer, BadgerDB storage, and the caching layers into a running engine,
// and serves Prometheus metrics and a health endpoint over HTTP.
//
// # Startup order
//
//  1. Configuration: defaults, optional YAML file, CONTRIBMATCH_* env vars
//  2. Logging: global zerolog logger (json or console)
//  3. Storage: BadgerDB (on disk, or in-memory with database.in_memory)
//  4. Engine: scorer, extractor, caches, trainer, scoring service
//  5. HTTP: /metrics and /healthz
//
// # Signal handling
//
// matchd shuts down gracefully on SIGINT and SIGTERM: the HTTP listener
// drains within server.shutdown_timeout, then caches stop and the database
// closes.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contribmatch/contribmatch/internal/config"
	"github.com/contribmatch/contribmatch/internal/logging"
	"github.com/contribmatch/contribmatch/internal/match/cache"
	"github.com/contribmatch/contribmatch/internal/match/features"
	"github.com/contribmatch/contribmatch/internal/match/scorer"
	"github.com/contribmatch/contribmatch/internal/match/service"
	"github.com/contribmatch/contribmatch/internal/match/storage"
	"github.com/contribmatch/contribmatch/internal/match/trainer"
	"github.com/contribmatch/contribmatch/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("configuration failed")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Get()

	db, err := openDatabase(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("database open failed")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("database close failed")
		}
	}()

	shared := cache.NewMemory()
	defer shared.Close()

	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	go sampleCacheStats(statsCtx, shared)

	svc := buildService(cfg, db, shared)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Healthy(r.Context()); err != nil {
			logger.Error().Err(err).Msg("health check failed")
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listener started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http listener failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("http shutdown incomplete")
	}
}

// sampleCacheStats periodically exports shared-cache counters to Prometheus.
func sampleCacheStats(ctx context.Context, m *cache.Memory) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := m.GetStats()
			metrics.RecordCacheStats("shared", stats.Hits, stats.Misses, stats.TotalKeys)
		}
	}
}

// openDatabase opens BadgerDB per configuration, with Badger's own logging
// routed through zerolog.
func openDatabase(cfg config.DatabaseConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(badgerLogger{logging.Component("badger")})
	return badger.Open(opts)
}

// buildService assembles the scoring engine from configuration.
func buildService(cfg *config.Config, db *badger.DB, shared cache.SharedCache) *service.Service {
	logger := logging.Get()

	sc := scorer.New(scorer.Weights{
		Skill:           cfg.Scoring.SkillWeight,
		CodeFocusBonus:  cfg.Scoring.CodeFocusBonus,
		MLWeight:        cfg.Scoring.MLWeight,
		ConfidenceFloor: cfg.Scoring.ConfidenceFloor,
	})

	extractorOpts := []features.Option{
		features.WithEmbeddingCacheSize(cfg.Embedding.CacheSize),
	}
	if cfg.Embedding.Enabled {
		provider := features.NewResilientProvider(
			features.NewHTTPProvider(cfg.Embedding.URL, cfg.Embedding.Model),
			features.ResilientProviderConfig{
				RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
				Burst:             cfg.Embedding.Burst,
				Timeout:           cfg.Embedding.Timeout,
			},
			logger,
		)
		extractorOpts = append(extractorOpts, features.WithEmbeddingProvider(provider))
	}
	extractor := features.New(sc, extractorOpts...)

	artifacts := storage.NewArtifactStore(db)
	featureStore := storage.NewFeatureStore(db)
	scores := storage.NewScoreStore(db)

	models := cache.NewModelLoader(cache.ModelLoaderConfig{
		MemoryTTL: cfg.Cache.ModelMemoryTTL,
		SharedTTL: cfg.Cache.ModelSharedTTL,
	}, shared, artifacts, logger)

	featCache := cache.NewFeatureCache(featureStore, logger)

	tr := trainer.New(trainer.Config{
		MinExamples:         cfg.Training.MinExamples,
		RecommendedExamples: cfg.Training.RecommendedExamples,
		TopFeatures:         cfg.Training.TopFeatures,
		TuneIterations:      cfg.Training.TuneIterations,
		Seed:                cfg.Training.Seed,
	}, service.NewCachedFeatureSource(featCache, extractor), logger)

	return service.New(service.Config{
		PageSize:      cfg.Scoring.BatchPageSize,
		Parallelism:   cfg.Scoring.BatchParallelism,
		TopMatchesTTL: cfg.Scoring.TopMatchesTTL,
	}, service.Deps{
		Scorer:       sc,
		Extractor:    extractor,
		FeatureCache: featCache,
		Models:       models,
		Artifacts:    artifacts,
		Scores:       scores,
		Listings:     shared,
		Trainer:      tr,
		Observer:     metrics.Observer{},
	}, logger)
}
