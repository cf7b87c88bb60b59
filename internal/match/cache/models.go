// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/trainer"
)

// Model cache tier TTLs. The in-process tier is short so retrains on other
// instances are picked up quickly; the shared tier absorbs most durable
// reads in between.
const (
	defaultMemoryTTL = 1 * time.Minute
	defaultSharedTTL = 10 * time.Minute

	// negativeTTL bounds how long a confirmed-absent artifact suppresses
	// durable lookups. Untrained owners hit this path on every prediction.
	negativeTTL = 30 * time.Second

	modelKeyPrefix = "model:"
)

// ArtifactSource is the durable tier of the model cache.
type ArtifactSource interface {
	// Load returns the active artifact for (owner, model type), or an error
	// wrapping match.ErrArtifactUnavailable when none exists.
	Load(ctx context.Context, owner string, modelType match.ModelType) (*trainer.Artifact, error)
}

// ModelLoaderConfig tunes the model cache tiers. Zero values select the
// defaults.
type ModelLoaderConfig struct {
	MemoryTTL time.Duration
	SharedTTL time.Duration
}

func (c ModelLoaderConfig) normalized() ModelLoaderConfig {
	if c.MemoryTTL <= 0 {
		c.MemoryTTL = defaultMemoryTTL
	}
	if c.SharedTTL <= 0 {
		c.SharedTTL = defaultSharedTTL
	}
	return c
}

type memoryModel struct {
	artifact  *trainer.Artifact // nil marks a confirmed-absent artifact
	expiresAt time.Time
}

// ModelLoader resolves classifier artifacts through three tiers: an
// in-process map, the shared cache, and the durable store. Hits promote
// upward; concurrent misses for the same key collapse into one durable load.
type ModelLoader struct {
	config ModelLoaderConfig
	shared SharedCache
	source ArtifactSource
	logger zerolog.Logger

	mu     sync.RWMutex
	memory map[string]memoryModel

	group singleflight.Group
}

// NewModelLoader creates a tiered model loader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewModelLoader(cfg ModelLoaderConfig, shared SharedCache, source ArtifactSource, logger zerolog.Logger) *ModelLoader {
	return &ModelLoader{
		config: cfg.normalized(),
		shared: shared,
		source: source,
		logger: logger.With().Str("component", "model_cache").Logger(),
		memory: make(map[string]memoryModel),
	}
}

// Load returns the active artifact for (owner, model type). A missing
// artifact resolves to match.ErrArtifactUnavailable; absence is cached
// briefly so untrained owners do not hammer the durable store.
func (l *ModelLoader) Load(ctx context.Context, owner string, modelType match.ModelType) (*trainer.Artifact, error) {
	key := modelKey(owner, modelType)

	if a, ok := l.tryMemory(key); ok {
		if a == nil {
			return nil, match.ErrArtifactUnavailable
		}
		return a, nil
	}

	if a, ok := l.tryShared(key); ok {
		l.setMemory(key, a, l.config.MemoryTTL)
		return a, nil
	}

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		a, err := l.source.Load(ctx, owner, modelType)
		if errors.Is(err, match.ErrArtifactUnavailable) {
			l.setMemory(key, nil, negativeTTL)
			return nil, err
		}
		if err != nil {
			return nil, err
		}

		l.shared.SetWithTTL(key, a, l.config.SharedTTL)
		l.setMemory(key, a, l.config.MemoryTTL)
		l.logger.Debug().
			Str("owner", owner).
			Str("model_type", modelType.String()).
			Str("run_id", a.RunID).
			Msg("artifact loaded from durable store")
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*trainer.Artifact), nil
}

// Invalidate drops both cache tiers for one (owner, model type). Called
// after a successful retrain so the next prediction serves the new artifact.
func (l *ModelLoader) Invalidate(owner string, modelType match.ModelType) {
	key := modelKey(owner, modelType)

	l.mu.Lock()
	delete(l.memory, key)
	l.mu.Unlock()

	l.shared.Delete(key)
}

// InvalidateAll drops every cached artifact across both tiers.
func (l *ModelLoader) InvalidateAll() {
	l.mu.Lock()
	l.memory = make(map[string]memoryModel)
	l.mu.Unlock()

	l.shared.DeletePrefix(modelKeyPrefix)
}

// InvalidateOwner drops every cached artifact for an owner.
func (l *ModelLoader) InvalidateOwner(owner string) {
	prefix := modelKeyPrefix + owner + ":"

	l.mu.Lock()
	for key := range l.memory {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(l.memory, key)
		}
	}
	l.mu.Unlock()

	l.shared.DeletePrefix(prefix)
}

func (l *ModelLoader) tryMemory(key string) (*trainer.Artifact, bool) {
	l.mu.RLock()
	m, ok := l.memory[key]
	l.mu.RUnlock()

	if !ok || time.Now().After(m.expiresAt) {
		return nil, false
	}
	return m.artifact, true
}

func (l *ModelLoader) tryShared(key string) (*trainer.Artifact, bool) {
	v, ok := l.shared.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := v.(*trainer.Artifact)
	if !ok {
		// Foreign value under our key; drop it and reload.
		l.shared.Delete(key)
		return nil, false
	}
	return a, true
}

func (l *ModelLoader) setMemory(key string, a *trainer.Artifact, ttl time.Duration) {
	l.mu.Lock()
	l.memory[key] = memoryModel{artifact: a, expiresAt: time.Now().Add(ttl)}
	l.mu.Unlock()
}

func modelKey(owner string, modelType match.ModelType) string {
	return modelKeyPrefix + owner + ":" + modelType.String()
}
