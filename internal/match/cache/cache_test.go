// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/trainer"
)

func TestMemoryBasicOperations(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	m.SetWithTTL("k1", "v1", time.Minute)
	if v, ok := m.Get("k1"); !ok || v != "v1" {
		t.Errorf("Get(k1) = %v, %v", v, ok)
	}

	if _, ok := m.Get("absent"); ok {
		t.Error("Get(absent) should miss")
	}

	m.Delete("k1")
	if _, ok := m.Get("k1"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	m.SetWithTTL("k", "v", -time.Second)
	if _, ok := m.Get("k"); ok {
		t.Error("expired entry should miss")
	}

	stats := m.GetStats()
	if stats.Misses == 0 {
		t.Error("expiry should count as a miss")
	}
	if stats.Evictions == 0 {
		t.Error("expiry should count as an eviction")
	}
}

func TestMemoryDeletePrefix(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	m.SetWithTTL("top:alice:1", 1, time.Minute)
	m.SetWithTTL("top:alice:2", 2, time.Minute)
	m.SetWithTTL("top:bob:1", 3, time.Minute)

	m.DeletePrefix("top:alice:")

	if _, ok := m.Get("top:alice:1"); ok {
		t.Error("prefixed key survived DeletePrefix")
	}
	if _, ok := m.Get("top:alice:2"); ok {
		t.Error("prefixed key survived DeletePrefix")
	}
	if _, ok := m.Get("top:bob:1"); !ok {
		t.Error("unrelated key was removed")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			key := []string{"a", "b", "c", "d"}[g%4]
			for i := 0; i < 200; i++ {
				m.SetWithTTL(key, i, time.Minute)
				m.Get(key)
				if i%50 == 0 {
					m.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()
}

// countingSource counts durable loads and serves a fixed artifact.
type countingSource struct {
	loads    atomic.Int64
	artifact *trainer.Artifact
	err      error
}

func (s *countingSource) Load(_ context.Context, _ string, _ match.ModelType) (*trainer.Artifact, error) {
	s.loads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.artifact, nil
}

func testArtifact() *trainer.Artifact {
	return &trainer.Artifact{
		Owner:     "alice",
		ModelType: match.ModelBaseline,
		RunID:     "run-1",
	}
}

func TestModelLoaderTiers(t *testing.T) {
	shared := NewMemory()
	defer shared.Close()

	source := &countingSource{artifact: testArtifact()}
	loader := NewModelLoader(ModelLoaderConfig{}, shared, source, zerolog.Nop())
	ctx := context.Background()

	a, err := loader.Load(ctx, "alice", match.ModelBaseline)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.RunID != "run-1" {
		t.Errorf("run id = %s", a.RunID)
	}
	if source.loads.Load() != 1 {
		t.Fatalf("durable loads = %d, want 1", source.loads.Load())
	}

	// Repeated loads are served from cache tiers.
	for i := 0; i < 5; i++ {
		if _, err := loader.Load(ctx, "alice", match.ModelBaseline); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	if source.loads.Load() != 1 {
		t.Errorf("durable loads = %d, want 1 after cached loads", source.loads.Load())
	}
}

func TestModelLoaderPromotesFromShared(t *testing.T) {
	shared := NewMemory()
	defer shared.Close()

	source := &countingSource{artifact: testArtifact()}
	loader := NewModelLoader(ModelLoaderConfig{}, shared, source, zerolog.Nop())
	ctx := context.Background()

	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// A second loader sharing the same middle tier hits it instead of the
	// durable store.
	other := NewModelLoader(ModelLoaderConfig{}, shared, source, zerolog.Nop())
	if _, err := other.Load(ctx, "alice", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if source.loads.Load() != 1 {
		t.Errorf("durable loads = %d, want 1 with a shared middle tier", source.loads.Load())
	}
}

func TestModelLoaderMissingArtifact(t *testing.T) {
	shared := NewMemory()
	defer shared.Close()

	source := &countingSource{err: match.ErrArtifactUnavailable}
	loader := NewModelLoader(ModelLoaderConfig{}, shared, source, zerolog.Nop())
	ctx := context.Background()

	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); !errors.Is(err, match.ErrArtifactUnavailable) {
		t.Fatalf("err = %v, want ErrArtifactUnavailable", err)
	}

	// Absence is negatively cached: no second durable read.
	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); !errors.Is(err, match.ErrArtifactUnavailable) {
		t.Fatalf("err = %v, want ErrArtifactUnavailable", err)
	}
	if source.loads.Load() != 1 {
		t.Errorf("durable loads = %d, want 1 with negative caching", source.loads.Load())
	}
}

func TestModelLoaderInvalidate(t *testing.T) {
	shared := NewMemory()
	defer shared.Close()

	source := &countingSource{artifact: testArtifact()}
	loader := NewModelLoader(ModelLoaderConfig{}, shared, source, zerolog.Nop())
	ctx := context.Background()

	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}

	loader.Invalidate("alice", match.ModelBaseline)

	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if source.loads.Load() != 2 {
		t.Errorf("durable loads = %d, want 2 after invalidation", source.loads.Load())
	}
}

func TestModelLoaderInvalidateOwner(t *testing.T) {
	shared := NewMemory()
	defer shared.Close()

	source := &countingSource{artifact: testArtifact()}
	loader := NewModelLoader(ModelLoaderConfig{}, shared, source, zerolog.Nop())
	ctx := context.Background()

	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := loader.Load(ctx, "alice", match.ModelEnsemble); err != nil {
		t.Fatalf("Load: %v", err)
	}

	loader.InvalidateOwner("alice")

	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if source.loads.Load() != 3 {
		t.Errorf("durable loads = %d, want 3 after owner invalidation", source.loads.Load())
	}
}

func TestModelLoaderInvalidateAll(t *testing.T) {
	shared := NewMemory()
	defer shared.Close()

	source := &countingSource{artifact: testArtifact()}
	loader := NewModelLoader(ModelLoaderConfig{}, shared, source, zerolog.Nop())
	ctx := context.Background()

	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := loader.Load(ctx, "bob", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}

	loader.InvalidateAll()

	if _, err := loader.Load(ctx, "alice", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := loader.Load(ctx, "bob", match.ModelBaseline); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if source.loads.Load() != 4 {
		t.Errorf("durable loads = %d, want 4 after full invalidation", source.loads.Load())
	}
}

// mapFeatureStore is an in-memory FeatureEntryStore.
type mapFeatureStore struct {
	mu      sync.Mutex
	entries map[string]*match.FeatureCacheEntry
	getErr  error
	putErr  error
}

func newMapFeatureStore() *mapFeatureStore {
	return &mapFeatureStore{entries: make(map[string]*match.FeatureCacheEntry)}
}

func (s *mapFeatureStore) Get(_ context.Context, owner, issueID string) (*match.FeatureCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.entries[owner+":"+issueID], nil
}

func (s *mapFeatureStore) Put(_ context.Context, owner string, entry *match.FeatureCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[owner+":"+entry.IssueID] = entry
	return nil
}

func (s *mapFeatureStore) Delete(_ context.Context, owner, issueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, owner+":"+issueID)
	return nil
}

func (s *mapFeatureStore) List(_ context.Context, owner string) ([]*match.FeatureCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	var out []*match.FeatureCacheEntry
	for key, entry := range s.entries {
		if strings.HasPrefix(key, owner+":") {
			out = append(out, entry)
		}
	}
	return out, nil
}

func featureTestIssue(updated time.Time) *match.IssueSnapshot {
	return &match.IssueSnapshot{ID: "i1", UpdatedAt: updated}
}

func TestFeatureCacheComputesOnceWhileFresh(t *testing.T) {
	store := newMapFeatureStore()
	fc := NewFeatureCache(store, zerolog.Nop())
	ctx := context.Background()

	updated := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	profile := &match.Profile{Owner: "alice", UpdatedAt: updated}
	issue := featureTestIssue(updated)

	var computes atomic.Int64
	compute := func(context.Context) (match.ScoreBreakdown, []float64, error) {
		computes.Add(1)
		return match.ScoreBreakdown{RuleBasedTotal: 50}, []float64{1, 2}, nil
	}

	for i := 0; i < 3; i++ {
		entry, err := fc.GetOrCompute(ctx, "alice", issue, profile, compute)
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if entry.Breakdown.RuleBasedTotal != 50 {
			t.Errorf("breakdown total = %v", entry.Breakdown.RuleBasedTotal)
		}
	}

	if computes.Load() != 1 {
		t.Errorf("computes = %d, want 1 for unchanged inputs", computes.Load())
	}
}

func TestFeatureCacheRecomputesOnStaleness(t *testing.T) {
	store := newMapFeatureStore()
	fc := NewFeatureCache(store, zerolog.Nop())
	ctx := context.Background()

	t0 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	profile := &match.Profile{Owner: "alice", UpdatedAt: t0}
	issue := featureTestIssue(t0)

	var computes atomic.Int64
	compute := func(context.Context) (match.ScoreBreakdown, []float64, error) {
		computes.Add(1)
		return match.ScoreBreakdown{}, []float64{1}, nil
	}

	if _, err := fc.GetOrCompute(ctx, "alice", issue, profile, compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}

	t.Run("profile update invalidates", func(t *testing.T) {
		newer := &match.Profile{Owner: "alice", UpdatedAt: t0.Add(time.Hour)}
		if _, err := fc.GetOrCompute(ctx, "alice", issue, newer, compute); err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if computes.Load() != 2 {
			t.Errorf("computes = %d, want 2 after profile update", computes.Load())
		}
	})

	t.Run("issue update invalidates", func(t *testing.T) {
		newerProfile := &match.Profile{Owner: "alice", UpdatedAt: t0.Add(time.Hour)}
		newerIssue := featureTestIssue(t0.Add(2 * time.Hour))
		if _, err := fc.GetOrCompute(ctx, "alice", newerIssue, newerProfile, compute); err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if computes.Load() != 3 {
			t.Errorf("computes = %d, want 3 after issue update", computes.Load())
		}
	})

	t.Run("fresh entry is reused again", func(t *testing.T) {
		newerProfile := &match.Profile{Owner: "alice", UpdatedAt: t0.Add(time.Hour)}
		newerIssue := featureTestIssue(t0.Add(2 * time.Hour))
		if _, err := fc.GetOrCompute(ctx, "alice", newerIssue, newerProfile, compute); err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if computes.Load() != 3 {
			t.Errorf("computes = %d, want 3 for current entry", computes.Load())
		}
	})
}

func TestFeatureCacheDegradesOnStoreErrors(t *testing.T) {
	store := newMapFeatureStore()
	store.getErr = errors.New("disk trouble")
	store.putErr = errors.New("disk trouble")

	fc := NewFeatureCache(store, zerolog.Nop())
	ctx := context.Background()

	profile := &match.Profile{Owner: "alice"}
	issue := featureTestIssue(time.Now())

	entry, err := fc.GetOrCompute(ctx, "alice", issue, profile, func(context.Context) (match.ScoreBreakdown, []float64, error) {
		return match.ScoreBreakdown{RuleBasedTotal: 42}, []float64{1}, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute should absorb store errors, got %v", err)
	}
	if entry.Breakdown.RuleBasedTotal != 42 {
		t.Errorf("entry = %+v", entry)
	}
}

func TestFeatureCachePropagatesComputeError(t *testing.T) {
	fc := NewFeatureCache(newMapFeatureStore(), zerolog.Nop())

	wantErr := errors.New("scorer exploded")
	_, err := fc.GetOrCompute(context.Background(), "alice", featureTestIssue(time.Now()), &match.Profile{Owner: "alice"}, func(context.Context) (match.ScoreBreakdown, []float64, error) {
		return match.ScoreBreakdown{}, nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want compute error", err)
	}
}
