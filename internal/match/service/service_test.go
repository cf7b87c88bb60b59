// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package service

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"pgregory.net/rapid"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/cache"
	"github.com/contribmatch/contribmatch/internal/match/features"
	"github.com/contribmatch/contribmatch/internal/match/scorer"
	"github.com/contribmatch/contribmatch/internal/match/trainer"
)

// fixedClassifier always predicts the same positive-class probability.
type fixedClassifier struct {
	P float64
}

func (c fixedClassifier) PredictProb([]float64) float64 { return c.P }

func fixedArtifact(modelType match.ModelType, p float64) *trainer.Artifact {
	return &trainer.Artifact{
		Owner:      "alice",
		ModelType:  modelType,
		RunID:      "run-fixed",
		Model:      fixedClassifier{P: p},
		Threshold:  0.5,
		FeatureDim: match.BaseFeatureCount,
		TrainedAt:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// fakeModels is an in-memory ModelSource.
type fakeModels struct {
	mu          sync.Mutex
	artifacts   map[string]*trainer.Artifact
	invalidated []string
}

func newFakeModels() *fakeModels {
	return &fakeModels{artifacts: make(map[string]*trainer.Artifact)}
}

func (f *fakeModels) set(owner string, a *trainer.Artifact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[owner+":"+a.ModelType.String()] = a
}

func (f *fakeModels) Load(_ context.Context, owner string, modelType match.ModelType) (*trainer.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.artifacts[owner+":"+modelType.String()]
	if !ok {
		return nil, match.ErrArtifactUnavailable
	}
	return a, nil
}

func (f *fakeModels) Invalidate(owner string, modelType match.ModelType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, owner+":"+modelType.String())
}

func (f *fakeModels) InvalidateOwner(owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, owner+":*")
}

func (f *fakeModels) InvalidateAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, "*")
}

// fakeArtifacts records persisted artifacts.
type fakeArtifacts struct {
	mu      sync.Mutex
	saved   []*trainer.Artifact
	deleted []string
}

func (f *fakeArtifacts) Save(_ context.Context, a *trainer.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, a)
	return nil
}

func (f *fakeArtifacts) Delete(_ context.Context, owner string, modelType match.ModelType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, owner+":"+modelType.String())
	return nil
}

// fakeScores is an in-memory ScoreStore that counts upsert transactions.
type fakeScores struct {
	mu      sync.Mutex
	byOwner map[string]map[string]float64
	upserts int
	loadErr error
}

func newFakeScores() *fakeScores {
	return &fakeScores{byOwner: make(map[string]map[string]float64)}
}

func (f *fakeScores) BulkUpsert(_ context.Context, owner string, scores map[string]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	m, ok := f.byOwner[owner]
	if !ok {
		m = make(map[string]float64)
		f.byOwner[owner] = m
	}
	for id, total := range scores {
		m[id] = total
	}
	return nil
}

func (f *fakeScores) Scores(_ context.Context, owner string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make(map[string]float64, len(f.byOwner[owner]))
	for id, total := range f.byOwner[owner] {
		out[id] = total
	}
	return out, nil
}

// memEntryStore is an in-memory feature entry store.
type memEntryStore struct {
	mu      sync.Mutex
	entries map[string]*match.FeatureCacheEntry
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: make(map[string]*match.FeatureCacheEntry)}
}

func (s *memEntryStore) Get(_ context.Context, owner, issueID string) (*match.FeatureCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[owner+":"+issueID], nil
}

func (s *memEntryStore) Put(_ context.Context, owner string, entry *match.FeatureCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[owner+":"+entry.IssueID] = entry
	return nil
}

func (s *memEntryStore) Delete(_ context.Context, owner, issueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, owner+":"+issueID)
	return nil
}

func (s *memEntryStore) List(_ context.Context, owner string) ([]*match.FeatureCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*match.FeatureCacheEntry
	for key, entry := range s.entries {
		if strings.HasPrefix(key, owner+":") {
			out = append(out, entry)
		}
	}
	return out, nil
}

// countingObserver records telemetry for assertions.
type countingObserver struct {
	mu          sync.Mutex
	scores      int
	degraded    int
	predictions map[string]int
	trainings   []error
}

func newCountingObserver() *countingObserver {
	return &countingObserver{predictions: make(map[string]int)}
}

func (o *countingObserver) ObserveScore(_ time.Duration, degraded bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scores++
	if degraded {
		o.degraded++
	}
}

func (o *countingObserver) ObservePrediction(lineage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.predictions[lineage]++
}

func (o *countingObserver) ObserveTraining(_ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.trainings = append(o.trainings, err)
}

type testHarness struct {
	service   *Service
	models    *fakeModels
	artifacts *fakeArtifacts
	scores    *fakeScores
	observer  *countingObserver
}

func newHarness(t *testing.T, cfg Config) *testHarness {
	t.Helper()

	now := func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) }
	sc := scorer.New(scorer.DefaultWeights(), scorer.WithClock(now))
	ex := features.New(sc, features.WithClock(now))

	featCache := cache.NewFeatureCache(newMemEntryStore(), zerolog.Nop())
	listings := cache.NewMemory()
	t.Cleanup(listings.Close)

	models := newFakeModels()
	artifacts := &fakeArtifacts{}
	scores := newFakeScores()
	observer := newCountingObserver()

	tr := trainer.New(trainer.DefaultConfig(), NewCachedFeatureSource(featCache, ex), zerolog.Nop())

	svc := New(cfg, Deps{
		Scorer:       sc,
		Extractor:    ex,
		FeatureCache: featCache,
		Models:       models,
		Artifacts:    artifacts,
		Scores:       scores,
		Listings:     listings,
		Trainer:      tr,
		Observer:     observer,
	}, zerolog.Nop())

	return &testHarness{
		service:   svc,
		models:    models,
		artifacts: artifacts,
		scores:    scores,
		observer:  observer,
	}
}

func testIssue(id string) *match.IssueSnapshot {
	created := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	return &match.IssueSnapshot{
		ID:           id,
		Title:        "Fix memory leak in connection pool",
		Body:         "The pool never releases idle connections under load.",
		Difficulty:   match.DifficultyIntermediate,
		IssueType:    "bug",
		TimeEstimate: "4-6 hours",
		Technologies: []string{"go", "postgresql"},
		Repo:         &match.RepoStats{Stars: 250, Forks: 30, ContributorCount: 12, LastCommitAt: created},
		RepoTopics:   []string{"database", "networking"},
		CreatedAt:    created,
		UpdatedAt:    created.Add(24 * time.Hour),
	}
}

func testProfile() *match.Profile {
	return &match.Profile{
		Owner:       "alice",
		Skills:      []string{"golang", "postgres", "docker"},
		Experience:  match.ExperienceIntermediate,
		Interests:   []string{"database", "networking", "performance"},
		WeeklyHours: 10,
		UpdatedAt:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestScoreNeutralWithoutModel(t *testing.T) {
	h := newHarness(t, Config{})

	bd, err := h.service.Score(context.Background(), testIssue("i1"), testProfile())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if bd.MLGoodProb != match.NeutralProbability || bd.MLBadProb != match.NeutralProbability {
		t.Errorf("probabilities = %v/%v, want neutral 0.5/0.5", bd.MLGoodProb, bd.MLBadProb)
	}
	if bd.MLAdjustment != 0 {
		t.Errorf("adjustment = %v, want 0 for a neutral prediction", bd.MLAdjustment)
	}
	want := bd.RuleBasedTotal
	if want > 100 {
		want = 100
	}
	if bd.TotalScore != want {
		t.Errorf("total = %v, want rule-based total %v", bd.TotalScore, want)
	}

	if h.observer.degraded != 1 {
		t.Errorf("degraded observations = %d, want 1", h.observer.degraded)
	}
	if h.observer.predictions["neutral"] != 1 {
		t.Errorf("neutral predictions = %d, want 1", h.observer.predictions["neutral"])
	}
}

func TestScoreIsIdempotentForUnchangedPair(t *testing.T) {
	h := newHarness(t, Config{})
	h.models.set("alice", fixedArtifact(match.ModelBaseline, 0.85))

	issue, profile := testIssue("i1"), testProfile()

	first, err := h.service.Score(context.Background(), issue, profile)
	if err != nil {
		t.Fatalf("first Score: %v", err)
	}
	second, err := h.service.Score(context.Background(), issue, profile)
	if err != nil {
		t.Fatalf("second Score: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scoring diverged:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestScorePrefersEnsembleLineage(t *testing.T) {
	h := newHarness(t, Config{})
	h.models.set("alice", fixedArtifact(match.ModelBaseline, 0.2))
	h.models.set("alice", fixedArtifact(match.ModelEnsemble, 0.9))

	bd, err := h.service.Score(context.Background(), testIssue("i1"), testProfile())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if bd.MLGoodProb != 0.9 {
		t.Errorf("good prob = %v, want ensemble's 0.9", bd.MLGoodProb)
	}
	if h.observer.predictions["ensemble"] != 1 {
		t.Errorf("ensemble predictions = %d, want 1", h.observer.predictions["ensemble"])
	}
	if h.observer.degraded != 0 {
		t.Errorf("degraded observations = %d, want 0", h.observer.degraded)
	}
}

func TestScoreFallsBackToBaselineOnEnsembleError(t *testing.T) {
	h := newHarness(t, Config{})

	// An ensemble artifact expecting a width the serving path never produces
	// fails at prediction time.
	broken := fixedArtifact(match.ModelEnsemble, 0.9)
	broken.FeatureDim = 7
	h.models.set("alice", broken)
	h.models.set("alice", fixedArtifact(match.ModelBaseline, 0.8))

	bd, err := h.service.Score(context.Background(), testIssue("i1"), testProfile())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if bd.MLGoodProb != 0.8 {
		t.Errorf("good prob = %v, want baseline's 0.8", bd.MLGoodProb)
	}
	if h.observer.predictions["baseline"] != 1 {
		t.Errorf("baseline predictions = %d, want 1", h.observer.predictions["baseline"])
	}
}

func TestScoreAdjustmentBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		prob    float64
		wantAdj float64
	}{
		{"confident good", 0.9, 10},
		{"barely confident good", 0.75, 2.5},
		{"at the floor", 0.7, 0},
		{"neutral zone", 0.6, 0},
		{"confident bad", 0.1, -10},
		{"barely confident bad", 0.25, -2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Config{})
			h.models.set("alice", fixedArtifact(match.ModelBaseline, tt.prob))

			bd, err := h.service.Score(context.Background(), testIssue("i1"), testProfile())
			if err != nil {
				t.Fatalf("Score: %v", err)
			}

			if math.Abs(bd.MLAdjustment-tt.wantAdj) > 1e-9 {
				t.Errorf("adjustment = %v, want %v", bd.MLAdjustment, tt.wantAdj)
			}

			w := scorer.DefaultWeights()
			want := bd.RuleBasedTotal + tt.wantAdj*w.MLWeight
			if want > 100 {
				want = 100
			}
			if want < 0 {
				want = 0
			}
			if math.Abs(bd.TotalScore-want) > 1e-9 {
				t.Errorf("total = %v, want %v", bd.TotalScore, want)
			}
		})
	}
}

func TestScoreValidation(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	if _, err := h.service.Score(ctx, nil, testProfile()); !match.IsValidation(err) {
		t.Errorf("nil issue: err = %v, want validation error", err)
	}
	if _, err := h.service.Score(ctx, &match.IssueSnapshot{}, testProfile()); !match.IsValidation(err) {
		t.Errorf("empty issue id: err = %v, want validation error", err)
	}
	if _, err := h.service.Score(ctx, testIssue("i1"), nil); !match.IsValidation(err) {
		t.Errorf("nil profile: err = %v, want validation error", err)
	}
	if _, err := h.service.Score(ctx, testIssue("i1"), &match.Profile{}); !match.IsValidation(err) {
		t.Errorf("empty owner: err = %v, want validation error", err)
	}
}

func TestPredictQualityNeutralWithoutModel(t *testing.T) {
	h := newHarness(t, Config{})

	good, bad, err := h.service.PredictQuality(context.Background(), testIssue("i1"), testProfile())
	if err != nil {
		t.Fatalf("PredictQuality: %v", err)
	}
	if good != 0.5 || bad != 0.5 {
		t.Errorf("prediction = %v/%v, want 0.5/0.5", good, bad)
	}
}

func TestBatchScorePagesAndPersists(t *testing.T) {
	h := newHarness(t, Config{PageSize: 3, Parallelism: 2})

	issues := make([]match.IssueSnapshot, 7)
	for i := range issues {
		issues[i] = *testIssue(fmt.Sprintf("i%d", i))
	}

	scored, err := h.service.BatchScore(context.Background(), issues, testProfile())
	if err != nil {
		t.Fatalf("BatchScore: %v", err)
	}
	if scored != 7 {
		t.Errorf("scored = %d, want 7", scored)
	}

	// 7 issues at page size 3 is 3 storage transactions.
	if h.scores.upserts != 3 {
		t.Errorf("upsert transactions = %d, want 3", h.scores.upserts)
	}

	persisted, err := h.scores.Scores(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if len(persisted) != 7 {
		t.Fatalf("persisted %d totals, want 7", len(persisted))
	}
	for id, total := range persisted {
		if total < 0 || total > 100 {
			t.Errorf("total[%s] = %v outside [0, 100]", id, total)
		}
	}
}

func TestBatchScoreValidatesProfile(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.service.BatchScore(context.Background(), nil, nil); !match.IsValidation(err) {
		t.Errorf("err = %v, want validation error", err)
	}
	if _, err := h.service.BatchScore(context.Background(), nil, &match.Profile{}); !match.IsValidation(err) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestTopMatchesOrdersAndCaches(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	profile := testProfile()

	seed := map[string]float64{"i1": 50, "i2": 90, "i3": 90, "i4": 10}
	if err := h.scores.BulkUpsert(ctx, "alice", seed); err != nil {
		t.Fatalf("seed scores: %v", err)
	}

	ranked, err := h.service.TopMatches(ctx, profile, 3)
	if err != nil {
		t.Fatalf("TopMatches: %v", err)
	}

	want := []match.RankedIssue{
		{IssueID: "i2", TotalScore: 90},
		{IssueID: "i3", TotalScore: 90},
		{IssueID: "i1", TotalScore: 50},
	}
	if !reflect.DeepEqual(ranked, want) {
		t.Fatalf("ranked = %v, want %v", ranked, want)
	}

	// New persisted totals do not show through the cached listing.
	if err := h.scores.BulkUpsert(ctx, "alice", map[string]float64{"i5": 99}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	cached, err := h.service.TopMatches(ctx, profile, 3)
	if err != nil {
		t.Fatalf("TopMatches cached: %v", err)
	}
	if !reflect.DeepEqual(cached, want) {
		t.Errorf("cached listing = %v, want unchanged %v", cached, want)
	}

	// Invalidation exposes the new totals.
	h.service.InvalidateOwnerListings("alice")
	fresh, err := h.service.TopMatches(ctx, profile, 3)
	if err != nil {
		t.Fatalf("TopMatches fresh: %v", err)
	}
	if len(fresh) != 3 || fresh[0].IssueID != "i5" {
		t.Errorf("fresh listing = %v, want i5 first", fresh)
	}
}

func TestTopMatchesIncludesIndividuallyScoredIssues(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	profile := testProfile()

	batch := []match.IssueSnapshot{*testIssue("batch-1")}
	if _, err := h.service.BatchScore(ctx, batch, profile); err != nil {
		t.Fatalf("BatchScore: %v", err)
	}

	// Scored individually, so never persisted by a batch run.
	single, err := h.service.Score(ctx, testIssue("single-1"), profile)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	ranked, err := h.service.TopMatches(ctx, profile, 10)
	if err != nil {
		t.Fatalf("TopMatches: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("ranked %d issues, want both the batch and the individual one: %v", len(ranked), ranked)
	}

	totals := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		totals[r.IssueID] = r.TotalScore
	}
	if _, ok := totals["batch-1"]; !ok {
		t.Error("batch-scored issue missing from listing")
	}
	got, ok := totals["single-1"]
	if !ok {
		t.Fatal("individually scored issue missing from listing")
	}
	if got != single.TotalScore {
		t.Errorf("on-demand total = %v, want %v from the individual score", got, single.TotalScore)
	}
}

func TestTopMatchesKeyCoversProfileFields(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	if err := h.scores.BulkUpsert(ctx, "alice", map[string]float64{"i1": 80}); err != nil {
		t.Fatalf("seed scores: %v", err)
	}

	first := testProfile()
	if _, err := h.service.TopMatches(ctx, first, 5); err != nil {
		t.Fatalf("TopMatches: %v", err)
	}

	// A profile edit changes the cache key, so the listing is rebuilt rather
	// than served from the pre-edit entry.
	edited := testProfile()
	edited.Skills = append(edited.Skills, "rust")

	if err := h.scores.BulkUpsert(ctx, "alice", map[string]float64{"i2": 95}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ranked, err := h.service.TopMatches(ctx, edited, 5)
	if err != nil {
		t.Fatalf("TopMatches edited: %v", err)
	}
	if len(ranked) != 2 {
		t.Errorf("edited-profile listing = %v, want both issues", ranked)
	}
}

func TestTopMatchesValidation(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	if _, err := h.service.TopMatches(ctx, nil, 5); !match.IsValidation(err) {
		t.Errorf("nil profile: err = %v, want validation error", err)
	}
	if _, err := h.service.TopMatches(ctx, testProfile(), 0); !match.IsValidation(err) {
		t.Errorf("zero limit: err = %v, want validation error", err)
	}
}

func TestHealthyReportsStorageState(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	if err := h.service.Healthy(ctx); err != nil {
		t.Fatalf("Healthy: %v", err)
	}

	h.scores.loadErr = fmt.Errorf("store offline")
	if err := h.service.Healthy(ctx); err == nil {
		t.Fatal("Healthy should fail when score storage is unreachable")
	}
}

func trainingExamples(n int) []match.LabeledExample {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]match.LabeledExample, n)
	for i := 0; i < n; i++ {
		good := i%2 == 0
		issue := testIssue(fmt.Sprintf("train-%d", i))
		if good {
			issue.Repo = &match.RepoStats{Stars: 500 + i, Forks: 50, ContributorCount: 20, LastCommitAt: base}
		} else {
			issue.Repo = &match.RepoStats{Stars: 2, Forks: 0, ContributorCount: 1}
		}
		out[i] = match.LabeledExample{
			Issue:     *issue,
			Good:      good,
			LabeledAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestTrainPersistsAndInvalidates(t *testing.T) {
	h := newHarness(t, Config{})

	artifact, err := h.service.Train(context.Background(), testProfile(), trainingExamples(8), match.TrainOptions{
		ModelType: match.ModelBaseline,
		Force:     true,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if len(h.artifacts.saved) != 1 || h.artifacts.saved[0] != artifact {
		t.Errorf("saved artifacts = %d, want the returned artifact persisted once", len(h.artifacts.saved))
	}
	if len(h.models.invalidated) != 1 || h.models.invalidated[0] != "alice:baseline" {
		t.Errorf("invalidations = %v, want [alice:baseline]", h.models.invalidated)
	}
	if len(h.observer.trainings) != 1 || h.observer.trainings[0] != nil {
		t.Errorf("training observations = %v, want one success", h.observer.trainings)
	}
}

func TestTrainFailureKeepsActiveArtifact(t *testing.T) {
	h := newHarness(t, Config{})

	_, err := h.service.Train(context.Background(), testProfile(), trainingExamples(4), match.TrainOptions{
		ModelType: match.ModelBaseline,
		Force:     true,
	})
	if !match.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}

	if len(h.artifacts.saved) != 0 {
		t.Errorf("failed run persisted %d artifacts, want 0", len(h.artifacts.saved))
	}
	if len(h.models.invalidated) != 0 {
		t.Errorf("failed run invalidated %v, want nothing", h.models.invalidated)
	}
	if len(h.observer.trainings) != 1 || h.observer.trainings[0] == nil {
		t.Errorf("training observations = %v, want one failure", h.observer.trainings)
	}
}

func TestDeleteModel(t *testing.T) {
	h := newHarness(t, Config{})

	if err := h.service.DeleteModel(context.Background(), "alice", match.ModelEnsemble); err != nil {
		t.Fatalf("DeleteModel: %v", err)
	}

	if len(h.artifacts.deleted) != 1 || h.artifacts.deleted[0] != "alice:ensemble" {
		t.Errorf("deleted = %v, want [alice:ensemble]", h.artifacts.deleted)
	}
	if len(h.models.invalidated) != 1 || h.models.invalidated[0] != "alice:ensemble" {
		t.Errorf("invalidated = %v, want [alice:ensemble]", h.models.invalidated)
	}

	if err := h.service.DeleteModel(context.Background(), "", match.ModelEnsemble); !match.IsValidation(err) {
		t.Errorf("empty owner: err = %v, want validation error", err)
	}
}

func TestInvalidateModelCache(t *testing.T) {
	h := newHarness(t, Config{})

	h.service.InvalidateModelCache()

	if len(h.models.invalidated) != 1 || h.models.invalidated[0] != "*" {
		t.Errorf("invalidated = %v, want [*]", h.models.invalidated)
	}
}

func TestInvalidateOwnerCache(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	profile := testProfile()

	if err := h.scores.BulkUpsert(ctx, "alice", map[string]float64{"i1": 80}); err != nil {
		t.Fatalf("seed scores: %v", err)
	}
	if _, err := h.service.TopMatches(ctx, profile, 5); err != nil {
		t.Fatalf("TopMatches: %v", err)
	}

	h.service.InvalidateOwnerCache("alice")

	if len(h.models.invalidated) != 1 || h.models.invalidated[0] != "alice:*" {
		t.Errorf("model invalidations = %v, want [alice:*]", h.models.invalidated)
	}

	// The cached listing is gone, so new totals show through.
	if err := h.scores.BulkUpsert(ctx, "alice", map[string]float64{"i2": 95}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ranked, err := h.service.TopMatches(ctx, profile, 5)
	if err != nil {
		t.Fatalf("TopMatches: %v", err)
	}
	if len(ranked) != 2 || ranked[0].IssueID != "i2" {
		t.Errorf("ranked = %v, want i2 first after invalidation", ranked)
	}
}

func TestScoreTotalStaysInRange(t *testing.T) {
	h := newHarness(t, Config{})
	techPool := []string{"go", "python", "react", "kubernetes", "rust", "postgresql"}
	estimates := []string{"", "2 hours", "4-6 hours", "3 days", "weekend project", "quick fix"}
	issueTypes := []string{"", "bug", "feature", "docs", "refactoring"}

	rapid.Check(t, func(rt *rapid.T) {
		prob := rapid.Float64Range(0, 1).Draw(rt, "prob")
		h.models.set("alice", fixedArtifact(match.ModelBaseline, prob))

		created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(rapid.IntRange(0, 400).Draw(rt, "age_days")) * 24 * time.Hour)

		issue := &match.IssueSnapshot{
			ID:           rapid.StringMatching(`[a-z0-9]{10}`).Draw(rt, "id"),
			Title:        rapid.StringN(-1, 80, 80).Draw(rt, "title"),
			Body:         rapid.StringN(-1, 400, 400).Draw(rt, "body"),
			Difficulty:   match.Difficulty(rapid.IntRange(0, 4).Draw(rt, "difficulty")),
			IssueType:    rapid.SampledFrom(issueTypes).Draw(rt, "issue_type"),
			TimeEstimate: rapid.SampledFrom(estimates).Draw(rt, "estimate"),
			Technologies: rapid.SliceOfN(rapid.SampledFrom(techPool), 0, 4).Draw(rt, "technologies"),
			CreatedAt:    created,
			UpdatedAt:    created,
		}
		if rapid.Bool().Draw(rt, "has_repo") {
			issue.Repo = &match.RepoStats{
				Stars:            rapid.IntRange(0, 5000).Draw(rt, "stars"),
				Forks:            rapid.IntRange(0, 500).Draw(rt, "forks"),
				ContributorCount: rapid.IntRange(0, 100).Draw(rt, "contributors"),
				LastCommitAt:     created,
			}
		}

		profile := &match.Profile{
			Owner:       "alice",
			Skills:      rapid.SliceOfN(rapid.SampledFrom(techPool), 0, 5).Draw(rt, "skills"),
			Experience:  match.ExperienceLevel(rapid.IntRange(0, 3).Draw(rt, "experience")),
			Interests:   rapid.SliceOfN(rapid.SampledFrom([]string{"database", "web", "ml"}), 0, 3).Draw(rt, "interests"),
			WeeklyHours: rapid.IntRange(0, 60).Draw(rt, "weekly_hours"),
		}

		bd, err := h.service.Score(context.Background(), issue, profile)
		if err != nil {
			rt.Fatalf("Score: %v", err)
		}

		if bd.TotalScore < 0 || bd.TotalScore > 100 {
			rt.Fatalf("total = %v outside [0, 100]", bd.TotalScore)
		}
		if bd.MLGoodProb != prob {
			rt.Fatalf("good prob = %v, want classifier's %v", bd.MLGoodProb, prob)
		}
	})
}
