// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package storage provides BadgerDB-backed durable stores for the engine's
// owned state: model artifacts, feature cache entries, and persisted issue
// scores. All stores use upsert-by-key semantics with last-write-wins, and
// every row is safe to delete at any time; the engine recomputes or falls
// back on absence.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/contribmatch/contribmatch/internal/match"
	"github.com/contribmatch/contribmatch/internal/match/trainer"
)

// Key prefixes for BadgerDB storage.
const (
	artifactKeyPrefix = "artifact:"
	featureKeyPrefix  = "features:"
	scoreKeyPrefix    = "score:"
)

// ArtifactStore persists model artifacts in BadgerDB. Exactly one active
// artifact exists per (owner, model type): Save overwrites the previous one
// atomically, so a reader either sees the old artifact or the new one,
// never a partial write.
type ArtifactStore struct {
	db *badger.DB
}

// NewArtifactStore creates an artifact store on the given database.
func NewArtifactStore(db *badger.DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

// Save upserts the active artifact for (owner, model type).
func (s *ArtifactStore) Save(ctx context.Context, a *trainer.Artifact) error {
	data, err := encodeArtifact(a)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}

	key := artifactKey(a.Owner, a.ModelType)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Load returns the active artifact for (owner, model type).
// A missing or corrupt artifact resolves to match.ErrArtifactUnavailable.
func (s *ArtifactStore) Load(ctx context.Context, owner string, modelType match.ModelType) (*trainer.Artifact, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(artifactKey(owner, modelType))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return match.ErrArtifactUnavailable
		}
		if err != nil {
			return fmt.Errorf("get artifact: %w", err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	a, err := decodeArtifact(data)
	if err != nil {
		// Corrupt artifact: degrade rather than fail the serving path.
		return nil, fmt.Errorf("%w: %v", match.ErrArtifactUnavailable, err)
	}
	return a, nil
}

// Delete removes the active artifact for (owner, model type).
func (s *ArtifactStore) Delete(ctx context.Context, owner string, modelType match.ModelType) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(artifactKey(owner, modelType))
	})
}

// ListOwners returns the distinct owners with at least one persisted
// artifact, sorted.
func (s *ArtifactStore) ListOwners(ctx context.Context) ([]string, error) {
	prefix := []byte(artifactKeyPrefix)
	seen := make(map[string]struct{})

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			rest := string(it.Item().Key()[len(prefix):])
			// Keys are artifact:<owner>:<model_type>; the model type never
			// contains a colon, the owner may.
			if i := strings.LastIndex(rest, ":"); i > 0 {
				seen[rest[:i]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	owners := make([]string, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

func artifactKey(owner string, modelType match.ModelType) []byte {
	return []byte(artifactKeyPrefix + owner + ":" + modelType.String())
}

// ScoreStore persists total scores per (owner, issue). BatchScore writes
// one page per transaction to bound write amplification.
type ScoreStore struct {
	db *badger.DB
}

// NewScoreStore creates a score store on the given database.
func NewScoreStore(db *badger.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

// storedScore is the persisted per-issue score row.
type storedScore struct {
	TotalScore float64   `json:"total_score"`
	ScoredAt   time.Time `json:"scored_at"`
}

// BulkUpsert writes a page of scores in a single transaction.
func (s *ScoreStore) BulkUpsert(ctx context.Context, owner string, scores map[string]float64) error {
	now := time.Now()
	return s.db.Update(func(txn *badger.Txn) error {
		for issueID, total := range scores {
			data, err := marshalScore(storedScore{TotalScore: total, ScoredAt: now})
			if err != nil {
				return fmt.Errorf("marshal score for %s: %w", issueID, err)
			}
			if err := txn.Set(scoreKey(owner, issueID), data); err != nil {
				return fmt.Errorf("set score for %s: %w", issueID, err)
			}
		}
		return nil
	})
}

// Scores returns all persisted scores for an owner.
func (s *ScoreStore) Scores(ctx context.Context, owner string) (map[string]float64, error) {
	prefix := []byte(scoreKeyPrefix + owner + ":")
	out := make(map[string]float64)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			issueID := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				row, err := unmarshalScore(val)
				if err != nil {
					return err
				}
				out[issueID] = row.TotalScore
				return nil
			})
			if err != nil {
				return fmt.Errorf("read score for %s: %w", issueID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scoreKey(owner, issueID string) []byte {
	return []byte(scoreKeyPrefix + owner + ":" + issueID)
}
