// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/contribmatch/contribmatch/internal/match"
)

// FeatureStore persists feature cache entries keyed by (owner, issue).
// Writes are upserts with last-write-wins: concurrent writers for the same
// issue derive the same values from the same inputs, so no merge logic is
// needed.
type FeatureStore struct {
	db *badger.DB
}

// NewFeatureStore creates a feature store on the given database.
func NewFeatureStore(db *badger.DB) *FeatureStore {
	return &FeatureStore{db: db}
}

// Get returns the cached entry for (owner, issue), or nil when absent.
func (s *FeatureStore) Get(ctx context.Context, owner, issueID string) (*match.FeatureCacheEntry, error) {
	var entry match.FeatureCacheEntry
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(featureKey(owner, issueID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get feature entry: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// Put upserts the entry for (owner, issue), overwriting any existing row.
func (s *FeatureStore) Put(ctx context.Context, owner string, entry *match.FeatureCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal feature entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(featureKey(owner, entry.IssueID), data)
	})
}

// Delete removes the entry for (owner, issue). Missing rows are not an
// error; entries are safe to delete at any time.
func (s *FeatureStore) Delete(ctx context.Context, owner, issueID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(featureKey(owner, issueID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// List returns every cached entry for an owner. Used by ranked listings to
// find issues the engine has scored but never batch-persisted.
func (s *FeatureStore) List(ctx context.Context, owner string) ([]*match.FeatureCacheEntry, error) {
	prefix := []byte(featureKeyPrefix + owner + ":")
	var out []*match.FeatureCacheEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var entry match.FeatureCacheEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("read feature entry: %w", err)
			}
			out = append(out, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func featureKey(owner, issueID string) []byte {
	return []byte(featureKeyPrefix + owner + ":" + issueID)
}

// marshalScore and unmarshalScore round-trip persisted score rows.
func marshalScore(s storedScore) ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalScore(data []byte) (storedScore, error) {
	var s storedScore
	err := json.Unmarshal(data, &s)
	return s, err
}
