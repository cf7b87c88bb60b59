// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package cache

import (
	"strings"
	"sync"
	"time"
)

// cleanupInterval is how often the background sweep removes expired entries.
const cleanupInterval = 5 * time.Minute

// SharedCache is the middle tier of the model cache and the backing store
// for ranked-listing results. Implementations must be safe for concurrent
// use.
type SharedCache interface {
	// Get retrieves a value. The second return is false when the key is
	// absent or expired.
	Get(key string) (interface{}, bool)

	// SetWithTTL stores a value that expires after ttl.
	SetWithTTL(key string, value interface{}, ttl time.Duration)

	// Delete removes a single key. Absent keys are a no-op.
	Delete(key string)

	// DeletePrefix removes every key with the given prefix.
	DeletePrefix(prefix string)
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

type entry struct {
	data      interface{}
	expiresAt time.Time
}

// Memory is a thread-safe in-memory TTL cache. A background sweep removes
// expired entries; Close stops it.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	statsMu sync.Mutex
	stats   Stats

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory creates an in-memory shared cache and starts its cleanup sweep.
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Get retrieves a value, evicting it if expired.
func (m *Memory) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.recordMiss()
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		m.recordMiss()
		m.recordEviction(1)
		return nil, false
	}

	m.recordHit()
	return e.data, true
}

// SetWithTTL stores a value that expires after ttl.
func (m *Memory) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = entry{data: value, expiresAt: time.Now().Add(ttl)}
	total := int64(len(m.entries))
	m.mu.Unlock()

	m.statsMu.Lock()
	m.stats.TotalKeys = total
	m.statsMu.Unlock()
}

// Delete removes a single key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	_, existed := m.entries[key]
	delete(m.entries, key)
	m.mu.Unlock()

	if existed {
		m.recordEviction(1)
	}
}

// DeletePrefix removes every key with the given prefix. Used for owner-scoped
// invalidation after retraining or profile changes.
func (m *Memory) DeletePrefix(prefix string) {
	m.mu.Lock()
	var evicted int64
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			evicted++
		}
	}
	m.mu.Unlock()

	if evicted > 0 {
		m.recordEviction(evicted)
	}
}

// GetStats returns a snapshot of the cache counters.
func (m *Memory) GetStats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

// Close stops the background cleanup sweep.
func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) cleanup() {
	now := time.Now()
	m.mu.Lock()
	var evicted int64
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			evicted++
		}
	}
	total := int64(len(m.entries))
	m.mu.Unlock()

	m.statsMu.Lock()
	m.stats.Evictions += evicted
	m.stats.TotalKeys = total
	m.statsMu.Unlock()
}

func (m *Memory) recordHit() {
	m.statsMu.Lock()
	m.stats.Hits++
	m.statsMu.Unlock()
}

func (m *Memory) recordMiss() {
	m.statsMu.Lock()
	m.stats.Misses++
	m.statsMu.Unlock()
}

func (m *Memory) recordEviction(n int64) {
	m.statsMu.Lock()
	m.stats.Evictions += n
	m.statsMu.Unlock()
}

var _ SharedCache = (*Memory)(nil)
