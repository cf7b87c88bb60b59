// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package features

import "sync"

const defaultEmbeddingCacheSize = 4096

// embeddingEntry is a node in the embedding cache's doubly-linked list.
type embeddingEntry struct {
	key   string
	value []float64
	prev  *embeddingEntry
	next  *embeddingEntry
}

// embeddingCache is a thread-safe LRU cache of computed embeddings keyed by
// issue id + model name + field. Repeat extractions for an unchanged issue
// are O(1) with no provider call.
type embeddingCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*embeddingEntry

	// head.next is most recently used, tail.prev least recently used.
	head *embeddingEntry
	tail *embeddingEntry
}

func newEmbeddingCache(capacity int) *embeddingCache {
	if capacity <= 0 {
		capacity = defaultEmbeddingCacheSize
	}
	c := &embeddingCache{
		capacity: capacity,
		items:    make(map[string]*embeddingEntry, capacity),
		head:     &embeddingEntry{},
		tail:     &embeddingEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

func (c *embeddingCache) get(key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *embeddingCache) put(key string, value []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	e := &embeddingEntry{key: key, value: value}
	c.items[key] = e
	c.insertFront(e)
}

func (c *embeddingCache) moveToFront(e *embeddingEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.insertFront(e)
}

func (c *embeddingCache) insertFront(e *embeddingEntry) {
	e.next = c.head.next
	e.prev = c.head
	c.head.next.prev = e
	c.head.next = e
}

func (c *embeddingCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	oldest.prev.next = c.tail
	c.tail.prev = oldest.prev
	delete(c.items, oldest.key)
}
