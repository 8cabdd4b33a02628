// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"fmt"
	"sync"
	"time"
)

// Cache defines an interface for caching DNS answers.
// Implement this interface to share answers between processes
// (e.g., Redis, memcached) via the [WithCache] option.
type Cache interface {
	// Get retrieves a cached answer by key.
	// Returns the answer and true if found and not expired,
	// or nil and false otherwise.
	Get(key string) (*Answer, bool)

	// Set stores an answer in the cache.
	Set(key string, val *Answer)

	// Flush removes all entries from the cache.
	Flush()
}

// cacheEntry holds a cached answer with its expiration time.
type cacheEntry struct {
	answer    *Answer
	expiresAt time.Time
}

// MemoryCache is an in-memory [Cache] with a fixed TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a cached answer by key.
// Returns false if the entry does not exist or has expired.
func (c *MemoryCache) Get(key string) (*Answer, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Another goroutine may have refreshed the entry meanwhile.
		if current, exists := c.entries[key]; exists && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.answer.clone(), true
}

// Set stores an answer with the configured TTL.
func (c *MemoryCache) Set(key string, val *Answer) {
	if val == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		answer:    val.clone(),
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Flush removes all entries from the cache.
func (c *MemoryCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(q Question, server string) string {
	return fmt.Sprintf("%s:%d:%s:%t:%t", q.Name, q.Type, server, q.DNSSEC, q.NoRecursion)
}
