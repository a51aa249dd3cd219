// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is a process-local Cacher.
type MemoryCache struct {
	data       sync.Map // string -> *memoryEntry
	defaultTTL time.Duration
	maxSize    int // maximum number of entries, 0 = unlimited
	stopCh     chan struct{}
	closed     atomic.Bool

	// evictMu serialises eviction so concurrent writers do not evict twice.
	evictMu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	items  atomic.Int64
	size   atomic.Int64
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // maximum number of entries, 0 = unlimited
	CleanupInterval time.Duration // expired-entry sweep interval, 0 = no sweeper
}

// NewMemoryCache creates a memory cache. When CleanupInterval is set a
// background sweeper runs until Close.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}
	c := &MemoryCache{
		defaultTTL: opts.DefaultTTL,
		maxSize:    opts.MaxSize,
		stopCh:     make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(opts.CleanupInterval)
	}

	return c
}

// Get retrieves a copy of the value stored under key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	val, ok := c.data.Load(key)
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	entry := val.(*memoryEntry)
	if entry.expired(time.Now()) {
		c.remove(key, entry)
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a copy of value. When the cache is full, expired entries are
// dropped first and then the entry closest to expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if _, exists := c.data.Load(key); !exists && c.maxSize > 0 && int(c.items.Load()) >= c.maxSize {
		c.evict()
	}

	v := make([]byte, len(value))
	copy(v, value)
	entry := &memoryEntry{value: v, expiresAt: time.Now().Add(ttl)}

	if old, loaded := c.data.Swap(key, entry); loaded {
		c.size.Add(-int64(len(old.(*memoryEntry).value)))
	} else {
		c.items.Add(1)
	}
	c.size.Add(int64(len(v)))
	c.sets.Add(1)
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if val, ok := c.data.Load(key); ok {
		c.remove(key, val.(*memoryEntry))
	}
	return nil
}

// DeleteByPrefix removes all keys starting with prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.data.Range(func(key, value any) bool {
		if k := key.(string); strings.HasPrefix(k, prefix) {
			c.remove(k, value.(*memoryEntry))
		}
		return true
	})
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	return c.DeleteByPrefix(ctx, "")
}

// Has reports whether key holds an unexpired value.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}
	val, ok := c.data.Load(key)
	if !ok {
		return false, nil
	}
	entry := val.(*memoryEntry)
	if entry.expired(time.Now()) {
		c.remove(key, entry)
		return false, nil
	}
	return true, nil
}

// Close stops the sweeper. Further calls return ErrCacheClosed.
func (c *MemoryCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns current cache statistics.
func (c *MemoryCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Items:   int(c.items.Load()),
		HitRate: hitRate(hits, misses),
		Size:    c.size.Load(),
	}
}

// ResetStats resets the traffic counters.
func (c *MemoryCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
}

// remove deletes key only if it still holds entry.
func (c *MemoryCache) remove(key string, entry *memoryEntry) {
	if c.data.CompareAndDelete(key, entry) {
		c.items.Add(-1)
		c.size.Add(-int64(len(entry.value)))
	}
}

func (c *MemoryCache) removeExpired() int {
	now := time.Now()
	removed := 0
	c.data.Range(func(key, value any) bool {
		if entry := value.(*memoryEntry); entry.expired(now) {
			c.remove(key.(string), entry)
			removed++
		}
		return true
	})
	return removed
}

func (c *MemoryCache) evict() {
	c.evictMu.Lock()
	defer c.evictMu.Unlock()

	if c.removeExpired() > 0 {
		return
	}

	var (
		victimKey   string
		victimEntry *memoryEntry
	)
	c.data.Range(func(key, value any) bool {
		entry := value.(*memoryEntry)
		if victimEntry == nil || entry.expiresAt.Before(victimEntry.expiresAt) {
			victimKey, victimEntry = key.(string), entry
		}
		return true
	})
	if victimEntry != nil {
		c.remove(victimKey, victimEntry)
	}
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
