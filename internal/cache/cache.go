// Package cache holds successful tool results for a bounded time.
//
// Two concurrent misses for the same key may both reach the adapter; the
// later Put wins. Tool data is read-mostly, so that is accepted.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Cyclone1070/beachai/internal/clock"
	"github.com/Cyclone1070/beachai/internal/tool"
)

type entry struct {
	result    tool.Result
	expiresAt time.Time
}

// Cache is a TTL cache of tool results with a size bound. When full, expired
// entries are dropped first, then the entry closest to expiry.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	clock      clock.Clock
	logger     *log.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(cache *Cache) { cache.clock = c }
}

// WithLogger sets the logger for eviction messages.
func WithLogger(l *log.Logger) Option {
	return func(cache *Cache) { cache.logger = l }
}

// New creates a Cache holding at most maxEntries results.
// A non-positive maxEntries is treated as 1.
func New(maxEntries int, opts ...Option) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &Cache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		clock:      clock.Real{},
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives the cache key for a tool call. encoding/json writes map keys
// in sorted order, so the key does not depend on argument insertion order.
// Callers pass normalized arguments (tool.ValidatedArgs.Args) so that
// equivalent values format identically.
func Key(toolName string, args map[string]any) string {
	canonical, err := json.Marshal(args)
	if err != nil {
		canonical = fmt.Appendf(nil, "%v", args)
	}
	sum := sha256.Sum256(canonical)
	return toolName + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for key. Entries at or past their expiry
// are never returned.
func (c *Cache) Get(key string) (tool.Result, bool) {
	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !now.Before(e.expiresAt) {
		return tool.Result{}, false
	}
	return e.result, true
}

// Put stores result under key for ttl. Failed results and non-positive TTLs
// are not stored; Put reports whether the result was cached. An existing
// entry for key is replaced, not mutated.
func (c *Cache) Put(key string, result tool.Result, ttl time.Duration) bool {
	if !result.Success || ttl <= 0 {
		return false
	}
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry{result: result, expiresAt: now.Add(ttl)}
	return true
}

// evictLocked makes room for one entry. Caller holds c.mu.
func (c *Cache) evictLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range c.entries {
		if oldestKey == "" || e.expiresAt.Before(oldest) || (e.expiresAt.Equal(oldest) && k < oldestKey) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	delete(c.entries, oldestKey)
	c.logger.Printf("[cache] evicted %s (expires %s)", oldestKey, oldest.Format(time.RFC3339))
}

// Purge removes expired entries and returns how many were dropped.
func (c *Cache) Purge() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// RunJanitor calls Purge every interval until ctx is done.
func (c *Cache) RunJanitor(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(interval):
			if n := c.Purge(); n > 0 {
				c.logger.Printf("[cache] purged %d expired entries", n)
			}
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
