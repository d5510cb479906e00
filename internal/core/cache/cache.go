// Package cache implements the bounded-rate fetch cache that sits in front of
// the upstream product API: a time-bounded value store plus a rolling request
// quota that gates every fresh fetch.
package cache

import (
	"sync"
	"time"

	"github.com/tinyshop/storefront/internal/core"
)

// Entry is a stored value and the instant it was written.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// RateLimitedCache memoizes values for EntryTTL and limits upstream fetches to
// MaxRequestsPerWindow per rolling window. It is safe for concurrent use.
//
// Expired entries are never returned but stay in the map until overwritten or
// cleared. The quota window only advances inside CheckQuota (or Acquire).
type RateLimitedCache[V any] struct {
	// Clock overrides time.Now; tests pin it.
	Clock func() time.Time

	cfg     Config
	mu      sync.Mutex
	entries map[string]Entry[V]
	quota   core.QuotaState
}

// New constructs a cache. The quota window starts at construction time.
func New[V any](cfg Config, clock func() time.Time) *RateLimitedCache[V] {
	c := &RateLimitedCache[V]{
		Clock:   clock,
		cfg:     configWithDefaults(cfg),
		entries: make(map[string]Entry[V]),
	}
	c.quota.WindowStart = c.now()
	return c
}

// Config returns the effective configuration.
func (c *RateLimitedCache[V]) Config() Config {
	return c.cfg
}

// Lookup returns the value stored under key if it is still live. It never
// touches quota state.
func (c *RateLimitedCache[V]) Lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok || !c.live(entry, c.now()) {
		return zero, false
	}
	return entry.Value, true
}

// ExpiresAt reports when the live entry under key stops being served.
func (c *RateLimitedCache[V]) ExpiresAt(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.live(entry, c.now()) {
		return time.Time{}, false
	}
	return entry.StoredAt.Add(c.cfg.EntryTTL), true
}

// Store creates or overwrites the entry for key, restarting its TTL.
func (c *RateLimitedCache[V]) Store(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{Value: value, StoredAt: c.now()}
}

// Clear drops every stored entry. Quota state is left untouched.
func (c *RateLimitedCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry[V])
}

func (c *RateLimitedCache[V]) live(entry Entry[V], now time.Time) bool {
	if c.cfg.EntryTTL < 0 {
		return false
	}
	return now.Sub(entry.StoredAt) < c.cfg.EntryTTL
}

func (c *RateLimitedCache[V]) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
