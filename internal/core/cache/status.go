package cache

import (
	"time"

	"github.com/tinyshop/storefront/internal/core"
)

// Status is a read-only snapshot of the cache for diagnostics.
type Status struct {
	RequestCount          int           `json:"request_count" yaml:"request_count"`
	MaxRequestsPerWindow  int           `json:"max_requests_per_window" yaml:"max_requests_per_window"`
	TimeRemainingInWindow time.Duration `json:"time_remaining_in_window" yaml:"time_remaining_in_window"`
	StoredKeyCount        int           `json:"stored_key_count" yaml:"stored_key_count"`
	EntryTTL              time.Duration `json:"entry_ttl" yaml:"entry_ttl"`
	BackoffUntil          *time.Time    `json:"backoff_until,omitempty" yaml:"backoff_until,omitempty"`
}

// Status reports the quota counter, time left in the window and the number of
// stored keys. TimeRemainingInWindow goes negative when a rollover is due but
// has not been observed by CheckQuota yet; expired entries still count as
// stored.
func (c *RateLimitedCache[V]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		RequestCount:          c.quota.RequestCount,
		MaxRequestsPerWindow:  c.cfg.MaxRequestsPerWindow,
		TimeRemainingInWindow: c.cfg.WindowDuration - c.now().Sub(c.quota.WindowStart),
		StoredKeyCount:        len(c.entries),
		EntryTTL:              c.cfg.EntryTTL,
	}
	if c.quota.BackoffUntil != nil {
		until := *c.quota.BackoffUntil
		status.BackoffUntil = &until
	}
	return status
}

// Quota returns a copy of the current quota state.
func (c *RateLimitedCache[V]) Quota() core.QuotaState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.quota
	if state.BackoffUntil != nil {
		until := *state.BackoffUntil
		state.BackoffUntil = &until
	}
	return state
}
