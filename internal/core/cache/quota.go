package cache

import "time"

// CheckQuota reports whether another upstream fetch is allowed. When the
// current window has elapsed it first resets the counter and starts a new
// window at now. It never consumes quota.
func (c *RateLimitedCache[V]) CheckQuota() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.checkLocked(c.now())
}

// RecordRequest counts one upstream fetch attempt. Callers record every
// attempt, including ones that end up failing, and never record cache hits.
func (c *RateLimitedCache[V]) RecordRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quota.RequestCount++
}

// Acquire performs CheckQuota and RecordRequest as one step, so concurrent
// callers cannot both pass the gate on the last remaining slot.
func (c *RateLimitedCache[V]) Acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.checkLocked(c.now()) {
		return false
	}
	c.quota.RequestCount++
	return true
}

// RecordBackoff blocks the quota gate until now+retryAfter, on top of the
// request ceiling. Non-positive durations are ignored.
func (c *RateLimitedCache[V]) RecordBackoff(retryAfter time.Duration) {
	if retryAfter <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	until := c.now().Add(retryAfter)
	c.quota.BackoffUntil = &until
}

// RetryAfter estimates how long until the gate may open again. It is zero when
// the gate would currently allow a fetch. It does not advance the window.
func (c *RateLimitedCache[V]) RetryAfter() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.quota.BackoffUntil != nil && now.Before(*c.quota.BackoffUntil) {
		return c.quota.BackoffUntil.Sub(now)
	}
	if c.cfg.unlimited() || c.quota.RequestCount < c.cfg.MaxRequestsPerWindow {
		return 0
	}
	wait := c.quota.WindowStart.Add(c.cfg.WindowDuration).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

func (c *RateLimitedCache[V]) checkLocked(now time.Time) bool {
	if now.Sub(c.quota.WindowStart) >= c.cfg.WindowDuration {
		c.quota.RequestCount = 0
		c.quota.WindowStart = now
	}

	if c.quota.BackoffUntil != nil {
		if now.Before(*c.quota.BackoffUntil) {
			return false
		}
		c.quota.BackoffUntil = nil
	}

	if c.cfg.unlimited() {
		return true
	}
	return c.quota.RequestCount < c.cfg.MaxRequestsPerWindow
}
