package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testProduct struct {
	Title string
	Price float64
}

func newTestCache(cfg Config) (*RateLimitedCache[testProduct], *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[testProduct](cfg, func() time.Time { return now })
	return c, &now
}

func TestConfigDefaults(t *testing.T) {
	c, _ := newTestCache(Config{})

	cfg := c.Config()
	require.Equal(t, 5, cfg.MaxRequestsPerWindow)
	require.Equal(t, time.Hour, cfg.WindowDuration)
	require.Equal(t, 720000*time.Millisecond, cfg.EntryTTL)
}

func TestLookupMissingKey(t *testing.T) {
	c, _ := newTestCache(Config{})

	_, ok := c.Lookup("product")
	require.False(t, ok)
}

func TestLookupRespectsTTL(t *testing.T) {
	c, now := newTestCache(Config{EntryTTL: 720000 * time.Millisecond})
	start := *now

	c.Store("product", testProduct{Title: "Tee", Price: 20})

	*now = start.Add(700000 * time.Millisecond)
	value, ok := c.Lookup("product")
	require.True(t, ok)
	require.Equal(t, "Tee", value.Title)
	require.Equal(t, 20.0, value.Price)

	*now = start.Add(720000*time.Millisecond - time.Nanosecond)
	_, ok = c.Lookup("product")
	require.True(t, ok)

	*now = start.Add(720000 * time.Millisecond)
	_, ok = c.Lookup("product")
	require.False(t, ok)

	*now = start.Add(720001 * time.Millisecond)
	_, ok = c.Lookup("product")
	require.False(t, ok)
}

func TestExpiredEntriesAreKeptUntilOverwritten(t *testing.T) {
	c, now := newTestCache(Config{EntryTTL: time.Minute})

	c.Store("product", testProduct{Title: "Tee"})
	*now = now.Add(2 * time.Minute)

	_, ok := c.Lookup("product")
	require.False(t, ok)
	require.Equal(t, 1, c.Status().StoredKeyCount)
}

func TestStoreOverwriteRestartsTTL(t *testing.T) {
	c, now := newTestCache(Config{EntryTTL: 10 * time.Minute})
	start := *now

	c.Store("product", testProduct{Title: "v1"})
	*now = start.Add(8 * time.Minute)
	c.Store("product", testProduct{Title: "v2"})

	*now = start.Add(15 * time.Minute)
	value, ok := c.Lookup("product")
	require.True(t, ok)
	require.Equal(t, "v2", value.Title)

	expires, ok := c.ExpiresAt("product")
	require.True(t, ok)
	require.Equal(t, start.Add(18*time.Minute), expires)

	*now = start.Add(18 * time.Minute)
	_, ok = c.Lookup("product")
	require.False(t, ok)
}

func TestLookupDoesNotTouchQuota(t *testing.T) {
	c, now := newTestCache(Config{MaxRequestsPerWindow: 1, WindowDuration: time.Minute})
	c.RecordRequest()
	before := c.Quota()

	c.Store("product", testProduct{Title: "Tee"})
	for i := 0; i < 10; i++ {
		_, _ = c.Lookup("product")
		_, _ = c.Lookup("missing")
	}
	*now = now.Add(2 * time.Minute)
	_, _ = c.Lookup("product")

	after := c.Quota()
	require.Equal(t, before.RequestCount, after.RequestCount)
	require.Equal(t, before.WindowStart, after.WindowStart)
}

func TestCheckQuotaDoesNotConsume(t *testing.T) {
	c, _ := newTestCache(Config{MaxRequestsPerWindow: 1})

	for i := 0; i < 5; i++ {
		require.True(t, c.CheckQuota())
	}
	require.Equal(t, 0, c.Status().RequestCount)
}

func TestQuotaCeiling(t *testing.T) {
	c, _ := newTestCache(Config{MaxRequestsPerWindow: 5})

	for i := 0; i < 5; i++ {
		require.True(t, c.CheckQuota(), "attempt %d", i+1)
		c.RecordRequest()
	}

	require.False(t, c.CheckQuota())
	require.Equal(t, 5, c.Status().RequestCount)
}

func TestWindowRollover(t *testing.T) {
	c, now := newTestCache(Config{MaxRequestsPerWindow: 2, WindowDuration: time.Hour})
	t0 := *now

	require.True(t, c.Acquire())
	require.True(t, c.Acquire())
	require.False(t, c.CheckQuota())

	*now = t0.Add(time.Hour - time.Millisecond)
	require.False(t, c.CheckQuota())

	*now = t0.Add(time.Hour + time.Millisecond)
	require.True(t, c.CheckQuota())

	state := c.Quota()
	require.Equal(t, 0, state.RequestCount)
	require.Equal(t, *now, state.WindowStart)
}

func TestWindowRolloverAtExactBoundary(t *testing.T) {
	c, now := newTestCache(Config{MaxRequestsPerWindow: 1, WindowDuration: time.Hour})
	t0 := *now

	require.True(t, c.Acquire())
	*now = t0.Add(time.Hour)
	require.True(t, c.CheckQuota())
}

func TestStatusTimeRemainingMayGoNegative(t *testing.T) {
	c, now := newTestCache(Config{WindowDuration: time.Hour})
	t0 := *now

	*now = t0.Add(15 * time.Minute)
	require.Equal(t, 45*time.Minute, c.Status().TimeRemainingInWindow)

	*now = t0.Add(90 * time.Minute)
	require.Equal(t, -30*time.Minute, c.Status().TimeRemainingInWindow)

	require.True(t, c.CheckQuota())
	require.Equal(t, time.Hour, c.Status().TimeRemainingInWindow)
}

func TestAcquireDeniedDoesNotRecord(t *testing.T) {
	c, _ := newTestCache(Config{MaxRequestsPerWindow: 1})

	require.True(t, c.Acquire())
	require.False(t, c.Acquire())
	require.Equal(t, 1, c.Status().RequestCount)
}

func TestAcquireIsAtomicUnderConcurrency(t *testing.T) {
	c := New[testProduct](Config{MaxRequestsPerWindow: 5}, nil)

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Acquire() {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(5), granted.Load())
	require.Equal(t, 5, c.Status().RequestCount)
}

func TestRecordBackoffBlocksGate(t *testing.T) {
	c, now := newTestCache(Config{MaxRequestsPerWindow: 5})
	t0 := *now

	c.RecordBackoff(30 * time.Second)
	require.False(t, c.CheckQuota())
	require.Equal(t, 30*time.Second, c.RetryAfter())

	*now = t0.Add(30 * time.Second)
	require.True(t, c.CheckQuota())
	require.Nil(t, c.Status().BackoffUntil)
}

func TestRetryAfterWhenExhausted(t *testing.T) {
	c, now := newTestCache(Config{MaxRequestsPerWindow: 1, WindowDuration: time.Hour})

	require.Zero(t, c.RetryAfter())
	require.True(t, c.Acquire())

	*now = now.Add(20 * time.Minute)
	require.Equal(t, 40*time.Minute, c.RetryAfter())
}

func TestPassThroughNeverCachesOrLimits(t *testing.T) {
	c, _ := newTestCache(PassThrough())

	c.Store("product", testProduct{Title: "Tee"})
	_, ok := c.Lookup("product")
	require.False(t, ok)

	for i := 0; i < 100; i++ {
		require.True(t, c.Acquire())
	}
	require.Zero(t, c.RetryAfter())
}

func TestClearKeepsQuota(t *testing.T) {
	c, _ := newTestCache(Config{})

	require.True(t, c.Acquire())
	c.Store("product", testProduct{Title: "Tee"})
	c.Clear()

	_, ok := c.Lookup("product")
	require.False(t, ok)

	status := c.Status()
	require.Equal(t, 0, status.StoredKeyCount)
	require.Equal(t, 1, status.RequestCount)
}
