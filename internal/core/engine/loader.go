package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/fetcher"
)

// ProductCache is the subset of cache.RateLimitedCache the loader drives.
type ProductCache interface {
	Lookup(key string) (*core.Product, bool)
	ExpiresAt(key string) (time.Time, bool)
	Acquire() bool
	Store(key string, value *core.Product)
	RecordBackoff(retryAfter time.Duration)
	RetryAfter() time.Duration
}

// RateLimitError is returned when the quota gate refuses a fresh fetch.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter <= 0 {
		return core.ErrRateLimitExceeded.Error()
	}
	return fmt.Sprintf("%s (retry in %s)", core.ErrRateLimitExceeded, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return core.ErrRateLimitExceeded
}

// ProductLoader runs the cache-then-quota-then-fetch protocol for the single
// storefront product.
type ProductLoader struct {
	Cache       ProductCache
	Fetcher     fetcher.Fetcher
	Key         string
	Source      string
	ToolVersion string
	Clock       func() time.Time

	// inflight coalesces concurrent misses into one upstream call.
	inflight singleflight.Group
}

type loaded struct {
	product   *core.Product
	fromCache bool
}

// Load returns the cached product when live. Otherwise it consumes one unit
// of quota and fetches; a refused gate yields a *RateLimitError. Quota is
// spent before the call is issued, so failed fetches still count. Only a
// successful fetch is stored. Concurrent misses share one fetch; cancelling
// ctx abandons this caller's wait without aborting the shared fetch.
func (l *ProductLoader) Load(ctx context.Context) (*core.ProductResult, error) {
	if l == nil || l.Cache == nil || l.Fetcher == nil {
		return nil, errors.New("product loader is not configured")
	}

	requestedAt := l.now()
	if product, ok := l.Cache.Lookup(l.key()); ok {
		return l.result(product, requestedAt, true), nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	// The shared fetch outlives any one caller; HTTPFetcher.Timeout bounds it.
	flightCtx := context.WithoutCancel(ctx)
	ch := l.inflight.DoChan(l.key(), func() (any, error) {
		// A caller that raced the previous flight may find it stored.
		if product, ok := l.Cache.Lookup(l.key()); ok {
			return loaded{product: product, fromCache: true}, nil
		}
		product, err := l.fetch(flightCtx)
		if err != nil {
			return nil, err
		}
		return loaded{product: product}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		got := res.Val.(loaded)
		return l.result(got.product, requestedAt, got.fromCache), nil
	}
}

// Refresh skips the cache lookup and fetches, still subject to the quota gate.
func (l *ProductLoader) Refresh(ctx context.Context) (*core.ProductResult, error) {
	if l == nil || l.Cache == nil || l.Fetcher == nil {
		return nil, errors.New("product loader is not configured")
	}
	requestedAt := l.now()
	product, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return l.result(product, requestedAt, false), nil
}

func (l *ProductLoader) fetch(ctx context.Context) (*core.Product, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !l.Cache.Acquire() {
		return nil, &RateLimitError{RetryAfter: l.Cache.RetryAfter()}
	}

	product, err := l.Fetcher.Fetch(ctx)
	if err != nil {
		var fetchErr *fetcher.FetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode == http.StatusTooManyRequests {
			l.Cache.RecordBackoff(fetchErr.RetryAfter)
		}
		return nil, err
	}

	l.Cache.Store(l.key(), product)
	return product, nil
}

func (l *ProductLoader) result(product *core.Product, requestedAt time.Time, fromCache bool) *core.ProductResult {
	result := &core.ProductResult{
		Product: product,
		Provenance: core.Provenance{
			RequestedAt: requestedAt,
			ResolvedAt:  l.now(),
			Source:      l.Source,
			FromCache:   fromCache,
			ToolVersion: l.ToolVersion,
		},
	}
	if !fromCache {
		result.Provenance.FetchID = uuid.New().String()
	}
	if expires, ok := l.Cache.ExpiresAt(l.key()); ok {
		result.Provenance.CacheExpiresAt = &expires
	}
	return result
}

func (l *ProductLoader) key() string {
	if l.Key == "" {
		return core.ProductKey
	}
	return l.Key
}

func (l *ProductLoader) now() time.Time {
	if l != nil && l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
