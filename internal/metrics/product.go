package metrics

import (
	"errors"
	"time"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/observability"
)

// Product cache and upstream fetch metrics.
const (
	CacheLookupsTotal     = "product_cache_lookups_total"
	UpstreamFetchesTotal  = "product_upstream_fetches_total"
	UpstreamFetchDuration = "product_upstream_fetch_duration_ms"
	QuotaDeniedTotal      = "product_quota_denied_total"
	QuotaRequestsInWindow = "product_quota_requests_in_window"
	CartMutationsTotal    = "cart_mutations_total"
)

// Fetch outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
)

// RecordCacheLookup counts a product cache lookup.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(CacheLookupsTotal, 1, map[string]string{"result": result})
	}
}

// RecordUpstreamFetch counts one network call to the product endpoint.
func RecordUpstreamFetch(outcome string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(UpstreamFetchesTotal, 1, map[string]string{"outcome": outcome})
	_ = observability.TelemetrySystem.Histogram(UpstreamFetchDuration, duration, map[string]string{"outcome": outcome})
}

// RecordQuotaDenied counts a fetch refused by the request ceiling.
func RecordQuotaDenied() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(QuotaDeniedTotal, 1, nil)
	}
}

// SetQuotaRequestsInWindow reports how many fetches the current window has used.
func SetQuotaRequestsInWindow(count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(QuotaRequestsInWindow, float64(count), nil)
	}
}

// RecordCartMutation counts cart changes by operation and status.
func RecordCartMutation(operation string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(CartMutationsTotal, 1, map[string]string{
			"operation": operation,
			"status":    status,
		})
	}
}

// ObserveProductLoad records the metrics implied by one pass through the
// product loader: a cache lookup, a quota denial, or an upstream fetch.
func ObserveProductLoad(result *core.ProductResult, err error, elapsed time.Duration) {
	switch {
	case err == nil && result != nil && result.Provenance.FromCache:
		RecordCacheLookup(true)
	case errors.Is(err, core.ErrRateLimitExceeded):
		RecordCacheLookup(false)
		RecordQuotaDenied()
	case errors.Is(err, core.ErrMalformedResponse):
		RecordCacheLookup(false)
		RecordUpstreamFetch(OutcomeMalformed, elapsed)
	case err != nil:
		RecordCacheLookup(false)
		RecordUpstreamFetch(OutcomeFailed, elapsed)
	default:
		RecordCacheLookup(false)
		RecordUpstreamFetch(OutcomeSuccess, elapsed)
	}
}
