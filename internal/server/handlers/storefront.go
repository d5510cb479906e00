package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/cache"
	"github.com/tinyshop/storefront/internal/core/cart"
	apperrors "github.com/tinyshop/storefront/internal/errors"
	"github.com/tinyshop/storefront/internal/metrics"
	"github.com/tinyshop/storefront/internal/observability"
)

const maxRequestBody = 64 << 10

// ProductLoader resolves the storefront product through the rate-limited cache.
type ProductLoader interface {
	Load(ctx context.Context) (*core.ProductResult, error)
	Refresh(ctx context.Context) (*core.ProductResult, error)
}

// CacheAdmin exposes cache diagnostics.
type CacheAdmin interface {
	Status() cache.Status
	Clear()
}

// CartService is the shopper's cart.
type CartService interface {
	Add(ctx context.Context, product *core.Product, size string) ([]cart.Item, error)
	Update(ctx context.Context, size string, delta int) ([]cart.Item, error)
	Remove(ctx context.Context, size string) ([]cart.Item, error)
	Items() []cart.Item
}

// Storefront serves the product, cache and cart API.
type Storefront struct {
	Products ProductLoader
	Cache    CacheAdmin
	Cart     CartService
}

// CacheStatusResponse is the JSON form of cache.Status with durations in seconds.
type CacheStatusResponse struct {
	RequestCount                 int        `json:"request_count"`
	MaxRequestsPerWindow         int        `json:"max_requests_per_window"`
	TimeRemainingInWindowSeconds float64    `json:"time_remaining_in_window_seconds"`
	StoredKeyCount               int        `json:"stored_key_count"`
	EntryTTLSeconds              float64    `json:"entry_ttl_seconds"`
	BackoffUntil                 *time.Time `json:"backoff_until,omitempty"`
}

// CartResponse lists cart lines with their totals.
type CartResponse struct {
	Items []cart.Item `json:"items"`
	Count int         `json:"count"`
	Total float64     `json:"total"`
}

// AddItemRequest is the body of POST /api/cart/items.
type AddItemRequest struct {
	Size string `json:"size"`
}

// UpdateItemRequest is the body of PATCH /api/cart/items/{size}.
type UpdateItemRequest struct {
	Delta int `json:"delta"`
}

// GetProduct serves the product from cache or a quota-gated fetch.
func (s *Storefront) GetProduct(w http.ResponseWriter, r *http.Request) {
	s.serveProduct(w, r, s.Products.Load)
}

// RefreshProduct bypasses the cache lookup. It still spends quota.
func (s *Storefront) RefreshProduct(w http.ResponseWriter, r *http.Request) {
	s.serveProduct(w, r, s.Products.Refresh)
}

func (s *Storefront) serveProduct(w http.ResponseWriter, r *http.Request, load func(context.Context) (*core.ProductResult, error)) {
	start := time.Now()
	result, err := load(r.Context())
	elapsed := time.Since(start)

	metrics.ObserveProductLoad(result, err, elapsed)
	if s.Cache != nil {
		metrics.SetQuotaRequestsInWindow(s.Cache.Status().RequestCount)
	}
	logProductLoad(result, err, elapsed)

	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CacheStatus reports quota usage and stored entries.
func (s *Storefront) CacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewCacheStatusResponse(s.Cache.Status()))
}

// ClearCache drops cached entries. Quota state is kept.
func (s *Storefront) ClearCache(w http.ResponseWriter, r *http.Request) {
	s.Cache.Clear()
	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Product cache cleared")
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCart lists the cart.
func (s *Storefront) GetCart(w http.ResponseWriter, r *http.Request) {
	s.writeCart(w, http.StatusOK)
}

// AddCartItem adds one unit of the product in the requested size.
func (s *Storefront) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Size) == "" {
		respondWithError(w, r, core.ErrSizeRequired)
		return
	}

	result, err := s.Products.Load(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	_, err = s.Cart.Add(r.Context(), result.Product, req.Size)
	metrics.RecordCartMutation("add", err == nil)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	s.writeCart(w, http.StatusOK)
}

// UpdateCartItem changes a line's quantity by delta.
func (s *Storefront) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		respondWithError(w, r, apperrors.NewValidationError("delta must be non-zero"))
		return
	}

	_, err := s.Cart.Update(r.Context(), chi.URLParam(r, "size"), req.Delta)
	metrics.RecordCartMutation("update", err == nil)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	s.writeCart(w, http.StatusOK)
}

// RemoveCartItem deletes a line.
func (s *Storefront) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	_, err := s.Cart.Remove(r.Context(), chi.URLParam(r, "size"))
	metrics.RecordCartMutation("remove", err == nil)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	s.writeCart(w, http.StatusOK)
}

func (s *Storefront) writeCart(w http.ResponseWriter, status int) {
	items := s.Cart.Items()
	if items == nil {
		items = []cart.Item{}
	}
	count, total := cart.Summarize(items)
	writeJSON(w, status, CartResponse{
		Items: items,
		Count: count,
		Total: total,
	})
}

// NewCacheStatusResponse converts a cache snapshot for JSON output.
func NewCacheStatusResponse(status cache.Status) CacheStatusResponse {
	return CacheStatusResponse{
		RequestCount:                 status.RequestCount,
		MaxRequestsPerWindow:         status.MaxRequestsPerWindow,
		TimeRemainingInWindowSeconds: status.TimeRemainingInWindow.Seconds(),
		StoredKeyCount:               status.StoredKeyCount,
		EntryTTLSeconds:              status.EntryTTL.Seconds(),
		BackoffUntil:                 status.BackoffUntil,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		message := "request body must be valid JSON"
		if err == io.EOF {
			message = "request body is required"
		}
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, message))
		return false
	}
	return true
}

func logProductLoad(result *core.ProductResult, err error, elapsed time.Duration) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}

	if err != nil {
		logger.Warn("Product load failed",
			zap.Error(err),
			zap.Duration("duration", elapsed))
		return
	}

	fields := []zap.Field{
		zap.Bool("from_cache", result.Provenance.FromCache),
		zap.Duration("duration", elapsed),
	}
	if result.Provenance.FetchID != "" {
		fields = append(fields, zap.String("fetch_id", result.Provenance.FetchID))
	}
	if result.Provenance.CacheExpiresAt != nil {
		fields = append(fields, zap.String("cache_expires_at", result.Provenance.CacheExpiresAt.Format(time.RFC3339)))
	}
	logger.Debug(fmt.Sprintf("Product served (%s)", sourceLabel(result)), fields...)
}

func sourceLabel(result *core.ProductResult) string {
	if result.Provenance.FromCache {
		return "cache"
	}
	return "upstream"
}
