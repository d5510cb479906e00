package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinyshop/storefront/internal/core"
)

const teeJSON = `{"id":1,"title":"Classic Tee","price":75,"description":"Soft cotton","imageURL":"https://example.test/tee.jpg","sizeOptions":[{"id":1,"label":"S"},{"id":2,"label":"M"},{"id":3,"label":"L"}]}`

func TestHTTPFetcherSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.Equal(t, "storefront-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(teeJSON))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, "storefront-test", time.Second, Credentials{})

	product, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Classic Tee", product.Title)
	require.Equal(t, 75.0, product.Price)
	require.Len(t, product.SizeOptions, 3)
	require.True(t, product.HasSize("M"))
	require.False(t, product.HasSize("XL"))
}

func TestHTTPFetcherNon2xxIsFetchFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	f := &HTTPFetcher{Client: server.Client(), URL: server.URL}

	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, core.ErrFetchFailed)
	require.NotErrorIs(t, err, core.ErrMalformedResponse)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	require.Equal(t, "boom", string(fetchErr.Body))
}

func TestHTTPFetcherRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := &HTTPFetcher{Client: server.Client(), URL: server.URL}

	_, err := f.Fetch(context.Background())
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusTooManyRequests, fetchErr.StatusCode)
	require.Equal(t, 2*time.Minute, fetchErr.RetryAfter)
}

func TestHTTPFetcherTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	f := &HTTPFetcher{Client: &http.Client{Timeout: time.Second}, URL: url}

	_, err := f.Fetch(context.Background())
	require.ErrorIs(t, err, core.ErrFetchFailed)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Zero(t, fetchErr.StatusCode)
}

func TestHTTPFetcherMalformed(t *testing.T) {
	cases := map[string]string{
		"NotJSON":        `<html>oops</html>`,
		"PriceAsString":  `{"title":"Tee","price":"20","sizeOptions":[]}`,
		"MissingTitle":   `{"price":20,"sizeOptions":[{"label":"S"}]}`,
		"MissingSizes":   `{"title":"Tee","price":20}`,
		"UnlabelledSize": `{"title":"Tee","price":20,"sizeOptions":[{"id":1}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			f := &HTTPFetcher{Client: server.Client(), URL: server.URL}

			_, err := f.Fetch(context.Background())
			require.ErrorIs(t, err, core.ErrMalformedResponse)
		})
	}
}

func TestRetryAfterHeader(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	resp := &http.Response{Header: http.Header{}}
	require.Zero(t, retryAfterHeader(resp, now))

	resp.Header.Set("Retry-After", "30")
	require.Equal(t, 30*time.Second, retryAfterHeader(resp, now))

	resp.Header.Set("Retry-After", now.Add(time.Minute).Format(http.TimeFormat))
	require.Equal(t, time.Minute, retryAfterHeader(resp, now))

	resp.Header.Set("Retry-After", "soon")
	require.Zero(t, retryAfterHeader(resp, now))
}

func TestSourceDefaultsToProductURL(t *testing.T) {
	f := &HTTPFetcher{}
	require.Equal(t, DefaultURL, f.Source())
}
