package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyshop/storefront/internal/config"
	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/cache"
	"github.com/tinyshop/storefront/internal/output"
	"github.com/tinyshop/storefront/internal/server/handlers"
)

func newRenderCommand(t *testing.T, format string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addOutputFlags(cmd)
	require.NoError(t, cmd.Flags().Set("output", format))
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	return cmd, buf
}

func TestCacheConfigMapsSettings(t *testing.T) {
	got := cacheConfig(config.CacheConfig{
		MaxRequestsPerWindow: 3,
		Window:               30 * time.Minute,
		EntryTTL:             -1,
	})
	assert.Equal(t, cache.Config{MaxRequestsPerWindow: 3, WindowDuration: 30 * time.Minute, EntryTTL: -1}, got)
}

func TestNewProductLoaderUsesConfiguredLimits(t *testing.T) {
	cfg := &config.Config{
		Product: config.ProductConfig{URL: "http://example.invalid/product", Timeout: time.Second},
		Cache:   config.CacheConfig{MaxRequestsPerWindow: 2, Window: time.Minute, EntryTTL: time.Second},
	}

	loader, productCache := newProductLoader(cfg)
	require.NotNil(t, loader)
	assert.Equal(t, core.ProductKey, loader.Key)
	assert.Equal(t, "http://example.invalid/product", loader.Source)

	status := productCache.Status()
	assert.Equal(t, 2, status.MaxRequestsPerWindow)
	assert.Equal(t, 0, status.RequestCount)
	assert.Equal(t, time.Second, status.EntryTTL)
}

func TestRenderWritesJSONToCommandOutput(t *testing.T) {
	cmd, buf := newRenderCommand(t, "json")

	err := render(cmd, func(f output.Formatter) (string, error) {
		return f.FormatCart(output.CartView{Count: 0, Total: 0})
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"count": 0`)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	cmd, _ := newRenderCommand(t, "xml")

	err := render(cmd, func(f output.Formatter) (string, error) {
		t.Fatal("formatter should not run")
		return "", nil
	})
	require.Error(t, err)
}

func TestRenderWritesToOutFile(t *testing.T) {
	cmd, buf := newRenderCommand(t, "yaml")
	path := filepath.Join(t.TempDir(), "nested", "status.yaml")
	require.NoError(t, cmd.Flags().Set("out", path))

	err := render(cmd, func(f output.Formatter) (string, error) {
		return f.FormatCacheStatus(cache.Status{RequestCount: 4, MaxRequestsPerWindow: 5})
	})
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "request_count: 4")
}

func TestStatusLines(t *testing.T) {
	until := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	lines := statusLines(cache.Status{
		RequestCount:          5,
		MaxRequestsPerWindow:  5,
		TimeRemainingInWindow: 90 * time.Second,
		StoredKeyCount:        1,
		EntryTTL:              12 * time.Minute,
		BackoffUntil:          &until,
	}, "")

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "local (fresh cache)")
	assert.Contains(t, joined, "5 / 5")
	assert.Contains(t, joined, "1m30s")
	assert.Contains(t, joined, "2026-01-02T03:04:05Z")

	unlimited := strings.Join(statusLines(cache.Status{MaxRequestsPerWindow: -1}, "http://srv"), "\n")
	assert.Contains(t, unlimited, "unlimited")
	assert.Contains(t, unlimited, "http://srv")
}

func TestFetchRemoteStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cache/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_count":3,"max_requests_per_window":5,"time_remaining_in_window_seconds":120.5,"stored_key_count":1,"entry_ttl_seconds":720}`))
	}))
	defer upstream.Close()

	status, err := fetchRemoteStatus(context.Background(), upstream.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, 3, status.RequestCount)
	assert.Equal(t, 5, status.MaxRequestsPerWindow)
	assert.Equal(t, 120500*time.Millisecond, status.TimeRemainingInWindow)
	assert.Equal(t, 12*time.Minute, status.EntryTTL)
	assert.Nil(t, status.BackoffUntil)
}

func TestRemoteRequestReportsStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer upstream.Close()

	var resp handlers.CacheStatusResponse
	err := remoteRequest(context.Background(), http.MethodGet, upstream.URL, "/api/cache/status", &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOpenStoreRequiresConfig(t *testing.T) {
	_, err := openStore(context.Background(), nil)
	require.Error(t, err)
}
