package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/cache"
	"github.com/tinyshop/storefront/internal/core/cart"
)

func sampleResult() *core.ProductResult {
	expires := time.Date(2026, 3, 1, 9, 12, 0, 0, time.UTC)
	return &core.ProductResult{
		Product: &core.Product{
			ID:          1,
			Title:       "Classic Tee",
			Price:       75,
			Description: "Cotton tee",
			ImageURL:    "https://img.example.test/tee.jpg",
			SizeOptions: []core.SizeOption{{ID: 1, Label: "S"}, {ID: 2, Label: "M"}},
		},
		Provenance: core.Provenance{
			FromCache:      true,
			CacheExpiresAt: &expires,
		},
	}
}

func sampleCart() CartView {
	return CartView{
		Items: []cart.Item{{ProductID: 1, Title: "Classic Tee", Price: 75, Size: "M", Quantity: 2}},
		Count: 2,
		Total: 150,
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":         FormatTable,
		"TABLE":    FormatTable,
		"json":     FormatJSON,
		"yml":      FormatYAML,
		"yaml":     FormatYAML,
		" md ":     FormatMarkdown,
		"markdown": FormatMarkdown,
	}
	for input, expected := range cases {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, got, input)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestTableFormatterProduct(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatProduct(sampleResult())
	require.NoError(t, err)
	require.Contains(t, rendered, "Classic Tee")
	require.Contains(t, rendered, "$75.00")
	require.Contains(t, rendered, "S, M")
	require.Contains(t, rendered, "cache (expires 2026-03-01T09:12:00Z)")
}

func TestTableFormatterNilProduct(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatProduct(nil)
	require.NoError(t, err)
	require.Empty(t, rendered)
}

func TestTableFormatterCart(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatCart(sampleCart())
	require.NoError(t, err)
	require.Contains(t, rendered, "$150.00")
	require.Contains(t, rendered, "Classic Tee")
}

func TestMarkdownFormatterCart(t *testing.T) {
	rendered, err := NewFormatter(FormatMarkdown).FormatCart(sampleCart())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(strings.ToLower(rendered), "| size |"), rendered)
}

func TestTableFormatterCacheStatus(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatCacheStatus(cache.Status{
		RequestCount:          5,
		MaxRequestsPerWindow:  5,
		TimeRemainingInWindow: 42 * time.Minute,
		StoredKeyCount:        1,
		EntryTTL:              12 * time.Minute,
	})
	require.NoError(t, err)
	require.Contains(t, rendered, "5 / 5")
	require.Contains(t, rendered, "42m0s")
	require.Contains(t, rendered, "12m0s")

	rendered, err = NewFormatter(FormatTable).FormatCacheStatus(cache.Status{MaxRequestsPerWindow: -1})
	require.NoError(t, err)
	require.Contains(t, rendered, "unlimited")
}

func TestJSONFormatterProduct(t *testing.T) {
	rendered, err := NewFormatter(FormatJSON).FormatProduct(sampleResult())
	require.NoError(t, err)

	var decoded core.ProductResult
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Equal(t, "Classic Tee", decoded.Product.Title)
	require.True(t, decoded.Provenance.FromCache)
	require.Contains(t, rendered, `"sizeOptions"`)
}

func TestYAMLFormatter(t *testing.T) {
	rendered, err := NewFormatter(FormatYAML).FormatCart(sampleCart())
	require.NoError(t, err)

	var decoded CartView
	require.NoError(t, yaml.Unmarshal([]byte(rendered), &decoded))
	require.Equal(t, 2, decoded.Count)
	require.Equal(t, "M", decoded.Items[0].Size)

	rendered, err = NewFormatter(FormatYAML).FormatCacheStatus(cache.Status{EntryTTL: 12 * time.Minute})
	require.NoError(t, err)
	require.Contains(t, rendered, "entry_ttl: 12m0s")
	require.NotContains(t, rendered, "backoff_until")
}
