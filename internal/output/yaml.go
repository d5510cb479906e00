package output

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/cache"
)

// YAMLFormatter renders results as YAML.
type YAMLFormatter struct{}

// FormatProduct renders the product with its provenance.
func (f *YAMLFormatter) FormatProduct(result *core.ProductResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return marshalYAML(result)
}

// FormatCart renders the cart view.
func (f *YAMLFormatter) FormatCart(view CartView) (string, error) {
	return marshalYAML(view)
}

// FormatCacheStatus renders the cache snapshot with human-readable durations.
func (f *YAMLFormatter) FormatCacheStatus(status cache.Status) (string, error) {
	return marshalYAML(struct {
		RequestCount          int    `yaml:"request_count"`
		MaxRequestsPerWindow  int    `yaml:"max_requests_per_window"`
		TimeRemainingInWindow string `yaml:"time_remaining_in_window"`
		StoredKeyCount        int    `yaml:"stored_key_count"`
		EntryTTL              string `yaml:"entry_ttl"`
		BackoffUntil          string `yaml:"backoff_until,omitempty"`
	}{
		RequestCount:          status.RequestCount,
		MaxRequestsPerWindow:  status.MaxRequestsPerWindow,
		TimeRemainingInWindow: status.TimeRemainingInWindow.String(),
		StoredKeyCount:        status.StoredKeyCount,
		EntryTTL:              status.EntryTTL.String(),
		BackoffUntil:          formatOptionalTime(status),
	})
}

func formatOptionalTime(status cache.Status) string {
	if status.BackoffUntil == nil {
		return ""
	}
	return status.BackoffUntil.UTC().Format(time.RFC3339)
}

func marshalYAML(v any) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
