// Package output renders products, carts and cache diagnostics for the CLI.
package output

import (
	"fmt"
	"strings"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/cache"
	"github.com/tinyshop/storefront/internal/core/cart"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// CartView is a cart snapshot with its totals.
type CartView struct {
	Items []cart.Item `json:"items" yaml:"items"`
	Count int         `json:"count" yaml:"count"`
	Total float64     `json:"total" yaml:"total"`
}

// Formatter renders storefront data.
type Formatter interface {
	FormatProduct(result *core.ProductResult) (string, error)
	FormatCart(view CartView) (string, error)
	FormatCacheStatus(status cache.Status) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &TableFormatter{Markdown: true}
	default:
		return &TableFormatter{}
	}
}

// Price renders an amount the way the storefront shows it.
func Price(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func sizeLabels(product *core.Product) string {
	if product == nil || len(product.SizeOptions) == 0 {
		return "-"
	}
	labels := make([]string, 0, len(product.SizeOptions))
	for _, opt := range product.SizeOptions {
		labels = append(labels, opt.Label)
	}
	return strings.Join(labels, ", ")
}
