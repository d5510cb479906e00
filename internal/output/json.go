package output

import (
	"encoding/json"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/cache"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatProduct renders the product with its provenance.
func (f *JSONFormatter) FormatProduct(result *core.ProductResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

// FormatCart renders the cart view.
func (f *JSONFormatter) FormatCart(view CartView) (string, error) {
	return f.marshal(view)
}

// FormatCacheStatus renders the cache snapshot. Durations are nanoseconds.
func (f *JSONFormatter) FormatCacheStatus(status cache.Status) (string, error) {
	return f.marshal(status)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
