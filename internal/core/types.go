package core

import "time"

// ProductKey is the cache key the storefront stores its single product under.
const ProductKey = "product"

// SizeOption is one selectable size of a product.
type SizeOption struct {
	ID    int    `json:"id,omitempty" yaml:"id,omitempty"`
	Label string `json:"label" yaml:"label"`
}

// Product is the record returned by the remote product API.
type Product struct {
	ID          int          `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Price       float64      `json:"price" yaml:"price"`
	Description string       `json:"description" yaml:"description"`
	ImageURL    string       `json:"imageURL" yaml:"image_url"`
	SizeOptions []SizeOption `json:"sizeOptions" yaml:"size_options"`
}

// HasSize reports whether the product offers the given size label.
func (p *Product) HasSize(label string) bool {
	if p == nil {
		return false
	}
	for _, opt := range p.SizeOptions {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// Provenance captures metadata about how a product load was resolved.
type Provenance struct {
	FetchID        string     `json:"fetch_id,omitempty" yaml:"fetch_id,omitempty"`
	RequestedAt    time.Time  `json:"requested_at" yaml:"requested_at"`
	ResolvedAt     time.Time  `json:"resolved_at" yaml:"resolved_at"`
	Source         string     `json:"source" yaml:"source"`
	FromCache      bool       `json:"from_cache" yaml:"from_cache"`
	CacheExpiresAt *time.Time `json:"cache_expires_at,omitempty" yaml:"cache_expires_at,omitempty"`
	ToolVersion    string     `json:"tool_version,omitempty" yaml:"tool_version,omitempty"`
}

// ProductResult wraps a product with its provenance.
type ProductResult struct {
	Product    *Product   `json:"product" yaml:"product"`
	Provenance Provenance `json:"provenance" yaml:"provenance"`
}
