package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tinyshop/storefront/internal/core/cart"
)

// LoadCart reads the JSON-encoded cart lines. A missing cart is empty.
func (s *Store) LoadCart(ctx context.Context) ([]cart.Item, error) {
	raw, found, err := s.GetValue(ctx, cart.StorageKey)
	if err != nil {
		return nil, err
	}
	if !found || raw == "" {
		return []cart.Item{}, nil
	}

	var items []cart.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

// SaveCart writes the cart lines as a JSON array. An empty cart removes the
// row instead.
func (s *Store) SaveCart(ctx context.Context, items []cart.Item) error {
	if len(items) == 0 {
		return s.DeleteValue(ctx, cart.StorageKey)
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.SetValue(ctx, cart.StorageKey, string(payload))
}
