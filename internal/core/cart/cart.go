// Package cart keeps the shopper's cart lines and persists them after every
// change. Cart state is independent of the product cache.
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tinyshop/storefront/internal/core"
)

// StorageKey is the key the cart is persisted under.
const StorageKey = "cart"

// MaxQuantity caps the units on a single cart line.
const MaxQuantity = 999

// Item is one cart line: a product in a single size.
type Item struct {
	ProductID int     `json:"id" yaml:"id"`
	Title     string  `json:"title" yaml:"title"`
	Price     float64 `json:"price" yaml:"price"`
	ImageURL  string  `json:"imageURL,omitempty" yaml:"image_url,omitempty"`
	Size      string  `json:"size" yaml:"size"`
	Quantity  int     `json:"quantity" yaml:"quantity"`
}

// Subtotal is price times quantity.
func (i Item) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Store persists cart lines.
type Store interface {
	LoadCart(ctx context.Context) ([]Item, error)
	SaveCart(ctx context.Context, items []Item) error
}

// Cart is safe for concurrent use.
type Cart struct {
	store Store
	mu    sync.Mutex
	items []Item
}

// Open loads the persisted cart. A nil store keeps the cart in memory.
func Open(ctx context.Context, store Store) (*Cart, error) {
	c := &Cart{store: store}
	if store == nil {
		return c, nil
	}
	items, err := store.LoadCart(ctx)
	if err != nil {
		return nil, err
	}
	c.items = normalize(items)
	return c, nil
}

// Add puts one unit of product in the given size into the cart, merging with
// an existing line for that size.
func (c *Cart) Add(ctx context.Context, product *core.Product, size string) ([]Item, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return nil, core.ErrSizeRequired
	}
	if product == nil {
		return nil, core.ErrProductUnavailable
	}
	if !product.HasSize(size) {
		return nil, core.ErrUnknownSize
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	if idx := indexOf(next, size); idx >= 0 {
		if next[idx].Quantity >= MaxQuantity {
			return nil, core.ErrQuantityLimit
		}
		next[idx].Quantity++
	} else {
		next = append(next, Item{
			ProductID: product.ID,
			Title:     product.Title,
			Price:     product.Price,
			ImageURL:  product.ImageURL,
			Size:      size,
			Quantity:  1,
		})
	}
	return c.commit(ctx, next)
}

// Update changes the quantity of the line for size by delta. Lines that drop
// to zero or below are removed; unknown sizes are a no-op. Raising a line past
// MaxQuantity fails with core.ErrQuantityLimit.
func (c *Cart) Update(ctx context.Context, size string, delta int) ([]Item, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return nil, core.ErrSizeRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	idx := indexOf(next, size)
	if idx < 0 {
		return c.snapshot(), nil
	}
	if delta > 0 && delta > MaxQuantity-next[idx].Quantity {
		return nil, core.ErrQuantityLimit
	}
	next[idx].Quantity += delta
	return c.commit(ctx, normalize(next))
}

// Remove deletes the line for size.
func (c *Cart) Remove(ctx context.Context, size string) ([]Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	idx := indexOf(next, strings.TrimSpace(size))
	if idx < 0 {
		return next, nil
	}
	next = append(next[:idx], next[idx+1:]...)
	return c.commit(ctx, next)
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Count is the total number of units in the cart.
func (c *Cart) Count() int {
	count, _ := Summarize(c.Items())
	return count
}

// Total is the sum of all line subtotals.
func (c *Cart) Total() float64 {
	_, total := Summarize(c.Items())
	return total
}

// Summarize returns the unit count and price total of items. Callers that
// report lines alongside totals should summarize one Items snapshot.
func Summarize(items []Item) (count int, total float64) {
	for _, item := range items {
		count += item.Quantity
		total += item.Subtotal()
	}
	return count, total
}

func (c *Cart) commit(ctx context.Context, next []Item) ([]Item, error) {
	if c.store != nil {
		if err := c.store.SaveCart(ctx, next); err != nil {
			return nil, err
		}
	}
	c.items = next
	return c.snapshot(), nil
}

func (c *Cart) snapshot() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func indexOf(items []Item, size string) int {
	for i, item := range items {
		if item.Size == size {
			return i
		}
	}
	return -1
}

func normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || strings.TrimSpace(item.Size) == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// MemoryStore keeps the persisted cart in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	items []Item
	Err   error
}

// LoadCart implements Store.
func (m *MemoryStore) LoadCart(ctx context.Context) ([]Item, error) {
	if m == nil {
		return nil, errors.New("memory store is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

// SaveCart implements Store.
func (m *MemoryStore) SaveCart(ctx context.Context, items []Item) error {
	if m == nil {
		return errors.New("memory store is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.items = make([]Item, len(items))
	copy(m.items, items)
	return nil
}
