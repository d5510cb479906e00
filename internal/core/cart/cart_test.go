package cart

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyshop/storefront/internal/core"
)

func testProduct() *core.Product {
	return &core.Product{
		ID:    7,
		Title: "Classic Tee",
		Price: 75,
		SizeOptions: []core.SizeOption{
			{ID: 1, Label: "S"},
			{ID: 2, Label: "M"},
			{ID: 3, Label: "L"},
		},
	}
}

func TestAddMergesBySize(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	c, err := Open(ctx, store)
	require.NoError(t, err)

	_, err = c.Add(ctx, testProduct(), "M")
	require.NoError(t, err)
	_, err = c.Add(ctx, testProduct(), "M")
	require.NoError(t, err)
	items, err := c.Add(ctx, testProduct(), "L")
	require.NoError(t, err)

	require.Len(t, items, 2)
	require.Equal(t, "M", items[0].Size)
	require.Equal(t, 2, items[0].Quantity)
	require.Equal(t, "L", items[1].Size)
	require.Equal(t, 3, c.Count())
	require.InDelta(t, 225.0, c.Total(), 0.001)

	persisted, err := store.LoadCart(ctx)
	require.NoError(t, err)
	require.Equal(t, items, persisted)
}

func TestAddRequiresSize(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, nil)
	require.NoError(t, err)

	_, err = c.Add(ctx, testProduct(), "  ")
	require.ErrorIs(t, err, core.ErrSizeRequired)

	_, err = c.Add(ctx, testProduct(), "XXL")
	require.ErrorIs(t, err, core.ErrUnknownSize)

	_, err = c.Add(ctx, nil, "M")
	require.ErrorIs(t, err, core.ErrProductUnavailable)

	require.Zero(t, c.Count())
}

func TestUpdateAdjustsAndRemoves(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, &MemoryStore{})
	require.NoError(t, err)

	_, err = c.Add(ctx, testProduct(), "S")
	require.NoError(t, err)

	items, err := c.Update(ctx, "S", 2)
	require.NoError(t, err)
	require.Equal(t, 3, items[0].Quantity)

	items, err = c.Update(ctx, "S", -3)
	require.NoError(t, err)
	require.Empty(t, items)

	items, err = c.Update(ctx, "M", 1)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, &MemoryStore{})
	require.NoError(t, err)

	_, err = c.Add(ctx, testProduct(), "S")
	require.NoError(t, err)
	_, err = c.Add(ctx, testProduct(), "M")
	require.NoError(t, err)

	items, err := c.Remove(ctx, "S")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "M", items[0].Size)
}

func TestOpenRestoresPersistedCart(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	require.NoError(t, store.SaveCart(ctx, []Item{
		{ProductID: 7, Title: "Classic Tee", Price: 75, Size: "M", Quantity: 2},
		{ProductID: 7, Title: "Classic Tee", Price: 75, Size: "L", Quantity: 0},
	}))

	c, err := Open(ctx, store)
	require.NoError(t, err)
	require.Len(t, c.Items(), 1)
	require.Equal(t, 2, c.Count())
}

func TestSaveFailureLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	c, err := Open(ctx, store)
	require.NoError(t, err)

	store.Err = errors.New("disk full")
	_, err = c.Add(ctx, testProduct(), "M")
	require.Error(t, err)
	require.Zero(t, c.Count())
}

func TestUpdateRejectsQuantityOverflow(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, &MemoryStore{})
	require.NoError(t, err)
	_, err = c.Add(ctx, testProduct(), "M")
	require.NoError(t, err)

	_, err = c.Update(ctx, "M", math.MaxInt)
	require.ErrorIs(t, err, core.ErrQuantityLimit)

	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, 1, items[0].Quantity)

	items, err = c.Update(ctx, "M", MaxQuantity-1)
	require.NoError(t, err)
	require.Equal(t, MaxQuantity, items[0].Quantity)

	_, err = c.Add(ctx, testProduct(), "M")
	require.ErrorIs(t, err, core.ErrQuantityLimit)

	// large negative deltas still remove the line
	items, err = c.Update(ctx, "M", math.MinInt)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestSummarize(t *testing.T) {
	count, total := Summarize([]Item{
		{Size: "S", Price: 75, Quantity: 2},
		{Size: "L", Price: 10.5, Quantity: 1},
	})
	require.Equal(t, 3, count)
	require.InDelta(t, 160.5, total, 0.001)

	count, total = Summarize(nil)
	require.Zero(t, count)
	require.Zero(t, total)
}
