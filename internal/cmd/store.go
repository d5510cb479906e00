package cmd

import (
	"context"
	"fmt"

	"github.com/tinyshop/storefront/internal/config"
	"github.com/tinyshop/storefront/internal/core/cart"
	"github.com/tinyshop/storefront/internal/core/store"
)

// openStore opens and migrates the configured cart database.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("load config: configuration not loaded")
	}
	return store.Open(ctx, cfg.Store)
}

// openCart opens the database and restores the persisted cart. The caller
// must close the returned store.
func openCart(ctx context.Context, cfg *config.Config) (*cart.Cart, *store.Store, error) {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	shopper, err := cartFromStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return shopper, db, nil
}

func cartFromStore(ctx context.Context, db *store.Store) (*cart.Cart, error) {
	shopper, err := cart.Open(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}
	return shopper, nil
}
