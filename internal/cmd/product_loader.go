package cmd

import (
	"github.com/tinyshop/storefront/internal/config"
	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/cache"
	"github.com/tinyshop/storefront/internal/core/engine"
	"github.com/tinyshop/storefront/internal/core/fetcher"
)

// cacheConfig converts the cache settings into the cache's own config.
func cacheConfig(cfg config.CacheConfig) cache.Config {
	return cache.Config{
		MaxRequestsPerWindow: cfg.MaxRequestsPerWindow,
		WindowDuration:       cfg.Window,
		EntryTTL:             cfg.EntryTTL,
	}
}

// newProductLoader wires the rate-limited cache and the upstream fetcher.
func newProductLoader(cfg *config.Config) (*engine.ProductLoader, *cache.RateLimitedCache[*core.Product]) {
	productCache := cache.New[*core.Product](cacheConfig(cfg.Cache), nil)

	auth := cfg.Product.Auth
	httpFetcher := fetcher.NewHTTPFetcher(cfg.Product.URL, cfg.Product.UserAgent, cfg.Product.Timeout, fetcher.Credentials{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		TokenURL:     auth.TokenURL,
		Scopes:       auth.Scopes,
	})

	loader := &engine.ProductLoader{
		Cache:       productCache,
		Fetcher:     httpFetcher,
		Key:         core.ProductKey,
		Source:      httpFetcher.Source(),
		ToolVersion: versionInfo.Version,
	}
	return loader, productCache
}
