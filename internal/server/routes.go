package server

import (
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tinyshop/storefront/internal/config"
	"github.com/tinyshop/storefront/internal/observability"
	"github.com/tinyshop/storefront/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)
	s.router.Get("/health/startup", s.health.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	if s.storefront != nil {
		s.router.Route("/api", func(r chi.Router) {
			r.Get("/product", s.storefront.GetProduct)
			r.Post("/product/refresh", s.storefront.RefreshProduct)

			r.Get("/cache/status", s.storefront.CacheStatus)
			r.Delete("/cache", s.storefront.ClearCache)

			r.Get("/cart", s.storefront.GetCart)
			r.Post("/cart/items", s.storefront.AddCartItem)
			r.Patch("/cart/items/{size}", s.storefront.UpdateCartItem)
			r.Delete("/cart/items/{size}", s.storefront.RemoveCartItem)
		})
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint mounts /admin/signal when STOREFRONT_ADMIN_TOKEN is set.
func (s *Server) registerAdminEndpoint() {
	adminToken := os.Getenv(config.EnvPrefix + "ADMIN_TOKEN")
	logger := observability.ServerLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no " + config.EnvPrefix + "ADMIN_TOKEN set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil, // default global manager
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
	}
}
