package cmd

import (
	"context"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/tinyshop/storefront/internal/errors"
	"github.com/tinyshop/storefront/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check to verify the application can start: version info, configuration and the cart database.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		log.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		log.Debug("Version check passed", zap.String("version", versionInfo.Version))
		log.Info("✅ Version information available")

		cfg, err := currentConfig(ctx)
		if err != nil {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(ctx, err, "config load failed"))
			return
		}
		if strings.TrimSpace(cfg.Product.URL) == "" {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Product URL missing", errwrap.NewConfigInvalidError("product.url is empty"))
			return
		}
		log.Info("✅ Configuration loaded")

		db, err := openStore(ctx, cfg)
		if err != nil {
			ExitWithCode(log, foundry.ExitFileNotFound, "Cart database unavailable", errwrap.WrapDatabaseError(ctx, err, "store open failed"))
			return
		}
		defer func() { _ = db.Close() }()
		if err := db.Ping(ctx); err != nil {
			ExitWithCode(log, foundry.ExitFileNotFound, "Cart database unavailable", errwrap.WrapDatabaseError(ctx, err, "store ping failed"))
			return
		}
		log.Info("✅ Cart database reachable", zap.String("driver", db.Driver()))

		log.Info("")
		log.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
