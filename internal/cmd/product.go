package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/metrics"
	"github.com/tinyshop/storefront/internal/observability"
	"github.com/tinyshop/storefront/internal/output"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Inspect the storefront product",
}

var productShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch and display the storefront product",
	Long: `Fetch the storefront product through the rate-limited cache and display it.

Each invocation starts with an empty cache, so every run spends one unit of
upstream quota. Use 'serve' for a long-lived cache.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := currentConfig(ctx)
		if err != nil {
			return err
		}

		refresh, err := cmd.Flags().GetBool("refresh")
		if err != nil {
			return err
		}

		loader, _ := newProductLoader(cfg)
		load := loader.Load
		if refresh {
			load = loader.Refresh
		}

		start := time.Now()
		result, err := load(ctx)
		metrics.ObserveProductLoad(result, err, time.Since(start))
		if err != nil {
			observability.CLILogger.Debug("Product load failed",
				zap.String("source", loader.Source),
				zap.Error(err))
			return err
		}

		return render(cmd, func(f output.Formatter) (string, error) {
			return f.FormatProduct(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(productCmd)
	productCmd.AddCommand(productShowCmd)

	productShowCmd.Flags().Bool("refresh", false, "skip the cache lookup (still subject to the request quota)")
	addOutputFlags(productShowCmd)
}

// loadProduct fetches the product for commands that need it as input.
func loadProduct(ctx context.Context) (*core.Product, error) {
	cfg, err := currentConfig(ctx)
	if err != nil {
		return nil, err
	}
	loader, _ := newProductLoader(cfg)
	result, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return result.Product, nil
}
