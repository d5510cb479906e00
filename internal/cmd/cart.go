package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tinyshop/storefront/internal/core/cart"
	"github.com/tinyshop/storefront/internal/metrics"
	"github.com/tinyshop/storefront/internal/observability"
	"github.com/tinyshop/storefront/internal/output"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the persisted shopping cart",
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cart items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(ctx context.Context, shopper *cart.Cart) error {
			return renderCart(cmd, shopper)
		})
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <size>",
	Short: "Add one unit of the product in a size",
	Long: `Add one unit of the storefront product in the given size.

The product is loaded through the rate-limited cache, so this spends one unit
of upstream quota.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(ctx context.Context, shopper *cart.Cart) error {
			product, err := loadProduct(ctx)
			if err != nil {
				return err
			}
			_, err = shopper.Add(ctx, product, args[0])
			metrics.RecordCartMutation("add", err == nil)
			if err != nil {
				return err
			}
			observability.CLILogger.Debug("Added to cart",
				zap.String("size", args[0]),
				zap.Int("count", shopper.Count()))
			return renderCart(cmd, shopper)
		})
	},
}

var cartUpdateCmd = &cobra.Command{
	Use:   "update <size> <delta>",
	Short: "Change the quantity of a size by delta",
	Long:  "Change the quantity of a cart line. A resulting quantity of zero or less removes the line.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid delta %q: %w", args[1], err)
		}
		return withCart(cmd, func(ctx context.Context, shopper *cart.Cart) error {
			_, err := shopper.Update(ctx, args[0], delta)
			metrics.RecordCartMutation("update", err == nil)
			if err != nil {
				return err
			}
			return renderCart(cmd, shopper)
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <size>",
	Short: "Remove a size from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(ctx context.Context, shopper *cart.Cart) error {
			_, err := shopper.Remove(ctx, args[0])
			metrics.RecordCartMutation("remove", err == nil)
			if err != nil {
				return err
			}
			return renderCart(cmd, shopper)
		})
	},
}

func init() {
	rootCmd.AddCommand(cartCmd)
	for _, sub := range []*cobra.Command{cartListCmd, cartAddCmd, cartUpdateCmd, cartRemoveCmd} {
		addOutputFlags(sub)
		cartCmd.AddCommand(sub)
	}
}

func withCart(cmd *cobra.Command, fn func(ctx context.Context, shopper *cart.Cart) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := currentConfig(ctx)
	if err != nil {
		return err
	}
	shopper, db, err := openCart(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(ctx, shopper)
}

func renderCart(cmd *cobra.Command, shopper *cart.Cart) error {
	items := shopper.Items()
	count, total := cart.Summarize(items)
	view := output.CartView{Items: items, Count: count, Total: total}
	return render(cmd, func(f output.Formatter) (string, error) {
		return f.FormatCart(view)
	})
}
