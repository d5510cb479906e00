package cmd

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tinyshop/storefront/internal/config"
	"github.com/tinyshop/storefront/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// loadedConfig is populated by initConfig before any command runs.
	loadedConfig *config.Config

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Storefront product service with a rate-limited product cache",
	Long: fmt.Sprintf(`%s - storefront product service.

Fetches the storefront product from the upstream product API through an
in-memory cache that allows at most a fixed number of upstream calls per
rolling window, and keeps the shopper's cart in a local libsql database.

Use the subcommands to perform specific operations.`, config.AppName),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep config loading from emitting metrics to stdout. serve installs
	// the real telemetry system later.
	observability.DisableMetrics()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// initConfig sets up the CLI logger and loads configuration.
func initConfig() {
	observability.InitCLILogger(config.AppName, verbose)

	cfg, err := config.LoadFile(context.Background(), cfgFile)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load configuration", err)
	}
	loadedConfig = cfg

	if verbose {
		observability.CLILogger.Debug("Configuration loaded",
			zap.String("config_file", cfgFile),
			zap.String("product_url", cfg.Product.URL),
			zap.Int("max_requests_per_window", cfg.Cache.MaxRequestsPerWindow))
	}
}

// currentConfig returns the configuration loaded by initConfig, loading it
// on demand when a command runs outside cobra's initialization.
func currentConfig(ctx context.Context) (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	cfg, err := config.LoadFile(ctx, cfgFile)
	if err != nil {
		return nil, err
	}
	loadedConfig = cfg
	return cfg, nil
}
