package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/tinyshop/storefront/internal/core/cache"
	"github.com/tinyshop/storefront/internal/output"
	"github.com/tinyshop/storefront/internal/server/handlers"
)

const remoteTimeout = 10 * time.Second

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the product cache",
	Long: `Inspect the product cache of a running server, or the configured limits
when no server is given.`,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show quota usage and stored entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		serverURL, err := cmd.Flags().GetString("server")
		if err != nil {
			return err
		}

		var status cache.Status
		if strings.TrimSpace(serverURL) != "" {
			status, err = fetchRemoteStatus(ctx, serverURL)
			if err != nil {
				return err
			}
		} else {
			cfg, err := currentConfig(ctx)
			if err != nil {
				return err
			}
			_, productCache := newProductLoader(cfg)
			status = productCache.Status()
		}

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		if format == output.FormatTable {
			_, err = fmt.Fprint(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(statusLines(status, serverURL), "\n"), 0))
			return err
		}
		return render(cmd, func(f output.Formatter) (string, error) {
			return f.FormatCacheStatus(status)
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached entries on a running server",
	Long:  "Drop cached entries on a running server. Quota usage is kept.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		serverURL, err := cmd.Flags().GetString("server")
		if err != nil {
			return err
		}
		if err := remoteRequest(ctx, http.MethodDelete, serverURL, "/api/cache", nil); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
		return err
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheStatusCmd.Flags().String("server", "", "base URL of a running storefront server (e.g. http://localhost:8080)")
	addOutputFlags(cacheStatusCmd)

	cacheClearCmd.Flags().String("server", "http://localhost:8080", "base URL of a running storefront server")
}

func statusLines(status cache.Status, serverURL string) []string {
	source := "local (fresh cache)"
	if strings.TrimSpace(serverURL) != "" {
		source = serverURL
	}

	limit := "unlimited"
	if status.MaxRequestsPerWindow >= 0 {
		limit = fmt.Sprintf("%d", status.MaxRequestsPerWindow)
	}

	backoff := "-"
	if status.BackoffUntil != nil {
		backoff = status.BackoffUntil.UTC().Format(time.RFC3339)
	}

	return []string{
		"Product Cache",
		"",
		"source:          " + source,
		fmt.Sprintf("requests:        %d / %s", status.RequestCount, limit),
		"window left:     " + status.TimeRemainingInWindow.Round(time.Second).String(),
		fmt.Sprintf("stored keys:     %d", status.StoredKeyCount),
		"entry ttl:       " + status.EntryTTL.String(),
		"backoff until:   " + backoff,
	}
}

func fetchRemoteStatus(ctx context.Context, serverURL string) (cache.Status, error) {
	var resp handlers.CacheStatusResponse
	if err := remoteRequest(ctx, http.MethodGet, serverURL, "/api/cache/status", &resp); err != nil {
		return cache.Status{}, err
	}
	return cache.Status{
		RequestCount:          resp.RequestCount,
		MaxRequestsPerWindow:  resp.MaxRequestsPerWindow,
		TimeRemainingInWindow: secondsToDuration(resp.TimeRemainingInWindowSeconds),
		StoredKeyCount:        resp.StoredKeyCount,
		EntryTTL:              secondsToDuration(resp.EntryTTLSeconds),
		BackoffUntil:          resp.BackoffUntil,
	}, nil
}

// remoteRequest calls a running server's API and decodes a JSON reply into
// dst when dst is non-nil.
func remoteRequest(ctx context.Context, method, serverURL, path string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	url := strings.TrimRight(strings.TrimSpace(serverURL), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
