package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tinyshop/storefront/internal/core"
	"github.com/tinyshop/storefront/internal/core/cache"
)

// TableFormatter renders results as an ASCII table, or as a Markdown table
// when Markdown is set.
type TableFormatter struct {
	Markdown bool
}

// FormatProduct renders the product as a two-column table.
func (f *TableFormatter) FormatProduct(result *core.ProductResult) (string, error) {
	if result == nil || result.Product == nil {
		return "", nil
	}
	p := result.Product

	t := f.newWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Title", p.Title},
		{"Price", Price(p.Price)},
		{"Sizes", sizeLabels(p)},
		{"Description", p.Description},
		{"Image", p.ImageURL},
		{"Source", provenanceLabel(result.Provenance)},
	})
	return f.render(t), nil
}

// FormatCart renders one row per cart line.
func (f *TableFormatter) FormatCart(view CartView) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"Size", "Item", "Qty", "Price", "Subtotal"})
	for _, item := range view.Items {
		t.AppendRow(table.Row{
			item.Size,
			item.Title,
			item.Quantity,
			Price(item.Price),
			Price(item.Subtotal()),
		})
	}
	t.AppendFooter(table.Row{"", "Total", view.Count, "", Price(view.Total)})
	return f.render(t), nil
}

// FormatCacheStatus renders the quota and entry counters.
func (f *TableFormatter) FormatCacheStatus(status cache.Status) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})

	limit := fmt.Sprintf("%d", status.MaxRequestsPerWindow)
	if status.MaxRequestsPerWindow < 0 {
		limit = "unlimited"
	}
	t.AppendRows([]table.Row{
		{"Requests in window", fmt.Sprintf("%d / %s", status.RequestCount, limit)},
		{"Time remaining in window", status.TimeRemainingInWindow.Round(time.Second).String()},
		{"Stored keys", status.StoredKeyCount},
		{"Entry TTL", status.EntryTTL.String()},
	})
	if status.BackoffUntil != nil {
		t.AppendRow(table.Row{"Upstream backoff until", status.BackoffUntil.UTC().Format(time.RFC3339)})
	}
	return f.render(t), nil
}

func (f *TableFormatter) newWriter() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) render(t table.Writer) string {
	if f.Markdown {
		return t.RenderMarkdown()
	}
	return t.Render()
}

func provenanceLabel(p core.Provenance) string {
	if p.FromCache {
		if p.CacheExpiresAt != nil {
			return "cache (expires " + p.CacheExpiresAt.UTC().Format(time.RFC3339) + ")"
		}
		return "cache"
	}
	if p.Source == "" {
		return "upstream"
	}
	return "upstream " + p.Source
}
