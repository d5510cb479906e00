// Package fetcher retrieves the product record from the upstream product API.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/tinyshop/storefront/internal/core"
)

const (
	// DefaultURL is the product endpoint the storefront was built against.
	DefaultURL = "https://3sb655pz3a.execute-api.ap-southeast-2.amazonaws.com/live/product"

	maxErrorBody = 4 << 10
	maxBody      = 1 << 20
)

// Fetcher fetches a fresh product from upstream.
type Fetcher interface {
	Fetch(ctx context.Context) (*core.Product, error)
}

// Credentials configures optional OAuth2 client-credentials auth.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

func (c Credentials) enabled() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.TokenURL) != ""
}

// HTTPFetcher issues a GET to URL and decodes the JSON product body.
type HTTPFetcher struct {
	Client    *http.Client
	URL       string
	UserAgent string
	Timeout   time.Duration
	Clock     func() time.Time
}

// NewHTTPFetcher builds a fetcher. When creds are configured the client
// authenticates with an OAuth2 client-credentials token.
func NewHTTPFetcher(url, userAgent string, timeout time.Duration, creds Credentials) *HTTPFetcher {
	base := &http.Client{}
	if creds.enabled() {
		cc := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     creds.TokenURL,
			Scopes:       creds.Scopes,
		}
		base = cc.Client(context.Background())
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if strings.TrimSpace(userAgent) != "" {
		base.Transport = &userAgentRoundTripper{wrapped: transport, userAgent: userAgent}
	}

	return &HTTPFetcher{
		Client:    base,
		URL:       url,
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

// Fetch performs one upstream call. Transport failures and non-2xx responses
// return a *FetchError; undecodable or incomplete payloads return an error
// wrapping core.ErrMalformedResponse.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*core.Product, error) {
	if f == nil {
		return nil, errors.New("product fetcher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	target := f.url()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       body,
			RetryAfter: retryAfterHeader(resp, f.now()),
		}
	}

	return decodeProduct(io.LimitReader(resp.Body, maxBody))
}

// Source returns the upstream URL for provenance.
func (f *HTTPFetcher) Source() string {
	return f.url()
}

func (f *HTTPFetcher) url() string {
	if f != nil && strings.TrimSpace(f.URL) != "" {
		return strings.TrimSpace(f.URL)
	}
	return DefaultURL
}

func (f *HTTPFetcher) now() time.Time {
	if f != nil && f.Clock != nil {
		return f.Clock()
	}
	return time.Now().UTC()
}

func decodeProduct(r io.Reader) (*core.Product, error) {
	var product core.Product
	if err := json.NewDecoder(r).Decode(&product); err != nil {
		return nil, malformed("decode product: %v", err)
	}
	if err := validateProduct(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

func validateProduct(p *core.Product) error {
	if strings.TrimSpace(p.Title) == "" {
		return malformed("product title is missing")
	}
	if p.Price < 0 {
		return malformed("product price is negative")
	}
	if p.SizeOptions == nil {
		return malformed("product size options are missing")
	}
	for i, opt := range p.SizeOptions {
		if strings.TrimSpace(opt.Label) == "" {
			return malformed("size option %d has no label", i)
		}
	}
	return nil
}
