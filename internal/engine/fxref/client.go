package fxref

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
)

// defaultBaseURL points at a free daily reference-rate source. Rates are
// daily-granularity approximations, which is all fiat legs require.
const defaultBaseURL = "https://api.frankfurter.app"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=fxref_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches fiat/fiat reference rates.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the reference-rate client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new reference-rate client.
func NewClient(options ...Option) *Client {
	var client = &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Rate returns "1 base = r quote" from the reference source, or absent.
// Any transport, status, or parse failure yields absent; Rate never errors,
// callers fall through to their next routing branch.
func (c *Client) Rate(ctx context.Context, base, quote string) (float64, bool) {
	if base == quote {
		return 1.0, true
	}
	r, err := c.fetch(ctx, base, quote)
	if err != nil {
		return 0, false
	}
	return r, true
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (c *Client) fetch(ctx context.Context, base, quote string) (float64, error) {
	query := url.Values{}
	query.Set("base", base)
	query.Set("symbols", quote)

	u := fmt.Sprintf("%s/latest?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	r, ok := body.Rates[quote]
	if !ok {
		return 0, fmt.Errorf("no rate for %s in response", quote)
	}
	if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		return 0, fmt.Errorf("unusable rate %v for %s/%s", r, base, quote)
	}
	return r, nil
}
