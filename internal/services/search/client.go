// Package search provides a client for the external web search provider.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the Serper-compatible search API endpoint.
	DefaultEndpoint = "https://google.serper.dev/search"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5

	// DefaultMaxResults caps how many results a query returns.
	DefaultMaxResults = 10
)

// Client is a web search API client.
type Client struct {
	endpoint   string
	apiKey     string
	maxResults int
	country    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// Compile-time assertion: Client implements the SearchService interface
var _ interfaces.SearchService = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithEndpoint sets a custom API endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxResults caps the number of results returned per query.
func WithMaxResults(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithRateLimit sets a custom rate limit in requests per second.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithCountry sets the country code passed to the provider.
func WithCountry(code string) ClientOption {
	return func(c *Client) {
		c.country = code
	}
}

// NewClient creates a web search client.
func NewClient(apiKey string, logger arbor.ILogger, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		apiKey:     apiKey,
		maxResults: DefaultMaxResults,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a client from the search config section.
func NewClientFromConfig(config *common.SearchConfig, logger arbor.ILogger) *Client {
	return NewClient(config.APIKey, logger,
		WithEndpoint(config.Endpoint),
		WithMaxResults(config.MaxResults),
		WithRateLimit(config.RateLimit),
		WithCountry(config.CountryCode),
		WithHTTPClient(&http.Client{Timeout: config.GetTimeout()}),
	)
}

// Enabled reports whether the client has credentials to reach the provider.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	Query   string `json:"q"`
	Num     int    `json:"num,omitempty"`
	Country string `json:"gl,omitempty"`
}

type searchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns ranked results for a query.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("search api key is not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(searchRequest{
		Query:   query,
		Num:     c.maxResults,
		Country: c.country,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		if item.Link == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Web search completed")

	return results, nil
}
