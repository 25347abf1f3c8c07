// Package metrics is the client for the seller metrics backend API. The
// pipeline hands it fully-resolved ISO date ranges; no label logic lives
// here.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sellerpulse/internal/logging"
)

// Range is a resolved inclusive ISO date window.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary holds aggregated store or product metrics for one range.
type Summary struct {
	Range          Range   `json:"range"`
	Revenue        float64 `json:"revenue"`
	Orders         int     `json:"orders"`
	UnitsSold      int     `json:"units_sold"`
	ConversionRate float64 `json:"conversion_rate"`
	Sessions       int     `json:"sessions"`
}

// Comparison pairs the summaries of two ranges.
type Comparison struct {
	Primary Summary `json:"primary"`
	Compare Summary `json:"compare"`
}

// Client talks to the metrics backend over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a metrics client. token may be empty for
// unauthenticated local backends.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.For(logging.ComponentMetrics),
	}
}

// RangeMetrics fetches store-level metrics for one date range.
func (c *Client) RangeMetrics(ctx context.Context, r Range) (*Summary, error) {
	return c.fetchSummary(ctx, "/metrics/range", url.Values{
		"date_start": {r.Start},
		"date_end":   {r.End},
	})
}

// ProductMetrics fetches metrics scoped to one ASIN.
func (c *Client) ProductMetrics(ctx context.Context, asin string, r Range) (*Summary, error) {
	return c.fetchSummary(ctx, "/metrics/product", url.Values{
		"asin":       {asin},
		"date_start": {r.Start},
		"date_end":   {r.End},
	})
}

// CompareMetrics fetches both ranges concurrently.
func (c *Client) CompareMetrics(ctx context.Context, primary, compare Range) (*Comparison, error) {
	var result Comparison

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := c.RangeMetrics(ctx, primary)
		if err != nil {
			return fmt.Errorf("primary range: %w", err)
		}
		result.Primary = *s
		return nil
	})
	g.Go(func() error {
		s, err := c.RangeMetrics(ctx, compare)
		if err != nil {
			return fmt.Errorf("compare range: %w", err)
		}
		result.Compare = *s
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) fetchSummary(ctx context.Context, path string, query url.Values) (*Summary, error) {
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metrics request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("metrics backend error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("metrics backend returned status %d: %s", resp.StatusCode, string(body))
	}

	var summary Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse metrics response: %w", err)
	}
	return &summary, nil
}
