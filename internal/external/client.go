// Package external wraps the derivatives data vendor's HTTP API. All
// raw ticks, open-interest and institutional-flow records enter the
// system through this client; responses are parsed into typed records
// at this boundary so malformed rows never reach the analytics engine.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/models"
)

// Client handles vendor API interactions
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logrus.Entry

	// Vendor enforces a per-key request budget
	rateLimiter chan struct{}

	// Short-lived response cache keyed by request path
	cache    map[string]*cachedResponse
	cacheMu  sync.RWMutex
	cacheTTL time.Duration
}

// cachedResponse holds a raw response body with its fetch time
type cachedResponse struct {
	body     []byte
	cachedAt time.Time
}

// NewClient creates a new vendor API client
func NewClient(cfg *config.VendorConfig, logger *logrus.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		logger:      logger.WithField("component", "vendor"),
		rateLimiter: make(chan struct{}, 1),
		cache:       make(map[string]*cachedResponse),
		cacheTTL:    cfg.CacheTTL,
	}

	go c.rateLimitWorker(cfg.RateInterval)

	return c
}

// rateLimitWorker refills the request budget at the configured interval
func (c *Client) rateLimitWorker(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		select {
		case c.rateLimiter <- struct{}{}:
		default:
		}
	}
}

// GetIntradaySeries fetches the comma-joined intraday spot series for a
// symbol. The payload is returned as-is; callers align it through the
// series package.
func (c *Client) GetIntradaySeries(ctx context.Context, symbol string) (*models.IntradaySeriesPayload, error) {
	var payload models.IntradaySeriesPayload
	if err := c.getJSON(ctx, "/v1/intraday", url.Values{"symbol": {symbol}}, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch intraday series for %s: %w", symbol, err)
	}
	return &payload, nil
}

// GetOIChange fetches per-strike open-interest change rows for a symbol
// and expiry, parsed into typed records with unparseable rows dropped.
func (c *Client) GetOIChange(ctx context.Context, symbol, expiry string) ([]models.OIChangeRecord, error) {
	var rows []models.RawOIRow
	params := url.Values{"symbol": {symbol}}
	if expiry != "" {
		params.Set("expiry", expiry)
	}
	if err := c.getJSON(ctx, "/v1/oi-change", params, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch OI change for %s: %w", symbol, err)
	}

	records := models.ParseOIRows(rows)
	if dropped := len(rows) - len(records); dropped > 0 {
		c.logger.WithFields(logrus.Fields{
			"symbol":  symbol,
			"dropped": dropped,
		}).Warn("Dropped unparseable OI rows")
	}
	return records, nil
}

// GetMaxPainSeries fetches the intraday max-pain observations for a
// symbol and expiry.
func (c *Client) GetMaxPainSeries(ctx context.Context, symbol, expiry string) ([]models.MaxPainSample, error) {
	var rows []models.RawMaxPainRow
	params := url.Values{"symbol": {symbol}}
	if expiry != "" {
		params.Set("expiry", expiry)
	}
	if err := c.getJSON(ctx, "/v1/max-pain", params, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch max pain for %s: %w", symbol, err)
	}
	return models.ParseMaxPainRows(rows), nil
}

// GetDailyFlows fetches the daily FII/DII institutional-flow records.
func (c *Client) GetDailyFlows(ctx context.Context) ([]models.FIIDIIDailyRecord, error) {
	var rows []models.RawFlowRow
	if err := c.getJSON(ctx, "/v1/fii-dii", nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch FII/DII flows: %w", err)
	}
	return models.ParseFlowRows(rows), nil
}

// getJSON performs a rate-limited GET with short-lived response caching
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	cacheKey := path + "?" + params.Encode()

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok && time.Since(cached.cachedAt) < c.cacheTTL {
		c.cacheMu.RUnlock()
		return json.Unmarshal(cached.body, out)
	}
	c.cacheMu.RUnlock()

	select {
	case <-c.rateLimiter:
	case <-ctx.Done():
		return ctx.Err()
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vendor returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = &cachedResponse{body: body, cachedAt: time.Now()}
	c.cacheMu.Unlock()

	return nil
}
