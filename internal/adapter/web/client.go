package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
	"github.com/couchcryptid/heat-stress-etl/internal/observability"
)

// maxPageBytes bounds a single page read.
const maxPageBytes = 8 << 20

// Client implements domain.Fetcher over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client with a per-request timeout.
func NewClient(timeout time.Duration, userAgent string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: tr},
		userAgent:  userAgent,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch GETs url and returns the body. Non-200 responses are errors.
func (c *Client) Fetch(ctx context.Context, kind domain.PageKind, url string) ([]byte, error) {
	start := time.Now()
	body, err := c.do(ctx, url)
	c.metrics.FetchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(string(kind), "error").Inc()
		return nil, err
	}
	c.metrics.FetchRequests.WithLabelValues(string(kind), "success").Inc()
	c.logger.Debug("page fetched", "kind", kind, "url", url, "bytes", len(body))
	return body, nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
