// Package sources contains the per-external-source fetch and normalize
// boundaries. JSON/HTTP endpoints are implemented here; DOM-scraping
// sources (weather, comic listings) sit behind collaborator interfaces
// served by an out-of-process scraper.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// The upstream endpoints reject requests without a browser profile.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Client is the shared outbound HTTP client for all source adapters.
// A single rate limiter bounds the aggregate request rate against the
// upstreams, which share infrastructure and throttle aggressively.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter

	// The market endpoints require a session cookie obtained from the
	// portal page; it is cached and re-acquired on demand. The client is
	// shared by sync jobs running on separate goroutines, so the cache
	// is guarded.
	portalURL string
	tokenMu   sync.Mutex
	token     string
	tokenAge  time.Time
}

// NewClient creates a rate-limited source client. rps bounds outbound
// requests per second across all adapters sharing this client.
func NewClient(portalURL string, rps float64) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		portalURL: portalURL,
	}
}

// GetJSON performs a rate-limited GET and decodes the JSON response body
// into v. Extra headers are applied on top of the browser profile.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// GetJSONP fetches a JSONP-style response, strips the given assignment
// prefix, and decodes the remaining JSON into v.
func (c *Client) GetJSONP(ctx context.Context, url string, headers map[string]string, prefix string, v any) error {
	body, err := c.get(ctx, url, headers)
	if err != nil {
		return err
	}
	trimmed := strings.TrimPrefix(strings.TrimSpace(string(body)), prefix)
	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return fmt.Errorf("failed to decode jsonp response from %s: %w", url, err)
	}
	return nil
}

// PostJSON performs a rate-limited POST with a JSON body and decodes the
// response into v.
func (c *Client) PostJSON(ctx context.Context, url string, body string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// Token returns the session cookie for the market endpoints, acquiring a
// fresh one from the portal page when the cached value is stale. A token
// failure is a fetch failure: the cycle aborts and the next scheduled run
// retries.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Since(c.tokenAge) < 10*time.Minute {
		return c.token, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.portalURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	cookies := resp.Header.Values("Set-Cookie")
	if len(cookies) == 0 {
		return "", fmt.Errorf("portal returned no session cookies")
	}

	c.token = strings.Join(cookies, "; ")
	c.tokenAge = time.Now()
	return c.token, nil
}

func (c *Client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
