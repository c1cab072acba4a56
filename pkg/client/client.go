// Package client is the envhub SDK client. It exposes the environment,
// revision and tag operations of the API, routing every request through the
// proxy-resolution and pooled-transport layers in pkg/proxy and
// pkg/transport.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"envhub/pkg/proxy"
	"envhub/pkg/transport"
)

// Client is an envhub API client. It is safe for concurrent use; the
// underlying connection managers are cached per effective proxy/TLS
// configuration and reused across requests.
type Client struct {
	cfg      *Configuration
	resolver *proxy.Resolver
	pool     *transport.Pool
}

// NewClient returns a client for the given configuration. The configuration
// is owned by the caller and read on every request.
func NewClient(cfg *Configuration) *Client {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	return &Client{
		cfg:      cfg,
		resolver: proxy.NewResolver(),
		pool:     transport.NewPool(cfg.logger()),
	}
}

// ProxyForURL returns the effective proxy URL the client would use for the
// given target, or "" for a direct connection.
func (c *Client) ProxyForURL(targetURL string) string {
	return c.resolver.Select(c.cfg.proxyConfig(), targetURL).ProxyURL
}

// CloseIdleConnections drops idle pooled connections across all cached
// managers.
func (c *Client) CloseIdleConnections() {
	c.pool.CloseIdleConnections()
}

// do sends one API request. The proxy decision is recomputed per request
// from the current configuration and environment, then mapped to a pooled
// manager.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) ([]byte, int, error) {
	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	decision := c.resolver.Select(c.cfg.proxyConfig(), target)
	manager, err := c.pool.Manager(decision, c.cfg.tlsOptions())
	if err != nil {
		return nil, 0, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "token "+c.cfg.AccessToken)
	}
	for name, value := range c.cfg.DefaultHeaders {
		req.Header.Set(name, value)
	}

	c.cfg.logger().Debug("sending API request",
		"method", method,
		"url", target,
		"proxied", decision.UseProxy())

	resp, err := manager.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return data, resp.StatusCode, newAPIError(resp.StatusCode, data)
	}
	return data, resp.StatusCode, nil
}
