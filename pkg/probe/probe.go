// Package probe checks whether the configured envhub API endpoint is
// reachable: over a raw TCP dial, over the proxy the client would resolve
// for it, and optionally over an explicit transport config string. It is a
// debugging aid for proxy and firewall trouble.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jigsaw-Code/outline-sdk/transport"
	"github.com/Jigsaw-Code/outline-sdk/x/configurl"

	"envhub/pkg/client"
	"envhub/pkg/proxy"
	envtransport "envhub/pkg/transport"
)

// Check is the outcome of one reachability path.
type Check struct {
	Name       string `json:"name"`
	Proxy      string `json:"proxy,omitempty"`
	OK         bool   `json:"ok"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Report is the result of probing one endpoint.
type Report struct {
	Target string    `json:"target"`
	Time   time.Time `json:"time"`
	Checks []Check   `json:"checks"`
}

// Run probes the endpoint named by cfg.BaseURL. transportConfig, when
// non-empty, is an additional outline-sdk transport config string (for
// example "socks5://127.0.0.1:1080") to probe through.
func Run(ctx context.Context, cfg *client.Configuration, transportConfig string, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL %q: %w", cfg.BaseURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("endpoint URL %q has no host", cfg.BaseURL)
	}
	port := u.Port()
	if port == "" {
		if strings.EqualFold(u.Scheme, "http") {
			port = "80"
		} else {
			port = "443"
		}
	}

	report := &Report{Target: cfg.BaseURL, Time: time.Now()}
	report.Checks = append(report.Checks, tcpCheck(ctx, host, port))
	report.Checks = append(report.Checks, apiCheck(ctx, cfg, logger))
	if transportConfig != "" {
		report.Checks = append(report.Checks, transportCheck(ctx, cfg.BaseURL, transportConfig))
	}

	for _, check := range report.Checks {
		logger.Debug("probe check finished",
			"name", check.Name, "ok", check.OK, "durationMs", check.DurationMs, "error", check.Error)
	}
	return report, nil
}

// tcpCheck dials the endpoint directly, bypassing any proxy.
func tcpCheck(ctx context.Context, host, port string) Check {
	check := Check{Name: "tcp-direct"}

	dialer, err := configurl.NewDefaultConfigToDialer().NewStreamDialer("")
	if err != nil {
		check.Error = err.Error()
		return check
	}
	start := time.Now()
	conn, err := dialer.DialStream(ctx, net.JoinHostPort(host, port))
	check.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	conn.Close()
	check.OK = true
	return check
}

// apiCheck issues a request the way the SDK client would, through the
// resolved proxy decision and the pooled transport. Any HTTP response counts
// as reachable; the status code is the API's business, not the network's.
func apiCheck(ctx context.Context, cfg *client.Configuration, logger *slog.Logger) Check {
	resolver := proxy.NewResolver()
	decision := resolver.Select(proxy.Config{
		Proxy:        cfg.Proxy,
		NoProxy:      cfg.NoProxy,
		ProxyHeaders: cfg.ProxyHeaders,
	}, cfg.BaseURL)

	check := Check{Name: "api", Proxy: decision.ProxyURL}

	pool := envtransport.NewPool(logger)
	manager, err := pool.Manager(decision, envtransport.TLSOptions{
		VerifySSL: cfg.VerifySSL,
		SSLCACert: cfg.SSLCACert,
	})
	if err != nil {
		check.Error = err.Error()
		return check
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.BaseURL, nil)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	start := time.Now()
	resp, err := manager.Do(req)
	check.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	resp.Body.Close()
	check.OK = true
	return check
}

// httpClientFor builds an http.Client whose TCP connections go through the
// given stream dialer.
func httpClientFor(dialer transport.StreamDialer) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if !strings.HasPrefix(network, "tcp") {
					return nil, fmt.Errorf("protocol not supported: %v", network)
				}
				return dialer.DialStream(ctx, addr)
			},
		},
	}
}

// transportCheck issues a request through an explicit transport config
// string.
func transportCheck(ctx context.Context, target, transportConfig string) Check {
	check := Check{Name: "api-via-transport", Proxy: transportConfig}

	dialer, err := configurl.NewDefaultConfigToDialer().NewStreamDialer(transportConfig)
	if err != nil {
		check.Error = fmt.Sprintf("could not create dialer: %v", err)
		return check
	}
	httpClient := httpClientFor(dialer)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	start := time.Now()
	resp, err := httpClient.Do(req)
	check.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	resp.Body.Close()
	check.OK = true
	return check
}
