package client

import (
	"log/slog"
	"os"

	"envhub/pkg/proxy"
	"envhub/pkg/transport"
	"envhub/pkg/workspace"
)

// DefaultBaseURL is the hosted envhub API endpoint.
const DefaultBaseURL = "https://api.envhub.dev"

// Configuration is the caller-owned configuration for a client session. It
// is read on every request, so fields may be changed between requests (never
// during one).
//
// Proxy and NoProxy are tri-state, with the semantics of proxy.Config: nil
// inherits the process environment, an explicit empty value disables the
// behavior, and a non-empty value is used as given.
type Configuration struct {
	// BaseURL is the API endpoint, without a trailing slash.
	BaseURL string
	// AccessToken authenticates requests. Empty means unauthenticated.
	AccessToken string
	UserAgent   string
	// DefaultHeaders are added to every request.
	DefaultHeaders map[string]string

	// Proxy is the explicit proxy URL (tri-state, see proxy.Config).
	Proxy *string
	// NoProxy is the explicit bypass list (tri-state, see proxy.Config).
	NoProxy []string
	// ProxyHeaders are sent to the proxy itself.
	ProxyHeaders map[string]string

	// VerifySSL toggles server certificate verification. Defaults to true
	// in NewConfiguration.
	VerifySSL bool
	// SSLCACert optionally names a PEM bundle to trust instead of the
	// system roots.
	SSLCACert string

	Logger *slog.Logger
}

// NewConfiguration returns a Configuration with defaults: the hosted
// endpoint, TLS verification on, and everything proxy-related inherited from
// the environment.
func NewConfiguration() *Configuration {
	return &Configuration{
		BaseURL:   DefaultBaseURL,
		UserAgent: "envhub-go",
		VerifySSL: true,
	}
}

// NewDefaultConfiguration builds a Configuration from the ambient
// environment: the access token from ENVHUB_ACCESS_TOKEN or the workspace
// credentials file, and the backend URL from ENVHUB_BACKEND_URL or the
// stored account.
func NewDefaultConfiguration() (*Configuration, error) {
	cfg := NewConfiguration()

	if backend := os.Getenv("ENVHUB_BACKEND_URL"); backend != "" {
		cfg.BaseURL = backend
	}
	if token := os.Getenv("ENVHUB_ACCESS_TOKEN"); token != "" {
		cfg.AccessToken = token
		return cfg, nil
	}

	account, backend, err := workspace.CurrentAccount()
	if err != nil {
		return nil, err
	}
	if account != nil {
		cfg.AccessToken = account.AccessToken
		if os.Getenv("ENVHUB_BACKEND_URL") == "" && backend != "" {
			cfg.BaseURL = backend
		}
	}
	return cfg, nil
}

func (c *Configuration) proxyConfig() proxy.Config {
	return proxy.Config{
		Proxy:        c.Proxy,
		NoProxy:      c.NoProxy,
		ProxyHeaders: c.ProxyHeaders,
	}
}

func (c *Configuration) tlsOptions() transport.TLSOptions {
	return transport.TLSOptions{
		VerifySSL: c.VerifySSL,
		SSLCACert: c.SSLCACert,
	}
}

func (c *Configuration) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
