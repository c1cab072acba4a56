package proxy

import (
	"net/url"
	"os"
	"strings"
)

// Resolver resolves proxy settings from the process environment. The
// environment is consulted on every call, never cached, so changes between
// requests take effect immediately.
type Resolver struct {
	// LookupEnv reports the value of an environment variable and whether it
	// is set at all. Defaults to os.LookupEnv; tests inject a map-backed
	// implementation.
	LookupEnv func(key string) (string, bool)
}

// NewResolver returns a Resolver reading the real process environment.
func NewResolver() *Resolver {
	return &Resolver{LookupEnv: os.LookupEnv}
}

func (r *Resolver) lookupEnv(key string) (string, bool) {
	if r.LookupEnv != nil {
		return r.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

// ProxyForURL returns the proxy URL configured in the environment for the
// given target, or "" if none applies. The target's scheme selects the
// variables to probe; a URL without a scheme is treated as https. For each
// logical variable the lower-case name takes precedence over the upper-case
// one, and the scheme-specific variable takes precedence over ALL_PROXY. A
// variable that is set but empty is skipped.
func (r *Resolver) ProxyForURL(targetURL string) string {
	if targetURL == "" {
		return ""
	}

	scheme := "https"
	if u, err := url.Parse(targetURL); err == nil && u.Scheme != "" {
		scheme = strings.ToLower(u.Scheme)
	}

	var candidates []string
	if scheme == "http" {
		candidates = []string{"http_proxy", "HTTP_PROXY", "all_proxy", "ALL_PROXY"}
	} else {
		candidates = []string{"https_proxy", "HTTPS_PROXY", "all_proxy", "ALL_PROXY"}
	}

	for _, name := range candidates {
		if value, ok := r.lookupEnv(name); ok && value != "" {
			return value
		}
	}
	return ""
}

// NoProxyFromEnv returns the bypass patterns configured in the environment.
// no_proxy wins over NO_PROXY when both are set; a variable that is set to
// the empty string yields an empty list rather than falling through.
func (r *Resolver) NoProxyFromEnv() []string {
	if value, ok := r.lookupEnv("no_proxy"); ok {
		return ParsePatterns(value)
	}
	if value, ok := r.lookupEnv("NO_PROXY"); ok {
		return ParsePatterns(value)
	}
	return nil
}
