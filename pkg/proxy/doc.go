/*
Package proxy decides whether and how outgoing requests to the envhub API
should be routed through a proxy.

The package layers three independent sources of configuration:

 1. Explicit per-client configuration (Config)
 2. Process environment variables (HTTP_PROXY, HTTPS_PROXY, ALL_PROXY,
    NO_PROXY and their lower-case variants)
 3. The bypass list, which suppresses the proxy for matching targets

Explicit configuration is tri-state. A nil Config.Proxy inherits the
environment, an empty string disables proxying outright, and a non-empty
string is used verbatim. Config.NoProxy behaves the same way: nil inherits
NO_PROXY from the environment, a non-nil empty slice means the bypass list
never fires, and a non-empty slice is used exactly as given. The two fields
are independent; either one may fall back to the environment while the other
does not.

Resolution is pure with respect to shared state. The environment is re-read
on every call through Resolver.LookupEnv, which tests can replace to simulate
arbitrary environments without touching the real process environment.

Usage:

	r := proxy.NewResolver()
	d := r.Select(proxy.Config{NoProxy: []string{".internal.com"}}, "https://api.envhub.dev")
	if d.UseProxy() {
		// route through d.ProxyURL with d.ProxyHeaders
	}
*/
package proxy
