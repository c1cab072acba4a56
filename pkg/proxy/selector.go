package proxy

// Config is the explicit proxy configuration a caller attaches to a client
// session. Both Proxy and NoProxy are tri-state; see the package
// documentation for the exact semantics. The zero value inherits everything
// from the environment.
type Config struct {
	// Proxy is the explicit proxy URL. nil inherits the environment; a
	// pointer to "" disables proxying; a non-empty value is used verbatim.
	Proxy *string

	// NoProxy is the explicit bypass list. nil inherits NO_PROXY from the
	// environment; a non-nil empty slice means no target is ever bypassed.
	NoProxy []string

	// ProxyHeaders are sent to the proxy itself (for example
	// Proxy-Authorization). They ride along on the Decision untouched.
	ProxyHeaders map[string]string
}

// Decision is the resolved outcome for one outgoing request: either no proxy
// (zero value) or a concrete proxy URL plus optional proxy headers. Decisions
// are never persisted; each request recomputes one from the current Config
// and environment.
type Decision struct {
	ProxyURL     string
	ProxyHeaders map[string]string
}

// UseProxy reports whether the request should be routed through a proxy.
func (d Decision) UseProxy() bool {
	return d.ProxyURL != ""
}

// Select resolves the proxy decision for targetURL.
//
// The explicit Config.Proxy wins over the environment whenever it is set,
// including when it is set to the empty string. An absent or empty candidate
// short-circuits to "no proxy" without evaluating the bypass list. The bypass
// list likewise prefers the explicit Config.NoProxy, falling back to the
// environment only when the field is nil.
func (r *Resolver) Select(cfg Config, targetURL string) Decision {
	var candidate string
	if cfg.Proxy != nil {
		candidate = *cfg.Proxy
	} else {
		candidate = r.ProxyForURL(targetURL)
	}
	if candidate == "" {
		return Decision{}
	}

	patterns := cfg.NoProxy
	if patterns == nil {
		patterns = r.NoProxyFromEnv()
	}
	if Matches(targetURL, patterns) {
		return Decision{}
	}

	return Decision{ProxyURL: candidate, ProxyHeaders: cfg.ProxyHeaders}
}
