package transport

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"envhub/pkg/proxy"
)

type schemeClass string

const (
	classDirect schemeClass = "direct"
	classHTTP   schemeClass = "http"
	classSOCKS  schemeClass = "socks"
)

// poolKey is the configuration signature a manager is cached under. Two
// requests producing the same key share the same manager instance.
type poolKey struct {
	class        schemeClass
	proxyURL     string
	proxyHeaders string
	verifySSL    bool
	caCert       string
}

// keyFor derives the cache signature from a decision and TLS options,
// validating the proxy scheme along the way.
func keyFor(decision proxy.Decision, opts TLSOptions) (poolKey, error) {
	key := poolKey{
		class:     classDirect,
		verifySSL: opts.VerifySSL,
		caCert:    opts.SSLCACert,
	}
	if !decision.UseProxy() {
		return key, nil
	}

	u, err := url.Parse(decision.ProxyURL)
	if err != nil {
		return poolKey{}, fmt.Errorf("invalid proxy URL %q: %w", decision.ProxyURL, err)
	}
	switch scheme := strings.ToLower(u.Scheme); scheme {
	case "http", "https":
		key.class = classHTTP
	case "socks5", "socks5h":
		key.class = classSOCKS
	case "socks4", "socks4a":
		return poolKey{}, ErrSOCKS4Unsupported
	default:
		return poolKey{}, &UnsupportedProxySchemeError{Scheme: scheme}
	}

	key.proxyURL = u.String()
	key.proxyHeaders = headerFingerprint(decision.ProxyHeaders)
	return key, nil
}

// headerFingerprint canonicalizes a header map so it can live inside a
// comparable key.
func headerFingerprint(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(headers[name])
		b.WriteByte('\n')
	}
	return b.String()
}

// Pool caches pooled connection managers by configuration signature. It is
// safe for concurrent use; get-or-create runs under a single lock so
// concurrent first-time lookups for the same key settle on one instance.
// Entries are never evicted.
type Pool struct {
	mu       sync.Mutex
	managers map[poolKey]*Manager
	logger   *slog.Logger
}

// NewPool returns an empty Pool. A nil logger falls back to slog.Default.
func NewPool(logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		managers: make(map[poolKey]*Manager),
		logger:   logger,
	}
}

// Manager returns the pooled manager for the given decision and TLS options,
// constructing and caching it on first use. Nothing is cached when
// construction fails.
func (p *Pool) Manager(decision proxy.Decision, opts TLSOptions) (*Manager, error) {
	key, err := keyFor(decision, opts)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.managers[key]; ok {
		return m, nil
	}

	m, err := newManager(decision, opts, key.class)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("created connection manager",
		"class", string(key.class),
		"proxyURL", key.proxyURL,
		"verifySSL", key.verifySSL)

	p.managers[key] = m
	return m, nil
}

// CloseIdleConnections drops idle connections across all cached managers.
func (p *Pool) CloseIdleConnections() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.managers {
		m.CloseIdleConnections()
	}
}
