package transport

import (
	"errors"
	"fmt"
)

// ErrSOCKS4Unsupported is returned when a proxy URL names a socks4 or
// socks4a proxy. Only SOCKS5 is supported; silently downgrading to a direct
// or HTTP-proxied connection would change where traffic is routed, so the
// mismatch is surfaced as a configuration error instead.
var ErrSOCKS4Unsupported = errors.New("socks4 proxies are not supported, use socks5")

// UnsupportedProxySchemeError is returned for proxy URL schemes other than
// http, https, socks5 and socks5h. Unknown schemes are rejected rather than
// treated as HTTP-capable proxies.
type UnsupportedProxySchemeError struct {
	Scheme string
}

func (e *UnsupportedProxySchemeError) Error() string {
	return fmt.Sprintf("unsupported proxy scheme %q", e.Scheme)
}
