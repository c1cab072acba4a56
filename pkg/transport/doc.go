/*
Package transport maps proxy decisions onto reusable pooled connection
managers.

A Manager wraps an http.Transport, which owns the socket pool and TLS state
for one class of destination: direct, HTTP-proxied, or SOCKS-proxied. The
Pool caches managers by a signature derived from the proxy decision and the
TLS options, so repeated requests under the same effective configuration
share one manager and its warm connections. Entries are never evicted;
managers are cheap to hold and expensive to recreate.
*/
package transport
