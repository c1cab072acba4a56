package proxy

import (
	"net/url"
	"strings"
)

// ParsePatterns splits a raw bypass-list string such as
// "localhost, 127.0.0.1 ,.example.com" into normalized patterns. Entries are
// trimmed and lower-cased; entries that are empty after trimming are dropped.
func ParsePatterns(raw string) []string {
	parts := strings.Split(raw, ",")
	patterns := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			patterns = append(patterns, part)
		}
	}
	return patterns
}

// Matches reports whether targetURL matches any pattern in the bypass list.
// A target without an extractable hostname never matches. A pattern of "*"
// matches everything. A pattern may carry a trailing ":port"; it then only
// matches targets whose URL names that exact port. Host matching is exact or
// by dot-boundary suffix: "example.com" matches "api.example.com" but not
// "notexample.com", and ".example.com" matches subdomains only, not the bare
// domain itself.
func Matches(targetURL string, patterns []string) bool {
	if targetURL == "" {
		return false
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	port := u.Port()

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if pattern == "*" {
			return true
		}
		patHost, patPort := splitPatternPort(pattern)
		if patPort != "" && (port == "" || port != patPort) {
			continue
		}
		if hostMatches(host, strings.ToLower(patHost)) {
			return true
		}
	}
	return false
}

// splitPatternPort splits a bypass pattern on its last colon. Patterns with
// no colon have no port constraint.
func splitPatternPort(pattern string) (host, port string) {
	idx := strings.LastIndex(pattern, ":")
	if idx < 0 {
		return pattern, ""
	}
	return pattern[:idx], pattern[idx+1:]
}

// hostMatches applies exact and dot-boundary suffix matching. Both arguments
// must already be lower-cased.
func hostMatches(host, pattern string) bool {
	if host == pattern {
		return true
	}
	suffix := pattern
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	dotted := "." + host
	// The strict inequality keeps ".example.com" from matching the bare
	// domain "example.com".
	return dotted != suffix && strings.HasSuffix(dotted, suffix)
}
