package proxy

import "testing"

func strptr(s string) *string { return &s }

func TestSelectExplicitProxyWinsOverEnvironment(t *testing.T) {
	r := fakeEnv(map[string]string{"HTTPS_PROXY": "http://env-proxy.example.com:8080"})
	cfg := Config{Proxy: strptr("http://config-proxy.example.com:8080")}

	d := r.Select(cfg, "https://api.envhub.dev")
	if d.ProxyURL != "http://config-proxy.example.com:8080" {
		t.Errorf("ProxyURL = %q, want explicit config proxy", d.ProxyURL)
	}
}

func TestSelectFallsBackToEnvironment(t *testing.T) {
	r := fakeEnv(map[string]string{"HTTPS_PROXY": "http://env-proxy.example.com:8080"})

	d := r.Select(Config{}, "https://api.envhub.dev")
	if d.ProxyURL != "http://env-proxy.example.com:8080" {
		t.Errorf("ProxyURL = %q, want environment proxy", d.ProxyURL)
	}
}

func TestSelectNothingConfigured(t *testing.T) {
	r := fakeEnv(nil)

	d := r.Select(Config{}, "https://api.envhub.dev")
	if d.UseProxy() {
		t.Errorf("UseProxy() = true, want false")
	}
}

func TestSelectExplicitEmptyProxyDisables(t *testing.T) {
	r := fakeEnv(map[string]string{"HTTPS_PROXY": "http://proxy.example.com:8080"})
	cfg := Config{Proxy: strptr("")}

	d := r.Select(cfg, "https://api.envhub.dev")
	if d.UseProxy() {
		t.Errorf("UseProxy() = true, want false for explicitly empty proxy")
	}
}

func TestSelectExplicitNoProxyBypasses(t *testing.T) {
	r := fakeEnv(nil)
	cfg := Config{
		Proxy:   strptr("http://proxy.example.com:8080"),
		NoProxy: []string{"api.envhub.dev"},
	}

	if d := r.Select(cfg, "https://api.envhub.dev"); d.UseProxy() {
		t.Errorf("UseProxy() = true, want bypass for listed host")
	}
	if d := r.Select(cfg, "https://external.com"); d.ProxyURL != "http://proxy.example.com:8080" {
		t.Errorf("ProxyURL = %q, want proxy for unlisted host", d.ProxyURL)
	}
}

func TestSelectEnvironmentNoProxyBypasses(t *testing.T) {
	r := fakeEnv(map[string]string{
		"HTTPS_PROXY": "http://proxy.example.com:8080",
		"NO_PROXY":    "api.envhub.dev",
	})

	if d := r.Select(Config{}, "https://api.envhub.dev"); d.UseProxy() {
		t.Errorf("UseProxy() = true, want bypass from environment NO_PROXY")
	}
}

func TestSelectExplicitNoProxyIgnoresEnvironment(t *testing.T) {
	r := fakeEnv(map[string]string{
		"HTTPS_PROXY": "http://proxy.example.com:8080",
		"NO_PROXY":    "env.example.com",
	})
	cfg := Config{NoProxy: []string{"config.example.com"}}

	if d := r.Select(cfg, "https://config.example.com"); d.UseProxy() {
		t.Errorf("UseProxy() = true, want bypass from explicit list")
	}
	if d := r.Select(cfg, "https://env.example.com"); d.ProxyURL != "http://proxy.example.com:8080" {
		t.Errorf("ProxyURL = %q, environment NO_PROXY must be ignored when explicit list is set", d.ProxyURL)
	}
}

func TestSelectExplicitEmptyNoProxyNeverBypasses(t *testing.T) {
	r := fakeEnv(map[string]string{"NO_PROXY": "internal.com"})
	cfg := Config{
		Proxy:   strptr("http://proxy.example.com:8080"),
		NoProxy: []string{},
	}

	if d := r.Select(cfg, "https://internal.com"); d.ProxyURL != "http://proxy.example.com:8080" {
		t.Errorf("ProxyURL = %q, explicit empty bypass list must not inherit NO_PROXY", d.ProxyURL)
	}
}

func TestSelectNilNoProxyInheritsEnvironment(t *testing.T) {
	r := fakeEnv(map[string]string{"NO_PROXY": "internal.com"})
	cfg := Config{Proxy: strptr("http://proxy.example.com:8080")}

	if d := r.Select(cfg, "https://internal.com"); d.UseProxy() {
		t.Errorf("UseProxy() = true, nil bypass list must inherit NO_PROXY")
	}
	if d := r.Select(cfg, "https://external.com"); d.ProxyURL != "http://proxy.example.com:8080" {
		t.Errorf("ProxyURL = %q, want proxy for host not in NO_PROXY", d.ProxyURL)
	}
}

func TestSelectWildcardBypassesAll(t *testing.T) {
	r := fakeEnv(nil)
	cfg := Config{
		Proxy:   strptr("http://proxy.example.com:8080"),
		NoProxy: []string{"*"},
	}

	if d := r.Select(cfg, "https://any.domain.com"); d.UseProxy() {
		t.Errorf("UseProxy() = true, wildcard must bypass everything")
	}
}

func TestSelectTriStatesAreIndependent(t *testing.T) {
	r := fakeEnv(map[string]string{
		"HTTPS_PROXY": "http://env-proxy.example.com:8080",
		"NO_PROXY":    "env-bypass.com",
	})

	// Explicit proxy, environment bypass list.
	cfg := Config{Proxy: strptr("http://explicit-proxy.example.com:8080")}
	if d := r.Select(cfg, "https://env-bypass.com"); d.UseProxy() {
		t.Errorf("explicit proxy + nil bypass: env-bypass.com should be bypassed")
	}
	if d := r.Select(cfg, "https://external.com"); d.ProxyURL != "http://explicit-proxy.example.com:8080" {
		t.Errorf("explicit proxy + nil bypass: ProxyURL = %q", d.ProxyURL)
	}

	// Environment proxy, explicit bypass list.
	cfg = Config{NoProxy: []string{"explicit-bypass.com"}}
	if d := r.Select(cfg, "https://explicit-bypass.com"); d.UseProxy() {
		t.Errorf("env proxy + explicit bypass: explicit-bypass.com should be bypassed")
	}
	if d := r.Select(cfg, "https://env-bypass.com"); d.ProxyURL != "http://env-proxy.example.com:8080" {
		t.Errorf("env proxy + explicit bypass: ProxyURL = %q", d.ProxyURL)
	}
}

func TestSelectCarriesProxyHeaders(t *testing.T) {
	r := fakeEnv(nil)
	cfg := Config{
		Proxy:        strptr("http://proxy.example.com:8080"),
		ProxyHeaders: map[string]string{"Proxy-Authorization": "Bearer token123"},
	}

	d := r.Select(cfg, "https://api.envhub.dev")
	if d.ProxyHeaders["Proxy-Authorization"] != "Bearer token123" {
		t.Errorf("ProxyHeaders = %v, want configured headers carried along", d.ProxyHeaders)
	}
}

func TestSelectEmptyCandidateSkipsBypassEvaluation(t *testing.T) {
	// A pathological bypass list must be irrelevant when there is no proxy
	// candidate in the first place.
	r := fakeEnv(nil)
	cfg := Config{NoProxy: []string{"*"}}

	if d := r.Select(cfg, "https://api.envhub.dev"); d.UseProxy() {
		t.Errorf("UseProxy() = true, want false with no candidate")
	}
}

func TestSelectEndToEndScenario(t *testing.T) {
	r := fakeEnv(map[string]string{
		"HTTPS_PROXY": "http://proxy:8080",
		"NO_PROXY":    "api.internal.com",
	})

	if d := r.Select(Config{}, "https://api.internal.com"); d.UseProxy() {
		t.Errorf("api.internal.com should be bypassed")
	}
	if d := r.Select(Config{}, "https://api.external.com"); d.ProxyURL != "http://proxy:8080" {
		t.Errorf("api.external.com: ProxyURL = %q, want http://proxy:8080", d.ProxyURL)
	}
}
