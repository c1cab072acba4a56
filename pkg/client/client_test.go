package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envhub/pkg/models"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := NewConfiguration()
	cfg.BaseURL = server.URL
	cfg.AccessToken = "test-token"
	return NewClient(cfg)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"environments": []}`))
	}))

	_, err := c.ListEnvironments(context.Background(), "acme", "")
	require.NoError(t, err)

	assert.Equal(t, "token test-token", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "envhub-go", got.Get("User-Agent"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestListEnvironments(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/environments/acme", r.URL.Path)
		assert.Equal(t, "page2", r.URL.Query().Get("continuationToken"))
		w.Write([]byte(`{"environments": [{"name": "dev"}, {"name": "prod"}], "nextToken": "page3"}`))
	}))

	envs, err := c.ListEnvironments(context.Background(), "acme", "page2")
	require.NoError(t, err)
	require.Len(t, envs.Environments, 2)
	assert.Equal(t, "dev", envs.Environments[0].Name)
	assert.Equal(t, "page3", envs.NextToken)
}

func TestGetEnvironmentDecodesYAML(t *testing.T) {
	const body = "imports:\n  - base\nvalues:\n  region: us-west-2\n"
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/environments/acme/dev", r.URL.Path)
		w.Write([]byte(body))
	}))

	def, raw, err := c.GetEnvironment(context.Background(), "acme", "dev")
	require.NoError(t, err)
	assert.Equal(t, body, raw)
	assert.Equal(t, []string{"base"}, def.Imports)
	assert.Equal(t, "us-west-2", def.Values["region"])
}

func TestOpenAndReadEnvironment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/environments/acme/dev/open", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"id": "session-1"}`))
	})
	mux.HandleFunc("/environments/acme/dev/open/session-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"properties": {
			"region": {"value": "us-west-2"},
			"nested": {"value": {"value": {"inner": {"value": 42}}}}
		}}`))
	})
	c := testClient(t, mux)

	env, values, raw, err := c.OpenAndReadEnvironment(context.Background(), "acme", "dev")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Len(t, env.Properties, 2)
	assert.Equal(t, "us-west-2", values["region"])
	assert.Equal(t, map[string]any{"inner": float64(42)}, values["nested"])
}

func TestUpdateEnvironmentSendsYAML(t *testing.T) {
	var contentType, body string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		contentType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		body = string(buf)
		w.Write([]byte(`{"diagnostics": []}`))
	}))

	def := &models.EnvironmentDefinition{Values: map[string]any{"region": "us-west-2"}}
	_, err := c.UpdateEnvironment(context.Background(), "acme", "dev", def)
	require.NoError(t, err)
	assert.Equal(t, "application/x-yaml", contentType)
	assert.Contains(t, body, "region: us-west-2")
}

func TestAPIError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "environment not found"}`))
	}))

	_, err := c.ListEnvironments(context.Background(), "acme", "")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "environment not found", apiErr.Message)
}

func TestCheckEnvironmentYAMLReturnsDiagnosticsOn400(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"diagnostics": [{"summary": "unknown builtin fn::oops"}]}`))
	}))

	check, err := c.CheckEnvironmentYAML(context.Background(), "acme", "values:\n  x: {fn::oops: {}}\n")
	require.NoError(t, err)
	require.Len(t, check.Diagnostics, 1)
	assert.Equal(t, "unknown builtin fn::oops", check.Diagnostics[0].Summary)
}

func TestRevisionTagRoundTrip(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/environments/acme/dev/versions/tags/stable", r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			w.Write([]byte(`{"name": "stable", "revision": 7}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	c := testClient(t, handler)

	require.NoError(t, c.CreateEnvironmentRevisionTag(context.Background(), "acme", "dev", "stable", 7))

	tag, err := c.GetEnvironmentRevisionTag(context.Background(), "acme", "dev", "stable")
	require.NoError(t, err)
	assert.Equal(t, "stable", tag.Name)
	assert.Equal(t, 7, tag.Revision)
}

func TestProxyForURLExplicitConfig(t *testing.T) {
	cfg := NewConfiguration()
	proxyURL := "http://config-proxy.example.com:8080"
	cfg.Proxy = &proxyURL
	c := NewClient(cfg)

	assert.Equal(t, proxyURL, c.ProxyForURL("https://api.envhub.dev"))
}

func TestProxyForURLFromEnvironment(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://env-proxy.example.com:8080")
	t.Setenv("NO_PROXY", "api.internal.com")

	c := NewClient(NewConfiguration())
	assert.Equal(t, "http://env-proxy.example.com:8080", c.ProxyForURL("https://api.external.com"))
	assert.Empty(t, c.ProxyForURL("https://api.internal.com"))
}

func TestPropertiesToValues(t *testing.T) {
	props := map[string]models.Value{
		"plain":  {Value: "hello"},
		"list":   {Value: []any{map[string]any{"value": "a"}, "b"}},
		"object": {Value: map[string]any{"key": map[string]any{"value": 1}}},
	}

	values := PropertiesToValues(props)
	assert.Equal(t, "hello", values["plain"])
	assert.Equal(t, []any{"a", "b"}, values["list"])
	assert.Equal(t, map[string]any{"key": 1}, values["object"])

	assert.Nil(t, PropertiesToValues(nil))
}
