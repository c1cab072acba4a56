package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"gopkg.in/yaml.v3"

	"envhub/pkg/models"
)

// ListEnvironments returns one page of the organization's environments.
// continuationToken is the NextToken of the previous page, or "" for the
// first page.
func (c *Client) ListEnvironments(ctx context.Context, org, continuationToken string) (*models.OrgEnvironments, error) {
	query := url.Values{}
	if continuationToken != "" {
		query.Set("continuationToken", continuationToken)
	}
	data, _, err := c.do(ctx, http.MethodGet, "/environments/"+org, query, nil, "")
	if err != nil {
		return nil, err
	}
	var envs models.OrgEnvironments
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("failed to decode environment listing: %w", err)
	}
	return &envs, nil
}

// GetEnvironment fetches an environment's definition plus its raw YAML body.
func (c *Client) GetEnvironment(ctx context.Context, org, env string) (*models.EnvironmentDefinition, string, error) {
	return c.getDefinition(ctx, "/environments/"+org+"/"+env)
}

// GetEnvironmentAtVersion fetches the definition as of a specific version,
// which may be a revision number or a tag name.
func (c *Client) GetEnvironmentAtVersion(ctx context.Context, org, env, version string) (*models.EnvironmentDefinition, string, error) {
	return c.getDefinition(ctx, "/environments/"+org+"/"+env+"/versions/"+version)
}

func (c *Client) getDefinition(ctx context.Context, path string) (*models.EnvironmentDefinition, string, error) {
	data, _, err := c.do(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return nil, "", err
	}
	var def models.EnvironmentDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, "", fmt.Errorf("failed to decode environment definition: %w", err)
	}
	return &def, string(data), nil
}

// OpenEnvironment opens an evaluation session for the environment.
func (c *Client) OpenEnvironment(ctx context.Context, org, env string) (*models.OpenEnvironment, error) {
	return c.open(ctx, "/environments/"+org+"/"+env+"/open")
}

// OpenEnvironmentAtVersion opens an evaluation session at a specific
// version.
func (c *Client) OpenEnvironmentAtVersion(ctx context.Context, org, env, version string) (*models.OpenEnvironment, error) {
	return c.open(ctx, "/environments/"+org+"/"+env+"/versions/"+version+"/open")
}

func (c *Client) open(ctx context.Context, path string) (*models.OpenEnvironment, error) {
	data, _, err := c.do(ctx, http.MethodPost, path, nil, nil, "")
	if err != nil {
		return nil, err
	}
	var open models.OpenEnvironment
	if err := json.Unmarshal(data, &open); err != nil {
		return nil, fmt.Errorf("failed to decode open response: %w", err)
	}
	return &open, nil
}

// ReadOpenEnvironment reads the evaluated environment from an open session.
// It returns the environment, its properties flattened to plain values, and
// the raw JSON body.
func (c *Client) ReadOpenEnvironment(ctx context.Context, org, env, sessionID string) (*models.Environment, map[string]any, string, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/environments/"+org+"/"+env+"/open/"+sessionID, nil, nil, "")
	if err != nil {
		return nil, nil, "", err
	}
	var environment models.Environment
	if err := json.Unmarshal(data, &environment); err != nil {
		return nil, nil, "", fmt.Errorf("failed to decode environment: %w", err)
	}
	return &environment, PropertiesToValues(environment.Properties), string(data), nil
}

// OpenAndReadEnvironment opens a session and immediately reads it.
func (c *Client) OpenAndReadEnvironment(ctx context.Context, org, env string) (*models.Environment, map[string]any, string, error) {
	open, err := c.OpenEnvironment(ctx, org, env)
	if err != nil {
		return nil, nil, "", err
	}
	return c.ReadOpenEnvironment(ctx, org, env, open.ID)
}

// OpenAndReadEnvironmentAtVersion opens a session at a version and
// immediately reads it.
func (c *Client) OpenAndReadEnvironmentAtVersion(ctx context.Context, org, env, version string) (*models.Environment, map[string]any, string, error) {
	open, err := c.OpenEnvironmentAtVersion(ctx, org, env, version)
	if err != nil {
		return nil, nil, "", err
	}
	return c.ReadOpenEnvironment(ctx, org, env, open.ID)
}

// ReadOpenEnvironmentProperty reads a single property from an open session,
// returning both the annotated value and its plain form.
func (c *Client) ReadOpenEnvironmentProperty(ctx context.Context, org, env, sessionID, property string) (*models.Value, any, error) {
	query := url.Values{"property": []string{property}}
	data, _, err := c.do(ctx, http.MethodGet, "/environments/"+org+"/"+env+"/open/"+sessionID+"/values", query, nil, "")
	if err != nil {
		return nil, nil, err
	}
	var value models.Value
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, nil, fmt.Errorf("failed to decode property: %w", err)
	}
	return &value, propertyValue(value.Value), nil
}

// CreateEnvironment creates a new, empty environment.
func (c *Client) CreateEnvironment(ctx context.Context, org, env string) error {
	_, _, err := c.do(ctx, http.MethodPost, "/environments/"+org+"/"+env, nil, nil, "")
	return err
}

// UpdateEnvironmentYAML replaces the environment definition with the given
// YAML body and returns any diagnostics.
func (c *Client) UpdateEnvironmentYAML(ctx context.Context, org, env, yamlBody string) (*models.EnvironmentDiagnostics, error) {
	data, _, err := c.do(ctx, http.MethodPatch, "/environments/"+org+"/"+env, nil, []byte(yamlBody), "application/x-yaml")
	if err != nil {
		return nil, err
	}
	var diags models.EnvironmentDiagnostics
	if len(data) > 0 {
		if err := json.Unmarshal(data, &diags); err != nil {
			return nil, fmt.Errorf("failed to decode diagnostics: %w", err)
		}
	}
	return &diags, nil
}

// UpdateEnvironment replaces the environment definition.
func (c *Client) UpdateEnvironment(ctx context.Context, org, env string, def *models.EnvironmentDefinition) (*models.EnvironmentDiagnostics, error) {
	body, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode environment definition: %w", err)
	}
	return c.UpdateEnvironmentYAML(ctx, org, env, string(body))
}

// DeleteEnvironment deletes the environment.
func (c *Client) DeleteEnvironment(ctx context.Context, org, env string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/environments/"+org+"/"+env, nil, nil, "")
	return err
}

// CheckEnvironmentYAML checks a definition without saving it. Diagnostics
// are returned even when the server rejects the definition with a 400.
func (c *Client) CheckEnvironmentYAML(ctx context.Context, org, yamlBody string) (*models.CheckEnvironment, error) {
	data, _, err := c.do(ctx, http.MethodPost, "/environments/"+org+"/yaml/check", nil, []byte(yamlBody), "application/x-yaml")
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			var check models.CheckEnvironment
			if jsonErr := json.Unmarshal(apiErr.Body, &check); jsonErr == nil {
				return &check, nil
			}
		}
		return nil, err
	}
	var check models.CheckEnvironment
	if err := json.Unmarshal(data, &check); err != nil {
		return nil, fmt.Errorf("failed to decode check response: %w", err)
	}
	return &check, nil
}

// CheckEnvironment checks a definition without saving it.
func (c *Client) CheckEnvironment(ctx context.Context, org string, def *models.EnvironmentDefinition) (*models.CheckEnvironment, error) {
	body, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode environment definition: %w", err)
	}
	return c.CheckEnvironmentYAML(ctx, org, string(body))
}

// DecryptEnvironment fetches the definition with secrets decrypted.
func (c *Client) DecryptEnvironment(ctx context.Context, org, env string) (*models.EnvironmentDefinition, string, error) {
	return c.getDefinition(ctx, "/environments/"+org+"/"+env+"/decrypt")
}

// ListEnvironmentRevisions lists revisions, newest first. before and count
// page through the history; zero values are omitted.
func (c *Client) ListEnvironmentRevisions(ctx context.Context, org, env string, before, count int) ([]models.EnvironmentRevision, error) {
	query := url.Values{}
	if before > 0 {
		query.Set("before", strconv.Itoa(before))
	}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}
	data, _, err := c.do(ctx, http.MethodGet, "/environments/"+org+"/"+env+"/versions", query, nil, "")
	if err != nil {
		return nil, err
	}
	var revisions []models.EnvironmentRevision
	if err := json.Unmarshal(data, &revisions); err != nil {
		return nil, fmt.Errorf("failed to decode revisions: %w", err)
	}
	return revisions, nil
}

// ListEnvironmentRevisionTags lists the revision tags of an environment.
func (c *Client) ListEnvironmentRevisionTags(ctx context.Context, org, env, after string, count int) (*models.EnvironmentRevisionTags, error) {
	query := url.Values{}
	if after != "" {
		query.Set("after", after)
	}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}
	data, _, err := c.do(ctx, http.MethodGet, "/environments/"+org+"/"+env+"/versions/tags", query, nil, "")
	if err != nil {
		return nil, err
	}
	var tags models.EnvironmentRevisionTags
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode revision tags: %w", err)
	}
	return &tags, nil
}

// GetEnvironmentRevisionTag fetches one revision tag.
func (c *Client) GetEnvironmentRevisionTag(ctx context.Context, org, env, tag string) (*models.EnvironmentRevisionTag, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/environments/"+org+"/"+env+"/versions/tags/"+tag, nil, nil, "")
	if err != nil {
		return nil, err
	}
	var revTag models.EnvironmentRevisionTag
	if err := json.Unmarshal(data, &revTag); err != nil {
		return nil, fmt.Errorf("failed to decode revision tag: %w", err)
	}
	return &revTag, nil
}

// CreateEnvironmentRevisionTag points a new tag at a revision.
func (c *Client) CreateEnvironmentRevisionTag(ctx context.Context, org, env, tag string, revision int) error {
	return c.putRevisionTag(ctx, http.MethodPost, org, env, tag, revision)
}

// UpdateEnvironmentRevisionTag moves an existing tag to a revision.
func (c *Client) UpdateEnvironmentRevisionTag(ctx context.Context, org, env, tag string, revision int) error {
	return c.putRevisionTag(ctx, http.MethodPatch, org, env, tag, revision)
}

func (c *Client) putRevisionTag(ctx context.Context, method, org, env, tag string, revision int) error {
	body, err := json.Marshal(models.UpdateEnvironmentRevisionTag{Revision: revision})
	if err != nil {
		return fmt.Errorf("failed to encode revision tag: %w", err)
	}
	_, _, err = c.do(ctx, method, "/environments/"+org+"/"+env+"/versions/tags/"+tag, nil, body, "application/json")
	return err
}

// DeleteEnvironmentRevisionTag removes a revision tag.
func (c *Client) DeleteEnvironmentRevisionTag(ctx context.Context, org, env, tag string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/environments/"+org+"/"+env+"/versions/tags/"+tag, nil, nil, "")
	return err
}
