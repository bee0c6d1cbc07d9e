// Package api is the single chokepoint for communication with the remote
// storefront API. It attaches the bearer credential, consults the response
// cache before dispatching reads, invalidates related entries after
// mutations, and transparently refreshes an expired access token once per
// originating request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/storefront/internal/cache"
	"github.com/felixgeelhaar/storefront/internal/domain"
)

// DefaultTimeout bounds every network request.
const DefaultTimeout = 10 * time.Second

// Doer executes HTTP requests. Satisfied by *http.Client and by the
// fortify-backed ResilientDoer.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource provides the persisted credential pair. The client reads the
// access token on every request, replaces it after a silent refresh, and
// clears the pair when a refresh fails irrecoverably.
type TokenSource interface {
	Access() string
	Refresh() string
	SetAccess(access string) error
	Clear() error
}

// Response is a completed API response.
type Response struct {
	StatusCode int
	Body       []byte
	// Cached is true when the body was served from the response cache
	// without network I/O.
	Cached bool
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	HTTPClient Doer                // defaults to http.Client with DefaultTimeout
	Cache      cache.ResponseCache // nil disables caching
	Tokens     TokenSource
	Events     *domain.EventDispatcher
	Logger     *slog.Logger
	Timeout    time.Duration
}

// Client talks to the remote storefront API.
type Client struct {
	baseURL    string
	httpClient Doer
	cache      cache.ResponseCache
	tokens     TokenSource
	events     *domain.EventDispatcher
	logger     *slog.Logger
}

// NewClient creates a new API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("Tokens is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		cache:      cfg.Cache,
		tokens:     cfg.Tokens,
		events:     cfg.Events,
		logger:     logger,
	}, nil
}

// Request performs an API call. Reads are answered from the cache when a
// live entry exists; successful mutations invalidate the affected entries.
// A 401 triggers at most one silent token refresh and one retried request.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	isRead := method == http.MethodGet || method == http.MethodHead
	key := cache.NewKey(path, params)

	if isRead && c.cache != nil {
		payload, err := c.cache.Get(ctx, key)
		if err == nil {
			return &Response{StatusCode: http.StatusOK, Body: payload, Cached: true}, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn("cache lookup failed", "path", path, "error", err)
		}
	}

	resp, err := c.send(ctx, method, path, params, body, c.tokens.Access())
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens.Refresh() != "" {
		access, refreshErr := c.refreshAccessToken(ctx)
		if refreshErr != nil {
			c.invalidateSession(refreshErr)
			return nil, classify(resp.StatusCode, resp.Body)
		}

		// Reissue the original request exactly once. A second 401 falls
		// through to classification below and is terminal.
		resp, err = c.send(ctx, method, path, params, body, access)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classify(resp.StatusCode, resp.Body)
	}

	if c.cache != nil {
		if isRead {
			if err := c.cache.Set(ctx, key, resp.Body); err != nil {
				c.logger.Warn("cache store failed", "path", path, "error", err)
			}
		} else {
			c.invalidateAfterWrite(ctx, path)
		}
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, params, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, nil, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, nil, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// PurgeCache drops every cached response. Called on identity change so no
// personal data survives a logout.
func (c *Client) PurgeCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Clear(ctx)
}

// send dispatches a single request and reads the full body. Transport
// failures (connectivity, timeout) come back as ErrNetwork.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body any, access string) (*Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, networkError(err)
	}

	return &Response{StatusCode: httpResp.StatusCode, Body: payload}, nil
}

// refreshAccessToken exchanges the refresh token for a new access token
// and stores it. It bypasses Request so a failing refresh can never
// recurse into another refresh.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, PathTokenRefresh, nil,
		map[string]string{"refresh": c.tokens.Refresh()}, "")
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classify(resp.StatusCode, resp.Body)
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := resp.JSON(&out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}

	if err := c.tokens.SetAccess(out.Access); err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}
	return out.Access, nil
}

// invalidateSession tears down the stored credentials and signals the
// presentation layer that the session is gone.
func (c *Client) invalidateSession(cause error) {
	c.logger.Warn("token refresh failed, invalidating session", "error", cause)
	if err := c.tokens.Clear(); err != nil {
		c.logger.Warn("clear tokens", "error", err)
	}
	if c.events != nil {
		c.events.Publish(domain.NewSessionInvalidatedEvent("token refresh failed"))
	}
}

// invalidateAfterWrite drops cache entries a successful mutation of path
// plausibly affected: the path itself, every ancestor prefix up to but
// excluding the root (a "/" prefix would wipe unrelated resources), and
// the profile entry for mutations under the auth namespace. Walking all
// ancestors means a nested mutation like /cart/item/7/delete/ also drops
// the cached /cart/ listing its resync refetch depends on.
func (c *Client) invalidateAfterWrite(ctx context.Context, path string) {
	prefixes := []string{path}
	for parent := parentPath(path); parent != "" && parent != "/"; parent = parentPath(parent) {
		prefixes = append(prefixes, parent)
	}
	if strings.HasPrefix(path, PathAuthPrefix) {
		prefixes = append(prefixes, PathProfile)
	}

	for _, prefix := range prefixes {
		if err := c.cache.InvalidatePath(ctx, prefix); err != nil {
			c.logger.Warn("cache invalidation failed", "prefix", prefix, "error", err)
		}
	}
}

// parentPath returns the path one segment up, keeping the trailing slash:
// /cart/add/ -> /cart/, /cart/ -> /.
func parentPath(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}
