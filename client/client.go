// Package client is a typed client for the Barlyq Qyzmet platform REST API.
//
// A Client attaches the stored bearer token and refresh token to every
// request. When the backend answers 401 it refreshes the token pair once and
// replays the request a single time. Resource endpoints are grouped into
// services hanging off the Client:
//
//	c := client.New(client.DefaultBaseURL, client.WithTokenSource(tokens))
//	users, err := c.Users.List(ctx)
//	listings, err := c.Listings.Unified(ctx)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/barlyqqyzmet/admin/internal/cache"
)

const (
	DefaultBaseURL       = "https://api.barlyqqyzmet.kz"
	DefaultRefreshHeader = "X-Refresh-Token"
	DefaultTimeout       = 30 * time.Second
	DefaultUserAgent     = "barlyq-admin"

	authPrefix  = "/auth/"
	refreshPath = "/auth/refresh"
)

// Client talks to the platform backend.
type Client struct {
	baseURL       string
	http          *http.Client
	tokens        TokenSource
	log           *zap.Logger
	refreshHeader string
	userAgent     string

	cache    *cache.Cache
	cacheTTL time.Duration

	guard          func(ctx context.Context) (func(), error)
	inflight       singleflight.Group
	refreshTimeout time.Duration

	Auth       *AuthService
	Users      *UsersService
	Listings   *ListingsService
	Categories *CategoriesService
	Complaints *ComplaintsService
	Taxi       *TaxiService
	Courier    *CourierService
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRefreshHeader sets the header that carries the refresh token.
func WithRefreshHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.refreshHeader = name
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithCache enables response caching for the endpoints that opt into it.
func WithCache(store *cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithRefreshGuard serializes token refreshes across processes. The guard
// must block until the caller owns the critical section and return a release
// func.
func WithRefreshGuard(guard func(ctx context.Context) (func(), error)) Option {
	return func(c *Client) { c.guard = guard }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		http:           &http.Client{Timeout: DefaultTimeout},
		tokens:         &MemoryTokens{},
		log:            zap.NewNop(),
		refreshHeader:  DefaultRefreshHeader,
		userAgent:      DefaultUserAgent,
		refreshTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{c}
	c.Users = &UsersService{c}
	c.Listings = &ListingsService{c}
	c.Categories = &CategoriesService{c}
	c.Complaints = &ComplaintsService{c}
	c.Taxi = &TaxiService{c}
	c.Courier = &CourierService{c}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Tokens exposes the token source backing the client.
func (c *Client) Tokens() TokenSource { return c.tokens }

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// do performs one logical API call. A 401 on a non-auth endpoint triggers a
// single token refresh followed by exactly one replay of the request.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	payload, contentType, err := encodeBody(body)
	if err != nil {
		return err
	}

	reqID := uuid.NewString()
	tokens, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}

	data, status, err := c.send(ctx, method, path, query, payload, contentType, reqID, tokens)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && tokens.Refresh != "" && !strings.HasPrefix(path, authPrefix) {
		fresh, err := c.refresh(ctx, tokens)
		if err != nil {
			return err
		}
		data, status, err = c.send(ctx, method, path, query, payload, contentType, reqID, fresh)
		if err != nil {
			return err
		}
	}

	if status == http.StatusUnauthorized && !strings.HasPrefix(path, authPrefix) {
		return fmt.Errorf("%w: %w", ErrSessionExpired, newAPIError(status, reqID, data))
	}
	if status >= 400 {
		return newAPIError(status, reqID, data)
	}
	return decodeBody(data, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, contentType, reqID string, tokens Tokens) ([]byte, int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tokens.Access != "" {
		req.Header.Set("Authorization", "Bearer "+tokens.Access)
	}
	if tokens.Refresh != "" {
		req.Header.Set(c.refreshHeader, tokens.Refresh)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", reqID))

	return data, resp.StatusCode, nil
}

// refresh exchanges the refresh token for a new pair. Concurrent callers in
// this process share one exchange, which outlives any single caller's
// cancellation; each caller still stops waiting when its own ctx is done.
func (c *Client) refresh(ctx context.Context, stale Tokens) (Tokens, error) {
	ch := c.inflight.DoChan("refresh", func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return c.refreshOnce(shared, stale)
	})
	select {
	case <-ctx.Done():
		return Tokens{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Tokens{}, res.Err
		}
		return res.Val.(Tokens), nil
	}
}

func (c *Client) refreshOnce(ctx context.Context, stale Tokens) (Tokens, error) {
	if c.guard != nil {
		release, err := c.guard(ctx)
		if err != nil {
			return Tokens{}, fmt.Errorf("refresh guard: %w", err)
		}
		defer release()
	}

	current, err := c.tokens.Token(ctx)
	if err != nil {
		return Tokens{}, fmt.Errorf("load tokens: %w", err)
	}
	// Someone else already rotated the pair while we waited.
	if current.Access != "" && current.Access != stale.Access {
		return current, nil
	}
	if current.Refresh == "" {
		current.Refresh = stale.Refresh
	}
	if current.Refresh == "" {
		return Tokens{}, ErrSessionExpired
	}

	reqID := uuid.NewString()
	data, status, err := c.send(ctx, http.MethodPost, refreshPath, nil, nil, "", reqID, current)
	if err != nil {
		return Tokens{}, fmt.Errorf("refresh token: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if err := c.tokens.ClearToken(ctx); err != nil {
			c.log.Warn("clear tokens after rejected refresh", zap.Error(err))
		}
		return Tokens{}, fmt.Errorf("%w: %v", ErrSessionExpired, newAPIError(status, reqID, data))
	}
	if status >= 400 {
		return Tokens{}, fmt.Errorf("refresh token: %w", newAPIError(status, reqID, data))
	}

	var fresh Tokens
	if err := json.Unmarshal(data, &fresh); err != nil {
		return Tokens{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if fresh.Access == "" {
		return Tokens{}, errors.New("refresh response missing access_token")
	}
	if fresh.Refresh == "" {
		fresh.Refresh = current.Refresh
	}
	if err := c.tokens.SetToken(ctx, fresh); err != nil {
		return Tokens{}, fmt.Errorf("store refreshed tokens: %w", err)
	}

	c.log.Info("access token refreshed", zap.String("request_id", reqID))
	return fresh, nil
}

// getCached serves GETs from the response cache when one is configured.
func (c *Client) getCached(ctx context.Context, path string, out any) error {
	if c.cache == nil {
		return c.get(ctx, path, nil, out)
	}

	key := cache.Key(http.MethodGet, path, nil)
	if entry, hit, err := c.cache.Get(key); err == nil && hit {
		if err := json.Unmarshal(entry.Body, out); err == nil {
			c.log.Debug("cache hit", zap.String("path", path), zap.Int("hits", entry.HitCount))
			return nil
		}
		c.log.Warn("dropping undecodable cache entry", zap.String("path", path))
		if err := c.cache.Invalidate(key); err != nil {
			c.log.Warn("cache invalidation failed", zap.String("path", path), zap.Error(err))
		}
	}

	var raw json.RawMessage
	if err := c.get(ctx, path, nil, &raw); err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := c.cache.Set(key, path, raw, c.cacheTTL); err != nil {
			c.log.Warn("cache store failed", zap.String("path", path), zap.Error(err))
		}
	}
	return decodeBody(raw, out)
}

func (c *Client) invalidate(prefix string) {
	if c.cache == nil {
		return
	}
	if _, err := c.cache.InvalidatePath(prefix); err != nil {
		c.log.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
	}
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Form:
		return b.encode()
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request: %w", err)
		}
		return data, "application/json", nil
	}
}

func decodeBody(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
