package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/tbruland/wordpress-mcp-server/internal/errors"
	"github.com/tbruland/wordpress-mcp-server/internal/infra"
	"github.com/tbruland/wordpress-mcp-server/metrics"
)

const (
	// MaxConcurrentRequests limits parallel calls against one site.
	MaxConcurrentRequests = 5

	// maxErrorBody bounds how much of an upstream error body is surfaced.
	maxErrorBody = 500
)

// Route is one REST endpoint advertised by a site's index document.
type Route struct {
	Path      string
	Methods   []string
	Namespace string
}

// Client is the authenticated REST client for one WordPress site.
type Client struct {
	site      string
	baseURL   string
	authz     string
	userAgent string

	httpClient *http.Client
	logger     *slog.Logger
	breaker    *infra.CircuitBreaker
	dedup      *infra.RequestDeduplicator
	semaphore  chan struct{}
	maxRetries int
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = l
	}
}

// NewClient creates a client for one site. The basic auth header is
// precomputed from the site's application password.
func NewClient(site SiteConfig, settings Settings, opts ...ClientOption) *Client {
	creds := base64.StdEncoding.EncodeToString([]byte(site.Username + ":" + site.Password))
	c := &Client{
		site:       site.Alias,
		baseURL:    site.BaseURL,
		authz:      "Basic " + creds,
		userAgent:  settings.UserAgent,
		httpClient: newHTTPClient(settings.Timeout),
		logger:     slog.Default(),
		breaker:    infra.NewCircuitBreaker(5, 30*time.Second),
		dedup:      infra.NewRequestDeduplicator(),
		semaphore:  make(chan struct{}, MaxConcurrentRequests),
		maxRetries: settings.MaxRetries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Site returns the client's site alias.
func (c *Client) Site() string {
	return c.site
}

// BaseURL returns the site root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DiscoverEndpoints fetches the site's REST index and returns its routes
// sorted by path. Concurrent discovery calls for the same site collapse
// into one upstream request.
func (c *Client) DiscoverEndpoints(ctx context.Context) ([]Route, error) {
	start := time.Now()
	result, shared, err := c.dedup.Do(ctx, "discover:"+c.site, func() (interface{}, error) {
		body, err := c.do(ctx, http.MethodGet, c.baseURL+"/wp-json/", nil)
		if err != nil {
			return nil, err
		}
		parsed, err := parseIndex(body)
		if err != nil {
			return nil, err
		}
		return parsed, nil
	})
	if err != nil {
		metrics.RecordDiscovery(c.site, time.Since(start), false)
		return nil, &apierrors.DiscoveryError{Site: c.site, Err: err}
	}
	if shared {
		c.logger.Debug("Discovery request coalesced", "site", c.site)
	}

	routes := result.([]Route)
	metrics.RecordDiscovery(c.site, time.Since(start), true)
	metrics.SetDiscoveredRoutes(c.site, len(routes))
	return routes, nil
}

// parseIndex extracts the "routes" mapping from the REST index document.
func parseIndex(body []byte) ([]Route, error) {
	var index struct {
		Routes map[string]struct {
			Methods   []string `json:"methods"`
			Namespace string   `json:"namespace"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("failed to parse REST index: %w", err)
	}
	if len(index.Routes) == 0 {
		return nil, fmt.Errorf("REST index carries no routes")
	}

	paths := make([]string, 0, len(index.Routes))
	for path := range index.Routes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	routes := make([]Route, 0, len(paths))
	for _, path := range paths {
		entry := index.Routes[path]
		routes = append(routes, Route{
			Path:      path,
			Methods:   entry.Methods,
			Namespace: entry.Namespace,
		})
	}
	return routes, nil
}

// Request performs one REST call against the site. Path is the endpoint
// path below /wp-json (already substituted), query carries GET parameters,
// and body the JSON payload for write methods. A query and a body are never
// sent together.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	target := c.baseURL + "/wp-json" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	start := time.Now()
	raw, err := c.do(ctx, method, target, payload)
	metrics.RecordUpstream(c.site, method, time.Since(start), err == nil)
	return raw, err
}

// do executes one HTTP exchange with circuit breaking, rate limiting, and
// retries. Transport failures, 429 and 5xx responses are retried with
// exponential backoff; other statuses >= 400 become an UpstreamError.
func (c *Client) do(ctx context.Context, method, target string, payload []byte) (json.RawMessage, error) {
	if !c.breaker.Allow() {
		return nil, &infra.ErrCircuitOpen{Site: c.site, RetryAt: c.breaker.RetryAt()}
	}

	select {
	case c.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("context canceled while waiting for request slot: %w", ctx.Err())
	}
	defer func() { <-c.semaphore }()

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", c.authz)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn("Request failed, retrying",
				"site", c.site,
				"method", method,
				"attempt", attempt+1,
				"error", err)
			continue
		}

		body, err := readAndClose(resp)
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, parseErr := strconv.Atoi(retryAfter); parseErr == nil {
					select {
					case <-time.After(time.Duration(seconds) * time.Second):
					case <-ctx.Done():
						return nil, ctx.Err()
					}
					continue
				}
			}
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(string(body), maxErrorBody))
			continue
		}

		if resp.StatusCode >= 400 {
			c.breaker.RecordSuccess()
			return nil, upstreamError(c.site, method, target, resp.StatusCode, body)
		}

		c.breaker.RecordSuccess()
		return json.RawMessage(body), nil
	}

	c.breaker.RecordFailure()
	return nil, lastErr
}

// upstreamError builds an UpstreamError, extracting the WordPress
// {code, message} error envelope when the body carries one.
func upstreamError(site, method, target string, status int, body []byte) error {
	message := truncate(strings.TrimSpace(string(body)), maxErrorBody)
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wpErr); err == nil && wpErr.Message != "" {
		message = wpErr.Message
		if wpErr.Code != "" {
			message = wpErr.Code + ": " + wpErr.Message
		}
	}
	return &apierrors.UpstreamError{
		Site:       site,
		Method:     method,
		Path:       target,
		StatusCode: status,
		Message:    message,
	}
}

// readAndClose reads the response body and closes it.
func readAndClose(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return body, err
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// newHTTPClient creates an HTTP client with pooled transport settings.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
