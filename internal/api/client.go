// Package api is the storefront's REST client. It attaches the stored bearer
// token to every call and transparently recovers from an expired access
// token by refreshing it once.
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
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/metrics"
	"github.com/steve-ongera/phoneplace-kenya/internal/tokens"
)

const (
	loginEndpoint    = "/auth/login/"
	registerEndpoint = "/auth/register/"
	refreshEndpoint  = "/auth/refresh/"
)

// AuthState is the token lifecycle as seen by the client.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
	Refreshing
)

func (s AuthState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     tokens.Store
	nav        Navigator
	logger     *slog.Logger

	refreshGroup singleflight.Group
	refreshing   atomic.Int32
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.nav = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client for baseURL (e.g. http://localhost:8000/api/v1).
// The default transport is OpenTelemetry-instrumented and keeps a cookie
// jar so a guest cart survives across calls.
func New(baseURL string, store tokens.Store, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Jar:       jar,
			Timeout:   30 * time.Second,
		},
		tokens: store,
		nav:    NavigatorFunc(func(string) {}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api")
	return c, nil
}

// Tokens exposes the backing token store.
func (c *Client) Tokens() tokens.Store { return c.tokens }

func (c *Client) AuthState(ctx context.Context) AuthState {
	if c.refreshing.Load() > 0 {
		return Refreshing
	}
	if tokens.HasAccess(ctx, c.tokens) {
		return Authenticated
	}
	return Unauthenticated
}

// Do sends a JSON request and decodes the JSON response into out.
// body may be nil. A 204 or empty body leaves out untouched.
//
// A 401 on any non-auth endpoint triggers one token refresh followed by one
// retry; the retry's outcome is returned as is. If the refresh fails, both
// tokens are cleared, the navigator is sent to LoginPath and the error
// wraps ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
	}

	resp, usedToken, err := c.send(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !isAuthEndpoint(endpoint) {
		drain(resp)
		if err := c.refresh(ctx, usedToken); err != nil {
			return fmt.Errorf("%s %s: %w", method, endpoint, err)
		}
		if resp, _, err = c.send(ctx, method, endpoint, payload); err != nil {
			return err
		}
	}
	return decodeResponse(resp, method, endpoint, out)
}

// send performs one round trip. It returns the access token it attached so
// a later 401 can tell whether someone else already rotated it.
func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, string, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	var access string
	if !isAuthEndpoint(endpoint) {
		access, err = c.tokens.Get(ctx, tokens.AccessKey)
		if err != nil && !errors.Is(err, tokens.ErrNotFound) {
			return nil, "", fmt.Errorf("read access token: %w", err)
		}
		if access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(method, "error").Inc()
		return nil, "", fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	metrics.APIRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug("api call", "method", method, "endpoint", endpoint, "status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"))
	return resp, access, nil
}

// refresh exchanges the refresh token for a new access token. Concurrent
// callers share one in-flight exchange. A caller whose rejected token has
// already been replaced skips the exchange and just retries.
//
// Both token reads happen inside the flight: a rotated refresh token is
// single use, so a caller must never exchange one it read before another
// exchange finished.
func (c *Client) refresh(ctx context.Context, rejected string) error {
	// The exchange outlives any single caller's cancellation.
	detached := context.WithoutCancel(ctx)
	_, err, joined := c.refreshGroup.Do("refresh", func() (any, error) {
		current, err := c.tokens.Get(detached, tokens.AccessKey)
		if err == nil && current != "" && current != rejected {
			metrics.TokenRefreshes.WithLabelValues("reused").Inc()
			return nil, nil
		}

		c.refreshing.Add(1)
		defer c.refreshing.Add(-1)

		refreshToken, _ := c.tokens.Get(detached, tokens.RefreshKey)
		if err := c.exchange(detached, refreshToken); err != nil {
			metrics.TokenRefreshes.WithLabelValues("failed").Inc()
			c.logger.Warn("token refresh failed, ending session", "err", err)
			if err := tokens.ClearPair(detached, c.tokens); err != nil {
				c.logger.Error("failed to purge tokens", "err", err)
			}
			c.nav.Navigate(LoginPath)
			return nil, err
		}
		metrics.TokenRefreshes.WithLabelValues("ok").Inc()
		c.logger.Info("access token refreshed")
		return nil, nil
	})
	if joined {
		c.logger.Debug("joined in-flight token refresh")
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return errNoRefreshToken
	}
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return err
	}
	resp, _, err := c.send(ctx, http.MethodPost, refreshEndpoint, payload)
	if err != nil {
		return err
	}
	var pair domain.TokenPair
	if err := decodeResponse(resp, http.MethodPost, refreshEndpoint, &pair); err != nil {
		return err
	}
	if pair.Access == "" {
		return errors.New("refresh response carried no access token")
	}
	return tokens.SavePair(ctx, c.tokens, pair)
}

func decodeResponse(resp *http.Response, method, endpoint string, out any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp, method, endpoint, data)
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, endpoint, err)
	}
	return nil
}

func newHTTPError(resp *http.Response, method, endpoint string, data []byte) *HTTPError {
	statusText := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if statusText == "" {
		statusText = http.StatusText(resp.StatusCode)
	}
	he := &HTTPError{
		Method:     method,
		Endpoint:   endpoint,
		Status:     resp.StatusCode,
		StatusText: statusText,
		Raw:        data,
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		he.Payload = map[string]any{"error": statusText}
		return he
	}
	switch v := decoded.(type) {
	case map[string]any:
		he.Payload = v
	case nil:
		he.Payload = map[string]any{"error": statusText}
	default:
		he.Payload = map[string]any{"non_field_errors": v}
	}
	return he
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func isAuthEndpoint(endpoint string) bool {
	switch endpoint {
	case loginEndpoint, registerEndpoint, refreshEndpoint:
		return true
	}
	return false
}
