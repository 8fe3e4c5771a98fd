package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-dolar-client/authmodel"
	"github.com/jrsteele09/go-dolar-client/internal/config"
	"github.com/jrsteele09/go-dolar-client/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// HeaderRequestID carries a per-request correlation id.
	HeaderRequestID = "X-Request-ID"

	maxResponseBytes = 10 << 20
)

// TokenSource is the session context the client reads credentials from. Expire is the
// global logout run when a refresh fails or is impossible.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	StoreTokens(ctx context.Context, accessToken, refreshToken string) error
	Expire(ctx context.Context)
}

// Client is the shared backend client: bearer injection and one refresh-and-retry per
// request on 401.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       TokenSource
	onExpired    func()
	coalesce     bool
	refreshGroup singleflight.Group
	metrics      *Metrics
	nowTime      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithSessionExpiredHandler runs after a forced logout, typically to send the user to login.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) {
		c.onExpired = fn
	}
}

// WithRefreshCoalescing shares one refresh call between concurrent 401s holding the
// same refresh token.
func WithRefreshCoalescing() Option {
	return func(c *Client) {
		c.coalesce = true
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// ResolveBaseURL picks the backend base URL: the /api proxy on origin in development
// or when no API URL is configured, the configured absolute URL otherwise.
func ResolveBaseURL(dev bool, apiURL, origin string) string {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if dev || apiURL == "" {
		return strings.TrimRight(origin, "/") + "/api"
	}
	return apiURL
}

// New creates a client rooted at baseURL.
func New(baseURL string, tokens TokenSource, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, pkgerrors.New("[apiclient.New] base url is required")
	}
	if tokens == nil {
		return nil, pkgerrors.New("[apiclient.New] token source is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// NewFromConfig resolves the base URL and timeout from configuration.
func NewFromConfig(cfg config.APIConfig, tokens TokenSource, options ...Option) (*Client, error) {
	base := ResolveBaseURL(cfg.IsDev(), cfg.GetAPIURL(), cfg.GetAppOrigin())
	opts := []Option{WithTimeout(cfg.GetAPITimeout())}
	if cfg.GetRefreshCoalescing() {
		opts = append(opts, WithRefreshCoalescing())
	}
	return New(base, tokens, append(opts, options...)...)
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// pendingRequest is one logical call. retried flips once, after the refresh.
type pendingRequest struct {
	method      string
	path        string
	body        []byte
	retried     bool
	skipRefresh bool
}

// Request sends a JSON request and returns the raw response body. The body is never
// unwrapped here: callers decide whether a {"data": ...} envelope applies.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	req, err := newPendingRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func newPendingRequest(method, path string, body any) (*pendingRequest, error) {
	req := &pendingRequest{method: method, path: path}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "[apiclient] encode body")
		}
		req.body = payload
	}
	return req, nil
}

func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodDelete, path, nil)
}

// do drives the per-request state machine:
// Initial -> (401) Refreshing -> Retried -> returned, or Failed when the refresh is
// impossible, fails, or the retried request is rejected again.
func (c *Client) do(ctx context.Context, req *pendingRequest) (json.RawMessage, error) {
	for {
		status, body, err := c.send(ctx, req, true)
		if err != nil {
			return nil, err
		}
		if status >= 200 && status < 300 {
			return body, nil
		}

		httpErr := &HTTPError{Status: status, Payload: body}
		if status != http.StatusUnauthorized || req.skipRefresh {
			return nil, httpErr
		}
		if req.retried {
			c.fail(ctx, "refreshed credentials rejected")
			return nil, &sessionExpiredError{cause: httpErr}
		}

		if err := c.refresh(ctx); err != nil {
			if interrupted(ctx, err) {
				return nil, pkgerrors.Wrap(err, "[apiclient] refresh interrupted")
			}
			c.fail(ctx, err.Error())
			return nil, &sessionExpiredError{cause: err}
		}
		req.retried = true
	}
}

func (c *Client) send(ctx context.Context, req *pendingRequest, withAuth bool) (int, json.RawMessage, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(err, "[apiclient] build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, uuid.New().String())

	if withAuth {
		if accessToken := c.tokens.AccessToken(); accessToken != "" {
			(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(httpReq)
		}
	}

	start := c.nowTime()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.method, 0, c.nowTime().Sub(start))
		return 0, nil, fmt.Errorf("%w: %s %s: %w", errors.ErrNetwork, req.method, req.path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.observeRequest(req.method, resp.StatusCode, c.nowTime().Sub(start))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read %s %s: %w", errors.ErrNetwork, req.method, req.path, err)
	}

	log.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Bool("retried", req.retried).
		Msg("api request")

	if len(bytes.TrimSpace(payload)) == 0 {
		return resp.StatusCode, nil, nil
	}
	return resp.StatusCode, json.RawMessage(payload), nil
}

// interrupted reports whether a refresh stopped because a caller gave up. That says
// nothing about the session, so it must not force a logout.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

var errNoRefreshToken = pkgerrors.New("no refresh token")

func (c *Client) refresh(ctx context.Context) error {
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		c.metrics.observeRefresh("missing")
		return errNoRefreshToken
	}
	if !c.coalesce {
		return c.refreshAndStore(ctx, refreshToken)
	}
	_, err, shared := c.refreshGroup.Do(refreshToken, func() (any, error) {
		return nil, c.refreshAndStore(ctx, refreshToken)
	})
	if shared {
		log.Debug().Msg("joined in-flight token refresh")
	}
	return err
}

func (c *Client) refreshAndStore(ctx context.Context, refreshToken string) error {
	resp, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		c.metrics.observeRefresh("failed")
		return err
	}
	if resp.Token == "" {
		c.metrics.observeRefresh("empty")
		return pkgerrors.New("refresh returned no token")
	}
	if err := c.tokens.StoreTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		c.metrics.observeRefresh("store_failed")
		return pkgerrors.Wrap(err, "store refreshed tokens")
	}
	c.metrics.observeRefresh("ok")
	return nil
}

// Refresh exchanges the refresh token, sending the current (possibly expired) access
// token alongside it. It bypasses the 401 handling.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*authmodel.AuthResponse, error) {
	req, err := newPendingRequest(http.MethodPost, RouteRefresh, authmodel.RefreshTokenRequest{
		TokenExpirado: c.tokens.AccessToken(),
		RefreshToken:  refreshToken,
	})
	if err != nil {
		return nil, err
	}
	status, body, err := c.send(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &HTTPError{Status: status, Payload: body}
	}
	var resp authmodel.AuthResponse
	if err := json.Unmarshal(authmodel.Unwrap(body), &resp); err != nil {
		return nil, pkgerrors.Wrap(err, "[apiclient.Refresh] decode")
	}
	return &resp, nil
}

func (c *Client) fail(ctx context.Context, reason string) {
	log.Warn().Str("reason", reason).Msg("session expired, forcing logout")
	c.tokens.Expire(ctx)
	if c.onExpired != nil {
		c.onExpired()
	}
}
