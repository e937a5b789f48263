// Package api is the HTTP client for the library management backend.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mmcdole/shelf/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
	maxResponseBytes  = 8 << 20
)

// Options configures a Client
type Options struct {
	BaseURL           string // scheme and host, e.g. http://localhost:8080
	BasePath          string // API prefix, e.g. /library-management-system/api
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables rate limiting
	MaxRetries        int     // retries for idempotent requests on 5xx; < 0 disables
	RetryDelay        time.Duration
	UserAgent         string
}

// Client talks to the library REST API. It implements
// domain.CatalogRepository and domain.AuthRepository.
type Client struct {
	base       *url.URL
	basePath   string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	userAgent  string
	tokens     domain.TokenSource
	logger     *slog.Logger
}

// NewClient creates an API client. tokens may be nil for unauthenticated use.
func NewClient(opts Options, tokens domain.TokenSource, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "shelf/dev"
	}
	if tokens == nil {
		tokens = domain.TokenFunc(func() string { return "" })
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		base:       base,
		basePath:   "/" + strings.Trim(opts.BasePath, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		userAgent:  userAgent,
		tokens:     tokens,
		logger:     logger,
	}, nil
}

// parseBaseURL accepts host:port or a full URL and keeps scheme and host
func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("server url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Host returns scheme://host of the backend
func (c *Client) Host() string {
	return c.base.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.basePath, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// request describes one API call
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        func() io.Reader // rebuilt per attempt
	contentType string
	id          string // book id reported in NotFoundError
}

// do performs req and returns the decoded envelope.
// GET requests are retried with exponential backoff on 5xx responses.
func (c *Client) do(ctx context.Context, req request) (*envelope, error) {
	reqURL := c.endpoint(req.path, req.query)
	retries := 0
	if req.method == http.MethodGet {
		retries = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return nil, &domain.TransportError{Op: req.op, Err: ctx.Err()}
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying request", "op", req.op, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &domain.TransportError{Op: req.op, Err: ctx.Err()}
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &domain.TransportError{Op: req.op, Err: err}
			}
		}

		var body io.Reader
		if req.body != nil {
			body = req.body()
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.NewString()
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("User-Agent", c.userAgent)
		httpReq.Header.Set("X-Request-ID", requestID)
		if req.contentType != "" {
			httpReq.Header.Set("Content-Type", req.contentType)
		}
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}

		c.logger.Debug("api request", "op", req.op, "method", req.method, "url", reqURL, "request_id", requestID, "attempt", attempt)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Error("api request failed", "op", req.op, "error", err)
			return nil, &domain.TransportError{Op: req.op, Err: offline(err)}
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		if err != nil {
			return nil, &domain.TransportError{Op: req.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
		}

		if resp.StatusCode >= 500 && attempt < retries {
			lastErr = statusError(req, resp.StatusCode, data)
			c.logger.Warn("api server error, will retry",
				"op", req.op,
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", retries,
			)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			err := statusError(req, resp.StatusCode, data)
			c.logger.Error("api request error", "op", req.op, "status", resp.StatusCode, "body", truncate(data, 512))
			return nil, err
		}

		env, err := decodeEnvelope(req.op, data)
		if err != nil {
			c.logger.Error("api response malformed", "op", req.op, "error", err)
			return nil, err
		}
		return env, nil
	}

	c.logger.Error("api request failed after retries", "op", req.op, "error", lastErr, "url", reqURL)
	return nil, lastErr
}

// statusError maps a non-2xx response to a domain error, keeping any
// message the server put in its envelope.
func statusError(req request, status int, body []byte) error {
	msg := envelopeMessage(body)
	switch {
	case status == http.StatusNotFound && req.id != "":
		return &domain.NotFoundError{ID: req.id}
	case status == http.StatusUnauthorized:
		return &domain.TransportError{Op: req.op, StatusCode: status, Message: msg, Err: domain.ErrAuthFailed}
	}
	return &domain.TransportError{Op: req.op, StatusCode: status, Message: msg}
}

// offline wraps connection-level failures with ErrServerOffline.
// Context errors are passed through so callers can tell a cancel apart.
func offline(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
