// Package rest is the transport layer below the request service.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Request is a single HTTP exchange to perform.
type Request struct {
	Method string
	Href   string
	Body   []byte
}

// Response is what came back, whatever its status.
type Response struct {
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
}

// IsSuccessful reports a 2xx status.
func (r *Response) IsSuccessful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs requests. A returned error means no response was received;
// non-2xx responses are returned without error.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPConfig holds configuration for HTTPTransport.
type HTTPConfig struct {
	Timeout time.Duration
	// RequestsPerSecond limits outgoing calls. 0 disables the limit.
	RequestsPerSecond float64
	Burst             int
	// Token, if set, is sent as a bearer token.
	Token string
}

// HTTPTransport performs requests with net/http.
type HTTPTransport struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewHTTPTransport creates a transport. When cfg.Token is set the client is
// wrapped with a static oauth2 token source.
func NewHTTPTransport(ctx context.Context, cfg *HTTPConfig, logger zerolog.Logger) *HTTPTransport {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		client.Timeout = cfg.Timeout
	}
	t := &HTTPTransport{
		client: client,
		logger: logger.With().Str("component", "HTTPTransport").Logger(),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return t
}

// NewHTTPTransportWithClient wraps an existing client, e.g. an httptest one.
func NewHTTPTransportWithClient(client *http.Client, logger zerolog.Logger) *HTTPTransport {
	return &HTTPTransport{
		client: client,
		logger: logger.With().Str("component", "HTTPTransport").Logger(),
	}
}

// Do performs req.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: req.Method, Href: req.Href, Err: err}
		}
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.Href, body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Href: req.Href, Err: err}
	}
	httpReq.Header.Set("Accept", "application/hal+json, application/json")
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Error().Err(err).Str("method", req.Method).Str("href", req.Href).Msg("Request failed without a response.")
		return nil, &TransportError{Method: req.Method, Href: req.Href, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Href: req.Href, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	t.logger.Debug().
		Str("method", req.Method).
		Str("href", req.Href).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed.")

	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header,
		Body:       data,
	}, nil
}
