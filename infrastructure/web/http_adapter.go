// Package web provides the net/http implementation of ports.HTTPClient.
// Under GOOS=js the standard transport is backed by the browser fetch API,
// so the same adapter serves the wasm build and native tooling.
package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Compile-time interface compliance check
var _ ports.HTTPClient = (*HTTPAdapter)(nil)

// HTTPOption is a functional option for configuring the adapter.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	client      *http.Client
	timeout     time.Duration
	maxBodySize int64
}

func defaultHTTPConfig() httpConfig {
	return httpConfig{
		timeout:     30 * time.Second,
		maxBodySize: 10 * 1024 * 1024, // 10MB
	}
}

// WithHTTPTimeout sets the default request timeout.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(c *httpConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPMaxBodySize sets the maximum response body size.
func WithHTTPMaxBodySize(size int64) HTTPOption {
	return func(c *httpConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client, e.g. with an
// httptest server's client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *httpConfig) {
		if client != nil {
			c.client = client
		}
	}
}

// HTTPAdapter implements ports.HTTPClient on net/http.
type HTTPAdapter struct {
	client *http.Client
	config httpConfig
}

// NewHTTPAdapter creates a new HTTP adapter.
func NewHTTPAdapter(opts ...HTTPOption) *HTTPAdapter {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	client := cfg.client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	return &HTTPAdapter{client: client, config: cfg}
}

// Do executes an HTTP request. Only transport failures are returned as errors.
func (a *HTTPAdapter) Do(ctx context.Context, req ports.HTTPRequest) (*ports.HTTPResponse, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("http request: URL is required")
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	timeout := a.config.timeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("http %s %s: %w", method, req.URL, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http %s %s: %w", method, req.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, a.config.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("http %s %s: read body: %w", method, req.URL, err)
	}
	if int64(len(respBody)) > a.config.maxBodySize {
		return nil, fmt.Errorf("http %s %s: response body exceeds %d bytes", method, req.URL, a.config.maxBodySize)
	}

	return &ports.HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}
