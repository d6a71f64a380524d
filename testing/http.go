package sdktest

import (
	"context"
	"sync"

	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// MockHTTPClient is a ports.HTTPClient backed by DoFunc. It records every
// request it receives.
type MockHTTPClient struct {
	DoFunc func(ctx context.Context, req ports.HTTPRequest) (*ports.HTTPResponse, error)

	mu       sync.Mutex
	requests []ports.HTTPRequest
}

// Do implements ports.HTTPClient.
func (m *MockHTTPClient) Do(ctx context.Context, req ports.HTTPRequest) (*ports.HTTPResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.DoFunc != nil {
		return m.DoFunc(ctx, req)
	}
	return &ports.HTTPResponse{StatusCode: 200, Body: []byte("{}")}, nil
}

// Requests returns the requests received so far.
func (m *MockHTTPClient) Requests() []ports.HTTPRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.HTTPRequest(nil), m.requests...)
}

// JSONResponse returns a DoFunc result with status and body.
func JSONResponse(status int, body string) (*ports.HTTPResponse, error) {
	return &ports.HTTPResponse{
		StatusCode: status,
		Headers:    map[string][]string{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}, nil
}
