package ports

import (
	"context"
)

// HTTPClient defines the interface for HTTP operations.
// Infrastructure adapters implement this to provide HTTP functionality.
type HTTPClient interface {
	// Do executes an HTTP request and returns the response.
	// Non-2xx statuses are not errors; only transport failures are.
	Do(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)
}

// HTTPRequest represents an HTTP request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout int // milliseconds
}

// HTTPResponse represents an HTTP response.
type HTTPResponse struct {
	Headers    map[string][]string
	Body       []byte
	StatusCode int
}

// IsSuccess reports a 2xx status.
func (r *HTTPResponse) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}
