// Package fetcher defines the interface for web page fetching.
// Implement the Fetcher interface to plug a different transport into the
// crawler (authenticated clients, recorded fixtures, and so on).
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves a page. A response outside the 2xx range is reported
	// as a *StatusError; a deadline hit is reported as ErrTimeout.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static").
	Type() string
}

// Options controls fetching behavior for a single request.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string
}

// Content represents a fetched response.
type Content struct {
	URL         string
	HTML        string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Duration    time.Duration
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, fetcher.ErrTimeout).
var (
	// ErrTimeout indicates the request did not finish within its timeout.
	ErrTimeout = errors.New("fetch timeout")
	// ErrTransport indicates a connection-level failure (DNS, refused, reset).
	ErrTransport = errors.New("transport error")
)

// StatusError is returned when the server answered outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}
