package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/sitemd/internal/logger"
	"github.com/jmylchreest/sitemd/internal/version"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultStaticConfig returns the defaults used by the crawler: a 10 second
// hard timeout per request.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent: version.UserAgent(),
		Timeout:   10 * time.Second,
	}
}

// StaticFetcher uses Colly for plain HTTP fetching.
// It implements the Fetcher interface and is safe for concurrent use: every
// call builds its own collector.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultStaticConfig().UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultStaticConfig().Timeout
	}
	return &StaticFetcher{config: cfg}
}

// Fetch retrieves a page using Colly.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	userAgent := coalesce(opts.UserAgent, f.config.UserAgent)
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(timeout)
	// Status classification is ours; let every response reach OnResponse.
	c.ParseHTTPErrorResponse = true

	if len(opts.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range opts.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	err := c.Visit(targetURL)
	result.Duration = time.Since(result.FetchedAt)
	if err == nil {
		err = fetchErr
	}
	if err != nil {
		logger.Debug("static fetch failed", "url", targetURL, "error", err, "duration", result.Duration)
		return result, classify(ctx, err)
	}

	if !IsSuccess(result.StatusCode) {
		return result, &StatusError{URL: targetURL, StatusCode: result.StatusCode}
	}

	logger.Debug("static fetch complete",
		"url", targetURL,
		"status", result.StatusCode,
		"body_size", len(result.HTML),
		"duration", result.Duration)
	return result, nil
}

// classify maps a transport error onto ErrTimeout or ErrTransport while
// keeping the original error in the chain.
func classify(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
