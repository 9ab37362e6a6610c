package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/sitemd/internal/logger"
	"github.com/jmylchreest/sitemd/pkg/cleaner"
	"github.com/jmylchreest/sitemd/pkg/fetcher"
)

// FailureReason says why a URL produced no page.
type FailureReason string

const (
	FailureNone      FailureReason = ""
	FailureTimeout   FailureReason = "timeout"
	FailureStatus    FailureReason = "status"
	FailureTransport FailureReason = "transport"
	FailureParse     FailureReason = "parse"
	FailureConvert   FailureReason = "convert"
	FailureCanceled  FailureReason = "canceled"
)

// Result is the outcome of processing one URL: a Page on success,
// otherwise a Reason and the underlying error.
type Result struct {
	URL    string
	Page   *Page
	Reason FailureReason
	Err    error
}

// OK reports whether the result carries a page.
func (r Result) OK() bool {
	return r.Page != nil
}

// Processor turns a URL into a Page: fetch, title, text, outbound links.
// It holds no per-call state and is safe for concurrent use.
type Processor struct {
	fetcher    fetcher.Fetcher
	cleaner    cleaner.Cleaner
	normalizer *Normalizer
	opts       fetcher.Options
}

// NewProcessor creates a Processor. timeout bounds each fetch.
func NewProcessor(f fetcher.Fetcher, c cleaner.Cleaner, n *Normalizer, timeout time.Duration, userAgent string) *Processor {
	return &Processor{
		fetcher:    f,
		cleaner:    c,
		normalizer: n,
		opts:       fetcher.Options{Timeout: timeout, UserAgent: userAgent},
	}
}

// Process fetches and parses one URL.
func (p *Processor) Process(ctx context.Context, pageURL string) Result {
	fetchCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	content, err := p.fetcher.Fetch(fetchCtx, pageURL, p.opts)
	if err != nil {
		return failed(pageURL, classifyFetchError(ctx, err), err)
	}
	if !fetcher.IsSuccess(content.StatusCode) {
		return failed(pageURL, FailureStatus, &fetcher.StatusError{URL: pageURL, StatusCode: content.StatusCode})
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return failed(pageURL, FailureParse, fmt.Errorf("parse html: %w", err))
	}

	text, err := p.cleaner.Clean(content.HTML)
	if err != nil {
		return failed(pageURL, FailureConvert, fmt.Errorf("convert with %s: %w", p.cleaner.Name(), err))
	}

	page := &Page{
		URL:           pageURL,
		Title:         extractTitle(doc),
		Text:          text,
		FileSlot:      FileSlot(pageURL),
		Links:         p.extractLinks(doc, pageURL),
		StatusCode:    content.StatusCode,
		FetchedAt:     content.FetchedAt,
		FetchDuration: content.Duration,
	}
	return Result{URL: pageURL, Page: page}
}

// extractTitle returns the first <title> text or NoTitle.
func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return NoTitle
	}
	return strings.Join(strings.Fields(title), " ")
}

// extractLinks resolves every anchor in document order and keeps the
// same-domain ones. Duplicates are left in; claiming dedups them.
func (p *Processor) extractLinks(doc *goquery.Document, pageURL string) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link, ok := p.normalizer.Resolve(pageURL, href); ok {
			links = append(links, link)
		}
	})
	return links
}

func failed(pageURL string, reason FailureReason, err error) Result {
	logger.Debug("page skipped", "url", pageURL, "reason", reason, "error", err)
	return Result{URL: pageURL, Reason: reason, Err: err}
}

func classifyFetchError(ctx context.Context, err error) FailureReason {
	var statusErr *fetcher.StatusError
	switch {
	case errors.As(err, &statusErr):
		return FailureStatus
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
		return FailureCanceled
	case errors.Is(err, fetcher.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	default:
		return FailureTransport
	}
}
