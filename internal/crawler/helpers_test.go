package crawler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/sitemd/pkg/fetcher"
)

// fakeResponse scripts what fakeFetcher returns for one URL.
type fakeResponse struct {
	status int
	html   string
	err    error
	delay  time.Duration
}

// fakeFetcher serves scripted responses and records every call.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     map[string]int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeFetcher(responses map[string]fakeResponse) *fakeFetcher {
	return &fakeFetcher{responses: responses, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, _ fetcher.Options) (fetcher.Content, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[url]++
	resp, ok := f.responses[url]
	f.mu.Unlock()

	if !ok {
		return fetcher.Content{URL: url, StatusCode: 404}, &fetcher.StatusError{URL: url, StatusCode: 404}
	}
	if resp.delay > 0 {
		select {
		case <-time.After(resp.delay):
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fetcher.Content{URL: url}, errors.Join(fetcher.ErrTimeout, ctx.Err())
			}
			return fetcher.Content{URL: url}, ctx.Err()
		}
	}
	if resp.err != nil {
		return fetcher.Content{URL: url}, resp.err
	}
	status := resp.status
	if status == 0 {
		status = 200
	}
	return fetcher.Content{URL: url, StatusCode: status, HTML: resp.html, FetchedAt: time.Now()}, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// memorySink keeps everything in memory and can be told to fail.
type memorySink struct {
	mu        sync.Mutex
	pages     map[string]string
	aggregate []string
	index     *SiteIndex
	pageErr   error
	finalErr  error
	finalRuns int
}

func newMemorySink() *memorySink {
	return &memorySink{pages: make(map[string]string)}
}

func (s *memorySink) WritePage(slot, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageErr != nil {
		return s.pageErr
	}
	s.pages[slot] = text
	return nil
}

func (s *memorySink) WriteAggregate(blocks []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalRuns++
	s.aggregate = blocks
	return s.finalErr
}

func (s *memorySink) WriteIndex(idx *SiteIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = idx
	return s.finalErr
}

// prefixCleaner is a deterministic stand-in for the markdown converter.
type prefixCleaner struct{ err error }

func (c prefixCleaner) Clean(html string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return "text:" + html, nil
}

func (c prefixCleaner) Name() string { return "fake" }

func htmlPage(title string, hrefs ...string) string {
	html := "<html><head>"
	if title != "" {
		html += "<title>" + title + "</title>"
	}
	html += "</head><body>"
	for _, h := range hrefs {
		html += `<a href="` + h + `">link</a>`
	}
	return html + "</body></html>"
}
