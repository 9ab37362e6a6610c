package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sitemd/pkg/cleaner"
	"github.com/jmylchreest/sitemd/pkg/fetcher"
)

func newTestProcessor(t *testing.T, f fetcher.Fetcher, cl cleaner.Cleaner, timeout time.Duration) *Processor {
	t.Helper()
	n, err := NewNormalizer("https://example.com/")
	require.NoError(t, err)
	return NewProcessor(f, cl, n, timeout, "")
}

func TestProcessor_Process_Success(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]fakeResponse{
		"https://example.com/docs/": {html: htmlPage("  Docs\n  Home ",
			"intro", "/about#team", "https://other.org/x", "mailto:a@b.c", "intro")},
	})
	p := newTestProcessor(t, f, prefixCleaner{}, time.Second)

	res := p.Process(context.Background(), "https://example.com/docs/")
	require.True(t, res.OK(), "unexpected failure: %v", res.Err)

	page := res.Page
	assert.Equal(t, "Docs Home", page.Title)
	assert.Equal(t, "docs.md", page.FileSlot)
	assert.Contains(t, page.Text, "text:<html>")
	assert.Equal(t, []string{
		"https://example.com/docs/intro",
		"https://example.com/about",
		"https://example.com/docs/intro",
	}, page.Links)
	assert.Equal(t, 200, page.StatusCode)
}

func TestProcessor_Process_DefaultTitle(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]fakeResponse{
		"https://example.com/a": {html: htmlPage("")},
		"https://example.com/b": {html: "<html><head><title>   </title></head></html>"},
	})
	p := newTestProcessor(t, f, cleaner.NewNoop(), time.Second)

	for _, u := range []string{"https://example.com/a", "https://example.com/b"} {
		res := p.Process(context.Background(), u)
		require.True(t, res.OK())
		assert.Equal(t, NoTitle, res.Page.Title, u)
	}
}

func TestProcessor_Process_FirstTitleWins(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]fakeResponse{
		"https://example.com/": {html: "<html><head><title>First</title></head><body><svg><title>Icon</title></svg></body></html>"},
	})
	res := newTestProcessor(t, f, cleaner.NewNoop(), time.Second).Process(context.Background(), "https://example.com/")
	require.True(t, res.OK())
	assert.Equal(t, "First", res.Page.Title)
}

func TestProcessor_Process_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    fakeResponse
		cleaner cleaner.Cleaner
		want    FailureReason
	}{
		{"status error", fakeResponse{err: &fetcher.StatusError{URL: "u", StatusCode: 500}}, prefixCleaner{}, FailureStatus},
		{"non-2xx without error", fakeResponse{status: 301, html: "moved"}, prefixCleaner{}, FailureStatus},
		{"timeout", fakeResponse{delay: time.Second}, prefixCleaner{}, FailureTimeout},
		{"transport", fakeResponse{err: errors.Join(fetcher.ErrTransport, errors.New("connection refused"))}, prefixCleaner{}, FailureTransport},
		{"convert", fakeResponse{html: htmlPage("x")}, prefixCleaner{err: errors.New("boom")}, FailureConvert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFakeFetcher(map[string]fakeResponse{"https://example.com/p": tt.resp})
			p := newTestProcessor(t, f, tt.cleaner, 20*time.Millisecond)

			res := p.Process(context.Background(), "https://example.com/p")
			assert.False(t, res.OK())
			assert.Nil(t, res.Page)
			assert.Equal(t, tt.want, res.Reason)
			assert.Error(t, res.Err)
		})
	}
}

func TestProcessor_Process_Canceled(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]fakeResponse{"https://example.com/slow": {delay: time.Second}})
	p := newTestProcessor(t, f, prefixCleaner{}, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res := p.Process(ctx, "https://example.com/slow")
	assert.Equal(t, FailureCanceled, res.Reason)
}
