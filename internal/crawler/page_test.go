package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileSlot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/", "index.md"},
		{"https://example.com", "index.md"},
		{"https://example.com/about", "about.md"},
		{"https://example.com/docs/intro/", "docs_intro.md"},
		{"https://example.com/a/b/c", "a_b_c.md"},
		{"https://example.com/search?q=go", "search.md"},
		{"https://example.com/faq#billing", "faq.md"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FileSlot(tt.url))
		})
	}
}

func TestFileSlot_Stable(t *testing.T) {
	t.Parallel()
	const u = "https://example.com/events/2026/october"
	assert.Equal(t, FileSlot(u), FileSlot(u))
	assert.Equal(t, "events_2026_october.md", FileSlot(u))
}

func TestPagePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/", PagePath("https://example.com"))
	assert.Equal(t, "/", PagePath("https://example.com/"))
	assert.Equal(t, "/docs/intro", PagePath("https://example.com/docs/intro?x=1"))
	assert.Equal(t, "/", PagePath("::bad"))
}

func TestFormatBlock(t *testing.T) {
	t.Parallel()

	p := &Page{URL: "https://example.com/about", Title: "About", Text: "We crawl."}
	assert.Equal(t, "# About\n\nURL: https://example.com/about\n\n---\n\nWe crawl.\n\n\n", FormatBlock(p))
}

func TestPage_Ref(t *testing.T) {
	t.Parallel()

	p := &Page{URL: "https://example.com/a", Title: "A", FileSlot: "a.md", Text: "ignored"}
	assert.Equal(t, PageRef{Title: "A", URL: "https://example.com/a", File: "a.md"}, p.Ref())
}
