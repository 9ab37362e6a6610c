package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// NoTitle is recorded when a page has no usable <title>.
	NoTitle = "No Title"

	indexSlot = "index"
	slotExt   = ".md"
)

// Page is the record produced for one successfully fetched URL.
type Page struct {
	URL           string
	Title         string
	Text          string
	FileSlot      string
	Links         []string
	StatusCode    int
	FetchedAt     time.Time
	FetchDuration time.Duration
}

// Ref returns the lightweight index entry for the page.
func (p *Page) Ref() PageRef {
	return PageRef{Title: p.Title, URL: p.URL, File: p.FileSlot}
}

// PageRef is what the site index stores for each page.
type PageRef struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
	File  string `json:"file" yaml:"file"`
}

// FileSlot derives the storage name for a URL from its path alone:
// "/docs/intro/" becomes "docs_intro.md" and the site root "index.md".
// Distinct paths can collide ("/a_b" and "/a/b"); callers that care must
// check for that.
func FileSlot(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}

	name := strings.Trim(path, "/")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		name = indexSlot
	}
	return name + slotExt
}

// PagePath returns the Site Index key for a URL: its own path, or "/"
// when the path is empty.
func PagePath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// FormatBlock renders the aggregate-document block for a page.
func FormatBlock(p *Page) string {
	return fmt.Sprintf("# %s\n\nURL: %s\n\n---\n\n%s\n\n\n", p.Title, p.URL, p.Text)
}
