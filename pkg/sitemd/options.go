// Package sitemd provides the public API for mirroring a website's same-domain
// pages into Markdown files, an aggregate document and a structure index.
package sitemd

import (
	"time"

	"github.com/jmylchreest/sitemd/internal/crawler"
	"github.com/jmylchreest/sitemd/internal/version"
	"github.com/jmylchreest/sitemd/pkg/cleaner"
	"github.com/jmylchreest/sitemd/pkg/fetcher"
)

// Config holds all sitemd configuration.
type Config struct {
	// Output settings
	OutputDir   string
	IndexFormat string // json or yaml
	Contents    bool   // also write contents.md
	CatalogPath string // SQLite catalog; empty disables it

	// Fetch settings
	UserAgent string
	Timeout   time.Duration

	// Conversion settings
	TextMode cleaner.Mode

	// Crawl settings
	Concurrency int
	MaxPages    int
	MaxDepth    int

	// Injection points
	Fetcher fetcher.Fetcher
	Cleaner cleaner.Cleaner
	OnPage  func(*Page)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	crawl := crawler.DefaultConfig()
	return Config{
		OutputDir:   "output_site",
		IndexFormat: "json",
		UserAgent:   version.UserAgent(),
		Timeout:     crawl.Timeout,
		TextMode:    cleaner.ModeMarkdown,
		Concurrency: crawl.Concurrency,
		MaxPages:    crawl.MaxPages,
		MaxDepth:    crawl.MaxDepth,
	}
}

// Option configures sitemd.
type Option func(*Config)

// WithOutputDir sets the directory the mirror is written to.
func WithOutputDir(dir string) Option {
	return func(c *Config) {
		c.OutputDir = dir
	}
}

// WithIndexFormat sets the site_structure format (json or yaml).
func WithIndexFormat(format string) Option {
	return func(c *Config) {
		c.IndexFormat = format
	}
}

// WithContents enables the contents.md table of contents.
func WithContents(enabled bool) Option {
	return func(c *Config) {
		c.Contents = enabled
	}
}

// WithCatalog records the crawl in a SQLite database at path.
func WithCatalog(path string) Option {
	return func(c *Config) {
		c.CatalogPath = path
	}
}

// WithUserAgent sets the HTTP user agent.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithTimeout sets the hard per-page fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithTextMode sets the HTML to text pipeline.
func WithTextMode(mode cleaner.Mode) Option {
	return func(c *Config) {
		c.TextMode = mode
	}
}

// WithConcurrency sets the number of concurrent fetches.
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// WithMaxPages caps the number of pages claimed. 0 means no limit.
func WithMaxPages(n int) Option {
	return func(c *Config) {
		c.MaxPages = n
	}
}

// WithMaxDepth caps the link depth from the start page. -1 means no limit.
func WithMaxDepth(depth int) Option {
	return func(c *Config) {
		c.MaxDepth = depth
	}
}

// WithFetcher injects a custom fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithCleaner injects a custom cleaner, overriding the text mode.
func WithCleaner(cl cleaner.Cleaner) Option {
	return func(c *Config) {
		c.Cleaner = cl
	}
}

// WithOnPage registers a callback for every stored page. It is called from
// worker goroutines.
func WithOnPage(fn func(*Page)) Option {
	return func(c *Config) {
		c.OnPage = fn
	}
}
