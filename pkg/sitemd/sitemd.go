package sitemd

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/jmylchreest/sitemd/internal/crawler"
	"github.com/jmylchreest/sitemd/internal/logger"
	"github.com/jmylchreest/sitemd/internal/output"
	"github.com/jmylchreest/sitemd/internal/storage"
	"github.com/jmylchreest/sitemd/pkg/cleaner"
	"github.com/jmylchreest/sitemd/pkg/fetcher"
)

// Re-exported crawl types.
type (
	Page      = crawler.Page
	PageRef   = crawler.PageRef
	SiteIndex = crawler.SiteIndex
	Stats     = crawler.Stats
)

// ErrInvalidStartURL is returned when the start URL is not an absolute
// http(s) URL.
var ErrInvalidStartURL = crawler.ErrInvalidStartURL

// Version returns the module version of the sitemd library, or "(devel)"
// when built from source.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown)"
}

// Result describes a finished (or cancelled) mirror run.
type Result struct {
	StartURL string
	Host     string
	Index    *SiteIndex
	Stats    Stats

	OutputDir     string
	AggregatePath string
	IndexPath     string
	ContentsPath  string // empty unless contents.md was written

	CatalogPath string
	CrawlID     int64 // catalog row id; 0 without a catalog
}

// Sitemd is the main entry point for mirroring a site.
type Sitemd struct {
	fetcher fetcher.Fetcher
	cleaner cleaner.Cleaner
	format  output.Format
	config  Config
}

// New creates a new Sitemd instance.
func New(opts ...Option) (*Sitemd, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	format, err := output.ParseFormat(cfg.IndexFormat)
	if err != nil {
		return nil, err
	}

	// Use injected fetcher or create a default static one
	f := cfg.Fetcher
	if f == nil {
		f = fetcher.NewStatic(fetcher.StaticConfig{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		})
	}

	// Use injected cleaner or build the text mode pipeline
	cl := cfg.Cleaner
	if cl == nil {
		cl, err = cleaner.ForMode(cfg.TextMode)
		if err != nil {
			return nil, err
		}
	}

	return &Sitemd{
		fetcher: f,
		cleaner: cl,
		format:  format,
		config:  cfg,
	}, nil
}

// Mirror crawls every same-domain page reachable from startURL and writes
// the mirror to the output directory (and the catalog, when configured).
//
// When ctx is cancelled the partial mirror is still written; the Result is
// returned together with ctx.Err().
func (s *Sitemd) Mirror(ctx context.Context, startURL string) (*Result, error) {
	start, err := crawler.NormalizeStart(startURL)
	if err != nil {
		return nil, err
	}

	store, err := output.NewStore(s.config.OutputDir,
		output.WithIndexFormat(s.format),
		output.WithContents(s.config.Contents))
	if err != nil {
		return nil, err
	}

	res := &Result{
		StartURL:      start,
		OutputDir:     store.Dir(),
		AggregatePath: store.AggregatePath(),
		IndexPath:     store.IndexPath(),
	}
	if s.config.Contents {
		res.ContentsPath = store.ContentsPath()
	}

	var sink crawler.Sink = store
	if s.config.CatalogPath != "" {
		catalog, err := storage.Open(s.config.CatalogPath, storage.DefaultOptions())
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := catalog.Close(); cerr != nil {
				logger.Warn("failed to close catalog", "path", catalog.Path(), "error", cerr)
			}
		}()

		session, err := catalog.Begin(ctx, start)
		if err != nil {
			return nil, err
		}
		res.CatalogPath = catalog.Path()
		res.CrawlID = session.ID()
		sink = output.NewMultiSink(store, session)
	}

	var crawlOpts []crawler.Option
	if s.config.OnPage != nil {
		crawlOpts = append(crawlOpts, crawler.WithOnPage(s.config.OnPage))
	}

	c := crawler.New(s.fetcher, s.cleaner, sink, crawler.Config{
		Concurrency: s.config.Concurrency,
		Timeout:     s.config.Timeout,
		UserAgent:   s.config.UserAgent,
		MaxPages:    s.config.MaxPages,
		MaxDepth:    s.config.MaxDepth,
	}, crawlOpts...)

	logger.Debug("mirror starting",
		"start", start,
		"output", store.Dir(),
		"format", s.format,
		"cleaner", s.cleaner.Name(),
		"fetcher", s.fetcher.Type())

	crawl, err := c.Run(ctx, start)
	if crawl != nil {
		res.Host = crawl.Host
		res.Index = crawl.Index
		res.Stats = crawl.Stats()
	}
	return res, err
}

// Close releases all resources.
func (s *Sitemd) Close() error {
	if s.fetcher != nil {
		return s.fetcher.Close()
	}
	return nil
}

// TextMode returns the name of the HTML to text pipeline in use.
func (s *Sitemd) TextMode() string {
	return s.cleaner.Name()
}
