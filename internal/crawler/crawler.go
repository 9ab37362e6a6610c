// Package crawler implements the level-synchronous breadth-first crawl:
// URL normalization, claim-based deduplication, bounded per-level dispatch
// and aggregation into a site index.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/sitemd/internal/logger"
	"github.com/jmylchreest/sitemd/pkg/cleaner"
	"github.com/jmylchreest/sitemd/pkg/fetcher"
)

// Sink persists crawl output. WritePage is called once per fetched page
// from worker goroutines and must be safe for concurrent use. WriteAggregate
// and WriteIndex are called once, after the crawl is done.
type Sink interface {
	WritePage(slot, text string) error
	WriteAggregate(blocks []string) error
	WriteIndex(idx *SiteIndex) error
}

// Config holds crawler configuration.
type Config struct {
	Concurrency int           // Max concurrent fetches
	Timeout     time.Duration // Hard timeout per fetch
	UserAgent   string        // Overrides the fetcher default when set
	MaxPages    int           // Max URLs to claim (0 = unlimited)
	MaxDepth    int           // Max BFS level (-1 = unlimited, 0 = start page only)
}

// DefaultConfig returns the crawler defaults: 10 workers, 10s per fetch,
// no page or depth limit.
func DefaultConfig() Config {
	return Config{
		Concurrency: 10,
		Timeout:     10 * time.Second,
		MaxDepth:    -1,
	}
}

// Crawler schedules BFS levels over a bounded pool of workers.
type Crawler struct {
	fetcher fetcher.Fetcher
	cleaner cleaner.Cleaner
	sink    Sink
	config  Config
	onPage  func(*Page)
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithOnPage registers a hook called after each page is recorded. It runs
// on worker goroutines.
func WithOnPage(fn func(*Page)) Option {
	return func(c *Crawler) {
		c.onPage = fn
	}
}

// New creates a Crawler. A nil sink discards output.
func New(f fetcher.Fetcher, cl cleaner.Cleaner, sink Sink, cfg Config, opts ...Option) *Crawler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cl == nil {
		cl = cleaner.NewMarkdown()
	}
	if sink == nil {
		sink = discardSink{}
	}
	c := &Crawler{
		fetcher: f,
		cleaner: cl,
		sink:    sink,
		config:  cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run crawls from startURL until a level discovers nothing new, then
// writes the aggregate document and the index to the sink.
//
// Cancelling ctx stops dispatch at the next level boundary (and aborts
// in-flight fetches); what was collected is still written and ctx.Err()
// is returned with the crawl. A sink error stops the crawl immediately and
// nothing further is written.
func (c *Crawler) Run(ctx context.Context, startURL string) (*Crawl, error) {
	start, err := NormalizeStart(startURL)
	if err != nil {
		return nil, err
	}
	normalizer, err := NewNormalizer(start)
	if err != nil {
		return nil, err
	}

	crawl := newCrawl(start, normalizer.Host())
	processor := NewProcessor(c.fetcher, c.cleaner, normalizer, c.config.Timeout, c.config.UserAgent)

	logger.Debug("crawler starting",
		"start", start,
		"host", crawl.Host,
		"concurrency", c.config.Concurrency,
		"timeout", c.config.Timeout,
		"max_pages", c.config.MaxPages,
		"max_depth", c.config.MaxDepth)

	level := []string{start}
	var runErr error
	for depth := 0; len(level) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if c.config.MaxDepth >= 0 && depth > c.config.MaxDepth {
			logger.Debug("crawler reached max depth", "max_depth", c.config.MaxDepth, "dropped", len(level))
			break
		}
		if c.pageLimitReached(crawl) {
			logger.Debug("crawler reached max pages", "max_pages", c.config.MaxPages)
			break
		}

		next, err := c.runLevel(ctx, crawl, processor, level, depth)
		crawl.levels.Add(1)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				runErr = ctxErr
				break
			}
			crawl.setState(StateDone)
			return crawl, err
		}
		level = next
	}

	c.transition(crawl, StateDone)

	if err := c.sink.WriteAggregate(crawl.Index.Blocks()); err != nil {
		return crawl, fmt.Errorf("write aggregate: %w", err)
	}
	if err := c.sink.WriteIndex(crawl.Index); err != nil {
		return crawl, fmt.Errorf("write index: %w", err)
	}

	stats := crawl.Stats()
	logger.Debug("crawler finished",
		"levels", stats.Levels,
		"claimed", stats.Claimed,
		"fetched", stats.Fetched,
		"failed", stats.TotalFailed(),
		"elapsed", stats.Elapsed.Round(time.Millisecond))
	return crawl, runErr
}

// runLevel dispatches one frontier level and waits for it to drain. It
// returns every same-domain link the level's pages produced, unfiltered.
func (c *Crawler) runLevel(ctx context.Context, crawl *Crawl, processor *Processor, level []string, depth int) ([]string, error) {
	c.transition(crawl, StateDispatching)
	logger.Debug("crawler level dispatching", "depth", depth, "urls", len(level))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)

	var (
		mu   sync.Mutex
		next []string
	)

	for _, pageURL := range level {
		if gctx.Err() != nil {
			break
		}
		if c.pageLimitReached(crawl) {
			break
		}
		if !crawl.Visited.TryClaim(pageURL) {
			continue
		}

		g.Go(func() error {
			res := processor.Process(gctx, pageURL)
			if !res.OK() {
				crawl.recordFailure(res.Reason)
				if res.Reason == FailureCanceled {
					return gctx.Err()
				}
				return nil
			}

			page := res.Page
			if err := c.sink.WritePage(page.FileSlot, page.Text); err != nil {
				return fmt.Errorf("write page %q: %w", page.FileSlot, err)
			}
			crawl.Index.Record(page)
			crawl.Index.AppendText(FormatBlock(page))
			crawl.recordSuccess(page)

			logger.Info("fetched",
				"url", page.URL,
				"title", page.Title,
				"links", len(page.Links),
				"duration", page.FetchDuration.Round(time.Millisecond))

			if c.onPage != nil {
				c.onPage(page)
			}

			mu.Lock()
			next = append(next, page.Links...)
			mu.Unlock()
			return nil
		})
	}

	c.transition(crawl, StateDraining)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("crawler level drained", "depth", depth, "next", len(next))
	return next, nil
}

func (c *Crawler) pageLimitReached(crawl *Crawl) bool {
	return c.config.MaxPages > 0 && crawl.Visited.Len() >= c.config.MaxPages
}

func (c *Crawler) transition(crawl *Crawl, s State) {
	if crawl.State() == s {
		return
	}
	logger.Debug("crawler state", "from", crawl.State(), "to", s)
	crawl.setState(s)
}

type discardSink struct{}

func (discardSink) WritePage(string, string) error { return nil }
func (discardSink) WriteAggregate([]string) error  { return nil }
func (discardSink) WriteIndex(*SiteIndex) error    { return nil }
