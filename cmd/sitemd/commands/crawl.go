package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitemd/internal/logger"
	"github.com/jmylchreest/sitemd/pkg/sitemd"
)

// progressEvery is how many stored pages pass between progress lines.
const progressEvery = 25

var crawlCmd = &cobra.Command{
	Use:   "crawl [url]",
	Short: "Mirror every same-domain page reachable from a URL",
	Long: `Crawl a website breadth-first, staying on the start URL's host, and
write the mirror to the output directory:

  <output>/pages/<slot>.md       one Markdown file per page
  <output>/website.md            every page in one document
  <output>/site_structure.json   pages grouped by URL path (or .yaml)
  <output>/contents.md           table of contents (--contents)

Pages that time out, fail or return a non-2xx status are skipped.
Interrupting the crawl (Ctrl-C) still writes what was collected.

Examples:
  sitemd crawl https://example.com
  sitemd crawl --url https://example.com -o mirror --timeout 5s
  SITEMD_CONCURRENCY=4 sitemd crawl https://example.com --db sitemd.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	flags := crawlCmd.Flags()

	flags.StringP("url", "u", "", "start URL (or pass it as the first argument)")

	// Output settings
	flags.StringP("output", "o", "output_site", "output directory")
	flags.String("format", "json", "site structure format: json, yaml")
	flags.Bool("contents", false, "also write a contents.md table of contents")
	flags.String("db", "", "record the crawl in a SQLite catalog at this path")

	// Fetch settings
	flags.Duration("timeout", 10*time.Second, "hard timeout per page fetch")
	flags.String("user-agent", "", "HTTP user agent (default sitemd/<version>)")
	flags.String("text-mode", "markdown", "page text conversion: markdown, readability, raw")

	// Crawling settings
	flags.IntP("concurrency", "c", 10, "concurrent fetches")
	flags.Int("max-pages", 0, "max pages to claim (0=unlimited)")
	flags.Int("max-depth", -1, "max link depth from the start page (-1=unlimited, 0=start page only)")

	// Bind to viper
	for key, flag := range map[string]string{
		keyURL:         "url",
		keyOutput:      "output",
		keyFormat:      "format",
		keyContents:    "contents",
		keyDB:          "db",
		keyTimeout:     "timeout",
		keyUserAgent:   "user-agent",
		keyTextMode:    "text-mode",
		keyConcurrency: "concurrency",
		keyMaxPages:    "max-pages",
		keyMaxDepth:    "max-depth",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	initLogger()

	cfg := loadCrawlConfig(viper.GetViper(), args)
	if cfg.URL == "" {
		return cmd.Help()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Debug("crawl command starting",
		"url", cfg.URL,
		"output", cfg.Output,
		"concurrency", cfg.Concurrency,
		"timeout", cfg.Timeout,
		"text_mode", cfg.TextMode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		stored atomic.Int64
		bytes  atomic.Int64
	)
	opts := append(cfg.Options(), sitemd.WithOnPage(func(p *sitemd.Page) {
		b := bytes.Add(int64(len(p.Text)))
		if n := stored.Add(1); n%progressEvery == 0 {
			logInfo("  ... %s pages stored (%s)", humanize.Comma(n), humanize.Bytes(uint64(b)))
		}
	}))

	s, err := sitemd.New(opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	logInfo("Mirroring %s into %s", cfg.URL, cfg.Output)

	res, err := s.Mirror(ctx, cfg.URL)
	if res != nil && res.Index != nil {
		printSummary(res)
	}
	if errors.Is(err, context.Canceled) {
		logInfo("Crawl interrupted; partial mirror written.")
		return nil
	}
	return err
}

func printSummary(res *sitemd.Result) {
	st := res.Stats

	logInfo("")
	logInfo("Mirrored %s pages from %s in %s",
		humanize.Comma(int64(st.Fetched)), res.Host, st.Elapsed.Round(time.Millisecond))
	logInfo("  levels:    %d", st.Levels)
	logInfo("  text:      %s", humanize.Bytes(uint64(st.Bytes)))
	if failed := st.TotalFailed(); failed > 0 {
		logInfo("  skipped:   %s (%s)", humanize.Comma(int64(failed)), failureBreakdown(st))
	}
	logInfo("  pages:     %s", filepath.Join(res.OutputDir, "pages"))
	logInfo("  aggregate: %s", res.AggregatePath)
	logInfo("  index:     %s", res.IndexPath)
	if res.ContentsPath != "" {
		logInfo("  contents:  %s", res.ContentsPath)
	}
	if res.CatalogPath != "" {
		logInfo("  catalog:   %s (crawl %d)", res.CatalogPath, res.CrawlID)
	}
}

func failureBreakdown(st sitemd.Stats) string {
	parts := make([]string, 0, len(st.Failed))
	for reason, n := range st.Failed {
		parts = append(parts, fmt.Sprintf("%s %d", reason, n))
	}
	slices.Sort(parts)
	return strings.Join(parts, ", ")
}
