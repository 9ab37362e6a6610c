package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sitemd/internal/crawler"
)

func setupTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "sitemd.db"), DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testIndex(urls ...string) *crawler.SiteIndex {
	idx := crawler.NewSiteIndex()
	for _, u := range urls {
		idx.Record(&crawler.Page{URL: u, Title: "T " + crawler.PagePath(u), FileSlot: crawler.FileSlot(u)})
	}
	return idx
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "sitemd.db")
		c, err := Open(path, DefaultOptions())
		require.NoError(t, err)
		defer c.Close()

		_, err = os.Stat(path)
		assert.NoError(t, err)
		assert.Equal(t, path, c.Path())
	})

	t.Run("missing database without create fails", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "absent.db"), Options{})
		assert.Error(t, err)
	})

	t.Run("reopen keeps existing rows", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sitemd.db")
		c, err := Open(path, DefaultOptions())
		require.NoError(t, err)
		s, err := c.Begin(context.Background(), "https://example.com/")
		require.NoError(t, err)
		require.NoError(t, s.WritePage("index.md", "hello"))
		require.NoError(t, c.Close())

		c, err = Open(path, Options{EnableWAL: true})
		require.NoError(t, err)
		defer c.Close()

		text, err := c.PageText(context.Background(), s.ID(), "index.md")
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	assert.True(t, opts.CreateIfNotExists)
	assert.True(t, opts.EnableWAL)
}

func TestSession_WritePage(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	ctx := context.Background()
	s, err := c.Begin(ctx, "https://example.com/")
	require.NoError(t, err)

	require.NoError(t, s.WritePage("index.md", "v1"))
	require.NoError(t, s.WritePage("about.md", "about"))
	require.NoError(t, s.WritePage("index.md", "v2"))

	text, err := c.PageText(ctx, s.ID(), "index.md")
	require.NoError(t, err)
	assert.Equal(t, "v2", text)

	n, err := c.PageCount(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = c.PageText(ctx, s.ID(), "missing.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_WritePage_Concurrent(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	s, err := c.Begin(context.Background(), "https://example.com/")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.WritePage(fmt.Sprintf("p%d.md", i), "text"))
		}()
	}
	wg.Wait()

	n, err := c.PageCount(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func TestSession_WriteIndex(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	ctx := context.Background()
	s, err := c.Begin(ctx, "https://example.com/")
	require.NoError(t, err)

	idx := testIndex(
		"https://example.com/zeta",
		"https://example.com/",
		"https://example.com/zeta?page=2",
	)
	require.NoError(t, s.WriteAggregate([]string{"a", "b"}))
	require.NoError(t, s.WriteIndex(idx))

	entries, err := c.Index(ctx, s.ID())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "/zeta", entries[0].Path)
	assert.Equal(t, "/zeta", entries[1].Path)
	assert.Equal(t, "https://example.com/zeta?page=2", entries[1].URL)
	assert.Equal(t, "/", entries[2].Path)
	assert.Equal(t, "index.md", entries[2].File)

	rec, err := c.Crawl(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", rec.StartURL)
	assert.Equal(t, "a\nb", rec.Aggregate)
	assert.Equal(t, 3, rec.PageCount)
	assert.False(t, rec.StartedAt.IsZero())
	assert.False(t, rec.FinishedAt.IsZero())
}

func TestSession_WriteIndex_Replaces(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	ctx := context.Background()
	s, err := c.Begin(ctx, "https://example.com/")
	require.NoError(t, err)

	require.NoError(t, s.WriteIndex(testIndex("https://example.com/a", "https://example.com/b")))
	require.NoError(t, s.WriteIndex(testIndex("https://example.com/c")))

	entries, err := c.Index(ctx, s.ID())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/c", entries[0].Path)
}

func TestSession_IsolatedByCrawl(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	ctx := context.Background()
	first, err := c.Begin(ctx, "https://example.com/")
	require.NoError(t, err)
	second, err := c.Begin(ctx, "https://example.org/")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	require.NoError(t, first.WritePage("index.md", "com"))
	require.NoError(t, second.WritePage("index.md", "org"))

	text, err := c.PageText(ctx, second.ID(), "index.md")
	require.NoError(t, err)
	assert.Equal(t, "org", text)
}

func TestSession_WritesAfterCancel(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	s, err := c.Begin(ctx, "https://example.com/")
	require.NoError(t, err)
	cancel()

	require.NoError(t, s.WriteAggregate([]string{"partial"}))
	require.NoError(t, s.WriteIndex(testIndex("https://example.com/")))
}

func TestCatalog_Crawl_NotFound(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	_, err := c.Crawl(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_ImplementsSink(t *testing.T) {
	t.Parallel()

	var _ crawler.Sink = (*Session)(nil)
}
