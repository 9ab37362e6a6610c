// Package storage records crawls in a SQLite catalog: one row per crawl,
// every written page, and the ordered site index.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jmylchreest/sitemd/internal/crawler"
)

// ErrNotFound is returned when a catalog lookup matches no row.
var ErrNotFound = errors.New("not found")

// Options configures Catalog behavior.
type Options struct {
	// CreateIfNotExists creates the database file and its directory.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the default catalog options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Catalog is a SQLite database of crawl runs.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens or creates the catalog at path.
func Open(path string, opts Options) (*Catalog, error) {
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("catalog not found at %s: %w", path, err)
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	db, err := sql.Open("sqlite", path+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// One writer; pages arrive from many workers and are serialized here.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{db: db, path: path}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return c, nil
}

// Path returns the database file path.
func (c *Catalog) Path() string { return c.path }

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		aggregate TEXT,
		page_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL REFERENCES crawls(id),
		slot TEXT NOT NULL,
		text TEXT NOT NULL,
		written_at TEXT NOT NULL,
		UNIQUE(crawl_id, slot)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_crawl ON pages(crawl_id);

	CREATE TABLE IF NOT EXISTS site_index (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL REFERENCES crawls(id),
		path TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		file TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_site_index_crawl ON site_index(crawl_id, position);
	`

	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// Begin registers a new crawl of startURL and returns a Session that
// records its output. Session writes ignore ctx cancellation so a
// cancelled crawl can still record its partial results.
func (c *Catalog) Begin(ctx context.Context, startURL string) (*Session, error) {
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO crawls (start_url, started_at) VALUES (?, ?)`,
		startURL, formatTime(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to insert crawl: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Session{catalog: c, ctx: context.WithoutCancel(ctx), id: id}, nil
}

// CrawlRecord is a stored crawl run.
type CrawlRecord struct {
	ID         int64
	StartURL   string
	StartedAt  time.Time
	FinishedAt time.Time
	Aggregate  string
	PageCount  int
}

// Crawl returns the crawl with the given id.
func (c *Catalog) Crawl(ctx context.Context, id int64) (*CrawlRecord, error) {
	var (
		rec       CrawlRecord
		started   string
		finished  sql.NullString
		aggregate sql.NullString
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT id, start_url, started_at, finished_at, aggregate, page_count FROM crawls WHERE id = ?`, id).
		Scan(&rec.ID, &rec.StartURL, &started, &finished, &aggregate, &rec.PageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("crawl %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl: %w", err)
	}
	rec.StartedAt = parseTime(started)
	rec.FinishedAt = parseTime(finished.String)
	rec.Aggregate = aggregate.String
	return &rec, nil
}

// PageText returns the stored text for a page slot of a crawl.
func (c *Catalog) PageText(ctx context.Context, crawlID int64, slot string) (string, error) {
	var text string
	err := c.db.QueryRowContext(ctx,
		`SELECT text FROM pages WHERE crawl_id = ? AND slot = ?`, crawlID, slot).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("page %q: %w", slot, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get page: %w", err)
	}
	return text, nil
}

// PageCount returns the number of page rows stored for a crawl.
func (c *Catalog) PageCount(ctx context.Context, crawlID int64) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE crawl_id = ?`, crawlID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// IndexEntry is one site_index row.
type IndexEntry struct {
	Path string
	crawler.PageRef
}

// Index returns a crawl's site index rows in recorded order.
func (c *Catalog) Index(ctx context.Context, crawlID int64) ([]IndexEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT path, title, url, file FROM site_index WHERE crawl_id = ? ORDER BY position`, crawlID)
	if err != nil {
		return nil, fmt.Errorf("failed to query site index: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(&e.Path, &e.Title, &e.URL, &e.File); err != nil {
			return nil, fmt.Errorf("failed to scan site index row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Session records one crawl's output. It implements crawler.Sink and is
// safe for concurrent use.
type Session struct {
	catalog *Catalog
	ctx     context.Context
	id      int64
}

// ID returns the crawl id.
func (s *Session) ID() int64 { return s.id }

// WritePage stores a page's text. A repeated slot replaces the earlier text.
func (s *Session) WritePage(slot, text string) error {
	_, err := s.catalog.db.ExecContext(s.ctx, `
	INSERT INTO pages (crawl_id, slot, text, written_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(crawl_id, slot) DO UPDATE SET
		text = excluded.text,
		written_at = excluded.written_at
	`, s.id, slot, text, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to store page: %w", err)
	}
	return nil
}

// WriteAggregate stores the rendered aggregate document on the crawl row.
func (s *Session) WriteAggregate(blocks []string) error {
	aggregate := strings.Join(blocks, "\n")
	if _, err := s.catalog.db.ExecContext(s.ctx,
		`UPDATE crawls SET aggregate = ? WHERE id = ?`, aggregate, s.id); err != nil {
		return fmt.Errorf("failed to store aggregate: %w", err)
	}
	return nil
}

// WriteIndex replaces the crawl's site_index rows and marks it finished.
func (s *Session) WriteIndex(idx *crawler.SiteIndex) (err error) {
	tx, err := s.catalog.db.BeginTx(s.ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(s.ctx, `DELETE FROM site_index WHERE crawl_id = ?`, s.id); err != nil {
		return fmt.Errorf("failed to clear site index: %w", err)
	}

	stmt, err := tx.PrepareContext(s.ctx,
		`INSERT INTO site_index (crawl_id, path, position, title, url, file) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare site index insert: %w", err)
	}
	defer stmt.Close()

	position := 0
	for _, path := range idx.Paths() {
		for _, ref := range idx.Refs(path) {
			if _, err = stmt.ExecContext(s.ctx, s.id, path, position, ref.Title, ref.URL, ref.File); err != nil {
				return fmt.Errorf("failed to insert site index row: %w", err)
			}
			position++
		}
	}

	if _, err = tx.ExecContext(s.ctx,
		`UPDATE crawls SET finished_at = ?, page_count = ? WHERE id = ?`,
		formatTime(time.Now()), position, s.id); err != nil {
		return fmt.Errorf("failed to finish crawl: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit site index: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
