package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmylchreest/sitemd/internal/crawler"
	"github.com/jmylchreest/sitemd/internal/logger"
)

// File names inside the output directory.
const (
	PagesDir      = "pages"
	AggregateFile = "website.md"
	IndexBaseName = "site_structure"
	ContentsFile  = "contents.md"
)

// ErrInvalidSlot is returned when a page slot is not a plain file name.
var ErrInvalidSlot = errors.New("invalid page slot")

// Store writes crawl output to a directory:
//
//	<dir>/pages/<slot>
//	<dir>/website.md
//	<dir>/site_structure.{json,yaml}
//	<dir>/contents.md (optional)
//
// WritePage is safe for concurrent use.
type Store struct {
	dir      string
	format   Format
	contents bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIndexFormat sets the site_structure format. Defaults to JSON.
func WithIndexFormat(f Format) StoreOption {
	return func(s *Store) {
		s.format = f
	}
}

// WithContents enables the contents.md table of contents.
func WithContents(enabled bool) StoreOption {
	return func(s *Store) {
		s.contents = enabled
	}
}

// NewStore creates the output directory layout under dir.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		dir:    dir,
		format: FormatJSON,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := ParseFormat(string(s.format)); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(dir, PagesDir), 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return s, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// AggregatePath returns the path of website.md.
func (s *Store) AggregatePath() string {
	return filepath.Join(s.dir, AggregateFile)
}

// IndexPath returns the path of the site_structure file.
func (s *Store) IndexPath() string {
	return filepath.Join(s.dir, IndexBaseName+"."+s.format.Ext())
}

// ContentsPath returns the path of contents.md.
func (s *Store) ContentsPath() string {
	return filepath.Join(s.dir, ContentsFile)
}

// WritePage writes one page's text to pages/<slot>. Slots that collide are
// overwritten; the file is replaced atomically so concurrent writers never
// interleave.
func (s *Store) WritePage(slot, text string) error {
	if slot == "" || filepath.Base(slot) != slot || slot == "." || slot == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}

	dir := filepath.Join(s.dir, PagesDir)
	tmp, err := os.CreateTemp(dir, "."+slot+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, slot)); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// WriteAggregate writes website.md.
func (s *Store) WriteAggregate(blocks []string) error {
	if err := os.WriteFile(s.AggregatePath(), []byte(RenderAggregate(blocks)), 0o644); err != nil {
		return err
	}
	logger.Debug("wrote aggregate", "path", s.AggregatePath(), "blocks", len(blocks))
	return nil
}

// WriteIndex writes the site_structure file and, when enabled, contents.md.
func (s *Store) WriteIndex(idx *crawler.SiteIndex) error {
	if err := writeFile(s.IndexPath(), func(f *os.File) error {
		w, err := NewWriter(f, s.format)
		if err != nil {
			return err
		}
		if err := w.Write(idx); err != nil {
			return err
		}
		return w.Close()
	}); err != nil {
		return err
	}
	logger.Debug("wrote index", "path", s.IndexPath(), "format", s.format, "pages", idx.Len())

	if !s.contents {
		return nil
	}
	if err := writeFile(s.ContentsPath(), func(f *os.File) error {
		return RenderContents(f, idx)
	}); err != nil {
		return fmt.Errorf("write contents: %w", err)
	}
	return nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
