// Package output persists crawl results: page files, the aggregate document
// and the site structure index.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format is a site structure serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats returns the supported index formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML}
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Writer serializes values to an underlying stream.
type Writer interface {
	// Write buffers a single value.
	Write(data any) error

	// Flush serializes everything buffered so far.
	Flush() error

	// Close flushes the writer.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	indent     string
	escapeHTML bool
}

// WithIndent sets the indentation string. An empty indent produces compact
// JSON; YAML uses its length as the indent width.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithEscapeHTML controls escaping of <, > and & in JSON strings.
func WithEscapeHTML(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.escapeHTML = enabled
	}
}

// NewWriter creates a writer for the specified format. The defaults match
// the site_structure file: four-space indent, no HTML escaping.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		indent: "    ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.indent, cfg.escapeHTML), nil
	case FormatYAML:
		return NewYAMLWriter(w, len(cfg.indent)), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
