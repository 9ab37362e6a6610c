package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter writes JSON output. Non-ASCII text is written as-is.
type JSONWriter struct {
	w          *bufio.Writer
	indent     string
	escapeHTML bool
	items      []any
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, indent string, escapeHTML bool) *JSONWriter {
	return &JSONWriter{
		w:          bufio.NewWriter(w),
		indent:     indent,
		escapeHTML: escapeHTML,
	}
}

// Write buffers a single item.
func (w *JSONWriter) Write(data any) error {
	w.items = append(w.items, data)
	return nil
}

// Flush writes the buffered items. A single item is written on its own,
// several as a JSON array.
func (w *JSONWriter) Flush() error {
	if len(w.items) == 0 {
		return w.w.Flush()
	}

	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(w.escapeHTML)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}

	var v any = w.items
	if len(w.items) == 1 {
		v = w.items[0]
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.items = w.items[:0]

	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}
