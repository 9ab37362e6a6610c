package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes YAML output.
type YAMLWriter struct {
	w      *bufio.Writer
	indent int
	items  []any
}

// NewYAMLWriter creates a YAML writer. indent below 2 falls back to 2.
func NewYAMLWriter(w io.Writer, indent int) *YAMLWriter {
	if indent < 2 {
		indent = 2
	}
	return &YAMLWriter{
		w:      bufio.NewWriter(w),
		indent: indent,
	}
}

// Write buffers a single item.
func (w *YAMLWriter) Write(data any) error {
	w.items = append(w.items, data)
	return nil
}

// Flush writes the buffered items as one YAML document.
func (w *YAMLWriter) Flush() error {
	if len(w.items) == 0 {
		return w.w.Flush()
	}

	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(w.indent)

	var v any = w.items
	if len(w.items) == 1 {
		v = w.items[0]
	}
	if err := encoder.Encode(v); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	w.items = w.items[:0]

	return w.w.Flush()
}

// Close flushes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
