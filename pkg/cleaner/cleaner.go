// Package cleaner provides interfaces and implementations for turning page
// HTML into the text that sitemd stores for each page.
package cleaner

import "fmt"

// Cleaner transforms HTML content into a cleaner format.
// The default implementation converts HTML to Markdown, preserving semantic structure.
type Cleaner interface {
	// Clean transforms the input HTML into a cleaned format.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Mode selects a conversion pipeline by name.
type Mode string

const (
	// ModeMarkdown converts the whole document to Markdown.
	ModeMarkdown Mode = "markdown"
	// ModeReadability extracts the main article with Readability, then
	// converts it to Markdown.
	ModeReadability Mode = "readability"
	// ModeRaw keeps the HTML untouched.
	ModeRaw Mode = "raw"
)

// Modes lists the accepted Mode values.
func Modes() []Mode {
	return []Mode{ModeMarkdown, ModeReadability, ModeRaw}
}

// ForMode returns the cleaner pipeline for mode.
func ForMode(mode Mode) (Cleaner, error) {
	switch mode {
	case ModeMarkdown, "":
		return NewMarkdown(), nil
	case ModeReadability:
		return NewChain(NewReadability(nil), NewMarkdown()), nil
	case ModeRaw:
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unsupported text mode: %s", mode)
	}
}
