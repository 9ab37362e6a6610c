package cleaner

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
)

// OutputFormat specifies the Readability output format.
type OutputFormat int

const (
	// OutputHTML outputs the extracted article as HTML (for chaining with MarkdownCleaner).
	OutputHTML OutputFormat = iota
	// OutputText outputs plain text directly.
	OutputText
)

// ReadabilityConfig configures the Readability cleaner.
type ReadabilityConfig struct {
	Output OutputFormat
	// CharThreshold is the minimum character count for an article candidate (library default when 0).
	CharThreshold int
	// BaseURL resolves relative URLs inside the article. Empty keeps them relative.
	BaseURL string
}

// ReadabilityCleaner keeps only the main content of a page, dropping
// navigation, footers and other boilerplate repeated across a site.
// Pages where no article is detected pass through unchanged.
type ReadabilityCleaner struct {
	cfg     ReadabilityConfig
	baseURL *url.URL
	parser  readability.Parser
}

// NewReadability creates a new Readability cleaner. Pass nil for defaults.
func NewReadability(cfg *ReadabilityConfig) *ReadabilityCleaner {
	if cfg == nil {
		cfg = &ReadabilityConfig{}
	}

	parser := readability.NewParser()
	if cfg.CharThreshold > 0 {
		parser.CharThresholds = cfg.CharThreshold
	}

	c := &ReadabilityCleaner{cfg: *cfg, parser: parser}
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err == nil {
			c.baseURL = u
		}
	}
	return c
}

// Clean extracts the main content from HTML.
func (c *ReadabilityCleaner) Clean(htmlContent string) (string, error) {
	article, err := c.parser.Parse(strings.NewReader(htmlContent), c.baseURL)
	if err != nil {
		return "", err
	}
	if article.Node == nil {
		return htmlContent, nil
	}

	var buf bytes.Buffer
	if c.cfg.Output == OutputText {
		if err := article.RenderText(&buf); err != nil || buf.Len() == 0 {
			return htmlContent, nil
		}
		return buf.String(), nil
	}

	if err := article.RenderHTML(&buf); err != nil {
		buf.Reset()
		if err := html.Render(&buf, article.Node); err != nil {
			return htmlContent, nil
		}
	}
	if buf.Len() == 0 {
		return htmlContent, nil
	}
	return gohtml.Format(buf.String()), nil
}

// Name returns the cleaner type.
func (c *ReadabilityCleaner) Name() string {
	return "readability"
}
