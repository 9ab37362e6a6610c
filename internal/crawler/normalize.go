package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidStartURL is returned when the crawl root is not an absolute
// http(s) URL.
var ErrInvalidStartURL = errors.New("invalid start URL")

// Normalizer canonicalizes discovered links and keeps only those on the
// crawl's target host.
type Normalizer struct {
	host string
}

// NewNormalizer builds a Normalizer whose target domain is the host of
// startURL.
func NewNormalizer(startURL string) (*Normalizer, error) {
	u, err := parseStart(startURL)
	if err != nil {
		return nil, err
	}
	return &Normalizer{host: u.Host}, nil
}

// Host returns the target host (lowercased, port included when present).
func (n *Normalizer) Host() string {
	return n.host
}

// Resolve resolves href against base and returns the canonical absolute URL.
// The fragment is dropped and the query kept. ok is false when the result
// is off-domain, not http(s), or either input does not parse.
func (n *Normalizer) Resolve(base, href string) (string, bool) {
	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}

	resolved := b.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(resolved.Host, n.host) {
		return "", false
	}
	return canonical(resolved), true
}

// NormalizeStart validates the crawl root and returns its canonical form.
func NormalizeStart(startURL string) (string, error) {
	u, err := parseStart(startURL)
	if err != nil {
		return "", err
	}
	return canonical(u), nil
}

func parseStart(startURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(startURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStartURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidStartURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidStartURL, startURL)
	}
	u.Host = strings.ToLower(u.Host)
	return u, nil
}

// canonical strips the fragment, lowercases scheme and host, and maps an
// empty path to "/" so that "https://h" and "https://h/" are one page.
func canonical(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	if c.Path == "" && c.Opaque == "" {
		c.Path = "/"
		c.RawPath = ""
	}
	return c.String()
}
