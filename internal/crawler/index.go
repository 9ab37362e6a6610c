package crawler

import (
	"bytes"
	"encoding/json"
	"sync"

	"gopkg.in/yaml.v3"
)

// SiteIndex aggregates what the crawl produced: page references keyed by
// path, and the ordered aggregate document. Workers write to it
// concurrently; it is read once the crawl is done.
//
// Paths keep the order in which they were first recorded. Refs under one
// path keep completion order.
type SiteIndex struct {
	mu     sync.Mutex
	paths  []string
	refs   map[string][]PageRef
	blocks []string
}

// NewSiteIndex creates an empty index.
func NewSiteIndex() *SiteIndex {
	return &SiteIndex{refs: make(map[string][]PageRef)}
}

// Record appends a reference to page under its own path.
func (s *SiteIndex) Record(page *Page) {
	key := PagePath(page.URL)
	ref := page.Ref()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.refs[key]; !ok {
		s.paths = append(s.paths, key)
	}
	s.refs[key] = append(s.refs[key], ref)
}

// AppendText grows the aggregate document by one block.
func (s *SiteIndex) AppendText(block string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, block)
}

// Paths returns the recorded paths in first-insertion order.
func (s *SiteIndex) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Refs returns a copy of the references recorded under path.
func (s *SiteIndex) Refs(path string) []PageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PageRef, len(s.refs[path]))
	copy(out, s.refs[path])
	return out
}

// Blocks returns a copy of the aggregate document blocks.
func (s *SiteIndex) Blocks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Len returns the total number of recorded page references.
func (s *SiteIndex) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, refs := range s.refs {
		n += len(refs)
	}
	return n
}

// MarshalJSON encodes the index as an object whose keys follow insertion
// order. HTML characters are left unescaped.
func (s *SiteIndex) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, path := range s.paths {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(path); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		refs := s.refs[path]
		if refs == nil {
			refs = []PageRef{}
		}
		if err := enc.Encode(refs); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the index as a mapping in insertion order.
func (s *SiteIndex) MarshalYAML() (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, path := range s.paths {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: path}
		value := &yaml.Node{}
		if err := value.Encode(s.refs[path]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}
