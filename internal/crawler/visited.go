package crawler

import "sync"

// VisitedSet records every URL that a worker has claimed. It only grows:
// there is no removal, and a URL is inserted at most once.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// TryClaim inserts url and returns true if it was not already present.
// The check and the insert happen under one lock, so concurrent callers
// with the same url see exactly one true.
func (v *VisitedSet) TryClaim(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[url]; ok {
		return false
	}
	v.seen[url] = struct{}{}
	return true
}

// Contains reports whether url has been claimed.
func (v *VisitedSet) Contains(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[url]
	return ok
}

// Len returns the number of claimed URLs.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
