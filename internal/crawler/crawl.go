package crawler

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is a Frontier Scheduler state.
type State int32

const (
	StateIdle State = iota
	StateDispatching
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Crawl owns everything one crawl invocation mutates: the visited set, the
// site index and the counters. Run creates it; after Run returns it is
// read-only.
type Crawl struct {
	StartURL string
	Host     string
	Visited  *VisitedSet
	Index    *SiteIndex

	state     atomic.Int32
	levels    atomic.Int64
	fetched   atomic.Int64
	bytes     atomic.Int64
	startedAt time.Time
	elapsed   atomic.Int64

	failMu   sync.Mutex
	failures map[FailureReason]int
}

func newCrawl(startURL, host string) *Crawl {
	return &Crawl{
		StartURL:  startURL,
		Host:      host,
		Visited:   NewVisitedSet(),
		Index:     NewSiteIndex(),
		startedAt: time.Now(),
		failures:  make(map[FailureReason]int),
	}
}

// State returns the scheduler state.
func (c *Crawl) State() State {
	return State(c.state.Load())
}

func (c *Crawl) setState(s State) {
	c.state.Store(int32(s))
	if s == StateDone {
		c.elapsed.Store(int64(time.Since(c.startedAt)))
	}
}

func (c *Crawl) recordFailure(reason FailureReason) {
	c.failMu.Lock()
	defer c.failMu.Unlock()
	c.failures[reason]++
}

func (c *Crawl) recordSuccess(p *Page) {
	c.fetched.Add(1)
	c.bytes.Add(int64(len(p.Text)))
}

// Stats is a snapshot of crawl counters.
type Stats struct {
	Levels   int
	Claimed  int
	Fetched  int
	Failed   map[FailureReason]int
	Bytes    int64
	Elapsed  time.Duration
	Complete bool
}

// TotalFailed sums Failed across reasons.
func (s Stats) TotalFailed() int {
	n := 0
	for _, v := range s.Failed {
		n += v
	}
	return n
}

// Stats returns a snapshot of the counters.
func (c *Crawl) Stats() Stats {
	c.failMu.Lock()
	failed := make(map[FailureReason]int, len(c.failures))
	for k, v := range c.failures {
		failed[k] = v
	}
	c.failMu.Unlock()

	elapsed := time.Duration(c.elapsed.Load())
	if c.State() != StateDone {
		elapsed = time.Since(c.startedAt)
	}

	return Stats{
		Levels:   int(c.levels.Load()),
		Claimed:  c.Visited.Len(),
		Fetched:  int(c.fetched.Load()),
		Failed:   failed,
		Bytes:    c.bytes.Load(),
		Elapsed:  elapsed,
		Complete: c.State() == StateDone,
	}
}
