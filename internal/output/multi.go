package output

import "github.com/jmylchreest/sitemd/internal/crawler"

// MultiSink fans every write out to each sink in order and stops at the
// first error.
type MultiSink []crawler.Sink

// NewMultiSink builds a MultiSink, skipping nil sinks.
func NewMultiSink(sinks ...crawler.Sink) MultiSink {
	m := make(MultiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m MultiSink) WritePage(slot, text string) error {
	for _, s := range m {
		if err := s.WritePage(slot, text); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) WriteAggregate(blocks []string) error {
	for _, s := range m {
		if err := s.WriteAggregate(blocks); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) WriteIndex(idx *crawler.SiteIndex) error {
	for _, s := range m {
		if err := s.WriteIndex(idx); err != nil {
			return err
		}
	}
	return nil
}
