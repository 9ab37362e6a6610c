package cleaner

// NoopCleaner backs ModeRaw: pages are stored as the fetched HTML.
type NoopCleaner struct{}

func NewNoop() *NoopCleaner { return &NoopCleaner{} }

func (NoopCleaner) Clean(html string) (string, error) { return html, nil }

func (NoopCleaner) Name() string { return "noop" }
