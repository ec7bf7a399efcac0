package preview

import "sync"

// State is the retry state of one tracked URL.
type State string

const (
	// StateFresh means no consecutive failures are recorded.
	StateFresh State = "fresh"
	// StateDegraded means generation has failed but the ceiling is not reached.
	StateDegraded State = "degraded"
	// StateExhausted means the failure count exceeded the ceiling; generation
	// is suspended until an explicit reset.
	StateExhausted State = "exhausted"
)

// Governor tracks consecutive preview-generation failures per URL and
// enforces a give-up ceiling. A URL whose count exceeds the ceiling is
// Exhausted and gets no further generation attempts until Reset.
type Governor struct {
	mu      sync.Mutex
	ceiling int
	counts  map[string]int
}

// NewGovernor creates a governor with the given ceiling. A non-positive
// ceiling falls back to 3.
func NewGovernor(ceiling int) *Governor {
	if ceiling <= 0 {
		ceiling = 3
	}
	return &Governor{
		ceiling: ceiling,
		counts:  make(map[string]int),
	}
}

// RecordFailure increments the consecutive failure count for a URL and
// returns the new count.
func (g *Governor) RecordFailure(rawURL string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counts[rawURL]++
	return g.counts[rawURL]
}

// RecordSuccess resets the failure count for a URL to zero.
func (g *Governor) RecordSuccess(rawURL string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.counts, rawURL)
}

// Reset clears the failure count for a URL. Operator action; identical to a
// success for counting purposes but named for intent.
func (g *Governor) Reset(rawURL string) {
	g.RecordSuccess(rawURL)
}

// Failures returns the current consecutive failure count for a URL.
func (g *Governor) Failures(rawURL string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[rawURL]
}

// Exhausted reports whether the URL's failure count exceeds the ceiling.
func (g *Governor) Exhausted(rawURL string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[rawURL] > g.ceiling
}

// StateOf returns the retry state for a URL.
func (g *Governor) StateOf(rawURL string) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	count := g.counts[rawURL]
	switch {
	case count == 0:
		return StateFresh
	case count > g.ceiling:
		return StateExhausted
	default:
		return StateDegraded
	}
}
