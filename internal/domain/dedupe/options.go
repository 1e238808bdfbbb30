package dedupe

// Option configures a Tracker.
type Option func(*pendingSet)

// WithMaxSize bounds the number of pending IDs. Zero or negative removes
// the bound.
func WithMaxSize(maxSize int) Option {
	return func(t *pendingSet) {
		t.maxSize = maxSize
	}
}
