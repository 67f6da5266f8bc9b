package dedupe

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of remembered ids. Zero or less is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
