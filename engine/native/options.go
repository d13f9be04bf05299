package native

import "github.com/k2io/minhook/internal/symbols"

type options struct {
	cacheSize int
	load      symbols.Loader
}

// Option configures an Engine.
type Option func(*options)

// WithSymbolCacheSize bounds the number of module symbol tables kept for
// CreateHookAPI.
func WithSymbolCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

func withLoader(load symbols.Loader) Option {
	return func(o *options) {
		o.load = load
	}
}

func buildOptions(opts []Option) options {
	o := options{cacheSize: symbols.DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
