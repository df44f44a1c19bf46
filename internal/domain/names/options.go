package names

import "github.com/okian/matchquant/pkg/logger"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAliases registers extra aliases on top of the built-in table.
func WithAliases(table map[string][]string) Option {
	return func(r *Resolver) {
		for canonical, sources := range table {
			r.Add(canonical, sources...)
		}
	}
}
