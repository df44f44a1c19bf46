package dna

import "github.com/okian/matchquant/pkg/logger"

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithLogger sets a custom logger for the builder.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithOverlay folds matches settled after the store snapshot into every build.
func WithOverlay(o Overlay) Option {
	return func(b *Builder) {
		b.overlay = o
	}
}

// ProviderOption applies a configuration option to the Provider.
type ProviderOption func(*Provider)

// WithRemoteCache adds a second-level cache shared between processes.
func WithRemoteCache(c RemoteCache) ProviderOption {
	return func(p *Provider) {
		p.remote = c
	}
}

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(l logger.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}
