package cache

import "time"

// Option applies a configuration option to the DNACache.
type Option func(*DNACache)

// WithTTL sets how long a record lives. Zero keeps records until deleted.
func WithTTL(ttl time.Duration) Option {
	return func(c *DNACache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix namespaces the keys.
func WithPrefix(prefix string) Option {
	return func(c *DNACache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}
