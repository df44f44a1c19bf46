package picks

import "time"

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithModelVersion stamps picks with the given model version.
func WithModelVersion(v string) Option {
	return func(a *Assembler) {
		if v != "" {
			a.version = v
		}
	}
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}
