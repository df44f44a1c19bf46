package trap

import "github.com/okian/matchquant/pkg/logger"

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithLogger sets a custom logger for the gate.
func WithLogger(l logger.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}
