package montecarlo

import "github.com/okian/matchquant/pkg/logger"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSimulations sets the number of simulated matches per run.
func WithSimulations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.simulations = n
		}
	}
}

// WithSeed sets the base RNG seed. Shard i is seeded with seed+i.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithWorkers caps how many shards run at once. Results do not depend on it.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRedCardRate sets the per-side probability of a red card per match.
func WithRedCardRate(rate float64) Option {
	return func(e *Engine) {
		if rate >= 0 && rate < 1 {
			e.redCardRate = rate
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
