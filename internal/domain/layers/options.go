package layers

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights overrides base weights by layer name. Unknown layers and
// negative weights are ignored.
func WithWeights(weights map[string]float64) Option {
	return func(s *Scorer) {
		s.weights = s.weights.Merge(weights)
	}
}
