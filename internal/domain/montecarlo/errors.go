package montecarlo

import "errors"

// Sentinel errors for the simulator.
var (
	ErrInvalidXG = errors.New("expected goals must be positive")
)
