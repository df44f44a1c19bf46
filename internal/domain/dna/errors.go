package dna

import "errors"

// ErrInconsistentData marks a slot whose source records contradict each
// other. The builder logs it and resets the slot.
var ErrInconsistentData = errors.New("inconsistent history data")
