package dynamics

import "errors"

// Sentinel errors for the analyser.
var (
	ErrUnsupportedMarket = errors.New("market has no odds history column")
)
