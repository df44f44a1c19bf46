package meta

import "errors"

// Sentinel errors for the meta-learner and prediction logs.
var (
	ErrNoPredictions = errors.New("no pending predictions for match")
	ErrInvalidRecord = errors.New("invalid prediction record")
)
