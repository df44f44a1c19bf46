package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted       = errors.New("batch processing not started")
	ErrQueueFull        = errors.New("fixture queue is full")
	ErrDuplicateFixture = errors.New("fixture already queued")
	ErrUnknownFixture   = errors.New("fixture teams unknown")
)
