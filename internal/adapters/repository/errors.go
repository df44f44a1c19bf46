package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	ErrNilStore = errors.New("nil history store")
	ErrNoDB     = errors.New("no database handle")
)
