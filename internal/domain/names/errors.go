package names

import "errors"

// Sentinel errors for name resolution.
var (
	ErrNoMatch           = errors.New("no known team matches any variant")
	ErrInvalidAliasTable = errors.New("invalid alias table")
)
