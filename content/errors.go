package content

import "errors"

// Common content errors.
var (
	// ErrNotFound is returned when a content record does not exist.
	ErrNotFound = errors.New("content not found")
)
