package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no record exists for a content id.
	ErrNotFound = errors.New("graph record not found")

	// ErrVersionNotFound is returned when a rollback target is not in the
	// record's history.
	ErrVersionNotFound = errors.New("version not found in history")

	// ErrConflict is returned when a concurrent writer changed the record
	// between read and write.
	ErrConflict = errors.New("concurrent modification")

	// ErrInvalidKey is returned for content ids that cannot be used as keys.
	ErrInvalidKey = errors.New("invalid storage key")
)
