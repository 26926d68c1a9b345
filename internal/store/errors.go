package store

import "errors"

// ErrNotFound is returned when an update or delete references an entry
// that does not exist or is already soft-deleted.
var ErrNotFound = errors.New("entry not found")

// ValidationError rejects a write synchronously. Nothing is partially
// applied when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}
