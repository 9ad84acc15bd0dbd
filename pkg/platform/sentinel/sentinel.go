// Package sentinel holds the errors record and stats stores return for
// resource facts. Services match them with errors.Is and translate them into
// coded domain errors; they never reach HTTP responses directly.
package sentinel

import "errors"

var (
	// ErrNotFound means no document matched the filter. A conditional update
	// whose precondition no longer holds reports the same error.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyUsed means a unique document number is held by another record
	// in the same category.
	ErrAlreadyUsed = errors.New("unique key already used")
)
