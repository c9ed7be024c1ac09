package domain

import "errors"

// Failure kinds shared across components. Wrap with %w so callers can test
// with errors.Is and map to a user-facing surface.
var (
	// ErrValidation marks bad user input; the user corrects and retries.
	ErrValidation = errors.New("validation error")
	// ErrPersistence marks a failed store read or write; the triggering
	// action may be retried, prior persisted state is untouched.
	ErrPersistence = errors.New("persistence error")
	// ErrAuthorization marks an invalid identity or a document not owned by
	// the identity; fatal to the current action.
	ErrAuthorization = errors.New("authorization error")
	// ErrTransport marks an unreachable or failing external endpoint.
	ErrTransport = errors.New("transport error")
)
