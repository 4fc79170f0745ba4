package domain

import "errors"

// Error kinds of the booking engine. Packages wrap them into their own sentinels
// (fmt.Errorf("...: %w", domain.ErrNotFound)) so callers can branch with errors.Is.
var (
	// ErrInvalidRequest malformed input, fixable by the caller
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound resource or booking reference does not resolve
	ErrNotFound = errors.New("not found")

	// ErrCapacityExhausted the requested quantity could not be committed
	ErrCapacityExhausted = errors.New("capacity exhausted")

	// ErrInvalidTransition operation is not permitted from the current booking status
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConflict a concurrent mutation won the race; retry the read-decide-write cycle
	ErrConflict = errors.New("conflict")
)

// IsNotFound reports whether err is of the NotFound kind
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
