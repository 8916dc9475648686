// internal/quiz/errors.go
package quiz

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Store and Session. Callers classify
// failures with errors.Is; the wrapped message carries the detail.
var (
	// ErrNotFound means the room code does not resolve to a live session.
	ErrNotFound = errors.New("room not found")

	// ErrValidationFailed covers caller input that fails static constraints
	// (player name length, out-of-range answer index).
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnauthorized means a non-host attempted a host-only transition.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState means the transition is not legal from the session's
	// current phase or question sub-state.
	ErrInvalidState = errors.New("invalid state")

	// ErrResourceExhausted means room code allocation ran out of retries.
	// It fails the single creation attempt, not the process.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// errf wraps a sentinel with a formatted detail message.
func errf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)
}
