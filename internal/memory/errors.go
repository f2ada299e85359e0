package memory

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrEmptySessionID = errors.New("session id cannot be empty")
	ErrInvalidRole    = errors.New("invalid role")
)

// UnknownSessionError is returned when a session id has never been used or
// was evicted.
type UnknownSessionError struct {
	ID string
}

func (e *UnknownSessionError) Error() string {
	return fmt.Sprintf("session %q does not exist", e.ID)
}

func (e *UnknownSessionError) Unwrap() error {
	return ErrUnknownSession
}
