package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrLoopExhausted    = errors.New("tool loop exhausted")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrRequestTimeout   = errors.New("request timed out")
	ErrEmptyQuery       = errors.New("query is empty")
	ErrEmptyAnswer      = errors.New("model returned an empty answer")
)

// LoopExhaustedError is returned when the model keeps requesting tools after
// the round-trip bound. The request still carries a synthesized answer.
type LoopExhaustedError struct {
	RoundTrips int
}

func (e *LoopExhaustedError) Error() string {
	return fmt.Sprintf("model still requesting tools after %d round trips", e.RoundTrips)
}

func (e *LoopExhaustedError) Unwrap() error { return ErrLoopExhausted }

// ModelUnavailableError is returned when the model cannot produce a usable
// reply after all retries.
type ModelUnavailableError struct {
	Provider string
	Attempts int
	Cause    error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable after %d attempt(s): %v", e.Provider, e.Attempts, e.Cause)
}

func (e *ModelUnavailableError) Unwrap() []error { return []error{ErrModelUnavailable, e.Cause} }

// RequestTimeoutError is returned when the whole request outlives its
// deadline. Pending tool results are discarded.
type RequestTimeoutError struct {
	Timeout time.Duration
	State   State
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s while in %s", e.Timeout, e.State)
}

func (e *RequestTimeoutError) Unwrap() error { return ErrRequestTimeout }
