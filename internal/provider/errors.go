package provider

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common provider failures.
var (
	ErrContentBlocked     = errors.New("content blocked by safety filters")
	ErrRateLimit          = errors.New("rate limit exceeded")
	ErrInvalidModel       = errors.New("invalid model")
	ErrAuthentication     = errors.New("authentication failed")
	ErrNetwork            = errors.New("network error")
	ErrTimeout            = errors.New("request timeout")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidResponse    = errors.New("invalid response")
)

// ErrorCode represents a provider error code.
type ErrorCode string

const (
	ErrorCodeContentBlocked  ErrorCode = "content_blocked"
	ErrorCodeRateLimit       ErrorCode = "rate_limit"
	ErrorCodeInvalidModel    ErrorCode = "invalid_model"
	ErrorCodeAuth            ErrorCode = "authentication_failed"
	ErrorCodeNetwork         ErrorCode = "network_error"
	ErrorCodeTimeout         ErrorCode = "timeout"
	ErrorCodeUnavailable     ErrorCode = "service_unavailable"
	ErrorCodeInvalidRequest  ErrorCode = "invalid_request"
	ErrorCodeInvalidResponse ErrorCode = "invalid_response"
	ErrorCodeContextLength   ErrorCode = "context_length_exceeded"
)

var codeSentinels = map[ErrorCode]error{
	ErrorCodeContentBlocked:  ErrContentBlocked,
	ErrorCodeRateLimit:       ErrRateLimit,
	ErrorCodeInvalidModel:    ErrInvalidModel,
	ErrorCodeAuth:            ErrAuthentication,
	ErrorCodeNetwork:         ErrNetwork,
	ErrorCodeTimeout:         ErrTimeout,
	ErrorCodeUnavailable:     ErrServiceUnavailable,
	ErrorCodeInvalidRequest:  ErrInvalidRequest,
	ErrorCodeInvalidResponse: ErrInvalidResponse,
}

// ProviderError wraps errors with additional context.
type ProviderError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retryable  bool
	RetryAfter *time.Duration
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error and the sentinel for Code.
func (e *ProviderError) Unwrap() []error {
	var errs []error
	if e.Underlying != nil {
		errs = append(errs, e.Underlying)
	}
	if s, ok := codeSentinels[e.Code]; ok {
		errs = append(errs, s)
	}
	return errs
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return false
}

// GetRetryAfter returns the retry-after duration if present.
func GetRetryAfter(err error) *time.Duration {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.RetryAfter
	}
	return nil
}
