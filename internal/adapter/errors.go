package adapter

import (
	"errors"
	"fmt"

	"github.com/Cyclone1070/beachai/internal/tool"
)

var ErrWrongParams = errors.New("unexpected parameter type")

// UpstreamError describes a failed exchange with an external API. Kind is
// the category reported back to the model.
type UpstreamError struct {
	Source  string
	Kind    tool.ErrorKind
	Status  int
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Source, msg)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

func unavailable(source, format string, args ...any) error {
	return &UpstreamError{Source: source, Kind: tool.ErrorUnavailable, Message: fmt.Sprintf(format, args...)}
}

func invalidResponse(source string, cause error, format string, args ...any) error {
	return &UpstreamError{Source: source, Kind: tool.ErrorInvalidResponse, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// wrongParams reports a params struct of the wrong type. It is a wiring bug,
// never a model mistake, so it is kept within the adapter failure kinds.
func wrongParams(source string, got any) error {
	return &UpstreamError{
		Source:  source,
		Kind:    tool.ErrorInvalidResponse,
		Message: fmt.Sprintf("got %T", got),
		Cause:   ErrWrongParams,
	}
}
