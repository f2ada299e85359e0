package tool

import (
	"errors"
	"fmt"
	"strings"
)

// -- Sentinels --

var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("unknown tool")
	ErrValidation    = errors.New("invalid tool arguments")
	ErrInvalidSpec   = errors.New("invalid tool spec")
)

// DuplicateToolError is returned when a tool name is registered twice.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}
func (e *DuplicateToolError) Unwrap() error { return ErrDuplicateTool }

// UnknownToolError is returned when a tool name has no registration.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q does not exist", e.Name)
}
func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }

// ValidationError lists every problem found in a tool call's arguments.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, strings.Join(e.Problems, "; "))
}
func (e *ValidationError) Unwrap() error { return ErrValidation }
