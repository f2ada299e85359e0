package tool

import (
	"encoding/json"
	"time"
)

// ErrorKind categorises a failed tool call.
type ErrorKind string

const (
	ErrorUnavailable      ErrorKind = "Unavailable"
	ErrorTimeout          ErrorKind = "Timeout"
	ErrorInvalidResponse  ErrorKind = "InvalidResponse"
	ErrorRateLimited      ErrorKind = "RateLimited"
	ErrorInvalidArguments ErrorKind = "InvalidArguments"
)

// Failure describes why a tool call did not produce data.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Result is the normalized outcome of one tool call. A Result is treated as
// immutable once built: the cache hands the same value to every reader.
type Result struct {
	Tool       string         `json:"tool"`
	Payload    map[string]any `json:"data,omitempty"`
	SourceTime time.Time      `json:"source_time,omitzero"`
	Success    bool           `json:"success"`
	Error      *Failure       `json:"error,omitempty"`
}

// Succeeded builds a successful Result.
func Succeeded(toolName string, payload map[string]any, sourceTime time.Time) Result {
	return Result{
		Tool:       toolName,
		Payload:    payload,
		SourceTime: sourceTime.UTC(),
		Success:    true,
	}
}

// Failed builds a failed Result.
func Failed(toolName string, kind ErrorKind, message string) Result {
	return Result{
		Tool:    toolName,
		Success: false,
		Error:   &Failure{Kind: kind, Message: message},
	}
}

// LLMContent renders the result as the JSON document fed back to the model.
func (r Result) LLMContent() string {
	b, err := json.Marshal(r)
	if err != nil {
		fallback, _ := json.Marshal(Failed(r.Tool, ErrorInvalidResponse, "result could not be encoded: "+err.Error()))
		return string(fallback)
	}
	return string(b)
}

// ErrorKindOf returns the failure kind, or "" for a successful result.
func (r Result) ErrorKindOf() ErrorKind {
	if r.Error == nil {
		return ""
	}
	return r.Error.Kind
}
