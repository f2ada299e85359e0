package provider

import (
	"context"

	"github.com/Cyclone1070/beachai/internal/tool"
)

// Provider is the language model behind the agent loop.
type Provider interface {
	// Generate sends the conversation and tool catalog to the model.
	// The response is either final text or one or more tool calls.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name identifies the backend, e.g. "gemini".
	Name() string

	// Model returns the active model name.
	Model() string
}

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Message is one entry of the conversation sent to the model.
// Assistant messages may carry ToolCalls. Tool messages carry the JSON
// result of one call in Content and link back through ToolCallID/ToolName.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// GenerateRequest encapsulates all parameters for a generation request.
type GenerateRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []tool.Declaration
	Config       *GenerateConfig
}

// GenerateConfig contains optional generation parameters.
// All fields are pointers to distinguish between "not set" and "zero value".
type GenerateConfig struct {
	Temperature     *float32
	MaxOutputTokens *int
}

// ResponseType indicates the type of response from the model.
type ResponseType string

const (
	ResponseTypeText     ResponseType = "text"
	ResponseTypeToolCall ResponseType = "tool_call"
	ResponseTypeRefusal  ResponseType = "refusal"
)

// GenerateResponse contains the model's response and metadata.
type GenerateResponse struct {
	Type ResponseType

	// For Type = ResponseTypeText
	Text string

	// For Type = ResponseTypeToolCall, in the order the model emitted them
	ToolCalls []ToolCall

	// For Type = ResponseTypeRefusal (safety block, policy violation)
	RefusalReason string

	Metadata ResponseMetadata
}

// ResponseMetadata contains information about the generation.
type ResponseMetadata struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ModelUsed        string
	LatencyMs        int64
}
