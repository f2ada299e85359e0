package memory

import (
	"fmt"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the assistant.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Turn is one message in a session.
// Assistant turns may carry ToolCalls; tool turns link back through
// ToolCallID and ToolName.
type Turn struct {
	Seq        int64      `json:"seq"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	At         time.Time  `json:"at"`
}

func (t Turn) validate() error {
	switch t.Role {
	case RoleUser, RoleAssistant:
		return nil
	case RoleTool:
		if t.ToolCallID == "" && t.ToolName == "" {
			return fmt.Errorf("%w: tool turn needs a tool call id or tool name", ErrInvalidRole)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, t.Role)
	}
}

// Info summarises a session.
type Info struct {
	ID         string    `json:"id"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"last_active"`
	Turns      int       `json:"turns"`
	LastSeq    int64     `json:"last_seq"`
}
