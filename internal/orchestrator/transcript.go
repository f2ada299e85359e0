package orchestrator

import (
	"github.com/Cyclone1070/beachai/internal/memory"
	"github.com/Cyclone1070/beachai/internal/provider"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// toMessages converts stored turns to model messages.
func toMessages(turns []memory.Turn) []provider.Message {
	msgs := make([]provider.Message, 0, len(turns))
	for _, t := range turns {
		msg := provider.Message{
			Role:       provider.Role(t.Role),
			Content:    t.Content,
			ToolCallID: t.ToolCallID,
			ToolName:   t.ToolName,
		}
		for _, c := range t.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, provider.ToolCall{ID: c.ID, Name: c.Name, Args: c.Args})
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// roundTurns builds the turns recorded for one executed batch: the
// assistant directive followed by one tool turn per call, in directive
// order.
func roundTurns(text string, calls []provider.ToolCall, results []tool.Result) []memory.Turn {
	directive := memory.Turn{Role: memory.RoleAssistant, Content: text}
	for _, c := range calls {
		directive.ToolCalls = append(directive.ToolCalls, memory.ToolCall{ID: c.ID, Name: c.Name, Args: c.Args})
	}
	turns := make([]memory.Turn, 0, len(calls)+1)
	turns = append(turns, directive)
	for i, c := range calls {
		turns = append(turns, memory.Turn{
			Role:       memory.RoleTool,
			Content:    results[i].LLMContent(),
			ToolCallID: c.ID,
			ToolName:   c.Name,
		})
	}
	return turns
}
