package ollama

import (
	"github.com/Cyclone1070/beachai/internal/provider"
)

// toChatRequest converts a provider request to an Ollama chat request.
func toChatRequest(model string, req *provider.GenerateRequest) *ChatRequest {
	out := &ChatRequest{
		Model:    model,
		Messages: make([]ChatMessage, 0, len(req.Messages)+1),
		Stream:   false,
	}

	if req.SystemPrompt != "" {
		out.Messages = append(out.Messages, ChatMessage{Role: "system", Content: req.SystemPrompt})
	}

	for _, msg := range req.Messages {
		cm := ChatMessage{Role: string(msg.Role), Content: msg.Content}
		switch msg.Role {
		case provider.RoleTool:
			cm.ToolName = msg.ToolName
		case provider.RoleAssistant:
			for _, call := range msg.ToolCalls {
				args := call.Args
				if args == nil {
					args = map[string]any{}
				}
				cm.ToolCalls = append(cm.ToolCalls, ChatToolCall{
					Function: ChatFunctionCall{Name: call.Name, Arguments: args},
				})
			}
		}
		out.Messages = append(out.Messages, cm)
	}

	for _, d := range req.Tools {
		out.Tools = append(out.Tools, ChatTool{
			Type: "function",
			Function: ChatFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}

	if req.Config != nil {
		opts := &Options{Temperature: req.Config.Temperature}
		if req.Config.MaxOutputTokens != nil {
			opts.NumPredict = *req.Config.MaxOutputTokens
		}
		out.Options = opts
	}

	return out
}

// fromChatResponse converts an Ollama chat response to a provider response.
func fromChatResponse(resp *ChatResponse, model string) *provider.GenerateResponse {
	out := &provider.GenerateResponse{
		Metadata: provider.ResponseMetadata{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
			ModelUsed:        model,
		},
	}
	if resp.Model != "" {
		out.Metadata.ModelUsed = resp.Model
	}

	if len(resp.Message.ToolCalls) > 0 {
		out.Type = provider.ResponseTypeToolCall
		for _, call := range resp.Message.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
				Name: call.Function.Name,
				Args: call.Function.Arguments,
			})
		}
		return out
	}

	out.Type = provider.ResponseTypeText
	out.Text = resp.Message.Content
	return out
}
