package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Cyclone1070/beachai/internal/provider"
	"github.com/Cyclone1070/beachai/internal/tool"
	"google.golang.org/genai"
)

// toGeminiContents converts the conversation to Gemini Content format.
// Consecutive tool messages are merged into one content so that all
// responses to a multi-call turn arrive together.
func toGeminiContents(messages []provider.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))

	for i, msg := range messages {
		content := messageToGeminiContent(msg)
		if content == nil {
			continue
		}
		if msg.Role == provider.RoleTool && i > 0 && messages[i-1].Role == provider.RoleTool && len(contents) > 0 {
			last := contents[len(contents)-1]
			last.Parts = append(last.Parts, content.Parts...)
			continue
		}
		contents = append(contents, content)
	}

	return contents
}

// messageToGeminiContent converts a single message to Gemini Content format.
func messageToGeminiContent(msg provider.Message) *genai.Content {
	role := genai.RoleUser
	if msg.Role == provider.RoleAssistant {
		role = genai.RoleModel
	}

	parts := make([]*genai.Part, 0, 1+len(msg.ToolCalls))

	if msg.Role == provider.RoleTool {
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolCallID,
				Name:     msg.ToolName,
				Response: toolResponse(msg.Content),
			},
		})
	} else if msg.Content != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}

	for _, call := range msg.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Args,
			},
		})
	}

	// Skip empty messages
	if len(parts) == 0 {
		return nil
	}

	return &genai.Content{
		Role:  role,
		Parts: parts,
	}
}

// toolResponse decodes a JSON tool result into the map Gemini expects.
func toolResponse(content string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err == nil && m != nil {
		return m
	}
	return map[string]any{"content": content}
}

// toGeminiConfig builds the request config.
func toGeminiConfig(systemPrompt string, config *provider.GenerateConfig) *genai.GenerateContentConfig {
	geminiConfig := &genai.GenerateContentConfig{}

	if systemPrompt != "" {
		geminiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	if config == nil {
		return geminiConfig
	}

	if config.Temperature != nil {
		geminiConfig.Temperature = config.Temperature
	}
	if config.MaxOutputTokens != nil {
		geminiConfig.MaxOutputTokens = int32(*config.MaxOutputTokens)
	}

	return geminiConfig
}

// toGeminiTools converts tool declarations to Gemini tools.
func toGeminiTools(decls []tool.Declaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}

	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if d.Parameters != nil {
			fd.Parameters = toGeminiSchema(d.Parameters)
		}
		functionDeclarations = append(functionDeclarations, fd)
	}

	return []*genai.Tool{
		{FunctionDeclarations: functionDeclarations},
	}
}

// toGeminiSchema converts a tool schema to a Gemini schema, recursively.
func toGeminiSchema(s *tool.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	schema := &genai.Schema{
		Type:        toGeminiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGeminiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		schema.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			schema.Properties[name] = toGeminiSchema(prop)
		}
	}
	return schema
}

// toGeminiType converts a tool type to a Gemini Type.
func toGeminiType(t tool.Type) genai.Type {
	switch t {
	case tool.TypeString:
		return genai.TypeString
	case tool.TypeNumber:
		return genai.TypeNumber
	case tool.TypeInteger:
		return genai.TypeInteger
	case tool.TypeBoolean:
		return genai.TypeBoolean
	case tool.TypeArray:
		return genai.TypeArray
	case tool.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts Gemini response to internal format.
func fromGeminiResponse(resp *genai.GenerateContentResponse, modelUsed string) (*provider.GenerateResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return &provider.GenerateResponse{
				Type:          provider.ResponseTypeRefusal,
				RefusalReason: string(resp.PromptFeedback.BlockReason),
				Metadata:      buildMetadata(resp.UsageMetadata, modelUsed),
			}, nil
		}
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeInvalidResponse,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]

	if candidate.FinishReason == genai.FinishReasonSafety {
		return &provider.GenerateResponse{
			Type:          provider.ResponseTypeRefusal,
			RefusalReason: "content blocked by safety filters",
			Metadata:      buildMetadata(resp.UsageMetadata, modelUsed),
		}, nil
	}

	if candidate.Content == nil {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeInvalidResponse,
			Message: fmt.Sprintf("candidate has no content (finish reason %s)", candidate.FinishReason),
		}
	}

	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			return buildToolCallResponse(candidate, resp.UsageMetadata, modelUsed), nil
		}
	}

	response := buildResponse(candidate, resp.UsageMetadata, modelUsed)
	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		// Return partial response with error
		return response, &provider.ProviderError{
			Code:      provider.ErrorCodeContextLength,
			Message:   "response truncated due to max tokens",
			Retryable: false,
		}
	}
	return response, nil
}

// buildResponse builds a text response from a candidate.
func buildResponse(candidate *genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) *provider.GenerateResponse {
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}

	return &provider.GenerateResponse{
		Type:     provider.ResponseTypeText,
		Text:     text.String(),
		Metadata: buildMetadata(usage, modelUsed),
	}
}

// buildToolCallResponse builds a tool call response from a candidate.
func buildToolCallResponse(candidate *genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) *provider.GenerateResponse {
	toolCalls := make([]provider.ToolCall, 0)

	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, provider.ToolCall{
				ID:   part.FunctionCall.ID, // Often empty on the Gemini API
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}

	return &provider.GenerateResponse{
		Type:      provider.ResponseTypeToolCall,
		ToolCalls: toolCalls,
		Metadata:  buildMetadata(usage, modelUsed),
	}
}

// buildMetadata builds response metadata from usage data.
func buildMetadata(usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) provider.ResponseMetadata {
	metadata := provider.ResponseMetadata{
		ModelUsed: modelUsed,
	}

	if usage != nil {
		metadata.PromptTokens = int(usage.PromptTokenCount)
		metadata.CompletionTokens = int(usage.CandidatesTokenCount)
		metadata.TotalTokens = int(usage.TotalTokenCount)
	}

	return metadata
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &provider.ProviderError{
			Code:       provider.ErrorCodeTimeout,
			Message:    "request timed out",
			Underlying: err,
			Retryable:  true,
		}
	}

	// The SDK returns APIError by value; tests and wrappers may use a pointer.
	var apiErr *genai.APIError
	var apiErrValue genai.APIError
	if errors.As(err, &apiErrValue) {
		apiErr = &apiErrValue
	} else {
		errors.As(err, &apiErr)
	}

	if apiErr != nil {
		switch apiErr.Code {
		case 401, 403:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeAuth,
				Message:    "authentication failed",
				Underlying: err,
				Retryable:  false,
			}
		case 404:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeInvalidModel,
				Message:    fmt.Sprintf("model not found: %s", apiErr.Message),
				Underlying: err,
				Retryable:  false,
			}
		case 429:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeRateLimit,
				Message:    "rate limit exceeded",
				Underlying: err,
				Retryable:  true,
				RetryAfter: parseRetryAfter(apiErr),
			}
		case 400:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeInvalidRequest,
				Message:    fmt.Sprintf("invalid request: %s", apiErr.Message),
				Underlying: err,
				Retryable:  false,
			}
		case 500, 502, 503, 504:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeUnavailable,
				Message:    "service unavailable",
				Underlying: err,
				Retryable:  true,
			}
		default:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeNetwork,
				Message:    fmt.Sprintf("API error: %s", apiErr.Message),
				Underlying: err,
				Retryable:  true,
			}
		}
	}

	// Generic network error
	return &provider.ProviderError{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}

// parseRetryAfter reads the retryDelay field from error details.
// The API sends it as a duration string ("30s"); numbers are seconds.
func parseRetryAfter(apiErr *genai.APIError) *time.Duration {
	if apiErr == nil {
		return nil
	}
	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"]
		if !ok {
			continue
		}
		var d time.Duration
		switch v := raw.(type) {
		case int:
			d = time.Duration(v) * time.Second
		case int64:
			d = time.Duration(v) * time.Second
		case float64:
			d = time.Duration(v * float64(time.Second))
		case string:
			parsed, err := time.ParseDuration(v)
			if err != nil {
				secs, err := strconv.ParseFloat(v, 64)
				if err != nil {
					continue
				}
				parsed = time.Duration(secs * float64(time.Second))
			}
			d = parsed
		default:
			continue
		}
		if d > 0 {
			return &d
		}
	}
	return nil
}
