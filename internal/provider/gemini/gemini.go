package gemini

import (
	"context"
	"time"

	"github.com/Cyclone1070/beachai/internal/provider"
)

// GeminiProvider implements provider.Provider for Google Gemini.
type GeminiProvider struct {
	client    GeminiClient
	modelName string
}

// New creates a new GeminiProvider with the specified client and model.
func New(client GeminiClient, modelName string) *GeminiProvider {
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
	}
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string { return "gemini" }

// Model returns the model name requests are sent to.
func (p *GeminiProvider) Model() string { return p.modelName }

// Generate sends a request to the Gemini API and returns the response.
func (p *GeminiProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	contents := toGeminiContents(req.Messages)
	config := toGeminiConfig(req.SystemPrompt, req.Config)
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	start := time.Now()
	resp, err := p.client.GenerateContent(ctx, p.modelName, contents, config)
	if err != nil {
		return nil, mapGeminiError(ctx, err)
	}

	out, err := fromGeminiResponse(resp, p.modelName)
	if out != nil {
		out.Metadata.LatencyMs = time.Since(start).Milliseconds()
	}
	return out, err
}
