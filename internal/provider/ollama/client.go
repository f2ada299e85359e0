// Package ollama talks to a local Ollama server through its /api/chat
// endpoint with native tool calling.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Cyclone1070/beachai/internal/provider"
)

const (
	defaultBaseURL = "http://localhost:11434"
	maxErrorBody   = 4 << 10
)

// Client implements provider.Provider for Ollama.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New creates a Client for model.
func New(model string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		model:   model,
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSHandshakeTimeout: 10 * time.Second,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name returns "ollama".
func (c *Client) Name() string { return "ollama" }

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Generate sends a chat request to the Ollama API and returns the response.
// Request duration is bounded by ctx.
func (c *Client) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	if c.model == "" {
		return nil, &provider.ProviderError{Code: provider.ErrorCodeInvalidModel, Message: "model is required"}
	}

	data, err := json.Marshal(toChatRequest(c.model, req))
	if err != nil {
		return nil, &provider.ProviderError{Code: provider.ErrorCodeInvalidRequest, Message: "failed to marshal request", Underlying: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, &provider.ProviderError{Code: provider.ErrorCodeInvalidRequest, Message: "failed to create HTTP request", Underlying: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, body)
	}

	var chat ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		if ctx.Err() != nil {
			return nil, transportError(ctx, err)
		}
		return nil, &provider.ProviderError{Code: provider.ErrorCodeInvalidResponse, Message: "failed to decode chat response", Underlying: err}
	}

	out := fromChatResponse(&chat, c.model)
	out.Metadata.LatencyMs = time.Since(start).Milliseconds()
	return out, nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &provider.ProviderError{Code: provider.ErrorCodeTimeout, Message: "ollama request timed out", Underlying: err, Retryable: true}
	}
	if errors.Is(err, context.Canceled) {
		return &provider.ProviderError{Code: provider.ErrorCodeNetwork, Message: "ollama request canceled", Underlying: err}
	}
	return &provider.ProviderError{Code: provider.ErrorCodeUnavailable, Message: "ollama unreachable", Underlying: err, Retryable: true}
}

func statusError(status int, body []byte) error {
	msg := string(body)
	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		msg = er.Error
	}

	switch {
	case status == http.StatusNotFound:
		return &provider.ProviderError{Code: provider.ErrorCodeInvalidModel, Message: msg}
	case status == http.StatusTooManyRequests:
		return &provider.ProviderError{Code: provider.ErrorCodeRateLimit, Message: msg, Retryable: true}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &provider.ProviderError{Code: provider.ErrorCodeAuth, Message: msg}
	case status >= 500:
		return &provider.ProviderError{Code: provider.ErrorCodeUnavailable, Message: fmt.Sprintf("status %d: %s", status, msg), Retryable: true}
	default:
		return &provider.ProviderError{Code: provider.ErrorCodeInvalidRequest, Message: fmt.Sprintf("status %d: %s", status, msg)}
	}
}
