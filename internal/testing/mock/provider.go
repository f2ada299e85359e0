package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/Cyclone1070/beachai/internal/provider"
)

// ErrScriptExhausted is returned once every scripted step has been used.
var ErrScriptExhausted = errors.New("mock provider: script exhausted")

// Step is one scripted model reply.
type Step struct {
	Response *provider.GenerateResponse
	Err      error
}

// Provider implements provider.Provider. GenerateFunc wins when set;
// otherwise the Script is replayed in order.
type Provider struct {
	GenerateFunc func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error)
	Script       []Step
	NameVal      string
	ModelVal     string

	mu       sync.Mutex
	next     int
	requests []provider.GenerateRequest
}

// NewProvider returns a Provider replaying steps.
func NewProvider(steps ...Step) *Provider {
	return &Provider{Script: steps, NameVal: "mock", ModelVal: "mock-model"}
}

func (p *Provider) Name() string  { return p.NameVal }
func (p *Provider) Model() string { return p.ModelVal }

func (p *Provider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	p.mu.Lock()
	recorded := *req
	recorded.Messages = append([]provider.Message(nil), req.Messages...)
	p.requests = append(p.requests, recorded)
	fn := p.GenerateFunc
	var step *Step
	if fn == nil && p.next < len(p.Script) {
		step = &p.Script[p.next]
		p.next++
	}
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if step == nil {
		return nil, ErrScriptExhausted
	}
	return step.Response, step.Err
}

// Requests returns copies of every request received so far.
func (p *Provider) Requests() []provider.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]provider.GenerateRequest(nil), p.requests...)
}

// Calls returns the number of Generate calls.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Text is a scripted final answer.
func Text(text string) Step {
	return Step{Response: &provider.GenerateResponse{Type: provider.ResponseTypeText, Text: text}}
}

// ToolCalls is a scripted batch of tool-call directives.
func ToolCalls(calls ...provider.ToolCall) Step {
	return Step{Response: &provider.GenerateResponse{Type: provider.ResponseTypeToolCall, ToolCalls: calls}}
}

// Fail is a scripted model error.
func Fail(err error) Step {
	return Step{Err: err}
}
