// Package orchestrator runs the agent loop: it asks the model what to do,
// executes the requested tools through cache, rate limiter and adapter, and
// feeds the results back until the model answers or the round-trip bound is
// reached.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/Cyclone1070/beachai/internal/cache"
	"github.com/Cyclone1070/beachai/internal/clock"
	"github.com/Cyclone1070/beachai/internal/memory"
	"github.com/Cyclone1070/beachai/internal/provider"
	"github.com/Cyclone1070/beachai/internal/ratelimit"
	"github.com/Cyclone1070/beachai/internal/tool"
	"github.com/google/uuid"
)

// Answer is the outcome of one request.
type Answer struct {
	SessionID  string `json:"session_id"`
	Text       string `json:"answer"`
	State      State  `json:"state"`
	RoundTrips int    `json:"round_trips"`
	ToolCalls  int    `json:"tool_calls"`
	CacheHits  int    `json:"cache_hits"`
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for retry backoff.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithCallIDs replaces the generator for tool-call ids the model omits.
func WithCallIDs(next func() string) Option {
	return func(o *Orchestrator) { o.newCallID = next }
}

// Orchestrator is safe for concurrent use; all request state lives on the
// stack of Ask.
type Orchestrator struct {
	provider provider.Provider
	registry *tool.Registry
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	memory   *memory.Store
	settings Settings
	decls    []tool.Declaration

	clock     clock.Clock
	logger    *log.Logger
	newCallID func() string
}

// New creates an Orchestrator. The registry must be fully populated.
func New(p provider.Provider, reg *tool.Registry, c *cache.Cache, l *ratelimit.Limiter, m *memory.Store, settings Settings, opts ...Option) *Orchestrator {
	if settings.MaxRoundTrips < 1 {
		settings.MaxRoundTrips = 1
	}
	o := &Orchestrator{
		provider:  p,
		registry:  reg,
		cache:     c,
		limiter:   l,
		memory:    m,
		settings:  settings,
		decls:     reg.Declarations(),
		clock:     clock.Real{},
		logger:    log.New(io.Discard, "", 0),
		newCallID: func() string { return "call_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ask answers query within sessionID. An empty sessionID starts a new
// session.
//
// Failed tool calls are fed back to the model and never fail the request.
// Errors are returned only for terminal outcomes: *LoopExhaustedError (with
// a non-nil Answer carrying the apology), *ModelUnavailableError and
// *RequestTimeoutError.
func (o *Orchestrator) Ask(ctx context.Context, sessionID, query string) (*Answer, error) {
	return o.AskWithEvents(ctx, sessionID, query, nil)
}

// AskWithEvents is Ask with progress reported on events. The channel is not
// closed; DoneEvent marks the end.
func (o *Orchestrator) AskWithEvents(ctx context.Context, sessionID, query string, events chan<- Event) (*Answer, error) {
	em := newEmitter(ctx, events)
	answer, err := o.run(ctx, sessionID, query, em)
	state := StateAborted
	if answer != nil && answer.State.Terminal() {
		state = answer.State
	}
	em.finish(state, err)
	return answer, err
}

func (o *Orchestrator) run(parent context.Context, sessionID, query string, em *emitter) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if sessionID == "" {
		sessionID = memory.NewSessionID()
	}

	ctx := parent
	if o.settings.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, o.settings.RequestTimeout)
		defer cancel()
	}

	messages := toMessages(o.memory.History(sessionID, o.settings.HistoryTurns))
	if _, err := o.memory.Append(sessionID, memory.Turn{Role: memory.RoleUser, Content: query}); err != nil {
		return nil, fmt.Errorf("record user turn: %w", err)
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: query})

	answer := &Answer{SessionID: sessionID, State: StateAwaitModel}
	for {
		answer.State = StateAwaitModel
		em.emit(ThinkingEvent{RoundTrip: answer.RoundTrips + 1})

		resp, err := o.generate(ctx, messages)
		if err != nil {
			return nil, o.timeoutOr(ctx, parent, answer.State, err)
		}

		switch resp.Type {
		case provider.ResponseTypeText, provider.ResponseTypeRefusal:
			text := resp.Text
			if resp.Type == provider.ResponseTypeRefusal {
				text = refusalText(resp.RefusalReason)
			}
			if strings.TrimSpace(text) == "" {
				return nil, &ModelUnavailableError{Provider: o.provider.Name(), Attempts: 1, Cause: ErrEmptyAnswer}
			}
			if _, err := o.memory.Append(sessionID, memory.Turn{Role: memory.RoleAssistant, Content: text}); err != nil {
				return nil, fmt.Errorf("record answer: %w", err)
			}
			answer.Text = text
			answer.State = StateDone
			return answer, nil

		case provider.ResponseTypeToolCall:
			if len(resp.ToolCalls) == 0 {
				return nil, &ModelUnavailableError{Provider: o.provider.Name(), Attempts: 1, Cause: ErrEmptyAnswer}
			}
			if answer.RoundTrips >= o.settings.MaxRoundTrips {
				return o.abort(sessionID, answer)
			}

			answer.State = StateExecutingTools
			answer.RoundTrips++
			calls := o.assignIDs(resp.ToolCalls)

			results, hits, err := o.executeBatch(ctx, calls, em)
			if err != nil {
				return nil, o.timeoutOr(ctx, parent, answer.State, err)
			}
			answer.ToolCalls += len(calls)
			answer.CacheHits += hits

			if _, err := o.memory.AppendAll(sessionID, roundTurns(resp.Text, calls, results)...); err != nil {
				return nil, fmt.Errorf("record tool results: %w", err)
			}
			messages = append(messages, provider.Message{Role: provider.RoleAssistant, Content: resp.Text, ToolCalls: calls})
			for i, c := range calls {
				messages = append(messages, provider.Message{
					Role:       provider.RoleTool,
					Content:    results[i].LLMContent(),
					ToolCallID: c.ID,
					ToolName:   c.Name,
				})
			}

		default:
			return nil, &ModelUnavailableError{
				Provider: o.provider.Name(),
				Attempts: 1,
				Cause:    fmt.Errorf("%w: unknown response type %q", provider.ErrInvalidResponse, resp.Type),
			}
		}
	}
}

// abort ends a request that hit the round-trip bound with an apology that
// is recorded like any other answer.
func (o *Orchestrator) abort(sessionID string, answer *Answer) (*Answer, error) {
	o.logger.Printf("[orchestrator] session %s: aborting after %d round trips", sessionID, answer.RoundTrips)
	text := fmt.Sprintf("Sorry, I was unable to complete your request: it still needed more data after %d lookups. "+
		"Please try a more specific question.", answer.RoundTrips)
	if _, err := o.memory.Append(sessionID, memory.Turn{Role: memory.RoleAssistant, Content: text}); err != nil {
		o.logger.Printf("[orchestrator] session %s: recording abort answer: %v", sessionID, err)
	}
	answer.Text = text
	answer.State = StateAborted
	return answer, &LoopExhaustedError{RoundTrips: answer.RoundTrips}
}

// generate calls the model, retrying retryable failures.
func (o *Orchestrator) generate(ctx context.Context, messages []provider.Message) (*provider.GenerateResponse, error) {
	req := &provider.GenerateRequest{
		SystemPrompt: o.settings.SystemPrompt,
		Messages:     messages,
		Tools:        o.decls,
		Config: &provider.GenerateConfig{
			Temperature:     o.settings.Temperature,
			MaxOutputTokens: o.settings.MaxOutputTokens,
		},
	}

	attempts := 0
	for {
		attempts++
		resp, err := o.provider.Generate(ctx, req)
		if err == nil {
			if resp == nil {
				err = fmt.Errorf("%w: nil response", provider.ErrInvalidResponse)
			} else {
				return resp, nil
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !provider.IsRetryable(err) || attempts > o.settings.ModelRetries {
			return nil, &ModelUnavailableError{Provider: o.provider.Name(), Attempts: attempts, Cause: err}
		}

		wait := time.Duration(attempts) * o.settings.RetryBackoff
		if after := provider.GetRetryAfter(err); after != nil {
			wait = *after
		}
		o.logger.Printf("[orchestrator] %s: attempt %d failed (%v), retrying in %s", o.provider.Name(), attempts, err, wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-o.clock.After(wait):
		}
	}
}

// timeoutOr maps an expired request deadline to *RequestTimeoutError and
// passes every other error through.
func (o *Orchestrator) timeoutOr(ctx, parent context.Context, state State, err error) error {
	if ctx.Err() != nil && parent.Err() == nil {
		return &RequestTimeoutError{Timeout: o.settings.RequestTimeout, State: state}
	}
	if errors.Is(err, context.DeadlineExceeded) && o.settings.RequestTimeout > 0 {
		return &RequestTimeoutError{Timeout: o.settings.RequestTimeout, State: state}
	}
	return err
}

func (o *Orchestrator) assignIDs(calls []provider.ToolCall) []provider.ToolCall {
	out := make([]provider.ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = o.newCallID()
		}
		out[i] = c
	}
	return out
}

func refusalText(reason string) string {
	if reason == "" {
		return "Sorry, I can't help with that request."
	}
	return "Sorry, I can't help with that request (" + reason + ")."
}
