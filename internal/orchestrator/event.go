package orchestrator

import (
	"context"
	"sync"

	"github.com/Cyclone1070/beachai/internal/tool"
)

// Event reports progress of a request. Consumers handle events via type
// switch; DoneEvent is always the last one sent.
type Event interface {
	isEvent()
}

// ThinkingEvent is emitted before each model call.
type ThinkingEvent struct {
	RoundTrip int
}

func (ThinkingEvent) isEvent() {}

// ToolStartEvent is emitted when a tool call begins.
type ToolStartEvent struct {
	CallID   string
	ToolName string
	Args     map[string]any
}

func (ToolStartEvent) isEvent() {}

// ToolEndEvent is emitted when a tool call has a result.
type ToolEndEvent struct {
	CallID    string
	ToolName  string
	Success   bool
	Cached    bool
	ErrorKind tool.ErrorKind
}

func (ToolEndEvent) isEvent() {}

// DoneEvent is emitted once the request reaches a terminal state or fails.
type DoneEvent struct {
	State State
	Err   error
}

func (DoneEvent) isEvent() {}

// emitter delivers events to an optional channel. After finish no event is
// sent, so tool calls still running in the background stay silent.
type emitter struct {
	ctx    context.Context
	ch     chan<- Event
	mu     sync.Mutex
	closed bool
}

func newEmitter(ctx context.Context, ch chan<- Event) *emitter {
	return &emitter{ctx: ctx, ch: ch}
}

func (e *emitter) emit(ev Event) {
	if e == nil || e.ch == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.ch <- ev:
	case <-e.ctx.Done():
	}
}

func (e *emitter) finish(state State, err error) {
	if e == nil || e.ch == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	select {
	case e.ch <- DoneEvent{State: state, Err: err}:
	case <-e.ctx.Done():
	}
}
