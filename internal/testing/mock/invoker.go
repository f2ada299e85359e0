package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Cyclone1070/beachai/internal/tool"
)

// Invoker implements tool.Invoker and records every call. Without an
// InvokeFunc it echoes the validated arguments back as a successful payload.
type Invoker struct {
	InvokeFunc func(ctx context.Context, args *tool.ValidatedArgs, timeout time.Duration) tool.Result

	mu    sync.Mutex
	calls []*tool.ValidatedArgs
}

func (i *Invoker) Invoke(ctx context.Context, args *tool.ValidatedArgs, timeout time.Duration) tool.Result {
	i.mu.Lock()
	i.calls = append(i.calls, args)
	fn := i.InvokeFunc
	i.mu.Unlock()

	if fn != nil {
		return fn(ctx, args, timeout)
	}
	payload := make(map[string]any, len(args.Args))
	for k, v := range args.Args {
		payload[k] = v
	}
	return tool.Succeeded(args.Tool, payload, time.Time{})
}

// Calls returns the number of Invoke calls.
func (i *Invoker) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.calls)
}

// Args returns the arguments of every call in arrival order.
func (i *Invoker) Args() []*tool.ValidatedArgs {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]*tool.ValidatedArgs(nil), i.calls...)
}
