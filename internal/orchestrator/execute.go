package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cyclone1070/beachai/internal/cache"
	"github.com/Cyclone1070/beachai/internal/provider"
	"github.com/Cyclone1070/beachai/internal/ratelimit"
	"github.com/Cyclone1070/beachai/internal/tool"
	"golang.org/x/sync/errgroup"
)

// executeBatch runs every call of one directive concurrently and returns the
// results in directive order. If ctx ends first the batch is abandoned: the
// calls finish in the background and their results are dropped.
func (o *Orchestrator) executeBatch(ctx context.Context, calls []provider.ToolCall, em *emitter) ([]tool.Result, int, error) {
	results := make([]tool.Result, len(calls))
	cached := make([]bool, len(calls))

	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			results[i], cached[i] = o.executeCall(ctx, call, em)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		o.logger.Printf("[orchestrator] abandoning %d pending tool call(s): %v", len(calls), ctx.Err())
		return nil, 0, ctx.Err()
	}

	hits := 0
	for _, c := range cached {
		if c {
			hits++
		}
	}
	return results, hits, nil
}

// executeCall runs one directive: validate, then cache, then rate limiter,
// then adapter. Every failure becomes a failed Result for the model.
func (o *Orchestrator) executeCall(ctx context.Context, call provider.ToolCall, em *emitter) (tool.Result, bool) {
	em.emit(ToolStartEvent{CallID: call.ID, ToolName: call.Name, Args: call.Args})

	res, cached := o.resolveCall(ctx, call)

	em.emit(ToolEndEvent{
		CallID:    call.ID,
		ToolName:  call.Name,
		Success:   res.Success,
		Cached:    cached,
		ErrorKind: res.ErrorKindOf(),
	})
	return res, cached
}

func (o *Orchestrator) resolveCall(ctx context.Context, call provider.ToolCall) (tool.Result, bool) {
	args, err := o.registry.Validate(call.Name, call.Args)
	if err != nil {
		o.logger.Printf("[orchestrator] rejected %s call: %v", call.Name, err)
		return tool.Failed(call.Name, tool.ErrorInvalidArguments, err.Error()), false
	}
	spec, err := o.registry.Resolve(call.Name)
	if err != nil {
		return tool.Failed(call.Name, tool.ErrorInvalidArguments, err.Error()), false
	}

	key := cache.Key(call.Name, args.Args)
	if res, ok := o.cache.Get(key); ok {
		return res, true
	}

	if err := o.limiter.Acquire(ctx, spec.Source); err != nil {
		var limited *ratelimit.RateLimitedError
		if errors.As(err, &limited) {
			return tool.Failed(call.Name, tool.ErrorRateLimited,
				fmt.Sprintf("%s rate limit reached, retry after %s", limited.Source, limited.RetryAfter)), false
		}
		return tool.Failed(call.Name, tool.ErrorTimeout, "request ended while waiting for rate limit: "+err.Error()), false
	}

	// The invocation outlives a request timeout so a late success can still
	// fill the cache; the adapter enforces its own timeout.
	res := spec.Invoker.Invoke(context.WithoutCancel(ctx), args, o.settings.ToolTimeout)
	if res.Tool == "" {
		res.Tool = call.Name
	}
	if res.Success {
		o.cache.Put(key, res, o.settings.ttlFor(call.Name))
	}
	return res, false
}
