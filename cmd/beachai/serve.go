package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cyclone1070/beachai/internal/server"
)

// ServeCmd starts the HTTP API.
// Usage: beachai serve --addr :8080
type ServeCmd struct {
	Addr string `short:"a" long:"addr" description:"listen address (overrides server.addr)"`
}

func (c *ServeCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		a.cfg.Server.Addr = c.Addr
	}

	go a.memory.RunSweeper(ctx, time.Minute)
	go a.cache.RunJanitor(ctx, time.Minute)

	srv := server.New(a.cfg.Server, a.orch, a.memory, a.registry.Declarations(),
		server.WithLogger(a.logger),
		server.WithRateBudgets(a.limiter),
	)
	return srv.Run(ctx)
}
