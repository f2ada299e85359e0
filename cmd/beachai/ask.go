package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"

	"github.com/Cyclone1070/beachai/internal/orchestrator"
	"github.com/Cyclone1070/beachai/internal/ui"
)

// AskCmd answers one question and exits.
// Usage: beachai ask [-s session] [--plain] question...
type AskCmd struct {
	Session string `short:"s" long:"session" description:"continue this session id"`
	Plain   bool   `long:"plain" description:"print the answer without markdown styling"`
	Width   int    `long:"width" default:"100" description:"wrap width for styled answers"`

	Args struct {
		Query []string `positional-arg-name:"question" required:"1"`
	} `positional-args:"yes"`
}

func (c *AskCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	var renderer ui.MarkdownRenderer = ui.PlainRenderer{}
	if !c.Plain {
		if renderer, err = ui.NewGlamourRenderer(c.Width); err != nil {
			return err
		}
	}
	return ask(ctx, a.orch, c.Session, strings.Join(c.Args.Query, " "), ui.NewPrinter(os.Stdout, os.Stderr, renderer))
}

// ask runs one query, streaming progress to the printer.
func ask(ctx context.Context, orch *orchestrator.Orchestrator, session, query string, p *ui.Printer) error {
	events := make(chan orchestrator.Event, 16)
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		p.Follow(events)
	}()

	answer, err := orch.AskWithEvents(ctx, session, query, events)
	close(events)
	<-followed

	if answer != nil {
		if perr := p.Answer(answer); perr != nil {
			return perr
		}
	}
	// The apology has been printed; the round-trip bound is not a failure
	// of the command.
	if errors.Is(err, orchestrator.ErrLoopExhausted) {
		return nil
	}
	return err
}
